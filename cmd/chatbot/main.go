package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	chatcmder "github.com/KAVYAPALLERLA/chatbot/cmd/chatbot/chat"
	servecmder "github.com/KAVYAPALLERLA/chatbot/cmd/chatbot/serve"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatbot",
		Short: "A minimal chat interface for hosted language models",
		Long: `chatbot forwards your messages to a hosted language model and keeps
the conversation for the length of a session.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
