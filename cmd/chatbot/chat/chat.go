package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/KAVYAPALLERLA/chatbot/cmd/chatbot/bootstrap"
	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
	"github.com/KAVYAPALLERLA/chatbot/pkg/gateway"
)

const chatLongDesc string = `Chat with the assistant from the terminal.

With arguments, the arguments are sent as a single message and the
reply is printed. Without arguments, every line read from stdin is
sent as a message and the conversation is kept between lines.

Commands:
  /clear   discard the conversation and start over
  /exit    quit

Examples:
  chatbot chat "What is a goroutine?"
  chatbot chat --config ./chatbot.toml`

const chatShortDesc string = "Chat from the terminal"

const defaultWrapWidth = 80

// maxLineSize bounds a single pasted message.
const maxLineSize = 1024 * 1024

type chatCommander struct {
	configPath string
	debug      bool
	plain      bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.LoadConfig(c.configPath, c.debug)
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
	defer logger.Sync()

	gw, err := bootstrap.NewGateway(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render, err := newRenderer(out, c.plain)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		_, reply, err := gw.Complete(ctx, conversation.Conversation{}, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render(reply))
		return nil
	}

	return c.loop(ctx, gw, cmd.InOrStdin(), out, render)
}

// loop runs one turn per input line until EOF or /exit.
func (c *chatCommander) loop(ctx context.Context, gw *gateway.Gateway, in io.Reader, out io.Writer, render func(string) string) error {
	var conv conversation.Conversation

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/exit":
			return nil
		case "/clear":
			conv = conv.Clear()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		next, reply, err := gw.Complete(ctx, conv, line)
		if err != nil {
			var failed gateway.ErrProviderCallFailed
			if errors.As(err, &failed) {
				fmt.Fprintf(out, "Error: %s\n", failed.Reason)
				continue
			}
			return err
		}

		conv = next
		fmt.Fprintln(out, render(reply))
	}
}

// newRenderer returns a markdown renderer for terminals and an identity
// function for pipes, files and --plain.
func newRenderer(w io.Writer, plain bool) (func(string) string, error) {
	identity := func(s string) string { return s }

	f, ok := w.(*os.File)
	if plain || !ok || !term.IsTerminal(int(f.Fd())) {
		return identity, nil
	}

	width := defaultWrapWidth
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 && cols < width {
		width = cols
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create markdown renderer: %w", err)
	}

	return func(s string) string {
		rendered, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(rendered, "\n")
	}, nil
}
