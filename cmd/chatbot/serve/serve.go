package servecmder

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/cmd/chatbot/bootstrap"
	"github.com/KAVYAPALLERLA/chatbot/server"
)

const serveLongDesc string = `Serve the browser chat interface.

Each browser session keeps its conversation in memory until it is
cleared or the session expires. The provider API key is read from
the environment variable named by provider.api_key_env
(GROQ_API_KEY by default).

Examples:
  chatbot serve
  chatbot serve --listen 127.0.0.1:9000
  chatbot serve --config ~/.config/chatbot/chatbot.toml --debug`

const serveShortDesc string = "Serve the browser chat interface"

type serveCommander struct {
	configPath string
	listen     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides server.listen)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.LoadConfig(c.configPath, c.debug)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	logger := bootstrap.NewLogger(cfg, cmd.OutOrStdout())
	defer logger.Sync()

	gw, err := bootstrap.NewGateway(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.Listen,
		SessionTTL: cfg.Server.SessionTTL.Duration,
	}, gw, logger)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cfg.Server.Listen, err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down chat server")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	return srv.RunWithListener(ln)
}
