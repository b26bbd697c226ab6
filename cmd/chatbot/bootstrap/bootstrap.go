// Package bootstrap builds the pieces shared by the chatbot sub-commands from
// the loaded configuration.
package bootstrap

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/config"
	"github.com/KAVYAPALLERLA/chatbot/pkg/gateway"
	"github.com/KAVYAPALLERLA/chatbot/pkg/llm/groq"
	"github.com/KAVYAPALLERLA/chatbot/pkg/logger"
)

// LoadConfig loads the config file at path and applies the --debug flag.
func LoadConfig(path string, debug bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if debug {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// NewLogger creates the process logger writing to w.
func NewLogger(cfg config.Config, w io.Writer) *zap.Logger {
	return logger.NewLogger(logger.Config{
		Debug:  cfg.Log.Debug,
		Format: cfg.Log.Format,
		Output: w,
	})
}

// NewGateway creates the completion gateway backed by the Groq provider.
// It fails when the API key is missing from the environment.
func NewGateway(cfg config.Config, log *zap.Logger) (*gateway.Gateway, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	provider, err := groq.NewClient(groq.Config{
		APIKey:  apiKey,
		BaseURL: cfg.Provider.BaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("could not create provider client: %w", err)
	}

	var opts []gateway.Option
	if cfg.Chat.PersistSystemInstruction {
		opts = append(opts, gateway.WithPersistedSystemInstruction())
	}

	return gateway.New(provider, log, opts...), nil
}
