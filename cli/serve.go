package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/monadicstack/welcome/internal/config"
	"github.com/monadicstack/welcome/internal/logging"
	"github.com/monadicstack/welcome/internal/server"
	"github.com/monadicstack/welcome/welcome"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ServeRequest contains the inputs from our "welcome serve" CLI command. Blank values fall back
// to the WELCOME_* environment variables (or .env) and then to the built-in defaults.
type ServeRequest struct {
	// Addr is the value of the --addr option (host:port to listen on).
	Addr string
	// Greeting is the value of the --greeting option; a format with exactly one %s.
	Greeting string
	// LogLevel is the value of the --log-level option.
	LogLevel string
	// LogFormat is the value of the --log-format option ("console" or "json").
	LogFormat string
	// EnvFile is the value of the --env-file option.
	EnvFile string
}

// Serve runs the WelcomeService until it receives SIGINT/SIGTERM.
type Serve struct {
	// Out receives the log output. Defaults to stderr.
	Out io.Writer
}

// Command creates the Cobra struct describing this CLI command and its options.
func (c Serve) Command() *cobra.Command {
	request := &ServeRequest{}
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Runs the WelcomeService, answering HTTP/JSON, Connect, gRPC and gRPC-Web on one port.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Exec(ctx, request)
		},
	}
	cmd.Flags().StringVar(&request.Addr, "addr", "", "Address to listen on (default $WELCOME_ADDR or :9090)")
	cmd.Flags().StringVar(&request.Greeting, "greeting", "", "Greeting format with one %s for the name (default $WELCOME_GREETING or \"Hello, %s!\")")
	cmd.Flags().StringVar(&request.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default $WELCOME_LOG_LEVEL or info)")
	cmd.Flags().StringVar(&request.LogFormat, "log-format", "", "Log format: console or json (default $WELCOME_LOG_FORMAT or console)")
	cmd.Flags().StringVar(&request.EnvFile, "env-file", ".env", "Optional dotenv file to read settings from")
	return cmd
}

// Exec resolves the final configuration and serves until the context is cancelled.
func (c Serve) Exec(ctx context.Context, request *ServeRequest) error {
	cfg, err := config.Load(request.EnvFile)
	if err != nil {
		return err
	}
	cfg.Addr = override(cfg.Addr, request.Addr)
	cfg.Greeting = override(cfg.Greeting, request.Greeting)
	cfg.LogLevel = override(cfg.LogLevel, request.LogLevel)
	cfg.LogFormat = override(cfg.LogFormat, request.LogFormat)
	if err = cfg.Validate(); err != nil {
		return err
	}

	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	logger, err := logging.New(out, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log.Logger = logger

	service := welcome.WelcomeServiceHandler{Greeting: cfg.Greeting}
	return server.New(service,
		server.WithAddr(cfg.Addr),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithLogger(logger),
	).Run(ctx)
}

func override(value string, flag string) string {
	if flag != "" {
		return flag
	}
	return value
}
