package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
	"github.com/physicsuniverse/Covariant-Derivative/internal/logging"
	"github.com/physicsuniverse/Covariant-Derivative/internal/server"
	"github.com/physicsuniverse/Covariant-Derivative/mcp"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the tool API over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			cfg, err := config.LoadServer(configPath)
			if err != nil {
				return fail(f, ExitCommandError, "load config", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger, err := serverLogger(rootOpts, cfg.Log)
			if err != nil {
				return fail(f, ExitCommandError, "configure logging", err)
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.New(cfg, logger).Run(ctx); err != nil {
				return fail(f, ExitFailure, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "server YAML config (defaults apply when omitted)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	return cmd
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "schema",
		Short:         "Print the tool schema for agent registration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			if rootOpts.Format == "json" {
				return f.Success(mcp.Tools())
			}
			return f.Success(mcp.MCPToolSpec())
		},
	}
}

func serverLogger(opts *RootOptions, cfg config.Log) (*slog.Logger, error) {
	name := cfg.Level
	if opts.LogLevel != "" {
		name = opts.LogLevel
	}
	level := logging.LevelInfo
	if name != "" {
		l, err := logging.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		level = l
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		JSON:    opts.logJSON(cfg.Format),
		Service: "gotensor",
	}), nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
