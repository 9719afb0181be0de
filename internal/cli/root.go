// Package cli implements the gotensor command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/physicsuniverse/Covariant-Derivative/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogLevel  string
	LogFormat string // "json" | "text"; defaults to Format
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gotensor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gotensor",
		Short: "gotensor - symbolic differential geometry",
		Long: `Compute the Levi-Civita connection, curvature tensors and covariant
derivatives of symbolic metrics, or serve the same tools over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.LogFormat != "" && !isValidFormat(opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats)
			}
			if opts.LogLevel != "" {
				if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (json|text), defaults to --format")

	for _, c := range curvatureCommands {
		cmd.AddCommand(NewCurvatureCommand(opts, c))
	}
	cmd.AddCommand(NewScalarCommand(opts))
	cmd.AddCommand(NewCovariantCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger returns the diagnostic logger for one-shot commands. Stage
// timings are logged at debug level, so --verbose turns them on.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := logging.LevelWarn
	if o.Verbose {
		level = logging.LevelDebug
	}
	if o.LogLevel != "" {
		if l, err := logging.ParseLevel(o.LogLevel); err == nil {
			level = l
		}
	}
	return logging.New(logging.Config{Level: level, Output: w, JSON: o.logJSON(o.Format)})
}

// logJSON reports whether logs are JSON, falling back to fallback when
// --log-format is unset.
func (o *RootOptions) logJSON(fallback string) bool {
	if o.LogFormat != "" {
		return o.LogFormat == "json"
	}
	return fallback == "json"
}
