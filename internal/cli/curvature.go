package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
	"github.com/physicsuniverse/Covariant-Derivative/mcp"
	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// curvatureCommand describes one metric -> array subcommand.
type curvatureCommand struct {
	Use     string
	Short   string
	Symbol  string
	Compute func(*geometry.Engine, geometry.Metric) (*tensor.Array, error)
}

var curvatureCommands = []curvatureCommand{
	{"christoffel", "Christoffel symbols Γ^a_{bc}", "Gamma", (*geometry.Engine).Christoffel},
	{"riemann", "Riemann tensor R^a_{bcd}", "R", (*geometry.Engine).Riemann},
	{"riemann-lower", "Fully covariant Riemann tensor R_{abcd}", "R", (*geometry.Engine).RiemannLower},
	{"ricci", "Ricci tensor R_{ab}", "Ric", (*geometry.Engine).Ricci},
	{"einstein", "Einstein tensor G_{ab}", "G", (*geometry.Engine).Einstein},
	{"weyl", "Weyl tensor C_{abcd} (dimension 3 or more)", "C", (*geometry.Engine).Weyl},
}

// ArrayResult is the output of every array-valued command.
type ArrayResult struct {
	Symbol     string          `json:"symbol"`
	Coords     []string        `json:"coords"`
	Shape      []int           `json:"shape"`
	Signature  []string        `json:"signature,omitempty"`
	Components []mcp.Component `json:"components"`
}

func newArrayResult(symbol string, m geometry.Metric, arr *tensor.Array) ArrayResult {
	return ArrayResult{
		Symbol:     symbol,
		Coords:     m.Coords(),
		Shape:      arr.Shape(),
		Components: mcp.Components(arr),
	}
}

// String lists the non-zero components, one per line, with coordinate
// names as indices.
func (r ArrayResult) String() string {
	var lines []string
	if len(r.Signature) > 0 {
		lines = append(lines, "signature: "+strings.Join(r.Signature, ""))
	}
	if len(r.Components) == 0 {
		lines = append(lines, r.Symbol+": all components vanish")
	}
	for _, c := range r.Components {
		if len(c.Index) == 0 {
			lines = append(lines, r.Symbol+" = "+c.Value)
			continue
		}
		names := make([]string, len(c.Index))
		for k, j := range c.Index {
			names[k] = r.Coords[j]
		}
		lines = append(lines, fmt.Sprintf("%s[%s] = %s", r.Symbol, strings.Join(names, ","), c.Value))
	}
	return strings.Join(lines, "\n")
}

// ScalarResult is the output of the scalar command.
type ScalarResult struct {
	Symbol string `json:"symbol"`
	Value  string `json:"value"`
	LaTeX  string `json:"latex"`
}

func (r ScalarResult) String() string { return r.Symbol + " = " + r.Value }

// NewCurvatureCommand creates one of the metric -> array commands.
func NewCurvatureCommand(rootOpts *RootOptions, c curvatureCommand) *cobra.Command {
	var metricPath string

	cmd := &cobra.Command{
		Use:           c.Use,
		Short:         c.Short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			engine := geometry.NewEngine(geometry.WithLogger(rootOpts.logger(cmd.ErrOrStderr())))
			m, err := loadMetric(f, metricPath)
			if err != nil {
				return err
			}
			arr, err := c.Compute(engine, m)
			if err != nil {
				return fail(f, ExitFailure, c.Use, err)
			}
			return f.Success(newArrayResult(c.Symbol, m, arr))
		},
	}

	cmd.Flags().StringVarP(&metricPath, "metric", "m", "", "metric YAML file")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}

// NewScalarCommand creates the scalar command.
func NewScalarCommand(rootOpts *RootOptions) *cobra.Command {
	var metricPath string

	cmd := &cobra.Command{
		Use:           "scalar",
		Short:         "Ricci scalar R",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			engine := geometry.NewEngine(geometry.WithLogger(rootOpts.logger(cmd.ErrOrStderr())))
			m, err := loadMetric(f, metricPath)
			if err != nil {
				return err
			}
			r, err := engine.RicciScalar(m)
			if err != nil {
				return fail(f, ExitFailure, "scalar", err)
			}
			return f.Success(ScalarResult{Symbol: "R", Value: symbolic.String(r), LaTeX: symbolic.LaTeX(r)})
		},
	}

	cmd.Flags().StringVarP(&metricPath, "metric", "m", "", "metric YAML file")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func loadMetric(f *OutputFormatter, path string) (geometry.Metric, error) {
	mf, err := config.LoadMetric(path)
	if err != nil {
		return geometry.Metric{}, fail(f, ExitCommandError, "load metric", err)
	}
	m, err := mf.Build()
	if err != nil {
		return geometry.Metric{}, fail(f, ExitCommandError, "build metric", err)
	}
	if mf.Name != "" {
		f.VerboseLog("metric %s over %v", mf.Name, m.Coords())
	} else {
		f.VerboseLog("metric over %v", m.Coords())
	}
	return m, nil
}

// fail reports err through f and returns it with an exit code.
func fail(f *OutputFormatter, code int, what string, err error) error {
	if outErr := f.Error(errorCode(err), err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(code, what, err)
}

func errorCode(err error) string {
	if errors.Is(err, config.ErrInvalidConfig) {
		return mcp.CodeBadRequest
	}
	return mcp.ErrorCode(err)
}
