package cli

import (
	"github.com/spf13/cobra"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
)

// NewCovariantCommand creates the covd command.
func NewCovariantCommand(rootOpts *RootOptions) *cobra.Command {
	var metricPath, tensorPath, index string

	cmd := &cobra.Command{
		Use:   "covd",
		Short: "Covariant derivative of a tensor",
		Long: `Apply the covariant derivative along --index to the tensor in --tensor.

The index is a label with an optional variance prefix: "mu" or "_mu" is a
lower derivative index, "-mu" or "^mu" a raised one. A label shared with
the tensor is contracted. Tensor slots are written "^a" (upper) or "_a"
(lower).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			engine := geometry.NewEngine(geometry.WithLogger(rootOpts.logger(cmd.ErrOrStderr())))

			d, err := geometry.ParseDerivativeIndex(index)
			if err != nil {
				return fail(f, ExitCommandError, "parse index", err)
			}
			m, err := loadMetric(f, metricPath)
			if err != nil {
				return err
			}
			tf, err := config.LoadTensor(tensorPath)
			if err != nil {
				return fail(f, ExitCommandError, "load tensor", err)
			}
			t, err := tf.Build(m.Dim())
			if err != nil {
				return fail(f, ExitCommandError, "build tensor", err)
			}
			f.VerboseLog("∇%s of T%s", d, t.Signature)

			out, err := engine.CovariantDerivative(m, d, t)
			if err != nil {
				return fail(f, ExitFailure, "covd", err)
			}
			res := newArrayResult("T", m, out.Array)
			res.Signature = make([]string, len(out.Signature))
			for i, idx := range out.Signature {
				res.Signature[i] = idx.String()
			}
			return f.Success(res)
		},
	}

	cmd.Flags().StringVarP(&metricPath, "metric", "m", "", "metric YAML file")
	cmd.Flags().StringVarP(&tensorPath, "tensor", "t", "", "tensor YAML file")
	cmd.Flags().StringVarP(&index, "index", "i", "", `derivative index ("mu", "_mu", "-mu" or "^mu")`)
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("tensor")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}
