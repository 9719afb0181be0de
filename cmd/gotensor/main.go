// Command gotensor computes connections, curvature and covariant
// derivatives of symbolic metrics.
//
// Usage:
//
//	gotensor christoffel -m examples/metrics/polar.yaml
//	gotensor --format json scalar -m examples/metrics/schwarzschild.yaml
//	gotensor covd -m examples/metrics/polar.yaml -t examples/tensors/vector.yaml -i mu
//	gotensor serve -c examples/server.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/physicsuniverse/Covariant-Derivative/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// commands report their own failures; flag errors are not ExitErrors
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
