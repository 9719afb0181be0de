// Command mcp-server serves the gotensor tools over HTTP for agent
// frameworks. It is `gotensor serve` under its own name and takes the same
// flags.
//
// Usage:
//
//	go run ./cmd/mcp-server --addr :8080
//	go run ./cmd/mcp-server -c examples/server.yaml
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
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
	cmd.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
