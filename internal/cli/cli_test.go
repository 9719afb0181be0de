package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
	"github.com/physicsuniverse/Covariant-Derivative/mcp"
	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
)

func testdata(name string) string { return filepath.Join("testdata", name) }

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

type arrayResponse struct {
	Status string      `json:"status"`
	Data   ArrayResult `json:"data"`
	Error  *CLIError   `json:"error"`
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gotensor", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"christoffel", "riemann", "riemann-lower", "ricci", "einstein", "weyl", "scalar", "covd", "serve", "schema"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))
}

func TestCovdCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	covd, _, err := cmd.Find([]string{"covd"})
	require.NoError(t, err)

	for name, short := range map[string]string{"metric": "m", "tensor": "t", "index": "i"} {
		f := covd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand)
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NotNil(t, serve.Flags().Lookup("config"))
	require.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "scalar", "-m", testdata("sphere.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidLogFlags(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "scalar", "-m", testdata("sphere.yaml"))
	require.Error(t, err)

	_, err = execute(t, "--log-format", "xml", "scalar", "-m", testdata("sphere.yaml"))
	require.Error(t, err)
}

func TestLogJSON(t *testing.T) {
	assert.True(t, (&RootOptions{}).logJSON("json"))
	assert.False(t, (&RootOptions{LogFormat: "text"}).logJSON("json"))
	assert.True(t, (&RootOptions{LogFormat: "json"}).logJSON("text"))
}

func TestChristoffelText(t *testing.T) {
	out, err := execute(t, "christoffel", "-m", testdata("polar.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Gamma[r,θ,θ] = ")
	assert.Contains(t, out, "Gamma[θ,r,θ] = ")
	assert.NotContains(t, out, "Gamma[r,r,r]")
}

func TestChristoffelJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "christoffel", "-m", testdata("polar.yaml"))
	require.NoError(t, err)

	var resp arrayResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []int{2, 2, 2}, resp.Data.Shape)
	assert.Equal(t, []string{"r", "θ"}, resp.Data.Coords)
	require.Len(t, resp.Data.Components, 3)
	assert.Equal(t, []int{0, 1, 1}, resp.Data.Components[0].Index)
	assert.True(t, symbolic.Equivalent(symbolic.MustParse(resp.Data.Components[0].Value), symbolic.MustParse("-r")))
}

func TestFlatRiemannVanishes(t *testing.T) {
	out, err := execute(t, "riemann", "-m", testdata("polar.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "R: all components vanish")
}

func TestScalar(t *testing.T) {
	out, err := execute(t, "scalar", "-m", testdata("sphere.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "R = 2\n", out)

	out, err = execute(t, "--format", "json", "scalar", "-m", testdata("sphere.yaml"))
	require.NoError(t, err)
	var resp struct {
		Status string       `json:"status"`
		Data   ScalarResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "2", resp.Data.Value)
}

func TestWeylTwoDimensions(t *testing.T) {
	out, err := execute(t, "--format", "json", "weyl", "-m", testdata("sphere.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp arrayResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeUnsupportedDimension, resp.Error.Code)
}

func TestSingularMetric(t *testing.T) {
	out, err := execute(t, "christoffel", "-m", testdata("singular.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [singular_metric]")
}

func TestMissingMetricFile(t *testing.T) {
	out, err := execute(t, "ricci", "-m", testdata("nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, out, "Error [bad_request]")
}

func TestMissingRequiredFlag(t *testing.T) {
	_, err := execute(t, "ricci")
	require.Error(t, err)
}

func TestCovdDivergence(t *testing.T) {
	out, err := execute(t, "--format", "json", "covd", "-m", testdata("polar.yaml"), "-t", testdata("divergence.yaml"), "-i", "mu")
	require.NoError(t, err)

	var resp arrayResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Data.Shape)
	assert.Empty(t, resp.Data.Signature)
	require.Len(t, resp.Data.Components, 1)
	assert.True(t, symbolic.Equivalent(symbolic.MustParse(resp.Data.Components[0].Value), symbolic.MustParse("3*r + cos(θ)")))
}

func TestCovdVectorText(t *testing.T) {
	out, err := execute(t, "covd", "-m", testdata("polar.yaml"), "-t", testdata("vector.yaml"), "-i", "_b")
	require.NoError(t, err)
	assert.Contains(t, out, "signature: _b^a")
	assert.Contains(t, out, "T[r,r] = 1")
	assert.Contains(t, out, "T[θ,θ] = 1")
}

func TestCovdBadIndex(t *testing.T) {
	out, err := execute(t, "covd", "-m", testdata("polar.yaml"), "-t", testdata("vector.yaml"), "-i", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid_index_label")
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "covariant_derivative")

	out, err = execute(t, "--format", "json", "schema")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestServerLogger(t *testing.T) {
	cfg, err := config.LoadServer(testdata("server.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Addr)

	logger, err := serverLogger(&RootOptions{}, cfg.Log)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = serverLogger(&RootOptions{LogLevel: "loud"}, cfg.Log)
	require.Error(t, err)
}
