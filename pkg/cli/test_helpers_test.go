package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv isolates HOME and the environment variables the CLI reads, and
// returns a temp control store path.
func testEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONTROL_DB_PATH", "")
	t.Setenv("USERCONTROL_OUTPUT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_FORMAT", "")
	return filepath.Join(t.TempDir(), "control.sqlite")
}

// runCLI executes a fresh root command with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRunCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, stdin, args...)
	require.NoError(t, err)
	return out
}
