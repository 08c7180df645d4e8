package cli

import (
	"strings"
	"testing"

	"github.com/fmueller/jabcount/internal/config"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "unknown command", args: []string{"badcmd"}, errContains: "unknown command"},
		{name: "unknown root flag", args: []string{"--badflag"}, errContains: "unknown flag"},
		{name: "unknown subcommand flag", args: []string{"scan", "--bogus", "text"}, errContains: "unknown flag"},
		{name: "scan missing arg", args: []string{"scan"}, errContains: "requires at least 1 arg(s)"},
		{name: "file missing arg", args: []string{"file"}, errContains: "accepts 1 arg(s)"},
		{name: "feed too many args", args: []string{"feed", "a.txt", "b.txt"}, errContains: "accepts at most 1 arg(s)"},
		{name: "file nonexistent", args: []string{"file", "/no/such/file.wav"}, errContains: "audio file not found"},
		{name: "feed nonexistent", args: []string{"feed", "--quiet", "/no/such/transcripts.txt"}, errContains: "open transcript file"},
		{name: "missing config file", args: []string{"scan", "--config", "/no/such/jabcount.yaml", "x"}, errContains: "jabcount.yaml"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCommand(t, tt.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestInvalidSettingsAreRejected(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"scan", "--threshold", "1.5", "jabroni"},
		{"scan", "--cooldown", "-1s", "jabroni"},
		{"scan", "--chunk", "0s", "jabroni"},
		{"scan", "--backend", "sox", "jabroni"},
		{"scan", "--threshold", "NaN", "jabroni"},
		{"feed", "--html", "", "--data", "", "/dev/null"},
	}

	for _, args := range tests {
		_, _, err := runCommand(t, args)
		require.ErrorIs(t, err, config.ErrInvalid, strings.Join(args, " "))
	}
}

func TestCommandsWithoutSinksIgnoreEmptySinkPaths(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"scan", "--quiet", "--html", "", "--data", "", "jabroni"})
	require.NoError(t, err)
	require.Contains(t, stdout, "1 match(es)")
}

func TestSetupRejectsNonexistentCustomModelPath(t *testing.T) {
	t.Parallel()

	_, _, err := runCommand(t, []string{"setup", "--model", "/no/such/path/model.bin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "custom model path does not exist")
}

func TestVersionOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"--version"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "jabcount v"), "expected version prefix, got: %s", stdout)

	stdout, _, err = runCommand(t, []string{"version"})
	require.NoError(t, err)
	require.Contains(t, stdout, "jabcount v")
	require.Contains(t, stdout, "go:")
}
