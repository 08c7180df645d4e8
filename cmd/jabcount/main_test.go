package main

import (
	"errors"
	"testing"

	"github.com/fmueller/jabcount/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestShouldPrintUsageHint(t *testing.T) {
	t.Parallel()

	require.True(t, shouldPrintUsageHint(errors.New("unknown command \"bad\" for \"jabcount\"")))
	require.True(t, shouldPrintUsageHint(errors.New("unknown flag: --oops")))
	require.True(t, shouldPrintUsageHint(errors.New("accepts 1 arg(s), received 0")))
	require.True(t, shouldPrintUsageHint(errors.New("invalid argument \"x\" for \"--cooldown\" flag")))
	require.False(t, shouldPrintUsageHint(errors.New("download model \"base\": context deadline exceeded")))
	require.False(t, shouldPrintUsageHint(nil))
}

func TestHelpHintTarget(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd()
	require.Equal(t, "jabcount", helpHintTarget(root, []string{"--badflag"}))
	require.Equal(t, "jabcount", helpHintTarget(root, []string{"badcmd"}))
	require.Equal(t, "jabcount scan", helpHintTarget(root, []string{"scan"}))
	require.Equal(t, "jabcount feed", helpHintTarget(root, []string{"feed", "--resume"}))
	require.Equal(t, "jabcount", helpHintTarget(nil, nil))
}
