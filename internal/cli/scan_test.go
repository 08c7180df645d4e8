package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanPrintsMatchesPerText(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"scan", "--quiet", "you jabroni", "jeb roni", "hello world"})
	require.NoError(t, err)

	require.Contains(t, stdout, "\"you jabroni\": 1 match(es)")
	require.Contains(t, stdout, "direct")
	require.Contains(t, stdout, "\"jeb roni\": 1 match(es)")
	require.Contains(t, stdout, "pattern")
	require.Contains(t, stdout, "jeb ron ")
	require.Contains(t, stdout, "[0,7)")
	require.Contains(t, stdout, "\"hello world\": 0 match(es)")
}

func TestScanThresholdControlsFuzzyMatches(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, []string{"scan", "--quiet", "--threshold", "1", "chabrony"})
	require.NoError(t, err)
	require.Contains(t, stdout, "0 match(es)")
}
