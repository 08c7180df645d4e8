package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearMissesReportsKnownFragments(t *testing.T) {
	t.Parallel()

	misses := NewScanner().NearMisses("I saw a jeb on tv")
	require.Len(t, misses, 1)
	require.Equal(t, "jeb", misses[0].Token)
	require.Equal(t, "jeb", misses[0].Fragment)
	require.Greater(t, misses[0].Similarity, 0.0)
	require.LessOrEqual(t, misses[0].Similarity, 1.0)
}

func TestNearMissesIgnoresUnrelatedText(t *testing.T) {
	t.Parallel()

	s := NewScanner()
	require.Empty(t, s.NearMisses("hello world"))
	require.Empty(t, s.NearMisses(""))
}

func TestNearMissesSkipsShortTokens(t *testing.T) {
	t.Parallel()

	require.Empty(t, NewScanner().NearMisses("jb ro"))
}
