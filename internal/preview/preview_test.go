package preview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTMLSanitizes(t *testing.T) {
	out, err := HTML("# Release\n\nHello **team** <script>alert(1)</script> [x](javascript:alert(1))")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Release</h1>")
	require.Contains(t, out, "<strong>team</strong>")
	require.NotContains(t, out, "<script>")
	require.NotContains(t, out, "javascript:")
}

func TestTextFlattens(t *testing.T) {
	src := "# Launch\n\nWe ship *today* & tomorrow.\n\n- one\n- two"
	require.Equal(t, "Launch We ship today & tomorrow. one two", Text(src, 0))
	require.Equal(t, "Launch We…", Text(src, 10))
	require.Empty(t, Text("   ", 10))
}

func TestLinesWrapsParagraphs(t *testing.T) {
	lines := Lines("first paragraph here\n\nsecond", 10)
	require.Equal(t, []string{"first", "paragraph", "here", "", "second"}, lines)
}
