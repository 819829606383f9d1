package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSummaryHTML(t *testing.T) {
	require.Equal(t, "<p>plain text</p>", renderSummaryHTML("plain text"))
	require.Equal(t, "<p>a <strong>bold</strong> claim</p>", renderSummaryHTML("a **bold** claim"))

	html := renderSummaryHTML("- tcp\n- tls")
	require.Contains(t, html, "<ul>")
	require.Contains(t, html, "<li>tcp</li>")

	// GFM strikethrough is enabled
	require.Contains(t, renderSummaryHTML("~~old~~ new"), "<del>old</del>")

	require.Equal(t, "", renderSummaryHTML(""))
	require.Equal(t, "", renderSummaryHTML("   \n "))
}
