package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineHints() []string {
	return []string{
		Hint("t/l/z", "Add"),
		Hint("r", "Rename"),
		Hint("d", "Delete"),
		Hint("K/J", "Move"),
		Hint("ctrl+s", "Save"),
		Hint("P", "Publish"),
		Hint("esc", "Courses"),
		Hint("?", "Help"),
	}
}

func TestHintPutsDescBeforeKeyCap(t *testing.T) {
	assert.Equal(t, "Save  ctrl+s ", SanitizeText(Hint("ctrl+s", "Save")))
}

func TestWrapSegmentsSplitsOutlineHints(t *testing.T) {
	hints := outlineHints()
	segments := make([]string, len(hints))
	for i, h := range hints {
		segments[i] = segmentStyle.Render(h)
	}

	rows := wrapSegments(segments, 60)
	require.Greater(t, len(rows), 1)
	for _, row := range rows {
		assert.LessOrEqual(t, lipgloss.Width(row), 60)
	}
	assert.Contains(t, SanitizeText(rows[0]), "Add")
	assert.Contains(t, SanitizeText(rows[len(rows)-1]), "Help")

	all := SanitizeText(strings.Join(rows, "\n"))
	for _, desc := range []string{"Add", "Rename", "Delete", "Move", "Save", "Publish", "Courses", "Help"} {
		assert.Contains(t, all, desc)
	}
}

func TestWrapSegmentsKeepsOneRowWhenWide(t *testing.T) {
	rows := wrapSegments([]string{Hint("y", "Restore"), Hint("n", "Drop")}, 200)
	assert.Len(t, rows, 1)
}

func TestStatusBarWithoutWidthIsOneBlock(t *testing.T) {
	out := SanitizeText(StatusBar(outlineHints(), 0))
	assert.Len(t, strings.Split(out, "\n"), 3)
	assert.Contains(t, out, "Publish  P")
}
