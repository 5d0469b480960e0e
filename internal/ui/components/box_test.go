package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWidth(t *testing.T) {
	tests := []struct {
		term int
		want int
	}{
		{0, 0},
		{20, 20},
		{50, 40},
		{100, 70},
		{200, 80},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, frameWidth(tt.term), "term %d", tt.term)
	}
	assert.Equal(t, 64, BoxContentWidth(100))
	assert.Zero(t, BoxContentWidth(0))
}

func TestBoxFillsFrameWidth(t *testing.T) {
	for _, term := range []int{20, 100, 200} {
		for _, line := range strings.Split(Box("body", term), "\n") {
			assert.Equal(t, frameWidth(term), lipgloss.Width(line), "term %d", term)
		}
	}
}

func TestTitledBoxPutsTitleOnTopBorder(t *testing.T) {
	out := TitledBox("Outline", "Foundations", 80)
	lines := strings.Split(SanitizeText(out), "\n")
	require.Greater(t, len(lines), 2)

	assert.True(t, strings.HasPrefix(lines[0], "╭─ Outline ─"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "╮"))
	assert.Equal(t, lipgloss.Width(lines[1]), lipgloss.Width(lines[0]))
	assert.Contains(t, out, "Foundations")
}

func TestTitledBoxCutsLongTitle(t *testing.T) {
	out := TitledBox(strings.Repeat("Distributed ", 10), "x", 20)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 20)
	}
}

func TestTitledBoxEmptyTitleIsPlainBox(t *testing.T) {
	assert.Equal(t, Box("Content", 80), TitledBox("", "Content", 80))
}

func TestErrorBoxSanitizesMessage(t *testing.T) {
	out := ErrorBox("Error", "commit failed at items\x1b]0;pwned\x07", 80)
	assert.NotContains(t, out, "\x1b]")
	clean := SanitizeText(out)
	assert.Contains(t, clean, "Error")
	assert.Contains(t, clean, "commit failed at items")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("lesson", 0))
	assert.Equal(t, "le", truncateRunes("lesson", 2))
	assert.Equal(t, "lesson", truncateRunes("lesson", 10))
	assert.Equal(t, "讲", truncateRunes("讲义", 1))
}

func TestClampTextWidthFlattens(t *testing.T) {
	assert.Equal(t, "Intro to", ClampTextWidth("Intro\nto Distributed Systems", 8))
	assert.Equal(t, "a\nb", ClampTextWidth("a\nb", 0))
}

func TestTableAlignsAndClampsRows(t *testing.T) {
	rows := []TableRow{
		{Label: "Feature image", Value: "cover.png (queued)"},
		{Label: strings.Repeat("Label", 8), Value: strings.Repeat("value", 40)},
	}
	out := Table("", rows, 100)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), frameWidth(100))
	}
	// labels pad to the 24-cell cap, then a two-space gutter
	assert.Contains(t, SanitizeText(out), "Feature image"+strings.Repeat(" ", 13)+"cover.png (queued)")
	assert.Empty(t, Table("Summary", nil, 100))
}

func TestIndentPrefixesEveryLine(t *testing.T) {
	assert.Equal(t, "  a\n  b\n  c", Indent("a\nb\nc", 2))
}

func TestDiffTableRendersMultilineValuesAndSanitizes(t *testing.T) {
	out := DiffTable("Changes", []DiffRow{
		{
			Label: "Title\u202E\x1b]0;bad\x07",
			From:  "Intro\n\x1b[2JDistributed",
			To:    "",
		},
	}, 60)

	assert.NotContains(t, out, "\x1b]")
	assert.NotContains(t, out, "\u202E")
	assert.NotContains(t, out, "\x1b[2J")

	clean := SanitizeText(out)
	assert.Contains(t, clean, "Changes")
	assert.Contains(t, clean, "  - Intro")
	assert.Contains(t, clean, "    Distributed")
	assert.Contains(t, clean, "  + -")
	assert.Empty(t, DiffTable("Changes", nil, 60))
}
