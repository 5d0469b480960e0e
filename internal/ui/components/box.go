package components

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

const (
	framePercent  = 70
	frameMinWidth = 40
	frameMaxWidth = 80

	// rounded border (2) plus horizontal padding (4)
	frameChrome = 6

	tableLabelMax = 24
)

// frame is one bordered panel look. Every box in the editor is drawn by a frame.
type frame struct {
	edge  lipgloss.Color
	title lipgloss.Style
	body  lipgloss.Style
}

var (
	plainFrame = frame{
		edge:  lipgloss.Color("#3a3328"),
		title: lipgloss.NewStyle().Foreground(lipgloss.Color("#c9803a")).Bold(true),
		body:  lipgloss.NewStyle(),
	}
	errorFrame = frame{
		edge:  lipgloss.Color("#7a2f3a"),
		title: lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75")).Bold(true),
		body:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d6b5b5")),
	}

	tableLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#436b77")).Bold(true)
	tableValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d7d9da"))
	diffLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9c4ff")).Bold(true)
	diffFromStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4d6d"))
	diffToStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffbf3f"))
)

// frameWidth is the outer width of a panel on a terminal of the given width.
// It never exceeds the terminal.
func frameWidth(term int) int {
	if term <= 0 {
		return 0
	}
	w := min(max(term*framePercent/100, frameMinWidth), frameMaxWidth)
	return min(w, term)
}

func (f frame) render(title, content string, term int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.edge).
		Padding(1, 2)
	if w := frameWidth(term); w > 2 {
		// lipgloss draws the border outside Width
		style = style.Width(w - 2)
	}
	boxed := style.Render(f.body.Render(content))
	if title == "" {
		return boxed
	}
	lines := strings.Split(boxed, "\n")
	if top, ok := f.topEdge(title, lipgloss.Width(lines[0])); ok {
		lines[0] = top
	}
	return strings.Join(lines, "\n")
}

// topEdge draws the upper border with the title set one cell in from the left corner.
func (f frame) topEdge(title string, width int) (string, bool) {
	inner := width - 2
	if inner < 4 {
		return "", false
	}
	b := lipgloss.RoundedBorder()
	label := truncateRunes(" "+SanitizeOneLine(title)+" ", inner-1)
	fill := max(inner-1-lipgloss.Width(label), 0)

	rule := lipgloss.NewStyle().Foreground(f.edge)
	return rule.Render(b.TopLeft+b.Top) +
		f.title.Render(label) +
		rule.Render(strings.Repeat(b.Top, fill)+b.TopRight), true
}

// Box renders content inside a plain panel.
func Box(content string, width int) string {
	return plainFrame.render("", content, width)
}

// TitledBox renders a plain panel with its title on the top border.
func TitledBox(title, content string, width int) string {
	return plainFrame.render(title, content, width)
}

// ErrorBox renders a red panel for a failure message.
func ErrorBox(title, message string, width int) string {
	return errorFrame.render(title, SanitizeText(message), width)
}

// BoxContentWidth is the room left for text inside a panel.
func BoxContentWidth(width int) int {
	return max(frameWidth(width)-frameChrome, 0)
}

// ClampTextWidth flattens text to one line and cuts it to width cells.
func ClampTextWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	cleaned := SanitizeOneLine(text)
	if lipgloss.Width(cleaned) <= width {
		return cleaned
	}
	return truncateRunes(cleaned, width)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// TableRow is one label/value pair of a Table.
type TableRow struct {
	Label string
	Value string
}

// Table renders aligned label/value rows in a panel. Labels take at most half
// the content width.
func Table(title string, rows []TableRow, width int) string {
	if len(rows) == 0 {
		return ""
	}
	clean := make([]TableRow, len(rows))
	labelW := 0
	for i, r := range rows {
		clean[i] = TableRow{Label: SanitizeOneLine(r.Label), Value: SanitizeOneLine(r.Value)}
		labelW = max(labelW, lipgloss.Width(clean[i].Label))
	}

	inner := BoxContentWidth(width)
	if inner == 0 {
		inner = labelW + 8
	}
	labelW = min(labelW, tableLabelMax, max(inner/2, 4))
	valueW := max(inner-labelW-2, 4)

	lines := make([]string, len(clean))
	for i, r := range clean {
		label := ClampTextWidth(r.Label, labelW)
		label += strings.Repeat(" ", labelW-lipgloss.Width(label))
		lines[i] = tableLabelStyle.Render(label) + "  " + tableValueStyle.Render(ClampTextWidth(r.Value, valueW))
	}
	return plainFrame.render(title, strings.Join(lines, "\n"), width)
}

// Indent shifts every line right by spaces columns.
func Indent(s string, spaces int) string {
	pad := strings.Repeat(" ", spaces)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}

// DiffRow is one field change shown before a save.
type DiffRow struct {
	Label string
	From  string
	To    string
}

// DiffTable lists field changes as "- old" and "+ new" pairs.
func DiffTable(title string, rows []DiffRow, width int) string {
	if len(rows) == 0 {
		return ""
	}
	blocks := make([]string, len(rows))
	for i, r := range rows {
		blocks[i] = strings.Join([]string{
			diffLabelStyle.Render(SanitizeOneLine(r.Label)),
			diffSide(diffFromStyle, "  - ", r.From),
			diffSide(diffToStyle, "  + ", r.To),
		}, "\n")
	}
	return plainFrame.render(title, strings.Join(blocks, "\n\n"), width)
}

// diffSide renders a possibly multi-line value with continuation lines aligned
// under the first.
func diffSide(style lipgloss.Style, marker, value string) string {
	value = SanitizeText(value)
	if value == "" {
		value = "-"
	}
	lines := strings.Split(value, "\n")
	gap := strings.Repeat(" ", len(marker))
	for i, line := range lines {
		lead := gap
		if i == 0 {
			lead = marker
		}
		lines[i] = style.Render(lead + line)
	}
	return strings.Join(lines, "\n")
}
