package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bannerArt = `
 █████       ██████████   █████████  ███████████ ██████████ ███████████   ██████   █████
░░███       ░░███░░░░░█  ███░░░░░███░█░░░███░░░█░░███░░░░░█░░███░░░░░███ ░░██████ ░░███
 ░███        ░███  █ ░  ███     ░░░ ░   ░███  ░  ░███  █ ░  ░███    ░███  ░███░███ ░███
 ░███        ░██████   ░███             ░███     ░██████    ░██████████   ░███░░███░███
 ░███        ░███░░█   ░███             ░███     ░███░░█    ░███░░░░░███  ░███ ░░██████
 ░███      █ ░███ ░   █░░███     ███    ░███     ░███ ░   █ ░███    ░███  ░███  ░░█████
 ███████████ ██████████ ░░█████████     █████    ██████████ █████   █████ █████  ░░█████
░░░░░░░░░░░ ░░░░░░░░░░   ░░░░░░░░░     ░░░░░    ░░░░░░░░░░ ░░░░░   ░░░░░ ░░░░░    ░░░░░`

const bannerSubtitle = "Course Authoring • Draft Editor"

// RenderBanner returns the styled ASCII banner.
func RenderBanner() string {
	lines := splitLines(bannerArt)
	rendered := ""

	baseStyle := lipgloss.NewStyle().Foreground(ColorPrimary)

	maxWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		rendered += baseStyle.Render(line) + "\n"
	}

	subtitleWidth := lipgloss.Width(bannerSubtitle)
	blockWidth := maxWidth
	if blockWidth < subtitleWidth {
		blockWidth = subtitleWidth
	}

	subtitle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(bannerSubtitle)

	underline := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(strings.Repeat("─", subtitleWidth))

	return "\n" + rendered + "\n" + subtitle + "\n" + underline + "\n"
}

// compactBanner is used when the terminal is too narrow for the art.
func compactBanner() string {
	return "\n" + SelectedStyle.Render("LECTERN") + "  " + MutedStyle.Render(bannerSubtitle) + "\n"
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
