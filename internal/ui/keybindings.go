package ui

import tea "github.com/charmbracelet/bubbletea"

// --- Key Constants ---

func isKey(msg tea.KeyMsg, keys ...string) bool {
	for _, k := range keys {
		if msg.String() == k {
			return true
		}
	}
	return false
}

func isQuit(msg tea.KeyMsg) bool {
	return isKey(msg, "q", "ctrl+c")
}

func isBack(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyEsc {
		return true
	}
	return isKey(msg, "esc", "escape", "ctrl+[")
}

func isUp(msg tea.KeyMsg) bool {
	return isKey(msg, "up")
}

func isDown(msg tea.KeyMsg) bool {
	return isKey(msg, "down")
}

// navUp and navDown add j/k when vim keys are enabled in config.
func navUp(msg tea.KeyMsg, vim bool) bool {
	return isUp(msg) || (vim && isKey(msg, "k"))
}

func navDown(msg tea.KeyMsg, vim bool) bool {
	return isDown(msg) || (vim && isKey(msg, "j"))
}

func isEnter(msg tea.KeyMsg) bool {
	return isKey(msg, "enter", "return")
}

func isSave(msg tea.KeyMsg) bool {
	return isKey(msg, "ctrl+s")
}

func isHelp(msg tea.KeyMsg) bool {
	return isKey(msg, "?")
}

// isMoveUp and isMoveDown reorder the selected row.
func isMoveUp(msg tea.KeyMsg) bool {
	return isKey(msg, "K", "shift+up")
}

func isMoveDown(msg tea.KeyMsg) bool {
	return isKey(msg, "J", "shift+down")
}
