package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestIsQuit(t *testing.T) {
	assert.True(t, isQuit(tea.KeyMsg{Type: tea.KeyCtrlC}))
	assert.True(t, isQuit(runeKey('q')))
	assert.False(t, isQuit(runeKey('a')))
}

func TestIsEnter(t *testing.T) {
	assert.True(t, isEnter(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.False(t, isEnter(tea.KeyMsg{Type: tea.KeySpace}))
}

func TestIsBack(t *testing.T) {
	assert.True(t, isBack(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.False(t, isBack(tea.KeyMsg{Type: tea.KeyEnter}))
}

func TestIsUpDown(t *testing.T) {
	assert.True(t, isUp(tea.KeyMsg{Type: tea.KeyUp}))
	assert.False(t, isUp(runeKey('k')))
	assert.True(t, isDown(tea.KeyMsg{Type: tea.KeyDown}))
	assert.False(t, isDown(runeKey('j')))
}

func TestIsSave(t *testing.T) {
	assert.True(t, isSave(tea.KeyMsg{Type: tea.KeyCtrlS}))
	assert.False(t, isSave(runeKey('s')))
}

func TestMoveKeys(t *testing.T) {
	assert.True(t, isMoveUp(runeKey('K')))
	assert.True(t, isMoveUp(tea.KeyMsg{Type: tea.KeyShiftUp}))
	assert.False(t, isMoveUp(runeKey('k')))
	assert.True(t, isMoveDown(runeKey('J')))
	assert.True(t, isMoveDown(tea.KeyMsg{Type: tea.KeyShiftDown}))
}

func TestIsKey(t *testing.T) {
	assert.True(t, isKey(runeKey('s'), "s"))
	assert.True(t, isKey(tea.KeyMsg{Type: tea.KeyBackspace}, "backspace"))
	assert.False(t, isKey(runeKey('s'), "a"))
	assert.False(t, isKey(tea.KeyMsg{Type: tea.KeyLeft}, "right"))
}

func TestNavKeysHonorVimSetting(t *testing.T) {
	assert.True(t, navUp(runeKey('k'), true))
	assert.False(t, navUp(runeKey('k'), false))
	assert.True(t, navDown(runeKey('j'), true))
	assert.False(t, navDown(runeKey('j'), false))
	assert.True(t, navDown(tea.KeyMsg{Type: tea.KeyDown}, false))
}
