package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
	"github.com/gravitrone/lectern/internal/logger"
	"github.com/gravitrone/lectern/internal/ui/components"
)

type editorView int

const (
	editorOutline editorView = iota
	editorItem
)

type committedMsg struct {
	mode draft.Mode
	res  draft.Result
	err  error
}

type outlineRow struct {
	topicID string
	itemID  string // empty on topic rows
	marked  bool   // new, or has queued uploads
}

type confirmKind int

const (
	confirmDeleteTopic confirmKind = iota
	confirmDeleteItem
	confirmDiscard
	confirmPublish
)

type confirmState struct {
	kind    confirmKind
	target  string
	summary []components.TableRow
	diffs   []components.DiffRow
}

// EditorModel edits one course through a draft session. Rendering reads only
// the cached snapshot so a commit running in the background never races the
// view.
type EditorModel struct {
	sess *draft.Session
	log  *logger.Logger
	vim  bool

	snapshot course.Course
	dirty    bool
	pending  int
	rows     []outlineRow
	list     *components.List
	view     editorView
	item     itemState

	prompt     *promptState
	confirm    *confirmState
	recovering bool
	recoverAt  time.Time
	saving     bool
	err        string
	notice     string

	width  int
	height int
}

// NewEditorModel wraps an open session.
func NewEditorModel(sess *draft.Session, log *logger.Logger, vim bool) EditorModel {
	if log == nil {
		log = logger.Nop()
	}
	m := EditorModel{
		sess: sess,
		log:  log,
		vim:  vim,
		list: components.NewList(14),
		item: newItemState(),
	}
	if at, ok := sess.Recoverable(); ok {
		m.recovering = true
		m.recoverAt = at
	}
	m.refresh()
	return m
}

// capturing reports whether keys belong to an open dialog.
func (m EditorModel) capturing() bool {
	return m.prompt != nil || m.confirm != nil || m.recovering
}

func (m EditorModel) Update(msg tea.Msg) (EditorModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.sess == nil || m.saving {
		return m, nil
	}
	m.err = ""
	m.notice = ""

	switch {
	case m.recovering:
		return m.handleRecoveryKeys(keyMsg), nil
	case m.prompt != nil:
		return m.handlePromptKeys(keyMsg), nil
	case m.confirm != nil:
		return m.handleConfirmKeys(keyMsg)
	}

	if isSave(keyMsg) {
		return m.startCommit(draft.ModeSaveDraft)
	}
	if isKey(keyMsg, "P") {
		m.openPublishConfirm()
		return m, nil
	}
	if m.view == editorItem {
		return m.handleItemKeys(keyMsg), nil
	}
	return m.handleOutlineKeys(keyMsg), nil
}

// --- Snapshot ---

// refresh re-reads the store. Call it only while no commit is running.
func (m *EditorModel) refresh() {
	store := m.sess.Store()
	m.snapshot = store.Course()
	m.dirty = m.sess.Dirty()
	m.pending = 0
	for _, t := range m.snapshot.Topics {
		for _, it := range t.Items {
			m.pending += pendingCount(store.Pending(it.ID))
		}
	}
	if _, ok := store.PendingCertificate(); ok {
		m.pending++
	}
	m.rebuildRows()
	if m.view == editorItem {
		if _, ok := m.currentItem(); !ok {
			m.view = editorOutline
			return
		}
		m.rebuildItemRows()
	}
}

// mutated refreshes after a local edit and autosaves the draft.
func (m *EditorModel) mutated() {
	m.refresh()
	if err := m.sess.Autosave(context.Background()); err != nil {
		m.log.Warn("autosave failed", "error", err)
	}
}

// apply records err, or refreshes and autosaves on success.
func (m *EditorModel) apply(err error) bool {
	if err != nil {
		m.err = describeError(err)
		return false
	}
	m.mutated()
	return true
}

func (m *EditorModel) rebuildRows() {
	store := m.sess.Store()
	rows := make([]outlineRow, 0, len(m.snapshot.Topics)*4)
	labels := make([]string, 0, cap(rows))
	for ti, t := range m.snapshot.Topics {
		rows = append(rows, outlineRow{topicID: t.ID, marked: draft.IsTemp(t.ID)})
		labels = append(labels, fmt.Sprintf("%d. %s", ti+1, t.Title))
		for ii, it := range t.Items {
			rows = append(rows, outlineRow{
				topicID: t.ID,
				itemID:  it.ID,
				marked:  draft.IsTemp(it.ID) || store.HasPending(it.ID),
			})
			labels = append(labels, fmt.Sprintf("   %d.%d %s", ti+1, ii+1, it.Label()))
		}
	}
	m.rows = rows
	m.list.Replace(labels)
}

func (m EditorModel) currentRow() (outlineRow, bool) {
	idx := m.list.Selected()
	if idx < 0 || idx >= len(m.rows) {
		return outlineRow{}, false
	}
	return m.rows[idx], true
}

func (m *EditorModel) selectRow(topicID, itemID string) {
	for i, r := range m.rows {
		if r.topicID == topicID && r.itemID == itemID {
			m.list.Select(i)
			return
		}
	}
}

func (m EditorModel) findTopic(id string) (course.Topic, bool) {
	ti := m.snapshot.FindTopic(id)
	if ti < 0 {
		return course.Topic{}, false
	}
	return m.snapshot.Topics[ti], true
}

func (m EditorModel) findItem(id string) (course.Item, bool) {
	ti, ii := m.snapshot.FindItem(id)
	if ti < 0 {
		return course.Item{}, false
	}
	return m.snapshot.Topics[ti].Items[ii], true
}

// --- Outline Keys ---

func (m EditorModel) handleOutlineKeys(msg tea.KeyMsg) EditorModel {
	row, hasRow := m.currentRow()
	switch {
	case navUp(msg, m.vim):
		m.list.Up()
	case navDown(msg, m.vim):
		m.list.Down()
	case isEnter(msg):
		if hasRow && row.itemID != "" {
			m.openItem(row.itemID)
		}
	case isKey(msg, "t"):
		m.openPrompt(promptNewTopic, "New topic", "", "", "")
	case isKey(msg, "l"), isKey(msg, "z"):
		if !hasRow {
			m.err = "create a topic first"
			break
		}
		if isKey(msg, "l") {
			m.openPrompt(promptNewLesson, "New lesson", "", row.topicID, "")
		} else {
			m.openPrompt(promptNewQuiz, "New quiz", "", row.topicID, "")
		}
	case isKey(msg, "r"):
		if !hasRow {
			break
		}
		if row.itemID != "" {
			it, _ := m.findItem(row.itemID)
			m.openPrompt(promptRenameItem, "Rename "+string(it.Kind), it.Title, row.itemID, "")
		} else {
			t, _ := m.findTopic(row.topicID)
			m.openPrompt(promptRenameTopic, "Rename topic", t.Title, row.topicID, "")
		}
	case isKey(msg, "d"):
		if !hasRow {
			break
		}
		if row.itemID != "" {
			m.confirm = &confirmState{kind: confirmDeleteItem, target: row.itemID}
		} else {
			m.confirm = &confirmState{kind: confirmDeleteTopic, target: row.topicID}
		}
	case isMoveUp(msg):
		if hasRow {
			m.moveRow(row, -1)
		}
	case isMoveDown(msg):
		if hasRow {
			m.moveRow(row, 1)
		}
	case isKey(msg, "T"):
		m.openPrompt(promptCourseTitle, "Course title", m.snapshot.Title, "", "")
	case isKey(msg, "C"):
		m.openPrompt(promptCertificate, "Certificate template (file path)", "", "", "")
	case isKey(msg, "u"):
		if !m.dirty {
			m.notice = "nothing to discard"
			break
		}
		m.confirm = &confirmState{kind: confirmDiscard}
	}
	return m
}

func (m *EditorModel) moveRow(row outlineRow, delta int) {
	store := m.sess.Store()
	if row.itemID == "" {
		ti := m.snapshot.FindTopic(row.topicID)
		to := ti + delta
		if ti < 0 || to < 0 || to >= len(m.snapshot.Topics) {
			return
		}
		if m.apply(store.MoveTopic(row.topicID, to)) {
			m.selectRow(row.topicID, "")
		}
		return
	}
	ti, ii := m.snapshot.FindItem(row.itemID)
	if ti < 0 {
		return
	}
	to := ii + delta
	if to < 0 || to >= len(m.snapshot.Topics[ti].Items) {
		return
	}
	if m.apply(store.MoveItem(row.itemID, to)) {
		m.selectRow(row.topicID, row.itemID)
	}
}

// --- Dialogs ---

func (m EditorModel) handleRecoveryKeys(msg tea.KeyMsg) EditorModel {
	switch {
	case isKey(msg, "y"):
		m.recovering = false
		if err := m.sess.Restore(); err != nil {
			m.err = describeError(err)
			return m
		}
		m.refresh()
		m.notice = "draft restored"
	case isKey(msg, "n"), isBack(msg):
		m.recovering = false
		m.sess.DropRecovery(context.Background())
	}
	return m
}

func (m EditorModel) handleConfirmKeys(msg tea.KeyMsg) (EditorModel, tea.Cmd) {
	switch {
	case isKey(msg, "y"):
		c := *m.confirm
		m.confirm = nil
		store := m.sess.Store()
		switch c.kind {
		case confirmDeleteTopic:
			m.apply(store.DeleteTopic(c.target))
		case confirmDeleteItem:
			m.apply(store.DeleteItem(c.target))
		case confirmDiscard:
			if err := m.sess.Discard(context.Background()); err != nil {
				m.err = describeError(err)
				break
			}
			m.refresh()
			m.notice = "changes discarded"
		case confirmPublish:
			return m.startCommit(draft.ModePublish)
		}
	case isKey(msg, "n"), isBack(msg):
		m.confirm = nil
	}
	return m, nil
}

func (m *EditorModel) openPublishConfirm() {
	summary, diffs := changeSummary(m.sess, m.snapshot)
	m.confirm = &confirmState{kind: confirmPublish, summary: summary, diffs: diffs}
}

// --- Commit ---

func (m EditorModel) startCommit(mode draft.Mode) (EditorModel, tea.Cmd) {
	if mode == draft.ModeSaveDraft && !m.dirty {
		m.notice = "nothing to save"
		return m, nil
	}
	m.saving = true
	sess := m.sess
	return m, func() tea.Msg {
		res, err := sess.Commit(context.Background(), mode)
		return committedMsg{mode: mode, res: res, err: err}
	}
}

func (m EditorModel) finishCommit(msg committedMsg) EditorModel {
	m.saving = false
	if m.sess == nil {
		return m
	}
	if msg.err == nil {
		if id, ok := msg.res.Mapping[m.item.itemID]; ok {
			m.item.itemID = id
		}
	}
	row, hasRow := m.currentRow()
	m.refresh()
	if hasRow && msg.err == nil {
		topicID, itemID := row.topicID, row.itemID
		if id, ok := msg.res.Mapping[topicID]; ok {
			topicID = id
		}
		if id, ok := msg.res.Mapping[itemID]; ok {
			itemID = id
		}
		m.selectRow(topicID, itemID)
	}
	return m
}

func commitToast(msg committedMsg) string {
	verb := "Saved"
	if msg.mode == draft.ModePublish {
		verb = "Published"
	}
	r := msg.res
	return fmt.Sprintf("%s: %d created, %d updated, %d deleted, %d uploaded", verb, r.Created, r.Updated, r.Deleted, r.Uploaded)
}

// describeError turns draft and commit errors into one readable line.
func describeError(err error) string {
	var ce *draft.CommitError
	if errors.As(err, &ce) {
		where := ce.Step
		if ce.Entity != "" {
			where += " (" + ce.Entity + ")"
		}
		return fmt.Sprintf("save stopped at %s: %v. Earlier steps were applied; save again to finish.", where, ce.Err)
	}
	text := err.Error()
	if errors.Is(err, draft.ErrValidation) {
		text = strings.Replace(text, draft.ErrValidation.Error()+": ", "", 1)
	}
	return text
}

func pendingCount(p draft.PendingSummary) int {
	n := p.InlineImages + len(p.Attachments)
	if p.FeatureImage != "" {
		n++
	}
	if p.Video != "" {
		n++
	}
	return n
}

// --- Rendering ---

func (m EditorModel) View() string {
	if m.sess == nil {
		return ""
	}
	switch {
	case m.recovering:
		body := fmt.Sprintf("An unsaved draft of this course was autosaved\n%s.\nRestore it?", m.recoverAt.Local().Format("Jan 2 at 15:04"))
		return components.Indent(components.ChoiceDialog("Recover draft", body, []string{"y: restore", "n: drop it"}), 1)
	case m.prompt != nil:
		out := components.Indent(components.InputDialog(m.prompt.title, m.prompt.input), 1)
		if m.err != "" {
			out += "\n\n" + components.ErrorBox("Invalid", m.err, m.width)
		}
		return out
	case m.confirm != nil:
		return m.renderConfirm()
	}

	var body string
	if m.view == editorItem {
		body = m.renderItem()
	} else {
		body = m.renderOutline()
	}
	sections := []string{m.renderStatus(), body}
	if m.err != "" {
		sections = append(sections, components.ErrorBox("Error", m.err, m.width))
	} else if m.notice != "" {
		sections = append(sections, MutedStyle.Render(m.notice))
	}
	return strings.Join(sections, "\n\n")
}

func (m EditorModel) renderStatus() string {
	state := SuccessStyle.Render("saved")
	switch {
	case m.saving:
		state = AccentStyle.Render("saving...")
	case m.dirty:
		state = WarningStyle.Render(components.DraftMark + " unsaved changes")
	}
	status := m.snapshot.Status
	if status == "" {
		status = course.StatusDraft
	}
	line := fmt.Sprintf("%s  %s  %s", HeaderStyle.Render(components.ClampTextWidth(m.snapshot.Title, 48)), MutedStyle.Render("["+status+"]"), state)
	if m.pending > 0 {
		line += MutedStyle.Render(fmt.Sprintf("  %d upload(s) queued", m.pending))
	}
	return line
}

func (m EditorModel) renderOutline() string {
	if len(m.rows) == 0 {
		return components.Indent(components.TitledBox("Outline", MutedStyle.Render("No topics yet. Press t to add one."), m.width), 1)
	}
	contentWidth := components.BoxContentWidth(m.width)
	visible := m.list.Visible()
	lines := make([]string, 0, len(visible))
	for rel, label := range visible {
		abs := m.list.RelToAbs(rel)
		row := m.rows[abs]
		text := label
		if contentWidth > 4 {
			text = components.ClampTextWidth(label, contentWidth-4)
		}
		style := NormalStyle
		if row.itemID == "" {
			style = HeaderStyle
		}
		prefix := "  "
		if m.list.IsSelected(abs) {
			prefix = "> "
			style = SelectedStyle
		}
		line := prefix + style.Render(text)
		if row.marked {
			line += " " + WarningStyle.Render(components.DraftMark)
		}
		lines = append(lines, line)
	}
	title := fmt.Sprintf("Outline (%d topics)", len(m.snapshot.Topics))
	return components.Indent(components.TitledBox(title, strings.Join(lines, "\n"), m.width), 1)
}

func (m EditorModel) renderConfirm() string {
	c := m.confirm
	switch c.kind {
	case confirmPublish:
		return components.Indent(components.ConfirmPreviewDialog("Save and publish", c.summary, c.diffs, m.width), 1)
	case confirmDiscard:
		return components.Indent(components.ConfirmDialog("Discard changes", "Drop every unsaved edit and queued upload?"), 1)
	case confirmDeleteTopic:
		t, _ := m.findTopic(c.target)
		msg := fmt.Sprintf("Delete topic %q", t.Title)
		if n := len(t.Items); n > 0 {
			msg += fmt.Sprintf(" and its %d item(s)", n)
		}
		return components.Indent(components.ConfirmDialog("Delete topic", msg+"?"), 1)
	default:
		it, _ := m.findItem(c.target)
		return components.Indent(components.ConfirmDialog("Delete item", fmt.Sprintf("Delete %s?", it.Label())), 1)
	}
}

func (m EditorModel) statusHints() []string {
	switch {
	case m.saving:
		return []string{components.Hint("…", "Saving")}
	case m.recovering:
		return []string{components.Hint("y", "Restore"), components.Hint("n", "Drop")}
	case m.prompt != nil:
		return []string{components.Hint("enter", "Submit"), components.Hint("esc", "Cancel")}
	case m.confirm != nil:
		return []string{components.Hint("y", "Confirm"), components.Hint("n", "Cancel")}
	case m.view == editorItem:
		return m.itemHints()
	}
	return []string{
		components.Hint("t/l/z", "Add"),
		components.Hint("r", "Rename"),
		components.Hint("d", "Delete"),
		components.Hint("K/J", "Move"),
		components.Hint("ctrl+s", "Save"),
		components.Hint("P", "Publish"),
		components.Hint("esc", "Courses"),
		components.Hint("?", "Help"),
	}
}
