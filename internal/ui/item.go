package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/richtext"
	"github.com/gravitrone/lectern/internal/ui/components"
)

type detailRowKind int

const (
	rowBlock detailRowKind = iota
	rowAttachment
	rowQuestion
)

// detailRow is one selectable line of the item view. id is a block id, an
// attachment name or a question id.
type detailRow struct {
	kind   detailRowKind
	id     string
	queued bool
}

type itemState struct {
	itemID string
	rows   []detailRow
	info   []components.TableRow
	list   *components.List
}

func newItemState() itemState {
	return itemState{list: components.NewList(10)}
}

func (m *EditorModel) openItem(id string) {
	m.view = editorItem
	m.item.itemID = id
	m.item.list.SetItems(nil)
	m.rebuildItemRows()
}

func (m EditorModel) currentItem() (course.Item, bool) {
	if m.item.itemID == "" {
		return course.Item{}, false
	}
	return m.findItem(m.item.itemID)
}

func (m EditorModel) currentKind() course.Kind {
	it, _ := m.currentItem()
	return it.Kind
}

func (m EditorModel) currentDetail() (detailRow, bool) {
	idx := m.item.list.Selected()
	if idx < 0 || idx >= len(m.item.rows) {
		return detailRow{}, false
	}
	return m.item.rows[idx], true
}

func (m *EditorModel) selectDetail(kind detailRowKind, id string) {
	for i, r := range m.item.rows {
		if r.kind == kind && r.id == id {
			m.item.list.Select(i)
			return
		}
	}
}

func (m EditorModel) findQuestion(itemID, questionID string) (course.Question, bool) {
	it, ok := m.findItem(itemID)
	if !ok || it.Quiz == nil {
		return course.Question{}, false
	}
	for _, q := range it.Quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return course.Question{}, false
}

// rebuildItemRows caches rows and the info table of the open item.
func (m *EditorModel) rebuildItemRows() {
	it, ok := m.currentItem()
	if !ok {
		return
	}
	pending := m.sess.Store().Pending(it.ID)
	var rows []detailRow
	var labels []string
	info := []components.TableRow{
		{Label: "Kind", Value: string(it.Kind)},
		{Label: "Title", Value: it.Title},
	}

	switch {
	case it.Lesson != nil:
		l := it.Lesson
		for i, b := range l.Blocks {
			rows = append(rows, detailRow{kind: rowBlock, id: b.ID})
			text := strings.TrimSpace(richtext.PlainText(b.HTML))
			if text == "" {
				text = "(empty)"
			}
			labels = append(labels, fmt.Sprintf("¶%d %s", i+1, text))
		}
		for _, a := range l.Attachments {
			rows = append(rows, detailRow{kind: rowAttachment, id: a.Name})
			labels = append(labels, "📎 "+a.Name)
		}
		for _, name := range pending.Attachments {
			rows = append(rows, detailRow{kind: rowAttachment, id: name, queued: true})
			labels = append(labels, "📎 "+name+" (queued)")
		}
		info = append(info,
			components.TableRow{Label: "Feature image", Value: assetState(l.FeatureImage, pending.FeatureImage)},
			components.TableRow{Label: "Video", Value: videoState(l.Video, pending.Video)},
		)
		if pending.InlineImages > 0 {
			info = append(info, components.TableRow{Label: "Inline images", Value: fmt.Sprintf("%d queued", pending.InlineImages)})
		}
	case it.Quiz != nil:
		q := it.Quiz
		for i, question := range q.Questions {
			rows = append(rows, detailRow{kind: rowQuestion, id: question.ID})
			labels = append(labels, fmt.Sprintf("Q%d %s [%s]", i+1, question.Title, question.Type))
		}
		info = append(info,
			components.TableRow{Label: "Passing grade", Value: numberOr(q.Settings.PassingGrade, "%d%%", "not set")},
			components.TableRow{Label: "Max attempts", Value: numberOr(q.Settings.MaxAttempts, "%d", "unlimited")},
		)
		if pending.InlineImages > 0 {
			info = append(info, components.TableRow{Label: "Question images", Value: fmt.Sprintf("%d queued", pending.InlineImages)})
		}
	}

	m.item.rows = rows
	m.item.info = info
	m.item.list.Replace(labels)
}

func assetState(stored, queued string) string {
	switch {
	case queued != "":
		return queued + " (queued)"
	case stored != "":
		return stored
	}
	return "none"
}

func videoState(v *course.VideoRef, queued string) string {
	if queued != "" {
		return queued + " (queued)"
	}
	if v == nil || v.Source == "" {
		return "none"
	}
	if v.URL != "" {
		return v.Source + ": " + v.URL
	}
	return v.Source + ": " + v.StoragePath
}

func numberOr(n int, format, zero string) string {
	if n == 0 {
		return zero
	}
	return fmt.Sprintf(format, n)
}

// --- Item Keys ---

func (m EditorModel) handleItemKeys(msg tea.KeyMsg) EditorModel {
	it, ok := m.currentItem()
	if !ok {
		m.view = editorOutline
		return m
	}
	switch {
	case isBack(msg):
		m.view = editorOutline
		ti, _ := m.snapshot.FindItem(it.ID)
		if ti >= 0 {
			m.selectRow(m.snapshot.Topics[ti].ID, it.ID)
		}
		return m
	case navUp(msg, m.vim):
		m.item.list.Up()
		return m
	case navDown(msg, m.vim):
		m.item.list.Down()
		return m
	case isKey(msg, "r"):
		m.openPrompt(promptRenameItem, "Rename "+string(it.Kind), it.Title, it.ID, "")
		return m
	}
	if it.Kind == course.KindQuiz {
		return m.handleQuizKeys(msg, it)
	}
	return m.handleLessonKeys(msg, it)
}

func (m EditorModel) handleLessonKeys(msg tea.KeyMsg, it course.Item) EditorModel {
	row, hasRow := m.currentDetail()
	store := m.sess.Store()
	switch {
	case isKey(msg, "a"):
		m.openPrompt(promptAddBlock, "New block (text or HTML)", "", it.ID, "")
	case isKey(msg, "e"):
		if hasRow && row.kind == rowBlock {
			m.openPrompt(promptEditBlock, "Edit block", blockSource(it, row.id), it.ID, row.id)
		}
	case isKey(msg, "i"):
		if !hasRow || row.kind != rowBlock {
			m.err = "select a block to insert the image into"
			break
		}
		m.openPrompt(promptInlineImage, "Inline image (file path)", "", it.ID, row.id)
	case isKey(msg, "f"):
		m.openPrompt(promptFeatureImage, "Feature image (file path)", "", it.ID, "")
	case isKey(msg, "F"):
		m.apply(store.ClearFeatureImage(it.ID))
	case isKey(msg, "v"):
		current := ""
		if it.Lesson != nil && it.Lesson.Video != nil {
			current = it.Lesson.Video.URL
		}
		m.openPrompt(promptVideo, "Video (URL or file path, empty to clear)", current, it.ID, "")
	case isKey(msg, "p"):
		m.openPrompt(promptAttachment, "Attach file (path)", "", it.ID, "")
	case isKey(msg, "x"):
		if !hasRow {
			break
		}
		if row.kind == rowBlock {
			m.apply(store.RemoveBlock(it.ID, row.id))
		} else {
			m.apply(store.RemoveAttachment(it.ID, row.id))
		}
	case isMoveUp(msg), isMoveDown(msg):
		if !hasRow || row.kind != rowBlock {
			break
		}
		to := m.item.list.Selected() - 1
		if isMoveDown(msg) {
			to = m.item.list.Selected() + 1
		}
		if to < 0 || it.Lesson == nil || to >= len(it.Lesson.Blocks) {
			break
		}
		if m.apply(store.MoveBlock(it.ID, row.id, to)) {
			m.selectDetail(rowBlock, row.id)
		}
	}
	return m
}

func (m EditorModel) handleQuizKeys(msg tea.KeyMsg, it course.Item) EditorModel {
	row, hasRow := m.currentDetail()
	switch {
	case isKey(msg, "a"):
		m.openPrompt(promptAddQuestion, "New question", "", it.ID, "")
	case isKey(msg, "e"):
		if hasRow {
			q, _ := m.findQuestion(it.ID, row.id)
			m.openPrompt(promptRenameQuestion, "Question title", q.Title, it.ID, row.id)
		}
	case isKey(msg, "i"):
		if !hasRow {
			m.err = "select a question to insert the image into"
			break
		}
		m.openPrompt(promptQuestionImage, "Question image (file path)", "", it.ID, row.id)
	case isKey(msg, "x"):
		if hasRow {
			m.apply(m.sess.Store().RemoveQuestion(it.ID, row.id))
		}
	case isKey(msg, "g"):
		m.openPrompt(promptPassingGrade, "Passing grade (0-100)", fmt.Sprint(quizSettings(it).PassingGrade), it.ID, "")
	case isKey(msg, "A"):
		m.openPrompt(promptMaxAttempts, "Max attempts (0 for unlimited)", fmt.Sprint(quizSettings(it).MaxAttempts), it.ID, "")
	}
	return m
}

func quizSettings(it course.Item) course.QuizSettings {
	if it.Quiz == nil {
		return course.QuizSettings{}
	}
	return it.Quiz.Settings
}

func blockSource(it course.Item, blockID string) string {
	if it.Lesson == nil {
		return ""
	}
	for _, b := range it.Lesson.Blocks {
		if b.ID == blockID {
			return b.HTML
		}
	}
	return ""
}

// --- Rendering ---

func (m EditorModel) renderItem() string {
	it, ok := m.currentItem()
	if !ok {
		return ""
	}
	sections := []string{components.Table("", m.item.info, m.width)}

	contentWidth := components.BoxContentWidth(m.width)
	visible := m.item.list.Visible()
	lines := make([]string, 0, len(visible))
	for rel, label := range visible {
		abs := m.item.list.RelToAbs(rel)
		text := label
		if contentWidth > 4 {
			text = components.ClampTextWidth(label, contentWidth-4)
		}
		if m.item.list.IsSelected(abs) {
			lines = append(lines, "> "+SelectedStyle.Render(text))
		} else if m.item.rows[abs].queued {
			lines = append(lines, "  "+WarningStyle.Render(text))
		} else {
			lines = append(lines, "  "+NormalStyle.Render(text))
		}
	}
	title := "Blocks"
	empty := "No blocks yet. Press a to add one."
	if it.Kind == course.KindQuiz {
		title = "Questions"
		empty = "No questions yet. Press a to add one."
	}
	body := MutedStyle.Render(empty)
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	sections = append(sections, components.TitledBox(title, body, m.width))
	badge := KindBadgeStyle.Render(strings.ToUpper(string(it.Kind)))
	return badge + "\n\n" + components.Indent(strings.Join(sections, "\n"), 1)
}

func itemHelp(kind course.Kind) []string {
	common := []string{
		"↑/↓    select row",
		"r      rename item",
	}
	if kind == course.KindQuiz {
		return append(common,
			"a      add question",
			"e      edit question title",
			"i      add image to question",
			"x      remove question",
			"g      passing grade",
			"A      max attempts",
			"ctrl+s save draft",
			"esc    back to outline",
		)
	}
	return append(common,
		"a      add block",
		"e      edit block",
		"i      insert image into block",
		"K / J  move block",
		"f / F  set / clear feature image",
		"v      video url or file",
		"p      attach file",
		"x      remove block or attachment",
		"ctrl+s save draft",
		"esc    back to outline",
	)
}

func (m EditorModel) itemHints() []string {
	if m.currentKind() == course.KindQuiz {
		return []string{
			components.Hint("a", "Question"),
			components.Hint("e", "Edit"),
			components.Hint("i", "Image"),
			components.Hint("g", "Grade"),
			components.Hint("ctrl+s", "Save"),
			components.Hint("esc", "Outline"),
		}
	}
	return []string{
		components.Hint("a", "Block"),
		components.Hint("i", "Image"),
		components.Hint("f", "Feature"),
		components.Hint("v", "Video"),
		components.Hint("p", "Attach"),
		components.Hint("ctrl+s", "Save"),
		components.Hint("esc", "Outline"),
	}
}
