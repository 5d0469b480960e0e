package ui

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
)

type promptKind int

const (
	promptCourseTitle promptKind = iota
	promptCertificate
	promptNewTopic
	promptRenameTopic
	promptNewLesson
	promptNewQuiz
	promptRenameItem
	promptAddBlock
	promptEditBlock
	promptInlineImage
	promptFeatureImage
	promptVideo
	promptAttachment
	promptAddQuestion
	promptRenameQuestion
	promptQuestionImage
	promptPassingGrade
	promptMaxAttempts
)

// promptState is a one-line input. target is the topic or item it acts on;
// sub is a block or question inside that item.
type promptState struct {
	kind   promptKind
	title  string
	input  string
	target string
	sub    string
}

func (m *EditorModel) openPrompt(kind promptKind, title, input, target, sub string) {
	m.prompt = &promptState{kind: kind, title: title, input: input, target: target, sub: sub}
}

func (m EditorModel) handlePromptKeys(msg tea.KeyMsg) EditorModel {
	switch {
	case isBack(msg):
		m.prompt = nil
	case isEnter(msg):
		p := *m.prompt
		if err := m.submitPrompt(p); err != nil {
			m.err = describeError(err)
			return m
		}
		m.prompt = nil
	case isKey(msg, "backspace"):
		runes := []rune(m.prompt.input)
		if len(runes) > 0 {
			m.prompt.input = string(runes[:len(runes)-1])
		}
	case isKey(msg, "ctrl+u"):
		m.prompt.input = ""
	case msg.Type == tea.KeySpace:
		m.prompt.input += " "
	case msg.Type == tea.KeyRunes:
		m.prompt.input += string(msg.Runes)
	}
	return m
}

// submitPrompt applies p to the draft and moves the selection to whatever it
// created.
func (m *EditorModel) submitPrompt(p promptState) error {
	store := m.sess.Store()
	input := strings.TrimSpace(p.input)

	switch p.kind {
	case promptCourseTitle:
		return m.commit(store.SetCourseTitle(input))

	case promptCertificate:
		f, err := draft.LocalFileFor(course.AssetCertificateTemplate, input)
		if err != nil {
			return err
		}
		return m.commit(store.SetCertificateTemplate(f))

	case promptNewTopic:
		id, err := store.CreateTopic(input, "")
		if err != nil {
			return err
		}
		m.mutated()
		m.selectRow(id, "")
		return nil

	case promptRenameTopic:
		t, ok := store.Topic(p.target)
		if !ok {
			return fmt.Errorf("topic %q: %w", p.target, draft.ErrNotFound)
		}
		return m.commit(store.UpdateTopic(p.target, input, t.Summary))

	case promptNewLesson, promptNewQuiz:
		kind := course.KindLesson
		if p.kind == promptNewQuiz {
			kind = course.KindQuiz
		}
		id, err := store.CreateItem(p.target, kind, input)
		if err != nil {
			return err
		}
		m.mutated()
		m.selectRow(p.target, id)
		return nil

	case promptRenameItem:
		return m.commit(store.UpdateItem(p.target, input))

	case promptAddBlock:
		id, err := store.AddBlock(p.target, blockHTML(input))
		if err != nil {
			return err
		}
		m.mutated()
		m.selectDetail(rowBlock, id)
		return nil

	case promptEditBlock:
		return m.commit(store.UpdateBlock(p.target, p.sub, blockHTML(input)))

	case promptInlineImage:
		f, err := draft.LocalFileFor(course.AssetInlineImage, input)
		if err != nil {
			return err
		}
		_, err = store.InsertInlineImage(p.target, p.sub, f)
		return m.commit(err)

	case promptFeatureImage:
		f, err := draft.LocalFileFor(course.AssetFeatureImage, input)
		if err != nil {
			return err
		}
		return m.commit(store.SetFeatureImage(p.target, f))

	case promptVideo:
		ref, file, err := videoFor(input)
		if err != nil {
			return err
		}
		return m.commit(store.SetVideo(p.target, ref, file))

	case promptAttachment:
		f, err := draft.LocalFileFor(course.AssetAttachment, input)
		if err != nil {
			return err
		}
		if err := store.AddAttachment(p.target, f); err != nil {
			return err
		}
		m.mutated()
		m.selectDetail(rowAttachment, f.Name)
		return nil

	case promptAddQuestion:
		id, err := store.AddQuestion(p.target, course.Question{Title: input, Type: course.QuestionSingleChoice})
		if err != nil {
			return err
		}
		m.mutated()
		m.selectDetail(rowQuestion, id)
		return nil

	case promptRenameQuestion:
		q, ok := m.findQuestion(p.target, p.sub)
		if !ok {
			return fmt.Errorf("question %q: %w", p.sub, draft.ErrNotFound)
		}
		q.Title = input
		return m.commit(store.UpdateQuestion(p.target, q))

	case promptQuestionImage:
		f, err := draft.LocalFileFor(course.AssetInlineImage, input)
		if err != nil {
			return err
		}
		_, err = store.InsertQuestionImage(p.target, p.sub, draft.FieldDescription, f)
		return m.commit(err)

	case promptPassingGrade, promptMaxAttempts:
		return m.setQuizNumber(p, input)
	}
	return fmt.Errorf("unknown prompt %d", p.kind)
}

// commit is apply for prompts: errors go back to the prompt instead of the
// status line.
func (m *EditorModel) commit(err error) error {
	if err != nil {
		return err
	}
	m.mutated()
	return nil
}

func (m *EditorModel) setQuizNumber(p promptState, input string) error {
	it, ok := m.sess.Store().Item(p.target)
	if !ok || it.Quiz == nil {
		return fmt.Errorf("quiz %q: %w", p.target, draft.ErrNotFound)
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("%w: %s: enter a whole number", draft.ErrValidation, p.title)
	}
	settings := it.Quiz.Settings
	if p.kind == promptPassingGrade {
		if n < 0 || n > 100 {
			return fmt.Errorf("%w: passing grade: must be between 0 and 100", draft.ErrValidation)
		}
		settings.PassingGrade = n
	} else {
		if n < 0 {
			return fmt.Errorf("%w: max attempts: cannot be negative", draft.ErrValidation)
		}
		settings.MaxAttempts = n
	}
	return m.commit(m.sess.Store().SetQuizSettings(p.target, settings))
}

// blockHTML keeps markup as typed and wraps plain text in a paragraph.
func blockHTML(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "<") {
		return input
	}
	return "<p>" + html.EscapeString(input) + "</p>"
}

// videoFor reads a video prompt: a URL selects a hosted source, anything else
// is a local file. Empty input clears the video.
func videoFor(input string) (course.VideoRef, *course.LocalFile, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return course.VideoRef{}, nil, nil
	}
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		source := course.VideoSourceExternal
		switch {
		case host == "youtube.com", host == "youtu.be", strings.HasSuffix(host, ".youtube.com"):
			source = course.VideoSourceYouTube
		case host == "vimeo.com", strings.HasSuffix(host, ".vimeo.com"):
			source = course.VideoSourceVimeo
		}
		return course.VideoRef{Source: source, URL: input}, nil, nil
	}
	f, err := draft.LocalFileFor(course.AssetVideo, input)
	if err != nil {
		return course.VideoRef{}, nil, err
	}
	return course.VideoRef{Source: course.VideoSourceLocal}, &f, nil
}
