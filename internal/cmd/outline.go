package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
)

// Outline is the hand-editable YAML form of a course. It carries no ids.
type Outline struct {
	Title  string         `yaml:"title,omitempty"`
	Topics []OutlineTopic `yaml:"topics"`
}

type OutlineTopic struct {
	Title   string        `yaml:"title"`
	Summary string        `yaml:"summary,omitempty"`
	Items   []OutlineItem `yaml:"items,omitempty"`
}

// OutlineItem is a lesson (Blocks) or a quiz (Settings, Questions).
type OutlineItem struct {
	Kind      course.Kind          `yaml:"kind"`
	Title     string               `yaml:"title"`
	Blocks    []string             `yaml:"blocks,omitempty"`
	Settings  *course.QuizSettings `yaml:"settings,omitempty"`
	Questions []course.Question    `yaml:"questions,omitempty"`
}

// ParseOutline decodes an outline, rejecting unknown keys.
func ParseOutline(data []byte) (Outline, error) {
	var o Outline
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		if errors.Is(err, io.EOF) {
			return o, errors.New("outline is empty")
		}
		return o, fmt.Errorf("parse outline: %w", err)
	}
	return o, nil
}

// OutlineOf strips ids and positions from c.
func OutlineOf(c course.Course) Outline {
	o := Outline{Title: c.Title, Topics: make([]OutlineTopic, 0, len(c.Topics))}
	for _, t := range c.Topics {
		ot := OutlineTopic{Title: t.Title, Summary: t.Summary}
		for _, it := range t.Items {
			oi := OutlineItem{Kind: it.Kind, Title: it.Title}
			switch {
			case it.Lesson != nil:
				for _, b := range it.Lesson.Blocks {
					oi.Blocks = append(oi.Blocks, b.HTML)
				}
			case it.Quiz != nil:
				settings := it.Quiz.Settings
				oi.Settings = &settings
				for _, q := range it.Quiz.Questions {
					q.ID = ""
					q.Options = append([]course.AnswerOption(nil), q.Options...)
					for i := range q.Options {
						q.Options[i].ID = ""
					}
					oi.Questions = append(oi.Questions, q)
				}
			}
			ot.Items = append(ot.Items, oi)
		}
		o.Topics = append(o.Topics, ot)
	}
	return o
}

// ApplyOutline stages o in s. With replace, every existing topic is deleted
// first; otherwise the outline's topics are appended. It returns the number of
// topics and items staged.
func ApplyOutline(s *draft.Store, o Outline, replace bool) (int, error) {
	if o.Title != "" {
		if err := s.SetCourseTitle(o.Title); err != nil {
			return 0, err
		}
	}
	if replace {
		for _, t := range s.Course().Topics {
			if err := s.DeleteTopic(t.ID); err != nil {
				return 0, err
			}
		}
	}
	staged := 0
	for ti, t := range o.Topics {
		topicID, err := s.CreateTopic(t.Title, t.Summary)
		if err != nil {
			return staged, fmt.Errorf("topic %d: %w", ti+1, err)
		}
		staged++
		for ii, it := range t.Items {
			if err := applyItem(s, topicID, it); err != nil {
				return staged, fmt.Errorf("topic %d item %d: %w", ti+1, ii+1, err)
			}
			staged++
		}
	}
	return staged, nil
}

func applyItem(s *draft.Store, topicID string, it OutlineItem) error {
	itemID, err := s.CreateItem(topicID, it.Kind, it.Title)
	if err != nil {
		return err
	}
	switch it.Kind {
	case course.KindLesson:
		for _, html := range it.Blocks {
			if _, err := s.AddBlock(itemID, html); err != nil {
				return err
			}
		}
	case course.KindQuiz:
		if it.Settings != nil {
			if err := s.SetQuizSettings(itemID, *it.Settings); err != nil {
				return err
			}
		}
		for _, q := range it.Questions {
			if _, err := s.AddQuestion(itemID, q); err != nil {
				return err
			}
		}
	}
	return nil
}
