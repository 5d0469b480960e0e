package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
)

func writeOutline(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestParseOutline(t *testing.T) {
	o, err := ParseOutline([]byte(`
title: Networking
topics:
  - title: Sockets
    summary: the basics
    items:
      - kind: lesson
        title: TCP
        blocks: ["<p>a</p>", "<p>b</p>"]
      - kind: quiz
        title: Check
        settings: {passing_grade: 80}
        questions:
          - title: Is TCP reliable?
            type: true_false
`))
	require.NoError(t, err)
	assert.Equal(t, "Networking", o.Title)
	require.Len(t, o.Topics, 1)
	require.Len(t, o.Topics[0].Items, 2)
	assert.Equal(t, course.KindQuiz, o.Topics[0].Items[1].Kind)
	assert.Equal(t, 80, o.Topics[0].Items[1].Settings.PassingGrade)

	_, err = ParseOutline(nil)
	assert.ErrorContains(t, err, "empty")

	_, err = ParseOutline([]byte("chapters: []\n"))
	assert.Error(t, err)
}

func TestApplyOutlineStagesTempEntities(t *testing.T) {
	s := draft.NewStore(course.Course{ID: "c1", Title: "Old"}, draft.NewAllocator(), draft.NewPreviews())
	o := Outline{
		Title: "New title",
		Topics: []OutlineTopic{{
			Title: "Sockets",
			Items: []OutlineItem{
				{Kind: course.KindLesson, Title: "TCP", Blocks: []string{"<p>a</p>"}},
				{Kind: course.KindQuiz, Title: "Check", Questions: []course.Question{{Title: "Reliable?"}}},
			},
		}},
	}

	staged, err := ApplyOutline(s, o, false)
	require.NoError(t, err)
	assert.Equal(t, 3, staged)

	c := s.Course()
	assert.Equal(t, "New title", c.Title)
	require.Len(t, c.Topics, 1)
	assert.True(t, draft.IsTemp(c.Topics[0].ID))
	items := c.Topics[0].Items
	require.Len(t, items, 2)
	require.Len(t, items[0].Lesson.Blocks, 1)
	require.Len(t, items[1].Quiz.Questions, 1)
	assert.Equal(t, course.QuestionSingleChoice, items[1].Quiz.Questions[0].Type)
}

func TestApplyOutlineRejectsUnknownKind(t *testing.T) {
	s := draft.NewStore(course.Course{ID: "c1", Title: "Old"}, draft.NewAllocator(), draft.NewPreviews())
	o := Outline{Topics: []OutlineTopic{{Title: "Sockets", Items: []OutlineItem{{Kind: "video", Title: "Nope"}}}}}

	_, err := ApplyOutline(s, o, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, draft.ErrValidation)
}

func TestOutlineOfDropsIDs(t *testing.T) {
	c := course.Course{
		ID: "c1", Title: "T",
		Topics: []course.Topic{{
			ID: "t1", Title: "Topic",
			Items: []course.Item{{
				ID: "i1", Kind: course.KindQuiz, Title: "Q",
				Quiz: &course.QuizPayload{Questions: []course.Question{{
					ID: "q1", Title: "Q?", Options: []course.AnswerOption{{ID: "o1", Text: "yes"}},
				}}},
			}},
		}},
	}
	o := OutlineOf(c)
	q := o.Topics[0].Items[0].Questions[0]
	assert.Empty(t, q.ID)
	assert.Empty(t, q.Options[0].ID)
	assert.Equal(t, "q1", c.Topics[0].Items[0].Quiz.Questions[0].ID, "source is untouched")
}
