package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/ui/components"
)

// openLesson opens "What is a distributed system" in the item view.
func openLesson(t *testing.T, e testEnv) App {
	t.Helper()
	a := openEditor(t, e, nil)
	a, _ = press(t, a, "down", "enter")
	require.Equal(t, editorItem, a.editor.view)
	return a
}

// openQuiz opens "Checkpoint" in the item view.
func openQuiz(t *testing.T, e testEnv) App {
	t.Helper()
	a := openEditor(t, e, nil)
	a, _ = press(t, a, "down", "down", "down", "down", "enter")
	require.Equal(t, editorItem, a.editor.view)
	require.Equal(t, course.KindQuiz, a.editor.currentKind())
	return a
}

func infoValue(a App, label string) string {
	for _, r := range a.editor.item.info {
		if r.Label == label {
			return r.Value
		}
	}
	return ""
}

func TestItemViewShowsLesson(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)

	require.Len(t, a.editor.item.rows, 1)
	assert.Equal(t, "block-1", a.editor.item.rows[0].id)
	assert.Equal(t, "none", infoValue(a, "Feature image"))

	clean := components.SanitizeText(a.View())
	assert.Contains(t, clean, "LESSON")
	assert.Contains(t, clean, "¶1 A collection of independent computers")
	assert.Contains(t, clean, "courses › Intro to Distributed Systems › What is a distributed system")

	a, _ = press(t, a, "esc")
	assert.Equal(t, editorOutline, a.editor.view)
	row, _ := a.editor.currentRow()
	assert.Equal(t, a.editor.snapshot.Topics[0].Items[0].ID, row.itemID)
}

func TestItemAddAndEditBlocks(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)

	a = prompt(t, a, "a", "Nodes fail independently & often.")
	require.Len(t, a.editor.item.rows, 2)
	detail, ok := a.editor.currentDetail()
	require.True(t, ok)
	it, _ := a.editor.currentItem()
	assert.Equal(t, "<p>Nodes fail independently &amp; often.</p>", blockSource(it, detail.id))

	a, _ = press(t, a, "e")
	require.NotNil(t, a.editor.prompt)
	assert.Equal(t, "<p>Nodes fail independently &amp; often.</p>", a.editor.prompt.input)
	a, _ = press(t, a, "ctrl+u", "<h2>Failures</h2>", "enter")
	it, _ = a.editor.currentItem()
	assert.Equal(t, "<h2>Failures</h2>", blockSource(it, detail.id))

	a, _ = press(t, a, "K")
	it, _ = a.editor.currentItem()
	assert.Equal(t, detail.id, it.Lesson.Blocks[0].ID)
	selected, _ := a.editor.currentDetail()
	assert.Equal(t, detail.id, selected.id)
}

func TestItemInlineImageQueuesAndReleases(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)
	path := writeTempFile(t, "diagram.png")

	a = prompt(t, a, "i", path)
	require.Empty(t, a.editor.err)
	assert.Equal(t, 1, a.editor.sess.Previews().Live())
	assert.Equal(t, "1 queued", infoValue(a, "Inline images"))
	assert.Equal(t, 1, a.editor.pending)
	assert.Contains(t, components.SanitizeText(a.View()), "1 upload(s) queued")

	a, _ = press(t, a, "x")
	assert.Empty(t, a.editor.item.rows)
	assert.Zero(t, a.editor.sess.Previews().Live())
	assert.Equal(t, 1, a.editor.sess.Previews().Released())
	assert.Zero(t, a.editor.pending)
	assert.Contains(t, components.SanitizeText(a.View()), "No blocks yet")
}

func TestItemInlineImageNeedsBlock(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)
	a, _ = press(t, a, "x")
	require.Empty(t, a.editor.item.rows)

	a, _ = press(t, a, "i")
	assert.Nil(t, a.editor.prompt)
	assert.Equal(t, "select a block to insert the image into", a.editor.err)
}

func TestItemRejectsBadFile(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)

	a = prompt(t, a, "f", writeTempFile(t, "cover.exe"))
	require.NotNil(t, a.editor.prompt)
	assert.Contains(t, a.editor.err, "unsupported file type")
	assert.Zero(t, a.editor.sess.Previews().Live())
}

func TestItemFeatureImageUploadsOnSave(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)

	a = prompt(t, a, "f", writeTempFile(t, "cover.png"))
	assert.Equal(t, "cover.png (queued)", infoValue(a, "Feature image"))
	row, _ := a.editor.currentRow()
	assert.True(t, row.marked)

	a, cmd := press(t, a, "ctrl+s")
	a, msg := runCmd(t, a, cmd)
	require.NoError(t, msg.(committedMsg).err)
	assert.Equal(t, 1, msg.(committedMsg).res.Uploaded)
	assert.Equal(t, editorItem, a.editor.view)
	assert.NotContains(t, infoValue(a, "Feature image"), "queued")

	remote, err := e.client.LoadCourse(context.Background(), e.courseID)
	require.NoError(t, err)
	lesson := remote.Topics[0].Items[0].Lesson
	require.NotNil(t, lesson)
	assert.NotEmpty(t, lesson.FeatureImage)
	assert.Contains(t, e.srv.Blobs(), lesson.FeatureImage)
}

func TestItemAttachmentsAndVideo(t *testing.T) {
	e := newTestEnv(t)
	a := openLesson(t, e)

	a = prompt(t, a, "p", writeTempFile(t, "notes.pdf"))
	detail, ok := a.editor.currentDetail()
	require.True(t, ok)
	assert.Equal(t, rowAttachment, detail.kind)
	assert.True(t, detail.queued)
	assert.Contains(t, components.SanitizeText(a.View()), "notes.pdf (queued)")

	a = prompt(t, a, "v", "https://youtu.be/abc123")
	assert.Equal(t, "youtube: https://youtu.be/abc123", infoValue(a, "Video"))

	a, cmd := press(t, a, "ctrl+s")
	a, msg := runCmd(t, a, cmd)
	require.NoError(t, msg.(committedMsg).err)

	remote, err := e.client.LoadCourse(context.Background(), e.courseID)
	require.NoError(t, err)
	lesson := remote.Topics[0].Items[0].Lesson
	require.Len(t, lesson.Attachments, 1)
	assert.Equal(t, "notes.pdf", lesson.Attachments[0].Name)
	require.NotNil(t, lesson.Video)
	assert.Equal(t, course.VideoSourceYouTube, lesson.Video.Source)

	a.editor.selectDetail(rowAttachment, "notes.pdf")
	a, _ = press(t, a, "x")
	it, _ := a.editor.currentItem()
	assert.Empty(t, it.Lesson.Attachments)
	assert.True(t, a.editor.dirty)
}

func TestItemQuizQuestionsAndSettings(t *testing.T) {
	e := newTestEnv(t)
	a := openQuiz(t, e)

	assert.Equal(t, "70%", infoValue(a, "Passing grade"))
	assert.Equal(t, "3", infoValue(a, "Max attempts"))
	assert.Contains(t, components.SanitizeText(a.View()), "Q1 Raft elects at most one leader per term. [true_false]")

	a = prompt(t, a, "a", "Which node serves reads?")
	require.Len(t, a.editor.item.rows, 2)
	detail, _ := a.editor.currentDetail()
	q, ok := a.editor.findQuestion(a.editor.item.itemID, detail.id)
	require.True(t, ok)
	assert.Equal(t, course.QuestionSingleChoice, q.Type)

	a = prompt(t, a, "e", "Which node serves linearizable reads?")
	q, _ = a.editor.findQuestion(a.editor.item.itemID, detail.id)
	assert.Equal(t, "Which node serves linearizable reads?", q.Title)

	a = prompt(t, a, "g", "abc")
	require.NotNil(t, a.editor.prompt)
	assert.Contains(t, a.editor.err, "enter a whole number")
	a, _ = press(t, a, "ctrl+u", "150", "enter")
	require.NotNil(t, a.editor.prompt)
	assert.Equal(t, "passing grade: must be between 0 and 100", a.editor.err)
	a, _ = press(t, a, "ctrl+u", "85", "enter")
	assert.Nil(t, a.editor.prompt)
	assert.Equal(t, "85%", infoValue(a, "Passing grade"))

	a = prompt(t, a, "A", "0")
	assert.Equal(t, "unlimited", infoValue(a, "Max attempts"))

	a, cmd := press(t, a, "ctrl+s")
	a, msg := runCmd(t, a, cmd)
	require.NoError(t, msg.(committedMsg).err)

	remote, err := e.client.LoadCourse(context.Background(), e.courseID)
	require.NoError(t, err)
	quiz := remote.Topics[1].Items[0].Quiz
	require.NotNil(t, quiz)
	assert.Equal(t, 85, quiz.Settings.PassingGrade)
	assert.Zero(t, quiz.Settings.MaxAttempts)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "Which node serves linearizable reads?", quiz.Questions[1].Title)
}

func TestItemQuestionImage(t *testing.T) {
	e := newTestEnv(t)
	a := openQuiz(t, e)

	a = prompt(t, a, "i", writeTempFile(t, "term.png"))
	require.Empty(t, a.editor.err)
	assert.Equal(t, "1 queued", infoValue(a, "Question images"))
	assert.Equal(t, 1, a.editor.sess.Previews().Live())

	a, _ = press(t, a, "x")
	assert.Empty(t, a.editor.item.rows)
	assert.Zero(t, a.editor.sess.Previews().Live())
}

func TestItemViewClosesWhenItemDiscarded(t *testing.T) {
	e := newTestEnv(t)
	a := openEditor(t, e, nil)
	a = prompt(t, a, "t", "Replication")
	a = prompt(t, a, "l", "Leases")
	a, _ = press(t, a, "enter")
	require.Equal(t, editorItem, a.editor.view)

	require.NoError(t, a.editor.sess.Discard(context.Background()))
	a.editor.refresh()
	assert.Equal(t, editorOutline, a.editor.view)
}

func TestItemHelpMatchesKind(t *testing.T) {
	assert.Contains(t, itemHelp(course.KindQuiz), "g      passing grade")
	assert.Contains(t, itemHelp(course.KindLesson), "p      attach file")
}

func TestAssetAndVideoState(t *testing.T) {
	assert.Equal(t, "none", assetState("", ""))
	assert.Equal(t, "media/a.png", assetState("media/a.png", ""))
	assert.Equal(t, "b.png (queued)", assetState("media/a.png", "b.png"))

	assert.Equal(t, "none", videoState(nil, ""))
	assert.Equal(t, "clip.mp4 (queued)", videoState(nil, "clip.mp4"))
	assert.Equal(t, "local: media/clip.mp4", videoState(&course.VideoRef{Source: course.VideoSourceLocal, StoragePath: "media/clip.mp4"}, ""))
	assert.Equal(t, "vimeo: https://vimeo.com/1", videoState(&course.VideoRef{Source: course.VideoSourceVimeo, URL: "https://vimeo.com/1"}, ""))
}
