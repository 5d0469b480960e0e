package devserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/lectern/internal/api"
	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
)

var _ draft.ContentService = (*api.Client)(nil)

const testKey = "lct_devkey"

func newTestServer(t *testing.T) (*Server, *httptest.Server, *api.Client) {
	t.Helper()
	s := New(Options{APIKey: testKey})
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return s, hs, api.NewClient(hs.URL, testKey)
}

func writeFile(t *testing.T, name string, data []byte) course.LocalFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return course.LocalFile{Path: path, Name: name, Size: int64(len(data))}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr), "expected *api.Error, got %v", err)
	return apiErr.Status
}

func emptyCourse(s *Server) string {
	return s.AddCourse(course.Course{Title: "Empty"}).ID
}

func TestHealthIsPublic(t *testing.T) {
	_, hs, _ := newTestServer(t)
	status, err := api.NewClient(hs.URL, "").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestAPIKeyRequired(t *testing.T) {
	s, hs, _ := newTestServer(t)
	id := emptyCourse(s)

	_, err := api.NewClient(hs.URL, "wrong").LoadCourse(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
}

func TestLoadUnknownCourse(t *testing.T) {
	_, _, client := newTestServer(t)
	_, err := client.LoadCourse(context.Background(), "crs_missing")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestCreateTopicReplaysIdempotencyKey(t *testing.T) {
	s, _, client := newTestServer(t)
	id := emptyCourse(s)
	ctx := context.Background()

	first, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "tmp-topic-1")
	require.NoError(t, err)
	again, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "tmp-topic-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	c, err := client.LoadCourse(ctx, id)
	require.NoError(t, err)
	assert.Len(t, c.Topics, 2)
}

func TestCreateItemReplaysIdempotencyKey(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)
	topic, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.NoError(t, err)

	in := course.ItemInput{Kind: course.KindLesson, Title: "Hello"}
	a, err := client.CreateItem(ctx, topic.ID, in, "tmp-item-1")
	require.NoError(t, err)
	b, err := client.CreateItem(ctx, topic.ID, in, "tmp-item-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	require.NotNil(t, a.Lesson)

	c, err := client.LoadCourse(ctx, id)
	require.NoError(t, err)
	assert.Len(t, c.Topics[0].Items, 1)
}

func TestReorderTopics(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)
	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		topic, err := client.CreateTopic(ctx, id, course.TopicInput{Title: title}, "")
		require.NoError(t, err)
		ids = append(ids, topic.ID)
	}

	t.Run("unlisted ids keep their order", func(t *testing.T) {
		require.NoError(t, client.ReorderTopics(ctx, id, []string{ids[2]}))
		c, err := client.LoadCourse(ctx, id)
		require.NoError(t, err)
		got := []string{c.Topics[0].ID, c.Topics[1].ID, c.Topics[2].ID}
		assert.Equal(t, []string{ids[2], ids[0], ids[1]}, got)
		for i, topic := range c.Topics {
			assert.Equal(t, i, topic.Position)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		err := client.ReorderTopics(ctx, id, []string{"top_nope"})
		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := client.ReorderTopics(ctx, id, []string{ids[0], ids[0]})
		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))
	})
}

func TestFailNextInjectsOnce(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)

	s.FailNext("create_topic", http.StatusServiceUnavailable)
	_, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apiStatus(t, err))

	_, err = client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.NoError(t, err)
}

func TestUploadAndServeMedia(t *testing.T) {
	s, hs, client := newTestServer(t)
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\nfake")

	path, err := client.UploadAsset(ctx, course.AssetFeatureImage, writeFile(t, "cover.png", png))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "feature_image/blob_"), path)
	assert.True(t, strings.HasSuffix(path, ".png"), path)
	assert.Equal(t, []string{path}, s.Blobs())

	resp, err := http.Get(api.MediaURL(hs.URL, path))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, png, body)

	missing, err := http.Get(hs.URL + "/media/feature_image/blob_nope.png")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestUploadRejections(t *testing.T) {
	_, _, client := newTestServer(t)
	ctx := context.Background()
	f := writeFile(t, "a.png", []byte("x"))

	_, err := client.UploadAsset(ctx, course.AssetClass("bogus"), f)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))

	_, err = client.UploadInlineImage(ctx, "", f)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	path, err := client.UploadInlineImage(ctx, "img-1", f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "inline/"), path)
}

func TestItemStoragePathsMustExist(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)
	topic, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.NoError(t, err)

	in := course.ItemInput{
		Kind:   course.KindLesson,
		Title:  "Hello",
		Lesson: &course.LessonPayload{FeatureImage: "feature_image/blob_ghost.png"},
	}
	_, err = client.CreateItem(ctx, topic.ID, in, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))
}

func TestUpdateItemKeepsKind(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)
	topic, err := client.CreateTopic(ctx, id, course.TopicInput{Title: "Intro"}, "")
	require.NoError(t, err)
	it, err := client.CreateItem(ctx, topic.ID, course.ItemInput{Kind: course.KindQuiz, Title: "Check"}, "")
	require.NoError(t, err)

	updated, err := client.UpdateItem(ctx, it.ID, course.ItemInput{Title: "Checkpoint"})
	require.NoError(t, err)
	assert.Equal(t, course.KindQuiz, updated.Kind)
	assert.Equal(t, "Checkpoint", updated.Title)
	assert.NotNil(t, updated.Quiz)
}

func TestPublishNeedsItems(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)

	_, err := client.PublishCourse(ctx, id)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))

	demo := s.SeedDemo()
	out, err := client.PublishCourse(ctx, demo)
	require.NoError(t, err)
	assert.Equal(t, course.StatusPublished, out.Status)
}

func TestCertificateMustBeUploaded(t *testing.T) {
	s, _, client := newTestServer(t)
	ctx := context.Background()
	id := emptyCourse(s)

	_, err := client.UpdateCourse(ctx, id, course.CourseInput{CertificateTemplate: "certificate_template/blob_x.pdf"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))

	path, err := client.UploadAsset(ctx, course.AssetCertificateTemplate, writeFile(t, "cert.pdf", []byte("%PDF")))
	require.NoError(t, err)
	out, err := client.UpdateCourse(ctx, id, course.CourseInput{CertificateTemplate: path})
	require.NoError(t, err)
	assert.Equal(t, path, out.CertificateTemplate)
}

func TestSeedDemo(t *testing.T) {
	s, _, client := newTestServer(t)
	id := s.SeedDemo()

	c, err := client.LoadCourse(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, c.Topics, 2)
	assert.Len(t, c.Topics[0].Items, 2)
	assert.Len(t, c.Topics[1].Items, 1)
	assert.Equal(t, course.KindQuiz, c.Topics[1].Items[0].Kind)

	list, err := client.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Topics)
}
