package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/richtext"
)

func queueWith(t *testing.T, previews *Previews, ids ...string) *InlineQueue {
	t.Helper()
	q := NewInlineQueue(func(h string) { previews.Release(h) })
	for _, id := range ids {
		f := course.LocalFile{Path: "/tmp/" + id + ".png", Name: id + ".png"}
		q.Add(InlineEntry{MarkerID: id, File: f, Preview: previews.Open(id, f)})
	}
	return q
}

func img(id string) string {
	return richtext.PendingImage(id, previewScheme+id, "")
}

func TestPruneDropsUnreferencedAndReleasesOnce(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1", "m2", "m3")

	dropped, err := q.Prune("<p>"+img("m1")+"</p>", "<p>"+img("m3")+"</p>")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, dropped)
	assert.Equal(t, []string{"m1", "m3"}, q.IDs())
	assert.Equal(t, 2, previews.Live())
	assert.Equal(t, 1, previews.Released())

	// a second prune with the same fields is a no-op
	dropped, err = q.Prune("<p>"+img("m1")+"</p>", "<p>"+img("m3")+"</p>")
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Equal(t, 1, previews.Released())
}

func TestPruneNeverReferencedEntry(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1")

	dropped, err := q.Prune("<p>text only</p>")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, dropped)
	assert.Zero(t, q.Len())
	assert.Zero(t, previews.Live())
}

func TestFinalizeUploadsRewritesAndRetires(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1", "m2")
	var calls []string
	upload := func(_ context.Context, id string, f course.LocalFile) (string, error) {
		calls = append(calls, id)
		return "inline/" + f.Name, nil
	}
	url := func(p string) string { return "https://media.test/media/" + p }

	out, uploaded, err := q.Finalize(context.Background(), "<p>"+img("m1")+"</p>", upload, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, uploaded)
	assert.Equal(t, []string{"m1"}, calls)
	assert.Contains(t, out, `src="https://media.test/media/inline/m1.png"`)
	assert.NotContains(t, out, richtext.MarkerAttr)
	assert.Equal(t, []string{"m2"}, q.IDs())
	assert.False(t, previews.IsLive(previewScheme+"m1"))
	assert.True(t, previews.IsLive(previewScheme+"m2"))
}

func TestFinalizeSharedQueueAcrossFields(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1")
	uploads := 0
	upload := func(context.Context, string, course.LocalFile) (string, error) {
		uploads++
		return "inline/m1.png", nil
	}
	url := func(p string) string { return "/media/" + p }

	first, _, err := q.Finalize(context.Background(), img("m1"), upload, url)
	require.NoError(t, err)
	second, uploaded, err := q.Finalize(context.Background(), "<p>again "+img("m1")+"</p>", upload, url)
	require.NoError(t, err)

	assert.Equal(t, 1, uploads)
	assert.Empty(t, uploaded)
	assert.NotContains(t, first, richtext.MarkerAttr)
	assert.NotContains(t, second, richtext.MarkerAttr)
	assert.Contains(t, second, `src="/media/inline/m1.png"`)
}

func TestFinalizeWithoutReferencesIsNoop(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1")
	upload := func(context.Context, string, course.LocalFile) (string, error) {
		t.Fatal("upload must not be called")
		return "", nil
	}
	out, uploaded, err := q.Finalize(context.Background(), "<p>plain</p>", upload, func(p string) string { return p })
	require.NoError(t, err)
	assert.Equal(t, "<p>plain</p>", out)
	assert.Empty(t, uploaded)
	assert.Equal(t, 1, q.Len())
}

func TestFinalizeRemovesImagesWithoutQueuedFile(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1")
	var calls []string
	upload := func(_ context.Context, id string, f course.LocalFile) (string, error) {
		calls = append(calls, id)
		return "inline/" + f.Name, nil
	}
	src := "<p>before " + img("ghost") + " after</p><p>" + img("m1") + "</p>"

	out, uploaded, err := q.Finalize(context.Background(), src, upload, func(p string) string { return "/media/" + p })
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, calls)
	assert.Equal(t, []string{"m1"}, uploaded)
	assert.Contains(t, out, "before ")
	assert.Contains(t, out, " after")
	assert.Contains(t, out, `src="/media/inline/m1.png"`)
	assert.NotContains(t, out, richtext.MarkerAttr)
	assert.NotContains(t, out, previewScheme)
	assert.NotContains(t, out, "ghost")
}

func TestFinalizeOrphanOnlyNeedsNoUpload(t *testing.T) {
	q := NewInlineQueue(nil)
	upload := func(context.Context, string, course.LocalFile) (string, error) {
		t.Fatal("upload must not be called")
		return "", nil
	}

	out, uploaded, err := q.Finalize(context.Background(), "<p>"+img("ghost")+"</p>", upload, func(p string) string { return p })
	require.NoError(t, err)
	assert.Empty(t, uploaded)
	assert.Equal(t, "<p></p>", out)
}

func TestFinalizeUploadErrorKeepsEntry(t *testing.T) {
	previews := NewPreviews()
	q := queueWith(t, previews, "m1")
	boom := errors.New("boom")
	upload := func(context.Context, string, course.LocalFile) (string, error) { return "", boom }

	_, _, err := q.Finalize(context.Background(), img("m1"), upload, func(p string) string { return p })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, previews.Live())
}

func TestExtractReferencedIDsAcrossFields(t *testing.T) {
	refs, err := ExtractReferencedIDs(img("a"), "<p>x</p>", img("b")+img("a"))
	require.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Contains(t, refs, "a")
	assert.Contains(t, refs, "b")
}
