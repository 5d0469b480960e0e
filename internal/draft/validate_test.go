package draft

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/lectern/internal/course"
)

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("title", "  Go  ")
	require.NoError(t, err)
	assert.Equal(t, "Go", got)

	_, err = ValidateTitle("title", "G")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ValidateTitle("title", strings.Repeat("x", maxTitleLen+1))
	assert.ErrorIs(t, err, ErrValidation)

	// runes, not bytes
	_, err = ValidateTitle("title", "日本")
	assert.NoError(t, err)
}

func TestLocalFileFor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0600))

	f, err := LocalFileFor(course.AssetFeatureImage, path)
	require.NoError(t, err)
	assert.Equal(t, "cover.PNG", f.Name)
	assert.Equal(t, int64(3), f.Size)
	assert.Equal(t, "image/png", f.ContentType)

	_, err = LocalFileFor(course.AssetVideo, path)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = LocalFileFor(course.AssetFeatureImage, filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = LocalFileFor(course.AssetFeatureImage, dir)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = LocalFileFor(course.AssetFeatureImage, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateFileUnknownClass(t *testing.T) {
	err := ValidateFile(course.AssetClass("poster"), course.LocalFile{Name: "a.png"})
	assert.ErrorIs(t, err, ErrValidation)
}
