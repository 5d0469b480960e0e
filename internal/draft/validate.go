package draft

import (
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gravitrone/lectern/internal/course"
)

const (
	minTitleLen = 2
	maxTitleLen = 200
)

type fileRule struct {
	exts    []string
	maxSize int64
}

const mib = 1 << 20

var fileRules = map[course.AssetClass]fileRule{
	course.AssetFeatureImage:        {exts: []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}, maxSize: 10 * mib},
	course.AssetInlineImage:         {exts: []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}, maxSize: 10 * mib},
	course.AssetVideo:               {exts: []string{".mp4", ".mov", ".webm", ".m4v"}, maxSize: 2048 * mib},
	course.AssetAttachment:          {exts: []string{".pdf", ".zip", ".docx", ".pptx", ".xlsx", ".txt", ".md", ".csv", ".png", ".jpg", ".jpeg"}, maxSize: 50 * mib},
	course.AssetCertificateTemplate: {exts: []string{".png", ".jpg", ".jpeg", ".pdf"}, maxSize: 10 * mib},
}

// ValidateTitle trims title and checks its length.
func ValidateTitle(field, title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	if n < minTitleLen {
		return "", invalid(field, "must be at least %d characters", minTitleLen)
	}
	if n > maxTitleLen {
		return "", invalid(field, "must be at most %d characters", maxTitleLen)
	}
	return title, nil
}

// LocalFileFor stats path and checks it against the rules of class.
func LocalFileFor(class course.AssetClass, path string) (course.LocalFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return course.LocalFile{}, invalid(string(class), "file path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return course.LocalFile{}, invalid(string(class), "cannot read %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return course.LocalFile{}, invalid(string(class), "%s is not a regular file", path)
	}
	f := course.LocalFile{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	if err := ValidateFile(class, f); err != nil {
		return course.LocalFile{}, err
	}
	f.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return f, nil
}

// ValidateFile checks extension and size of f for class.
func ValidateFile(class course.AssetClass, f course.LocalFile) error {
	rule, ok := fileRules[class]
	if !ok {
		return invalid("asset", "unknown asset class %q", class)
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	allowed := false
	for _, e := range rule.exts {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return invalid(string(class), "unsupported file type %q", ext)
	}
	if f.Size > rule.maxSize {
		return invalid(string(class), "file is %d bytes, limit is %d", f.Size, rule.maxSize)
	}
	return nil
}
