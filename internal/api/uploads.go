package api

import (
	"context"
	"fmt"

	"github.com/gravitrone/lectern/internal/course"
)

// --- Uploads ---

// UploadAsset stores a binary of the given class and returns its storage path.
func (c *Client) UploadAsset(ctx context.Context, class course.AssetClass, f course.LocalFile) (string, error) {
	data, err := c.upload(ctx, "/api/uploads/"+escape(string(class)), f, nil)
	if err != nil {
		return "", err
	}
	return uploadPath(data)
}

// UploadInlineImage stores an image embedded in rich text. markerID is the
// local queue id the image carries until it is finalized.
func (c *Client) UploadInlineImage(ctx context.Context, markerID string, f course.LocalFile) (string, error) {
	data, err := c.upload(ctx, "/api/uploads/inline", f, map[string]string{"marker_id": markerID})
	if err != nil {
		return "", err
	}
	return uploadPath(data)
}

func uploadPath(data []byte) (string, error) {
	out, err := decodeOne[UploadResult](data)
	if err != nil {
		return "", err
	}
	if out.Path == "" {
		return "", fmt.Errorf("upload response has no path")
	}
	return out.Path, nil
}
