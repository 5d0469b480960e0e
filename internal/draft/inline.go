package draft

import (
	"context"
	"fmt"
	"sort"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/richtext"
)

// InlineEntry is an image embedded in rich text and not uploaded yet.
type InlineEntry struct {
	MarkerID string           `json:"marker_id"`
	File     course.LocalFile `json:"file"`
	Preview  string           `json:"-"`
}

// InlineUploader persists one queued image and returns its storage path.
type InlineUploader func(ctx context.Context, markerID string, f course.LocalFile) (string, error)

// InlineQueue holds the pending inline images of one item. All rich-text
// fields of the item share it.
type InlineQueue struct {
	entries  map[string]InlineEntry
	resolved map[string]string
	release  func(handle string)
}

// NewInlineQueue returns an empty queue. release frees preview handles.
func NewInlineQueue(release func(handle string)) *InlineQueue {
	if release == nil {
		release = func(string) {}
	}
	return &InlineQueue{
		entries:  map[string]InlineEntry{},
		resolved: map[string]string{},
		release:  release,
	}
}

func (q *InlineQueue) Add(e InlineEntry) {
	q.entries[e.MarkerID] = e
}

func (q *InlineQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.entries)
}

// IDs returns the queued marker ids, sorted.
func (q *InlineQueue) IDs() []string {
	if q == nil {
		return nil
	}
	ids := make([]string, 0, len(q.entries))
	for id := range q.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (q *InlineQueue) Entry(id string) (InlineEntry, bool) {
	e, ok := q.entries[id]
	return e, ok
}

func (q *InlineQueue) drop(id string) {
	e, ok := q.entries[id]
	if !ok {
		return
	}
	delete(q.entries, id)
	q.release(e.Preview)
}

// ReleaseAll drops every entry and frees its preview.
func (q *InlineQueue) ReleaseAll() {
	if q == nil {
		return
	}
	for _, id := range q.IDs() {
		q.drop(id)
	}
}

// ExtractReferencedIDs returns the marker ids referenced by any of htmls.
func ExtractReferencedIDs(htmls ...string) (map[string]struct{}, error) {
	refs := map[string]struct{}{}
	for _, h := range htmls {
		ids, err := richtext.MarkerIDs(h)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			refs[id] = struct{}{}
		}
	}
	return refs, nil
}

// Prune drops entries no longer referenced by any of htmls, which must be every
// rich-text field sharing the queue. It returns the dropped ids. On a parse
// error the queue is left untouched.
func (q *InlineQueue) Prune(htmls ...string) ([]string, error) {
	if q.Len() == 0 {
		return nil, nil
	}
	refs, err := ExtractReferencedIDs(htmls...)
	if err != nil {
		return nil, fmt.Errorf("prune inline images: %w", err)
	}
	var dropped []string
	for _, id := range q.IDs() {
		if _, ok := refs[id]; ok {
			continue
		}
		q.drop(id)
		dropped = append(dropped, id)
	}
	return dropped, nil
}

// Finalize uploads every queued image referenced by src, points the image at
// stableURL(path), strips its marker and retires the entry. Markers already
// uploaded by an earlier field of the same queue are rewritten without a second
// upload. A marked image with no queued file behind it has nothing to upload
// and is removed, so no preview reference reaches the server. It returns the
// rewritten html and the ids uploaded by this call.
func (q *InlineQueue) Finalize(ctx context.Context, src string, upload InlineUploader, stableURL func(string) string) (string, []string, error) {
	if q == nil {
		return src, nil, nil
	}
	ids, err := richtext.MarkerIDs(src)
	if err != nil {
		return "", nil, err
	}
	if len(ids) == 0 {
		return src, nil, nil
	}
	urls := make(map[string]string, len(ids))
	var uploaded, orphans []string
	for _, id := range ids {
		if url, ok := q.resolved[id]; ok {
			urls[id] = url
			continue
		}
		e, ok := q.entries[id]
		if !ok {
			orphans = append(orphans, id)
			continue
		}
		path, err := upload(ctx, id, e.File)
		if err != nil {
			return "", uploaded, fmt.Errorf("upload inline image %s: %w", id, err)
		}
		url := stableURL(path)
		q.resolved[id] = url
		urls[id] = url
		q.drop(id)
		uploaded = append(uploaded, id)
	}
	out, _, err := richtext.Rewrite(src, urls)
	if err != nil {
		return "", uploaded, err
	}
	for _, id := range orphans {
		if out, err = richtext.RemoveImage(out, id); err != nil {
			return "", uploaded, err
		}
	}
	return out, uploaded, nil
}

func (q *InlineQueue) clone(release func(string)) *InlineQueue {
	out := NewInlineQueue(release)
	if q == nil {
		return out
	}
	for id, e := range q.entries {
		out.entries[id] = e
	}
	return out
}
