package draft

import (
	"encoding/json"
	"fmt"

	"github.com/gravitrone/lectern/internal/course"
)

const snapshotVersion = 1

type pendingSnapshot struct {
	FeatureImage *course.LocalFile  `json:"feature_image,omitempty"`
	Video        *course.LocalFile  `json:"video,omitempty"`
	Attachments  []course.LocalFile `json:"attachments,omitempty"`
	Inline       []InlineEntry      `json:"inline,omitempty"`
}

type snapshot struct {
	Version       int                        `json:"version"`
	Course        course.Course              `json:"course"`
	DeletedTopics []string                   `json:"deleted_topics,omitempty"`
	DeletedItems  []string                   `json:"deleted_items,omitempty"`
	Pending       map[string]pendingSnapshot `json:"pending,omitempty"`
	Certificate   *course.LocalFile          `json:"certificate,omitempty"`
}

// MarshalDraft encodes the working copy, queues included, for the journal.
func MarshalDraft(s *Store) ([]byte, error) {
	snap := snapshot{
		Version:       snapshotVersion,
		Course:        s.course,
		DeletedTopics: s.deletedTopics,
		DeletedItems:  s.deletedItems,
		Pending:       make(map[string]pendingSnapshot, len(s.pending)),
		Certificate:   s.certificate,
	}
	for id, p := range s.pending {
		if p.empty() {
			continue
		}
		ps := pendingSnapshot{
			FeatureImage: p.FeatureImage,
			Video:        p.Video,
			Attachments:  p.Attachments,
		}
		for _, mid := range p.Inline.IDs() {
			e, _ := p.Inline.Entry(mid)
			ps.Inline = append(ps.Inline, e)
		}
		snap.Pending[id] = ps
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return raw, nil
}

// RestoreDraft rebuilds a store from MarshalDraft output. Preview handles are
// reopened under their marker ids so the restored html still resolves.
func RestoreDraft(raw []byte, ids *Allocator, previews *Previews) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("decode draft: unsupported version %d", snap.Version)
	}
	s := NewStore(snap.Course, ids, previews)
	s.deletedTopics = snap.DeletedTopics
	s.deletedItems = snap.DeletedItems
	s.certificate = snap.Certificate
	for id, ps := range snap.Pending {
		if ti, _ := s.course.FindItem(id); ti < 0 {
			continue
		}
		p := s.pendingFor(id)
		p.FeatureImage = ps.FeatureImage
		p.Video = ps.Video
		p.Attachments = ps.Attachments
		for _, e := range ps.Inline {
			e.Preview = s.previews.Open(e.MarkerID, e.File)
			p.Inline.Add(e)
		}
		s.settlePending(id)
	}
	return s, nil
}
