package draft

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/gravitrone/lectern/internal/course"
)

type pendingShape struct {
	FeatureImage bool     `json:"feature_image"`
	Video        bool     `json:"video"`
	Attachments  int      `json:"attachments"`
	Inline       []string `json:"inline"`
}

type signatureInput struct {
	Course        course.Course           `json:"course"`
	DeletedTopics []string                `json:"deleted_topics"`
	DeletedItems  []string                `json:"deleted_items"`
	Pending       map[string]pendingShape `json:"pending"`
	Certificate   bool                    `json:"certificate"`
}

// Signature digests the full draft: tree, deletion buffers and which assets
// are queued. Preview handles are left out.
func Signature(s *Store) string {
	in := signatureInput{
		Course:        canonical(s.course),
		DeletedTopics: sortedCopy(s.deletedTopics),
		DeletedItems:  sortedCopy(s.deletedItems),
		Pending:       make(map[string]pendingShape, len(s.pending)),
		Certificate:   s.certificate != nil,
	}
	for id, p := range s.pending {
		if p.empty() {
			continue
		}
		in.Pending[id] = pendingShape{
			FeatureImage: p.FeatureImage != nil,
			Video:        p.Video != nil,
			Attachments:  len(p.Attachments),
			Inline:       p.Inline.IDs(),
		}
	}
	// json.Marshal sorts map keys, so equal drafts encode identically.
	raw, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// canonical collapses empty slices to nil so an emptied list and a list that
// never existed digest the same.
func canonical(c course.Course) course.Course {
	out := c.Clone()
	if len(out.Topics) == 0 {
		out.Topics = nil
	}
	for ti := range out.Topics {
		t := &out.Topics[ti]
		if len(t.Items) == 0 {
			t.Items = nil
		}
		for ii := range t.Items {
			it := &t.Items[ii]
			if l := it.Lesson; l != nil {
				if len(l.Blocks) == 0 {
					l.Blocks = nil
				}
				if len(l.Attachments) == 0 {
					l.Attachments = nil
				}
			}
			if q := it.Quiz; q != nil {
				if len(q.Questions) == 0 {
					q.Questions = nil
				}
				for qi := range q.Questions {
					if len(q.Questions[qi].Options) == 0 {
						q.Questions[qi].Options = nil
					}
				}
			}
		}
	}
	return out
}

func sortedCopy(list []string) []string {
	out := append([]string{}, list...)
	sort.Strings(out)
	return out
}

// Tracker compares the draft with the last confirmed baseline.
type Tracker struct {
	store    *Store
	baseline string
	course   course.Course

	cachedRev uint64
	cachedSig string
	cached    bool
}

// NewTracker takes the current state of store as the baseline.
func NewTracker(store *Store) *Tracker {
	t := &Tracker{store: store}
	t.Reset()
	return t
}

// Reset makes the current draft the new baseline.
func (t *Tracker) Reset() {
	t.baseline = t.current()
	t.course = t.store.course.Clone()
}

// IsDirty reports whether the draft differs from the baseline.
func (t *Tracker) IsDirty() bool {
	return t.current() != t.baseline
}

func (t *Tracker) Baseline() string { return t.baseline }

// BaselineCourse is the tree Discard returns to.
func (t *Tracker) BaselineCourse() course.Course { return t.course.Clone() }

func (t *Tracker) current() string {
	rev := t.store.Revision()
	if t.cached && t.cachedRev == rev {
		return t.cachedSig
	}
	t.cachedSig = Signature(t.store)
	t.cachedRev = rev
	t.cached = true
	return t.cachedSig
}

// rebind points the tracker at a replacement store, keeping the baseline.
func (t *Tracker) rebind(store *Store) {
	t.store = store
	t.cached = false
}
