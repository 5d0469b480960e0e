package draft

import (
	"sort"
	"strings"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/richtext"
)

// PendingUpload holds the assets of one item chosen locally and not uploaded.
type PendingUpload struct {
	FeatureImage *course.LocalFile
	Video        *course.LocalFile
	Attachments  []course.LocalFile
	Inline       *InlineQueue
}

func (p *PendingUpload) empty() bool {
	return p == nil || (p.FeatureImage == nil && p.Video == nil && len(p.Attachments) == 0 && p.Inline.Len() == 0)
}

func (p *PendingUpload) release() {
	if p != nil {
		p.Inline.ReleaseAll()
	}
}

// PendingSummary describes the pending assets of an item for display.
type PendingSummary struct {
	FeatureImage string
	Video        string
	Attachments  []string
	InlineImages int
}

// Store is the local working copy of one course: the tree plus the deletion
// and upload buffers that sit beside it.
type Store struct {
	course        course.Course
	deletedTopics []string
	deletedItems  []string
	pending       map[string]*PendingUpload
	certificate   *course.LocalFile

	ids      *Allocator
	previews *Previews
	revision uint64
	locked   bool
}

// NewStore wraps a server-confirmed course.
func NewStore(c course.Course, ids *Allocator, previews *Previews) *Store {
	if ids == nil {
		ids = NewAllocator()
	}
	if previews == nil {
		previews = NewPreviews()
	}
	s := &Store{
		course:   c.Clone(),
		pending:  map[string]*PendingUpload{},
		ids:      ids,
		previews: previews,
	}
	s.renumberAll()
	return s
}

// --- Reads ---

// Course returns a deep copy of the current tree.
func (s *Store) Course() course.Course { return s.course.Clone() }

func (s *Store) CourseID() string { return s.course.ID }

// Revision increases on every successful mutation.
func (s *Store) Revision() uint64 { return s.revision }

func (s *Store) DeletedTopics() []string { return append([]string(nil), s.deletedTopics...) }

func (s *Store) DeletedItems() []string { return append([]string(nil), s.deletedItems...) }

func (s *Store) Topic(id string) (course.Topic, bool) {
	ti := s.course.FindTopic(id)
	if ti < 0 {
		return course.Topic{}, false
	}
	return s.course.Topics[ti].Clone(), true
}

func (s *Store) Item(id string) (course.Item, bool) {
	ti, ii := s.course.FindItem(id)
	if ti < 0 {
		return course.Item{}, false
	}
	return s.course.Topics[ti].Items[ii].Clone(), true
}

// HasPending reports whether itemID has an upload record.
func (s *Store) HasPending(itemID string) bool {
	_, ok := s.pending[itemID]
	return ok
}

func (s *Store) Pending(itemID string) PendingSummary {
	p, ok := s.pending[itemID]
	if !ok {
		return PendingSummary{}
	}
	var out PendingSummary
	if p.FeatureImage != nil {
		out.FeatureImage = p.FeatureImage.Name
	}
	if p.Video != nil {
		out.Video = p.Video.Name
	}
	for _, a := range p.Attachments {
		out.Attachments = append(out.Attachments, a.Name)
	}
	out.InlineImages = p.Inline.Len()
	return out
}

// PendingCertificate returns the queued certificate template, if any.
func (s *Store) PendingCertificate() (course.LocalFile, bool) {
	if s.certificate == nil {
		return course.LocalFile{}, false
	}
	return *s.certificate, true
}

// --- Topic Mutators ---

func (s *Store) CreateTopic(title, summary string) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	title, err := ValidateTitle("topic title", title)
	if err != nil {
		return "", err
	}
	id := s.ids.Allocate("topic")
	s.course.Topics = append(s.course.Topics, course.Topic{
		ID:      id,
		Title:   title,
		Summary: strings.TrimSpace(summary),
	})
	s.renumberTopics()
	s.touch()
	return id, nil
}

func (s *Store) UpdateTopic(id, title, summary string) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti := s.course.FindTopic(id)
	if ti < 0 {
		return notFound("topic", id)
	}
	title, err := ValidateTitle("topic title", title)
	if err != nil {
		return err
	}
	s.course.Topics[ti].Title = title
	s.course.Topics[ti].Summary = strings.TrimSpace(summary)
	s.touch()
	return nil
}

// DeleteTopic removes a topic and its items. Persisted ids are buffered for
// deletion on the next commit; temporary ones simply vanish.
func (s *Store) DeleteTopic(id string) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti := s.course.FindTopic(id)
	if ti < 0 {
		return notFound("topic", id)
	}
	t := s.course.Topics[ti]
	for _, it := range t.Items {
		s.forgetItem(it.ID)
	}
	if !IsTemp(t.ID) {
		s.deletedTopics = appendUnique(s.deletedTopics, t.ID)
	}
	s.course.Topics = append(s.course.Topics[:ti], s.course.Topics[ti+1:]...)
	s.renumberTopics()
	s.touch()
	return nil
}

// MoveTopic moves a topic to index (clamped).
func (s *Store) MoveTopic(id string, index int) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti := s.course.FindTopic(id)
	if ti < 0 {
		return notFound("topic", id)
	}
	s.course.Topics = moveElem(s.course.Topics, ti, index)
	s.renumberTopics()
	s.touch()
	return nil
}

// ReorderTopics applies a full ordering. ids must be a permutation of the
// current topic ids.
func (s *Store) ReorderTopics(ids []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	byID := make(map[string]course.Topic, len(s.course.Topics))
	for _, t := range s.course.Topics {
		byID[t.ID] = t
	}
	if err := checkPermutation("topic order", ids, byID); err != nil {
		return err
	}
	out := make([]course.Topic, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	s.course.Topics = out
	s.renumberTopics()
	s.touch()
	return nil
}

// --- Item Mutators ---

func (s *Store) CreateItem(topicID string, kind course.Kind, title string) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	ti := s.course.FindTopic(topicID)
	if ti < 0 {
		return "", notFound("topic", topicID)
	}
	if !kind.Valid() {
		return "", invalid("item kind", "unknown kind %q", kind)
	}
	title, err := ValidateTitle(string(kind)+" title", title)
	if err != nil {
		return "", err
	}
	it := course.Item{
		ID:    s.ids.Allocate(string(kind)),
		Kind:  kind,
		Title: title,
	}
	it.NormalizePayload()
	s.course.Topics[ti].Items = append(s.course.Topics[ti].Items, it)
	s.renumberItems(ti)
	s.touch()
	return it.ID, nil
}

func (s *Store) UpdateItem(id, title string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.item(id)
	if err != nil {
		return err
	}
	title, err = ValidateTitle(string(it.Kind)+" title", title)
	if err != nil {
		return err
	}
	it.Title = title
	s.touch()
	return nil
}

func (s *Store) DeleteItem(id string) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti, ii := s.course.FindItem(id)
	if ti < 0 {
		return notFound("item", id)
	}
	s.forgetItem(id)
	items := s.course.Topics[ti].Items
	s.course.Topics[ti].Items = append(items[:ii], items[ii+1:]...)
	s.renumberItems(ti)
	s.touch()
	return nil
}

// MoveItem moves an item to index within its topic (clamped).
func (s *Store) MoveItem(id string, index int) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti, ii := s.course.FindItem(id)
	if ti < 0 {
		return notFound("item", id)
	}
	s.course.Topics[ti].Items = moveElem(s.course.Topics[ti].Items, ii, index)
	s.renumberItems(ti)
	s.touch()
	return nil
}

// ReorderItems applies a full ordering within one topic.
func (s *Store) ReorderItems(topicID string, ids []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	ti := s.course.FindTopic(topicID)
	if ti < 0 {
		return notFound("topic", topicID)
	}
	byID := make(map[string]course.Item, len(s.course.Topics[ti].Items))
	for _, it := range s.course.Topics[ti].Items {
		byID[it.ID] = it
	}
	if err := checkPermutation("item order", ids, byID); err != nil {
		return err
	}
	out := make([]course.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	s.course.Topics[ti].Items = out
	s.renumberItems(ti)
	s.touch()
	return nil
}

// --- Course Mutators ---

func (s *Store) SetCourseTitle(title string) error {
	if err := s.writable(); err != nil {
		return err
	}
	title, err := ValidateTitle("course title", title)
	if err != nil {
		return err
	}
	s.course.Title = title
	s.touch()
	return nil
}

func (s *Store) SetCertificateTemplate(f course.LocalFile) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := ValidateFile(course.AssetCertificateTemplate, f); err != nil {
		return err
	}
	s.certificate = &f
	s.touch()
	return nil
}

// --- Internals ---

func (s *Store) writable() error {
	if s.locked {
		return ErrCommitInFlight
	}
	return nil
}

func (s *Store) touch() { s.revision++ }

func (s *Store) lock()   { s.locked = true }
func (s *Store) unlock() { s.locked = false }

// item returns a pointer into the tree.
func (s *Store) item(id string) (*course.Item, error) {
	ti, ii := s.course.FindItem(id)
	if ti < 0 {
		return nil, notFound("item", id)
	}
	return &s.course.Topics[ti].Items[ii], nil
}

// forgetItem buffers a persisted item for deletion and drops its uploads.
func (s *Store) forgetItem(id string) {
	if p, ok := s.pending[id]; ok {
		p.release()
		delete(s.pending, id)
	}
	if !IsTemp(id) {
		s.deletedItems = appendUnique(s.deletedItems, id)
	}
}

// pendingFor returns the upload record of itemID, creating it on demand.
func (s *Store) pendingFor(itemID string) *PendingUpload {
	p, ok := s.pending[itemID]
	if !ok {
		p = &PendingUpload{Inline: NewInlineQueue(s.releasePreview)}
		s.pending[itemID] = p
	}
	return p
}

// settlePending drops an upload record that no longer holds anything.
func (s *Store) settlePending(itemID string) {
	if p, ok := s.pending[itemID]; ok && p.empty() {
		delete(s.pending, itemID)
	}
}

func (s *Store) releasePreview(handle string) {
	s.previews.Release(handle)
}

// pruneInline drops queued images no rich-text field of the item references.
func (s *Store) pruneInline(it *course.Item) error {
	p, ok := s.pending[it.ID]
	if !ok || p.Inline.Len() == 0 {
		return nil
	}
	if _, err := p.Inline.Prune(richTextFields(*it)...); err != nil {
		return err
	}
	s.settlePending(it.ID)
	return nil
}

// richTextFields lists every rich-text field that shares the item's queue.
func richTextFields(it course.Item) []string {
	var out []string
	if it.Lesson != nil {
		for _, b := range it.Lesson.Blocks {
			out = append(out, b.HTML)
		}
	}
	if it.Quiz != nil {
		for _, q := range it.Quiz.Questions {
			out = append(out, q.RichText()...)
		}
	}
	return out
}

// renumberAll also fills in missing payloads so later reads never mutate.
func (s *Store) renumberAll() {
	s.renumberTopics()
	for ti := range s.course.Topics {
		s.renumberItems(ti)
		for ii := range s.course.Topics[ti].Items {
			s.course.Topics[ti].Items[ii].NormalizePayload()
		}
	}
}

func (s *Store) renumberTopics() {
	for i := range s.course.Topics {
		s.course.Topics[i].Position = i
	}
}

func (s *Store) renumberItems(ti int) {
	for i := range s.course.Topics[ti].Items {
		s.course.Topics[ti].Items[i].Position = i
	}
}

// clone copies the store for a commit attempt. Queue entries retired in the
// copy report their preview handles to release instead of freeing them.
func (s *Store) clone(release func(string)) *Store {
	out := &Store{
		course:        s.course.Clone(),
		deletedTopics: append([]string(nil), s.deletedTopics...),
		deletedItems:  append([]string(nil), s.deletedItems...),
		pending:       make(map[string]*PendingUpload, len(s.pending)),
		ids:           s.ids,
		previews:      s.previews,
		revision:      s.revision,
	}
	if s.certificate != nil {
		c := *s.certificate
		out.certificate = &c
	}
	for id, p := range s.pending {
		cp := &PendingUpload{
			Attachments: append([]course.LocalFile(nil), p.Attachments...),
			Inline:      p.Inline.clone(release),
		}
		if p.FeatureImage != nil {
			f := *p.FeatureImage
			cp.FeatureImage = &f
		}
		if p.Video != nil {
			f := *p.Video
			cp.Video = &f
		}
		out.pending[id] = cp
	}
	return out
}

// replace installs a server-confirmed tree and clears every buffer, freeing
// whatever previews are still held.
func (s *Store) replace(c course.Course) {
	s.releaseBuffers()
	s.course = c.Clone()
	s.renumberAll()
	s.touch()
}

// Discard restores baseline and frees every preview created since.
func (s *Store) Discard(baseline course.Course) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.replace(baseline)
	return nil
}

func (s *Store) releaseBuffers() {
	for _, id := range sortedKeys(s.pending) {
		s.pending[id].release()
	}
	s.pending = map[string]*PendingUpload{}
	s.deletedTopics = nil
	s.deletedItems = nil
	s.certificate = nil
}

// --- Helpers ---

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func moveElem[T any](list []T, from, to int) []T {
	if to < 0 {
		to = 0
	}
	if to > len(list)-1 {
		to = len(list) - 1
	}
	if from == to {
		return list
	}
	v := list[from]
	list = append(list[:from], list[from+1:]...)
	list = append(list[:to], append([]T{v}, list[to:]...)...)
	return list
}

func checkPermutation[T any](field string, ids []string, known map[string]T) error {
	if len(ids) != len(known) {
		return invalid(field, "expected %d ids, got %d", len(known), len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return invalid(field, "unknown id %q", id)
		}
		if _, dup := seen[id]; dup {
			return invalid(field, "duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func markerPreview(markerID string) string {
	return previewScheme + markerID
}

func pendingImageTag(markerID, name string) string {
	return richtext.PendingImage(markerID, markerPreview(markerID), name)
}

func itemKindError(it *course.Item, want course.Kind) error {
	return invalid("item", "%s is a %s, not a %s", it.ID, it.Kind, want)
}
