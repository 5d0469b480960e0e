package devserver

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gravitrone/lectern/internal/course"
)

var (
	errNotFound = errors.New("not found")
	errInvalid  = errors.New("invalid input")
)

type blob struct {
	name        string
	contentType string
	data        []byte
}

// content is the in-memory state behind the dev server.
type content struct {
	mu       sync.Mutex
	courses  map[string]*course.Course
	order    []string
	idem     map[string]string
	blobs    map[string]blob
	failNext map[string]int
}

func newContent() *content {
	return &content{
		courses:  map[string]*course.Course{},
		idem:     map[string]string{},
		blobs:    map[string]blob{},
		failNext: map[string]int{},
	}
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// takeFailure consumes one injected failure for op.
func (s *content) takeFailure(op string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.failNext[op]
	if ok {
		delete(s.failNext, op)
	}
	return status, ok
}

// --- Lookup (callers hold mu) ---

func (s *content) findTopic(topicID string) (*course.Course, int) {
	for _, id := range s.order {
		c := s.courses[id]
		if ti := c.FindTopic(topicID); ti >= 0 {
			return c, ti
		}
	}
	return nil, -1
}

func (s *content) findItem(itemID string) (*course.Course, int, int) {
	for _, id := range s.order {
		c := s.courses[id]
		if ti, ii := c.FindItem(itemID); ti >= 0 {
			return c, ti, ii
		}
	}
	return nil, -1, -1
}

func normalize(c *course.Course) {
	for ti := range c.Topics {
		c.Topics[ti].Position = ti
		for ii := range c.Topics[ti].Items {
			c.Topics[ti].Items[ii].Position = ii
		}
	}
}

// --- Courses ---

func (s *content) listCourses() []course.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]course.Course, 0, len(s.order))
	for _, id := range s.order {
		c := *s.courses[id]
		c.Topics = nil
		out = append(out, c)
	}
	return out
}

func (s *content) addCourse(c course.Course) course.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID("crs")
	}
	if c.Status == "" {
		c.Status = course.StatusDraft
	}
	cp := c.Clone()
	normalize(&cp)
	if _, exists := s.courses[cp.ID]; !exists {
		s.order = append(s.order, cp.ID)
	}
	s.courses[cp.ID] = &cp
	return cp.Clone()
}

func (s *content) getCourse(id string) (course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, fmt.Errorf("course %s: %w", id, errNotFound)
	}
	normalize(c)
	return c.Clone(), nil
}

func (s *content) updateCourse(id string, in course.CourseInput) (course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, fmt.Errorf("course %s: %w", id, errNotFound)
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		c.Title = t
	}
	if in.CertificateTemplate != "" {
		if _, ok := s.blobs[in.CertificateTemplate]; !ok {
			return course.Course{}, fmt.Errorf("%w: certificate template %s was never uploaded", errInvalid, in.CertificateTemplate)
		}
		c.CertificateTemplate = in.CertificateTemplate
	}
	return c.Clone(), nil
}

func (s *content) publishCourse(id string) (course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, fmt.Errorf("course %s: %w", id, errNotFound)
	}
	items := 0
	for _, t := range c.Topics {
		items += len(t.Items)
	}
	if items == 0 {
		return course.Course{}, fmt.Errorf("%w: a course needs at least one item to be published", errInvalid)
	}
	c.Status = course.StatusPublished
	return c.Clone(), nil
}

// --- Topics ---

// remember returns the id stored under key, if the create was seen before.
func (s *content) remember(scope, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	id, ok := s.idem[scope+"|"+key]
	return id, ok
}

func (s *content) record(scope, key, id string) {
	if key != "" {
		s.idem[scope+"|"+key] = id
	}
}

func (s *content) createTopic(courseID string, in course.TopicInput, key string) (course.Topic, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok {
		return course.Topic{}, false, fmt.Errorf("course %s: %w", courseID, errNotFound)
	}
	scope := "topic:" + courseID
	if id, seen := s.remember(scope, key); seen {
		if ti := c.FindTopic(id); ti >= 0 {
			return c.Topics[ti].Clone(), true, nil
		}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return course.Topic{}, false, fmt.Errorf("%w: topic title is required", errInvalid)
	}
	t := course.Topic{
		ID:       newID("top"),
		Title:    title,
		Summary:  strings.TrimSpace(in.Summary),
		Position: len(c.Topics),
		Items:    []course.Item{},
	}
	c.Topics = append(c.Topics, t)
	s.record(scope, key, t.ID)
	return t.Clone(), false, nil
}

func (s *content) updateTopic(topicID string, in course.TopicInput) (course.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti := s.findTopic(topicID)
	if c == nil {
		return course.Topic{}, fmt.Errorf("topic %s: %w", topicID, errNotFound)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return course.Topic{}, fmt.Errorf("%w: topic title is required", errInvalid)
	}
	c.Topics[ti].Title = title
	c.Topics[ti].Summary = strings.TrimSpace(in.Summary)
	return c.Topics[ti].Clone(), nil
}

func (s *content) deleteTopic(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti := s.findTopic(topicID)
	if c == nil {
		return fmt.Errorf("topic %s: %w", topicID, errNotFound)
	}
	c.Topics = append(c.Topics[:ti], c.Topics[ti+1:]...)
	normalize(c)
	return nil
}

// reorder returns ids first, then the unlisted ids in their current order.
// Unknown or repeated ids are rejected.
func reorder(current, ids []string) ([]string, error) {
	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = true
	}
	listed := make(map[string]bool, len(ids))
	out := make([]string, 0, len(current))
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: unknown id %s", errInvalid, id)
		}
		if listed[id] {
			return nil, fmt.Errorf("%w: duplicate id %s", errInvalid, id)
		}
		listed[id] = true
		out = append(out, id)
	}
	for _, id := range current {
		if !listed[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *content) reorderTopics(courseID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok {
		return fmt.Errorf("course %s: %w", courseID, errNotFound)
	}
	current := make([]string, len(c.Topics))
	byID := make(map[string]course.Topic, len(c.Topics))
	for i, t := range c.Topics {
		current[i] = t.ID
		byID[t.ID] = t
	}
	order, err := reorder(current, ids)
	if err != nil {
		return err
	}
	c.Topics = c.Topics[:0]
	for _, id := range order {
		c.Topics = append(c.Topics, byID[id])
	}
	normalize(c)
	return nil
}

// --- Items ---

func (s *content) checkPayload(it *course.Item) error {
	if !it.Kind.Valid() {
		return fmt.Errorf("%w: unknown item kind %q", errInvalid, it.Kind)
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: item title is required", errInvalid)
	}
	it.NormalizePayload()
	if l := it.Lesson; l != nil {
		refs := []string{l.FeatureImage}
		if l.Video != nil {
			refs = append(refs, l.Video.StoragePath)
		}
		for _, a := range l.Attachments {
			refs = append(refs, a.StoragePath)
		}
		for _, ref := range refs {
			if ref == "" {
				continue
			}
			if _, ok := s.blobs[ref]; !ok {
				return fmt.Errorf("%w: %s was never uploaded", errInvalid, ref)
			}
		}
	}
	return nil
}

func (s *content) createItem(topicID string, in course.ItemInput, key string) (course.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti := s.findTopic(topicID)
	if c == nil {
		return course.Item{}, false, fmt.Errorf("topic %s: %w", topicID, errNotFound)
	}
	scope := "item:" + topicID
	if id, seen := s.remember(scope, key); seen {
		if prev, pti, pii := s.findItem(id); prev != nil {
			return prev.Topics[pti].Items[pii].Clone(), true, nil
		}
	}
	it := course.Item{
		ID:     newID("itm"),
		Kind:   in.Kind,
		Title:  strings.TrimSpace(in.Title),
		Lesson: in.Lesson,
		Quiz:   in.Quiz,
	}
	it = it.Clone()
	if err := s.checkPayload(&it); err != nil {
		return course.Item{}, false, err
	}
	it.Position = len(c.Topics[ti].Items)
	c.Topics[ti].Items = append(c.Topics[ti].Items, it)
	s.record(scope, key, it.ID)
	return it.Clone(), false, nil
}

func (s *content) updateItem(itemID string, in course.ItemInput) (course.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti, ii := s.findItem(itemID)
	if c == nil {
		return course.Item{}, fmt.Errorf("item %s: %w", itemID, errNotFound)
	}
	cur := c.Topics[ti].Items[ii]
	next := course.Item{
		ID:       cur.ID,
		Kind:     cur.Kind,
		Title:    strings.TrimSpace(in.Title),
		Position: cur.Position,
		Lesson:   in.Lesson,
		Quiz:     in.Quiz,
	}
	if next.Title == "" {
		next.Title = cur.Title
	}
	if next.Lesson == nil && next.Quiz == nil {
		next.Lesson, next.Quiz = cur.Lesson, cur.Quiz
	}
	next = next.Clone()
	if err := s.checkPayload(&next); err != nil {
		return course.Item{}, err
	}
	c.Topics[ti].Items[ii] = next
	return next.Clone(), nil
}

func (s *content) deleteItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti, ii := s.findItem(itemID)
	if c == nil {
		return fmt.Errorf("item %s: %w", itemID, errNotFound)
	}
	items := c.Topics[ti].Items
	c.Topics[ti].Items = append(items[:ii], items[ii+1:]...)
	normalize(c)
	return nil
}

func (s *content) reorderItems(topicID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ti := s.findTopic(topicID)
	if c == nil {
		return fmt.Errorf("topic %s: %w", topicID, errNotFound)
	}
	items := c.Topics[ti].Items
	current := make([]string, len(items))
	byID := make(map[string]course.Item, len(items))
	for i, it := range items {
		current[i] = it.ID
		byID[it.ID] = it
	}
	order, err := reorder(current, ids)
	if err != nil {
		return err
	}
	out := make([]course.Item, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	c.Topics[ti].Items = out
	normalize(c)
	return nil
}

// --- Blobs ---

var uploadClasses = map[string]bool{
	string(course.AssetFeatureImage):        true,
	string(course.AssetVideo):               true,
	string(course.AssetAttachment):          true,
	string(course.AssetCertificateTemplate): true,
	"inline":                                true,
}

func (s *content) putBlob(class, name, contentType string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := class + "/" + newID("blob") + strings.ToLower(path.Ext(name))
	s.blobs[p] = blob{name: name, contentType: contentType, data: data}
	return p
}

func (s *content) getBlob(p string) (blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[p]
	return b, ok
}

func (s *content) blobPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for p := range s.blobs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
