package draft

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gravitrone/lectern/internal/course"
)

var errInjected = errors.New("injected failure")

// fakeService is an in-memory ContentService. It honors idempotency keys
// unless ignoreKeys is set.
type fakeService struct {
	course     course.Course
	seq        int
	keys       map[string]string
	ignoreKeys bool
	failNext   map[string]error
	calls      []string
	uploads    []string
}

func newFakeService(c course.Course) *fakeService {
	return &fakeService{
		course:   c.Clone(),
		keys:     map[string]string{},
		failNext: map[string]error{},
	}
}

// seededCourse has one topic holding one lesson.
func seededCourse() course.Course {
	return course.Course{
		ID:    "c1",
		Title: "Go Basics",
		Topics: []course.Topic{{
			ID:    "t1",
			Title: "Setup",
			Items: []course.Item{{
				ID:     "i1",
				Kind:   course.KindLesson,
				Title:  "Install Go",
				Lesson: &course.LessonPayload{Blocks: []course.ContentBlock{{ID: "b1", HTML: "<p>hi</p>"}}},
			}},
		}},
	}
}

func openSession(t *testing.T, svc *fakeService, opts Options) *Session {
	t.Helper()
	sess, err := Open(context.Background(), svc, svc.course.ID, opts)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return sess
}

func (f *fakeService) fail(op string) { f.failNext[op] = errInjected }

func (f *fakeService) enter(op string) error {
	f.calls = append(f.calls, op)
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	return nil
}

func (f *fakeService) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeService) newID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, 100+f.seq)
}

func (f *fakeService) dedupe(key string) (string, bool) {
	if f.ignoreKeys || key == "" {
		return "", false
	}
	id, ok := f.keys[key]
	return id, ok
}

func (f *fakeService) normalize() {
	for ti := range f.course.Topics {
		f.course.Topics[ti].Position = ti
		for ii := range f.course.Topics[ti].Items {
			f.course.Topics[ti].Items[ii].Position = ii
		}
	}
}

func (f *fakeService) LoadCourse(_ context.Context, id string) (course.Course, error) {
	if err := f.enter("LoadCourse"); err != nil {
		return course.Course{}, err
	}
	if id != f.course.ID {
		return course.Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	f.normalize()
	return f.course.Clone(), nil
}

func (f *fakeService) UpdateCourse(_ context.Context, _ string, in course.CourseInput) (course.Course, error) {
	if err := f.enter("UpdateCourse"); err != nil {
		return course.Course{}, err
	}
	if in.Title != "" {
		f.course.Title = in.Title
	}
	if in.CertificateTemplate != "" {
		f.course.CertificateTemplate = in.CertificateTemplate
	}
	return f.course.Clone(), nil
}

func (f *fakeService) PublishCourse(_ context.Context, _ string) (course.Course, error) {
	if err := f.enter("PublishCourse"); err != nil {
		return course.Course{}, err
	}
	f.course.Status = course.StatusPublished
	return f.course.Clone(), nil
}

func (f *fakeService) CreateTopic(_ context.Context, _ string, in course.TopicInput, key string) (course.Topic, error) {
	if err := f.enter("CreateTopic"); err != nil {
		return course.Topic{}, err
	}
	if id, ok := f.dedupe(key); ok {
		return f.course.Topics[f.course.FindTopic(id)].Clone(), nil
	}
	t := course.Topic{ID: f.newID("t"), Title: in.Title, Summary: in.Summary, Position: len(f.course.Topics)}
	f.course.Topics = append(f.course.Topics, t)
	f.keys[key] = t.ID
	return t, nil
}

func (f *fakeService) UpdateTopic(_ context.Context, id string, in course.TopicInput) (course.Topic, error) {
	if err := f.enter("UpdateTopic"); err != nil {
		return course.Topic{}, err
	}
	ti := f.course.FindTopic(id)
	if ti < 0 {
		return course.Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	f.course.Topics[ti].Title = in.Title
	f.course.Topics[ti].Summary = in.Summary
	return f.course.Topics[ti].Clone(), nil
}

func (f *fakeService) DeleteTopic(_ context.Context, id string) error {
	if err := f.enter("DeleteTopic"); err != nil {
		return err
	}
	ti := f.course.FindTopic(id)
	if ti < 0 {
		return fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	f.course.Topics = append(f.course.Topics[:ti], f.course.Topics[ti+1:]...)
	return nil
}

func (f *fakeService) ReorderTopics(_ context.Context, _ string, ids []string) error {
	if err := f.enter("ReorderTopics"); err != nil {
		return err
	}
	listed := map[string]bool{}
	out := make([]course.Topic, 0, len(f.course.Topics))
	for _, id := range ids {
		ti := f.course.FindTopic(id)
		if ti < 0 {
			return fmt.Errorf("reorder: unknown topic %s", id)
		}
		listed[id] = true
		out = append(out, f.course.Topics[ti])
	}
	// unlisted topics keep their relative order after the listed ones
	for _, topic := range f.course.Topics {
		if !listed[topic.ID] {
			out = append(out, topic)
		}
	}
	f.course.Topics = out
	return nil
}

func (f *fakeService) CreateItem(_ context.Context, topicID string, in course.ItemInput, key string) (course.Item, error) {
	if err := f.enter("CreateItem"); err != nil {
		return course.Item{}, err
	}
	if id, ok := f.dedupe(key); ok {
		ti, ii := f.course.FindItem(id)
		return f.course.Topics[ti].Items[ii].Clone(), nil
	}
	ti := f.course.FindTopic(topicID)
	if ti < 0 {
		return course.Item{}, fmt.Errorf("topic %s: %w", topicID, ErrNotFound)
	}
	it := course.Item{ID: f.newID("i"), Kind: in.Kind, Title: in.Title, Lesson: in.Lesson, Quiz: in.Quiz}
	it = it.Clone()
	f.course.Topics[ti].Items = append(f.course.Topics[ti].Items, it)
	f.keys[key] = it.ID
	return it, nil
}

func (f *fakeService) UpdateItem(_ context.Context, id string, in course.ItemInput) (course.Item, error) {
	if err := f.enter("UpdateItem"); err != nil {
		return course.Item{}, err
	}
	ti, ii := f.course.FindItem(id)
	if ti < 0 {
		return course.Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	it := &f.course.Topics[ti].Items[ii]
	it.Title = in.Title
	payload := course.Item{Lesson: in.Lesson, Quiz: in.Quiz}.Clone()
	it.Lesson, it.Quiz = payload.Lesson, payload.Quiz
	return it.Clone(), nil
}

func (f *fakeService) DeleteItem(_ context.Context, id string) error {
	if err := f.enter("DeleteItem"); err != nil {
		return err
	}
	ti, ii := f.course.FindItem(id)
	if ti < 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	items := f.course.Topics[ti].Items
	f.course.Topics[ti].Items = append(items[:ii], items[ii+1:]...)
	return nil
}

func (f *fakeService) ReorderItems(_ context.Context, topicID string, ids []string) error {
	if err := f.enter("ReorderItems"); err != nil {
		return err
	}
	ti := f.course.FindTopic(topicID)
	if ti < 0 {
		return fmt.Errorf("topic %s: %w", topicID, ErrNotFound)
	}
	byID := map[string]course.Item{}
	for _, it := range f.course.Topics[ti].Items {
		byID[it.ID] = it
	}
	listed := map[string]bool{}
	out := make([]course.Item, 0, len(byID))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return fmt.Errorf("reorder: unknown item %s", id)
		}
		listed[id] = true
		out = append(out, it)
	}
	for _, it := range f.course.Topics[ti].Items {
		if !listed[it.ID] {
			out = append(out, it)
		}
	}
	f.course.Topics[ti].Items = out
	return nil
}

func (f *fakeService) UploadAsset(_ context.Context, class course.AssetClass, file course.LocalFile) (string, error) {
	if err := f.enter("UploadAsset"); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, string(class)+":"+file.Name)
	return string(class) + "/" + file.Name, nil
}

func (f *fakeService) UploadInlineImage(_ context.Context, markerID string, file course.LocalFile) (string, error) {
	if err := f.enter("UploadInlineImage"); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, "inline:"+markerID)
	return "inline/" + markerID + "-" + file.Name, nil
}
