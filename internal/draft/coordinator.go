package draft

import (
	"context"
	"sync/atomic"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/logger"
)

// Mode selects what a commit does after the tree is written.
type Mode int

const (
	ModeSaveDraft Mode = iota
	ModePublish
)

func (m Mode) String() string {
	if m == ModePublish {
		return "publish"
	}
	return "save"
}

// Commit steps, as reported by CommitError.Step.
const (
	StepTopics       = "topics"
	StepTopicOrder   = "topic order"
	StepItems        = "items"
	StepUploads      = "uploads"
	StepItemOrder    = "item order"
	StepDeleteItems  = "delete items"
	StepDeleteTopics = "delete topics"
	StepCourse       = "course"
	StepPublish      = "publish"
	StepReload       = "reload"
)

// Result summarizes a successful commit.
type Result struct {
	Created  int
	Updated  int
	Deleted  int
	Uploaded int
	// Mapping maps every temp id created by this commit to its persisted id.
	Mapping map[string]string
}

// Coordinator replays a draft against the content service.
type Coordinator struct {
	svc   ContentService
	media func(path string) string
	log   *logger.Logger
	busy  atomic.Bool
}

// NewCoordinator builds a coordinator. media turns a storage path into the URL
// written into rich text; nil keeps the path as is.
func NewCoordinator(svc ContentService, media func(string) string, log *logger.Logger) *Coordinator {
	if media == nil {
		media = func(p string) string { return p }
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{svc: svc, media: media, log: log}
}

// Busy reports whether a commit is running.
func (c *Coordinator) Busy() bool { return c.busy.Load() }

// commitRun is the state of one attempt. Nothing in it outlives the attempt.
type commitRun struct {
	c        *Coordinator
	work     *Store
	mode     Mode
	mapping  map[string]string
	released []string
	result   Result
}

// Commit writes the session's draft to the service. The draft itself is only
// replaced after every step has succeeded; on failure it is left as it was
// and the returned error is a *CommitError.
func (c *Coordinator) Commit(ctx context.Context, sess *Session, mode Mode) (Result, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer c.busy.Store(false)

	store := sess.store
	store.lock()
	defer store.unlock()

	run := &commitRun{
		c:       c,
		mode:    mode,
		mapping: map[string]string{},
	}
	run.work = store.clone(func(handle string) {
		run.released = append(run.released, handle)
	})

	log := c.log.With("course_id", store.course.ID, "mode", mode.String())
	log.Debug("commit started", "revision", store.Revision())

	reloaded, err := run.execute(ctx)
	if err != nil {
		log.Error("commit failed", "error", err)
		return Result{}, err
	}

	// success: install the server tree and free every preview the attempt retired
	for _, h := range run.released {
		store.previews.Release(h)
	}
	store.replace(reloaded)
	sess.tracker.Reset()

	run.result.Mapping = run.mapping
	log.Info("commit finished",
		"created", run.result.Created,
		"updated", run.result.Updated,
		"deleted", run.result.Deleted,
		"uploaded", run.result.Uploaded,
	)
	return run.result, nil
}

func (r *commitRun) execute(ctx context.Context) (course.Course, error) {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepTopics, r.topics},
		{StepTopicOrder, r.topicOrder},
		{StepItems, r.items},
		{StepItemOrder, r.itemOrder},
		{StepDeleteItems, r.deleteItems},
		{StepDeleteTopics, r.deleteTopics},
		{StepCourse, r.coursePass},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return course.Course{}, &CommitError{Step: step.name, Err: err}
		}
		r.c.log.Debug("commit step", "step", step.name)
		if err := step.fn(ctx); err != nil {
			return course.Course{}, err
		}
	}
	reloaded, err := r.c.svc.LoadCourse(ctx, r.work.course.ID)
	if err != nil {
		return course.Course{}, &CommitError{Step: StepReload, Entity: r.work.course.ID, Err: err}
	}
	return reloaded, nil
}

// --- Steps ---

func (r *commitRun) topics(ctx context.Context) error {
	courseID := r.work.course.ID
	for ti := range r.work.course.Topics {
		t := &r.work.course.Topics[ti]
		in := course.TopicInput{Title: t.Title, Summary: t.Summary}
		if IsTemp(t.ID) {
			created, err := r.c.svc.CreateTopic(ctx, courseID, in, t.ID)
			if err != nil {
				return &CommitError{Step: StepTopics, Entity: t.ID, Err: err}
			}
			r.mapping[t.ID] = created.ID
			t.ID = created.ID
			r.result.Created++
			continue
		}
		if _, err := r.c.svc.UpdateTopic(ctx, t.ID, in); err != nil {
			return &CommitError{Step: StepTopics, Entity: t.ID, Err: err}
		}
		r.result.Updated++
	}
	return nil
}

func (r *commitRun) topicOrder(ctx context.Context) error {
	if len(r.work.course.Topics) == 0 {
		return nil
	}
	ids := make([]string, len(r.work.course.Topics))
	for i, t := range r.work.course.Topics {
		ids[i] = t.ID
	}
	if err := r.c.svc.ReorderTopics(ctx, r.work.course.ID, ids); err != nil {
		return &CommitError{Step: StepTopicOrder, Entity: r.work.course.ID, Err: err}
	}
	return nil
}

// items creates or updates every item, then uploads its queued assets and
// patches the resolved payload. A new item with queued assets is created as an
// empty envelope so no local reference reaches the server before its upload.
func (r *commitRun) items(ctx context.Context) error {
	deleted := make(map[string]struct{}, len(r.work.deletedItems))
	for _, id := range r.work.deletedItems {
		deleted[id] = struct{}{}
	}
	for ti := range r.work.course.Topics {
		t := &r.work.course.Topics[ti]
		for ii := range t.Items {
			it := &t.Items[ii]
			if _, gone := deleted[it.ID]; gone {
				continue
			}
			if err := r.item(ctx, t.ID, it); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *commitRun) item(ctx context.Context, topicID string, it *course.Item) error {
	localID := it.ID
	p, ok := r.work.pending[localID]
	queued := ok && !p.empty()

	switch {
	case IsTemp(localID):
		in := course.InputFor(*it)
		if queued {
			in.Lesson, in.Quiz = nil, nil
		}
		created, err := r.c.svc.CreateItem(ctx, topicID, in, localID)
		if err != nil {
			return &CommitError{Step: StepItems, Entity: localID, Err: err}
		}
		r.mapping[localID] = created.ID
		it.ID = created.ID
		r.result.Created++
	case !queued:
		if _, err := r.c.svc.UpdateItem(ctx, it.ID, course.InputFor(*it)); err != nil {
			return &CommitError{Step: StepItems, Entity: localID, Err: err}
		}
		r.result.Updated++
	}
	if !queued {
		return nil
	}

	if err := r.resolveUploads(ctx, it, p); err != nil {
		return &CommitError{Step: StepUploads, Entity: localID, Err: err}
	}
	if _, err := r.c.svc.UpdateItem(ctx, it.ID, course.InputFor(*it)); err != nil {
		return &CommitError{Step: StepItems, Entity: localID, Err: err}
	}
	if !IsTemp(localID) {
		r.result.Updated++
	}
	return nil
}

// resolveUploads uploads the queued assets of it and writes their storage
// paths and URLs into its payload.
func (r *commitRun) resolveUploads(ctx context.Context, it *course.Item, p *PendingUpload) error {
	switch it.Kind {
	case course.KindLesson:
		return r.lessonUploads(ctx, it.Lesson, p)
	case course.KindQuiz:
		return r.quizUploads(ctx, it.Quiz, p)
	}
	return nil
}

func (r *commitRun) lessonUploads(ctx context.Context, l *course.LessonPayload, p *PendingUpload) error {
	if p.FeatureImage != nil {
		path, err := r.c.svc.UploadAsset(ctx, course.AssetFeatureImage, *p.FeatureImage)
		if err != nil {
			return err
		}
		l.FeatureImage = path
		p.FeatureImage = nil
		r.result.Uploaded++
	}
	if p.Video != nil && l.Video != nil && l.Video.Source == course.VideoSourceLocal {
		path, err := r.c.svc.UploadAsset(ctx, course.AssetVideo, *p.Video)
		if err != nil {
			return err
		}
		l.Video.StoragePath = path
		p.Video = nil
		r.result.Uploaded++
	}
	for len(p.Attachments) > 0 {
		f := p.Attachments[0]
		path, err := r.c.svc.UploadAsset(ctx, course.AssetAttachment, f)
		if err != nil {
			return err
		}
		l.Attachments = append(l.Attachments, course.Attachment{Name: f.Name, StoragePath: path, Size: f.Size})
		p.Attachments = p.Attachments[1:]
		r.result.Uploaded++
	}
	for bi := range l.Blocks {
		out, uploaded, err := p.Inline.Finalize(ctx, l.Blocks[bi].HTML, r.c.svc.UploadInlineImage, r.c.media)
		if err != nil {
			return err
		}
		l.Blocks[bi].HTML = out
		r.result.Uploaded += len(uploaded)
	}
	return nil
}

func (r *commitRun) quizUploads(ctx context.Context, q *course.QuizPayload, p *PendingUpload) error {
	if p.Inline.Len() == 0 {
		return nil
	}
	for qi := range q.Questions {
		question := &q.Questions[qi]
		for _, field := range []*string{&question.Description, &question.CorrectExplanation, &question.IncorrectExplanation} {
			out, uploaded, err := p.Inline.Finalize(ctx, *field, r.c.svc.UploadInlineImage, r.c.media)
			if err != nil {
				return err
			}
			*field = out
			r.result.Uploaded += len(uploaded)
		}
	}
	return nil
}

func (r *commitRun) itemOrder(ctx context.Context) error {
	for _, t := range r.work.course.Topics {
		if len(t.Items) == 0 {
			continue
		}
		ids := make([]string, len(t.Items))
		for i, it := range t.Items {
			ids[i] = it.ID
		}
		if err := r.c.svc.ReorderItems(ctx, t.ID, ids); err != nil {
			return &CommitError{Step: StepItemOrder, Entity: t.ID, Err: err}
		}
	}
	return nil
}

func (r *commitRun) deleteItems(ctx context.Context) error {
	for _, id := range r.work.deletedItems {
		if IsTemp(id) {
			continue
		}
		if err := r.c.svc.DeleteItem(ctx, id); err != nil {
			return &CommitError{Step: StepDeleteItems, Entity: id, Err: err}
		}
		r.result.Deleted++
	}
	return nil
}

func (r *commitRun) deleteTopics(ctx context.Context) error {
	for _, id := range r.work.deletedTopics {
		if IsTemp(id) {
			continue
		}
		if err := r.c.svc.DeleteTopic(ctx, id); err != nil {
			return &CommitError{Step: StepDeleteTopics, Entity: id, Err: err}
		}
		r.result.Deleted++
	}
	return nil
}

func (r *commitRun) coursePass(ctx context.Context) error {
	c := &r.work.course
	in := course.CourseInput{Title: c.Title}
	if r.work.certificate != nil {
		path, err := r.c.svc.UploadAsset(ctx, course.AssetCertificateTemplate, *r.work.certificate)
		if err != nil {
			return &CommitError{Step: StepCourse, Entity: c.ID, Err: err}
		}
		c.CertificateTemplate = path
		in.CertificateTemplate = path
		r.work.certificate = nil
		r.result.Uploaded++
	}
	if _, err := r.c.svc.UpdateCourse(ctx, c.ID, in); err != nil {
		return &CommitError{Step: StepCourse, Entity: c.ID, Err: err}
	}
	if r.mode == ModePublish {
		if _, err := r.c.svc.PublishCourse(ctx, c.ID); err != nil {
			return &CommitError{Step: StepPublish, Entity: c.ID, Err: err}
		}
	}
	return nil
}
