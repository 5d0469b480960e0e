package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/journal"
	"github.com/gravitrone/lectern/internal/logger"
)

// Journal persists unsaved drafts between runs.
type Journal interface {
	Save(ctx context.Context, e journal.Entry) error
	Load(ctx context.Context, courseID string) (journal.Entry, error)
	Clear(ctx context.Context, courseID string) error
}

// Options configure Open. Every field is optional.
type Options struct {
	Media    func(path string) string
	Logger   *logger.Logger
	Journal  Journal
	Previews *Previews
}

// Session is the editing lifecycle of one course: opened from server data,
// mutated through Store, and replaced after each successful commit.
type Session struct {
	store    *Store
	tracker  *Tracker
	coord    *Coordinator
	journal  Journal
	log      *logger.Logger
	previews *Previews

	recovered *journal.Entry
}

// Open loads courseID and starts a session on it. A journaled draft made
// against the same server state is kept aside for Restore.
func Open(ctx context.Context, svc ContentService, courseID string, opts Options) (*Session, error) {
	c, err := svc.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	previews := opts.Previews
	if previews == nil {
		previews = NewPreviews()
	}
	store := NewStore(c, NewAllocator(), previews)
	s := &Session{
		store:    store,
		tracker:  NewTracker(store),
		coord:    NewCoordinator(svc, opts.Media, log),
		journal:  opts.Journal,
		log:      log.With("course_id", c.ID),
		previews: previews,
	}
	s.checkJournal(ctx)
	return s, nil
}

func (s *Session) checkJournal(ctx context.Context) {
	if s.journal == nil {
		return
	}
	e, err := s.journal.Load(ctx, s.store.CourseID())
	if errors.Is(err, journal.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("journal unavailable", "error", err)
		return
	}
	if e.BaseSignature != s.tracker.Baseline() {
		// the server moved on; the old draft no longer applies
		s.log.Warn("dropping stale journal entry", "saved_at", e.UpdatedAt)
		if err := s.journal.Clear(ctx, e.CourseID); err != nil {
			s.log.Warn("clear journal", "error", err)
		}
		return
	}
	s.recovered = &e
}

func (s *Session) Store() *Store { return s.store }

func (s *Session) Previews() *Previews { return s.previews }

// Dirty reports whether there is anything to save.
func (s *Session) Dirty() bool { return s.tracker.IsDirty() }

// Busy reports whether a commit is running.
func (s *Session) Busy() bool { return s.coord.Busy() }

// Baseline is the last state confirmed by the server.
func (s *Session) Baseline() course.Course { return s.tracker.BaselineCourse() }

func (s *Session) Guard() *Guard { return &Guard{sess: s} }

// Commit saves the draft (and publishes it in ModePublish).
func (s *Session) Commit(ctx context.Context, mode Mode) (Result, error) {
	res, err := s.coord.Commit(ctx, s, mode)
	if err != nil {
		return Result{}, err
	}
	s.clearJournal(ctx)
	return res, nil
}

// Discard returns to the last confirmed state, dropping every queued upload.
func (s *Session) Discard(ctx context.Context) error {
	if err := s.store.Discard(s.tracker.BaselineCourse()); err != nil {
		return err
	}
	s.clearJournal(ctx)
	return nil
}

// Autosave writes the draft to the journal, or clears it when clean.
func (s *Session) Autosave(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	if !s.Dirty() {
		return s.journal.Clear(ctx, s.store.CourseID())
	}
	raw, err := MarshalDraft(s.store)
	if err != nil {
		return err
	}
	return s.journal.Save(ctx, journal.Entry{
		CourseID:      s.store.CourseID(),
		BaseSignature: s.tracker.Baseline(),
		Snapshot:      raw,
	})
}

// Recoverable reports when the draft waiting in the journal was saved.
func (s *Session) Recoverable() (time.Time, bool) {
	if s.recovered == nil {
		return time.Time{}, false
	}
	return s.recovered.UpdatedAt, true
}

// Restore replaces the working copy with the journaled draft. The baseline
// stays the server state, so the restored draft is dirty.
func (s *Session) Restore() error {
	if s.recovered == nil {
		return errors.New("no draft to restore")
	}
	if s.coord.Busy() {
		return ErrCommitInFlight
	}
	restored, err := RestoreDraft(s.recovered.Snapshot, s.store.ids, s.previews)
	if err != nil {
		return err
	}
	s.store.releaseBuffers()
	s.store = restored
	s.tracker.rebind(restored)
	s.recovered = nil
	s.log.Info("draft restored from journal")
	return nil
}

// DropRecovery forgets the journaled draft.
func (s *Session) DropRecovery(ctx context.Context) {
	s.recovered = nil
	s.clearJournal(ctx)
}

func (s *Session) clearJournal(ctx context.Context) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Clear(ctx, s.store.CourseID()); err != nil {
		s.log.Warn("clear journal", "error", err)
	}
}
