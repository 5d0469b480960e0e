package draft

import (
	"strings"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/richtext"
)

// Rich-text fields of a quiz question that accept inline images.
const (
	FieldDescription          = "description"
	FieldCorrectExplanation   = "correct_explanation"
	FieldIncorrectExplanation = "incorrect_explanation"
)

// --- Lesson Blocks ---

func (s *Store) lesson(itemID string) (*course.Item, error) {
	it, err := s.item(itemID)
	if err != nil {
		return nil, err
	}
	if it.Kind != course.KindLesson {
		return nil, itemKindError(it, course.KindLesson)
	}
	it.NormalizePayload()
	return it, nil
}

func (s *Store) quiz(itemID string) (*course.Item, error) {
	it, err := s.item(itemID)
	if err != nil {
		return nil, err
	}
	if it.Kind != course.KindQuiz {
		return nil, itemKindError(it, course.KindQuiz)
	}
	it.NormalizePayload()
	return it, nil
}

func findBlock(blocks []course.ContentBlock, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// SetBlocks replaces every block of a lesson. Blocks without an id get one.
func (s *Store) SetBlocks(itemID string, blocks []course.ContentBlock) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	out := make([]course.ContentBlock, len(blocks))
	for i, b := range blocks {
		if _, err := richtext.MarkerIDs(b.HTML); err != nil {
			return invalid("block", "%v", err)
		}
		if b.ID == "" {
			b.ID = newLocalKey("block")
		}
		out[i] = b
	}
	it.Lesson.Blocks = out
	if err := s.pruneInline(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

// AddBlock appends a content block to a lesson and returns its id.
func (s *Store) AddBlock(itemID, html string) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return "", err
	}
	id := newLocalKey("block")
	it.Lesson.Blocks = append(it.Lesson.Blocks, course.ContentBlock{ID: id, HTML: html})
	if err := s.pruneInline(it); err != nil {
		return "", err
	}
	s.touch()
	return id, nil
}

// UpdateBlock replaces the html of a block. Images dropped from the text leave
// the upload queue.
func (s *Store) UpdateBlock(itemID, blockID, html string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	bi := findBlock(it.Lesson.Blocks, blockID)
	if bi < 0 {
		return notFound("block", blockID)
	}
	if _, err := richtext.MarkerIDs(html); err != nil {
		return invalid("block", "%v", err)
	}
	it.Lesson.Blocks[bi].HTML = html
	if err := s.pruneInline(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Store) RemoveBlock(itemID, blockID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	bi := findBlock(it.Lesson.Blocks, blockID)
	if bi < 0 {
		return notFound("block", blockID)
	}
	it.Lesson.Blocks = append(it.Lesson.Blocks[:bi], it.Lesson.Blocks[bi+1:]...)
	if err := s.pruneInline(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Store) MoveBlock(itemID, blockID string, index int) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	bi := findBlock(it.Lesson.Blocks, blockID)
	if bi < 0 {
		return notFound("block", blockID)
	}
	it.Lesson.Blocks = moveElem(it.Lesson.Blocks, bi, index)
	s.touch()
	return nil
}

// InsertInlineImage queues f and appends its pending tag to the block. It
// returns the marker id.
func (s *Store) InsertInlineImage(itemID, blockID string, f course.LocalFile) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return "", err
	}
	bi := findBlock(it.Lesson.Blocks, blockID)
	if bi < 0 {
		return "", notFound("block", blockID)
	}
	if err := ValidateFile(course.AssetInlineImage, f); err != nil {
		return "", err
	}
	markerID := s.queueInline(itemID, f)
	it.Lesson.Blocks[bi].HTML += pendingImageTag(markerID, f.Name)
	s.touch()
	return markerID, nil
}

func (s *Store) queueInline(itemID string, f course.LocalFile) string {
	markerID := newLocalKey("img")
	p := s.pendingFor(itemID)
	p.Inline.Add(InlineEntry{
		MarkerID: markerID,
		File:     f,
		Preview:  s.previews.Open(markerID, f),
	})
	return markerID
}

// --- Lesson Assets ---

// SetFeatureImage queues f to replace the lesson's feature image.
func (s *Store) SetFeatureImage(itemID string, f course.LocalFile) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, err := s.lesson(itemID); err != nil {
		return err
	}
	if err := ValidateFile(course.AssetFeatureImage, f); err != nil {
		return err
	}
	s.pendingFor(itemID).FeatureImage = &f
	s.touch()
	return nil
}

// ClearFeatureImage drops both the queued and the stored feature image.
func (s *Store) ClearFeatureImage(itemID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	it.Lesson.FeatureImage = ""
	if p, ok := s.pending[itemID]; ok {
		p.FeatureImage = nil
		s.settlePending(itemID)
	}
	s.touch()
	return nil
}

// SetVideo sets the lesson video. A local source needs file; hosted sources
// need a URL and discard any queued file.
func (s *Store) SetVideo(itemID string, ref course.VideoRef, file *course.LocalFile) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	ref.URL = strings.TrimSpace(ref.URL)
	switch ref.Source {
	case course.VideoSourceLocal:
		if file == nil {
			return invalid("video", "a local video needs a file")
		}
		if err := ValidateFile(course.AssetVideo, *file); err != nil {
			return err
		}
		f := *file
		s.pendingFor(itemID).Video = &f
		ref.URL = ""
	case course.VideoSourceYouTube, course.VideoSourceVimeo, course.VideoSourceExternal:
		if ref.URL == "" {
			return invalid("video", "%s video needs a url", ref.Source)
		}
		ref.StoragePath = ""
		if p, ok := s.pending[itemID]; ok {
			p.Video = nil
			s.settlePending(itemID)
		}
	case "":
		it.Lesson.Video = nil
		if p, ok := s.pending[itemID]; ok {
			p.Video = nil
			s.settlePending(itemID)
		}
		s.touch()
		return nil
	default:
		return invalid("video", "unknown source %q", ref.Source)
	}
	it.Lesson.Video = &ref
	s.touch()
	return nil
}

// AddAttachment queues f as a new lesson attachment.
func (s *Store) AddAttachment(itemID string, f course.LocalFile) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	if err := ValidateFile(course.AssetAttachment, f); err != nil {
		return err
	}
	for _, a := range it.Lesson.Attachments {
		if a.Name == f.Name {
			return invalid("attachment", "%s is already attached", f.Name)
		}
	}
	if p, ok := s.pending[itemID]; ok {
		for _, a := range p.Attachments {
			if a.Name == f.Name {
				return invalid("attachment", "%s is already queued", f.Name)
			}
		}
	}
	p := s.pendingFor(itemID)
	p.Attachments = append(p.Attachments, f)
	s.touch()
	return nil
}

// RemoveAttachment drops a queued attachment, or a stored one with that name.
func (s *Store) RemoveAttachment(itemID, name string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.lesson(itemID)
	if err != nil {
		return err
	}
	if p, ok := s.pending[itemID]; ok {
		for i, a := range p.Attachments {
			if a.Name == name {
				p.Attachments = append(p.Attachments[:i], p.Attachments[i+1:]...)
				s.settlePending(itemID)
				s.touch()
				return nil
			}
		}
	}
	for i, a := range it.Lesson.Attachments {
		if a.Name == name {
			it.Lesson.Attachments = append(it.Lesson.Attachments[:i], it.Lesson.Attachments[i+1:]...)
			s.touch()
			return nil
		}
	}
	return notFound("attachment", name)
}

// --- Quiz ---

func (s *Store) SetQuizSettings(itemID string, settings course.QuizSettings) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.quiz(itemID)
	if err != nil {
		return err
	}
	if settings.PassingGrade < 0 || settings.PassingGrade > 100 {
		return invalid("passing grade", "must be between 0 and 100")
	}
	if settings.TimeLimitMinutes < 0 || settings.MaxAttempts < 0 {
		return invalid("quiz settings", "limits cannot be negative")
	}
	it.Quiz.Settings = settings
	s.touch()
	return nil
}

func findQuestion(qs []course.Question, id string) int {
	for i := range qs {
		if qs[i].ID == id {
			return i
		}
	}
	return -1
}

func validateQuestion(q course.Question) (course.Question, error) {
	title, err := ValidateTitle("question title", q.Title)
	if err != nil {
		return q, err
	}
	q.Title = title
	switch q.Type {
	case course.QuestionSingleChoice, course.QuestionMultipleChoice, course.QuestionTrueFalse, course.QuestionShortAnswer:
	case "":
		q.Type = course.QuestionSingleChoice
	default:
		return q, invalid("question type", "unknown type %q", q.Type)
	}
	if q.Points < 0 {
		return q, invalid("points", "cannot be negative")
	}
	for i := range q.Options {
		if q.Options[i].ID == "" {
			q.Options[i].ID = newLocalKey("opt")
		}
	}
	for _, field := range q.RichText() {
		if _, err := richtext.MarkerIDs(field); err != nil {
			return q, invalid("question", "%v", err)
		}
	}
	return q, nil
}

// AddQuestion appends q to a quiz and returns its id.
func (s *Store) AddQuestion(itemID string, q course.Question) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	it, err := s.quiz(itemID)
	if err != nil {
		return "", err
	}
	q, err = validateQuestion(q)
	if err != nil {
		return "", err
	}
	q.ID = newLocalKey("q")
	it.Quiz.Questions = append(it.Quiz.Questions, q)
	if err := s.pruneInline(it); err != nil {
		return "", err
	}
	s.touch()
	return q.ID, nil
}

// UpdateQuestion replaces the question with q.ID.
func (s *Store) UpdateQuestion(itemID string, q course.Question) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.quiz(itemID)
	if err != nil {
		return err
	}
	qi := findQuestion(it.Quiz.Questions, q.ID)
	if qi < 0 {
		return notFound("question", q.ID)
	}
	q, err = validateQuestion(q)
	if err != nil {
		return err
	}
	it.Quiz.Questions[qi] = q
	if err := s.pruneInline(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Store) RemoveQuestion(itemID, questionID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	it, err := s.quiz(itemID)
	if err != nil {
		return err
	}
	qi := findQuestion(it.Quiz.Questions, questionID)
	if qi < 0 {
		return notFound("question", questionID)
	}
	it.Quiz.Questions = append(it.Quiz.Questions[:qi], it.Quiz.Questions[qi+1:]...)
	if err := s.pruneInline(it); err != nil {
		return err
	}
	s.touch()
	return nil
}

// InsertQuestionImage queues f and appends its tag to one rich-text field of a
// question. The quiz's fields share a single queue.
func (s *Store) InsertQuestionImage(itemID, questionID, field string, f course.LocalFile) (string, error) {
	if err := s.writable(); err != nil {
		return "", err
	}
	it, err := s.quiz(itemID)
	if err != nil {
		return "", err
	}
	qi := findQuestion(it.Quiz.Questions, questionID)
	if qi < 0 {
		return "", notFound("question", questionID)
	}
	q := &it.Quiz.Questions[qi]
	var target *string
	switch field {
	case FieldDescription:
		target = &q.Description
	case FieldCorrectExplanation:
		target = &q.CorrectExplanation
	case FieldIncorrectExplanation:
		target = &q.IncorrectExplanation
	default:
		return "", invalid("question field", "unknown field %q", field)
	}
	if err := ValidateFile(course.AssetInlineImage, f); err != nil {
		return "", err
	}
	markerID := s.queueInline(itemID, f)
	*target += pendingImageTag(markerID, f.Name)
	s.touch()
	return markerID, nil
}
