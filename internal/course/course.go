package course

import "strings"

// --- Course Tree ---

// Kind discriminates item payloads.
type Kind string

const (
	KindLesson Kind = "lesson"
	KindQuiz   Kind = "quiz"
)

// Valid reports whether k is a known item kind.
func (k Kind) Valid() bool {
	return k == KindLesson || k == KindQuiz
}

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Course is the root of the content tree.
type Course struct {
	ID                  string  `json:"id" yaml:"id"`
	Title               string  `json:"title" yaml:"title"`
	Status              string  `json:"status,omitempty" yaml:"status,omitempty"`
	CertificateTemplate string  `json:"certificate_template,omitempty" yaml:"certificate_template,omitempty"`
	Topics              []Topic `json:"topics" yaml:"topics"`
}

// Topic is a chapter holding an ordered list of items.
type Topic struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Position int    `json:"position" yaml:"position"`
	Items    []Item `json:"items" yaml:"items"`
}

// Item is the shared envelope of lessons and quizzes. Exactly one of Lesson or
// Quiz is set, matching Kind.
type Item struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     Kind           `json:"kind" yaml:"kind"`
	Title    string         `json:"title" yaml:"title"`
	Position int            `json:"position" yaml:"position"`
	Lesson   *LessonPayload `json:"lesson,omitempty" yaml:"lesson,omitempty"`
	Quiz     *QuizPayload   `json:"quiz,omitempty" yaml:"quiz,omitempty"`
}

// --- Lesson Payload ---

const (
	VideoSourceLocal    = "local"
	VideoSourceYouTube  = "youtube"
	VideoSourceVimeo    = "vimeo"
	VideoSourceExternal = "external"
)

type LessonPayload struct {
	Blocks       []ContentBlock `json:"blocks" yaml:"blocks"`
	FeatureImage string         `json:"feature_image,omitempty" yaml:"feature_image,omitempty"`
	Video        *VideoRef      `json:"video,omitempty" yaml:"video,omitempty"`
	Attachments  []Attachment   `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// ContentBlock is one rich-text section of a lesson.
type ContentBlock struct {
	ID   string `json:"id" yaml:"id"`
	HTML string `json:"html" yaml:"html"`
}

type VideoRef struct {
	Source      string `json:"source" yaml:"source"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	StoragePath string `json:"storage_path,omitempty" yaml:"storage_path,omitempty"`
}

type Attachment struct {
	Name        string `json:"name" yaml:"name"`
	StoragePath string `json:"storage_path" yaml:"storage_path"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// --- Quiz Payload ---

const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
)

type QuizPayload struct {
	Settings  QuizSettings `json:"settings" yaml:"settings"`
	Questions []Question   `json:"questions" yaml:"questions"`
}

type QuizSettings struct {
	TimeLimitMinutes int  `json:"time_limit_minutes,omitempty" yaml:"time_limit_minutes,omitempty"`
	PassingGrade     int  `json:"passing_grade,omitempty" yaml:"passing_grade,omitempty"`
	MaxAttempts      int  `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	ShuffleQuestions bool `json:"shuffle_questions,omitempty" yaml:"shuffle_questions,omitempty"`
}

// Question holds rich text in Description and both explanations.
type Question struct {
	ID                   string         `json:"id" yaml:"id"`
	Type                 string         `json:"type" yaml:"type"`
	Title                string         `json:"title" yaml:"title"`
	Description          string         `json:"description,omitempty" yaml:"description,omitempty"`
	CorrectExplanation   string         `json:"correct_explanation,omitempty" yaml:"correct_explanation,omitempty"`
	IncorrectExplanation string         `json:"incorrect_explanation,omitempty" yaml:"incorrect_explanation,omitempty"`
	Points               int            `json:"points,omitempty" yaml:"points,omitempty"`
	Options              []AnswerOption `json:"options,omitempty" yaml:"options,omitempty"`
}

type AnswerOption struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct,omitempty" yaml:"correct,omitempty"`
}

// RichText returns the rich-text fields of q in a stable order.
func (q Question) RichText() []string {
	return []string{q.Description, q.CorrectExplanation, q.IncorrectExplanation}
}

// --- Local Files ---

// AssetClass selects the binary upload endpoint.
type AssetClass string

const (
	AssetFeatureImage        AssetClass = "feature_image"
	AssetVideo               AssetClass = "video"
	AssetAttachment          AssetClass = "attachment"
	AssetCertificateTemplate AssetClass = "certificate_template"
	AssetInlineImage         AssetClass = "inline_image"
)

// LocalFile is a binary selected on this machine but not uploaded yet.
type LocalFile struct {
	Path        string `json:"path" yaml:"path"`
	Name        string `json:"name" yaml:"name"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

// --- Helpers ---

// FindTopic returns the index of the topic with id, or -1.
func (c *Course) FindTopic(id string) int {
	for i := range c.Topics {
		if c.Topics[i].ID == id {
			return i
		}
	}
	return -1
}

// FindItem returns the topic and item indexes of the item with id.
func (c *Course) FindItem(id string) (int, int) {
	for ti := range c.Topics {
		for ii := range c.Topics[ti].Items {
			if c.Topics[ti].Items[ii].ID == id {
				return ti, ii
			}
		}
	}
	return -1, -1
}

// Clone returns a deep copy of the course tree.
func (c Course) Clone() Course {
	out := c
	out.Topics = make([]Topic, len(c.Topics))
	for i, t := range c.Topics {
		out.Topics[i] = t.Clone()
	}
	return out
}

func (t Topic) Clone() Topic {
	out := t
	out.Items = make([]Item, len(t.Items))
	for i, it := range t.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

func (it Item) Clone() Item {
	out := it
	if it.Lesson != nil {
		l := *it.Lesson
		l.Blocks = append([]ContentBlock(nil), it.Lesson.Blocks...)
		l.Attachments = append([]Attachment(nil), it.Lesson.Attachments...)
		if it.Lesson.Video != nil {
			v := *it.Lesson.Video
			l.Video = &v
		}
		out.Lesson = &l
	}
	if it.Quiz != nil {
		q := *it.Quiz
		q.Questions = make([]Question, len(it.Quiz.Questions))
		for i, qq := range it.Quiz.Questions {
			qq.Options = append([]AnswerOption(nil), qq.Options...)
			q.Questions[i] = qq
		}
		out.Quiz = &q
	}
	return out
}

// NormalizePayload makes sure the payload pointer matches Kind.
func (it *Item) NormalizePayload() {
	switch it.Kind {
	case KindLesson:
		if it.Lesson == nil {
			it.Lesson = &LessonPayload{}
		}
		it.Quiz = nil
	case KindQuiz:
		if it.Quiz == nil {
			it.Quiz = &QuizPayload{}
		}
		it.Lesson = nil
	}
}

// Label is a short display string for the item.
func (it Item) Label() string {
	return strings.TrimSpace(string(it.Kind) + ": " + it.Title)
}
