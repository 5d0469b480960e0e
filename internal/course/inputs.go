package course

// TopicInput carries the mutable fields of a topic.
type TopicInput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ItemInput carries the mutable fields of an item. Kind is only honored on
// create.
type ItemInput struct {
	Kind   Kind           `json:"kind,omitempty"`
	Title  string         `json:"title"`
	Lesson *LessonPayload `json:"lesson,omitempty"`
	Quiz   *QuizPayload   `json:"quiz,omitempty"`
}

// CourseInput patches course-level settings. Empty fields are left alone.
type CourseInput struct {
	Title               string `json:"title,omitempty"`
	CertificateTemplate string `json:"certificate_template,omitempty"`
}

// InputFor builds the patch body for an item.
func InputFor(it Item) ItemInput {
	return ItemInput{
		Kind:   it.Kind,
		Title:  it.Title,
		Lesson: it.Lesson,
		Quiz:   it.Quiz,
	}
}
