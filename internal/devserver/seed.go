package devserver

import "github.com/gravitrone/lectern/internal/course"

// SeedDemo stores a small two-topic course and returns its id.
func (s *Server) SeedDemo() string {
	c := s.AddCourse(course.Course{
		Title:  "Intro to Distributed Systems",
		Status: course.StatusDraft,
		Topics: []course.Topic{
			{
				ID:    newID("top"),
				Title: "Foundations",
				Items: []course.Item{
					{
						ID:    newID("itm"),
						Kind:  course.KindLesson,
						Title: "What is a distributed system",
						Lesson: &course.LessonPayload{
							Blocks: []course.ContentBlock{
								{ID: "block-1", HTML: "<p>A collection of independent computers that appears to its users as a single system.</p>"},
							},
						},
					},
					{
						ID:    newID("itm"),
						Kind:  course.KindLesson,
						Title: "Clocks and ordering",
						Lesson: &course.LessonPayload{
							Blocks: []course.ContentBlock{
								{ID: "block-1", HTML: "<p>Lamport clocks give a partial order of events.</p>"},
							},
							Video: &course.VideoRef{Source: course.VideoSourceYouTube, URL: "https://www.youtube.com/watch?v=x-D8iFU1d-o"},
						},
					},
				},
			},
			{
				ID:    newID("top"),
				Title: "Consensus",
				Items: []course.Item{
					{
						ID:    newID("itm"),
						Kind:  course.KindQuiz,
						Title: "Checkpoint",
						Quiz: &course.QuizPayload{
							Settings: course.QuizSettings{PassingGrade: 70, MaxAttempts: 3},
							Questions: []course.Question{
								{
									ID:    "question-1",
									Type:  course.QuestionTrueFalse,
									Title: "Raft elects at most one leader per term.",
									Options: []course.AnswerOption{
										{ID: "true", Text: "True", Correct: true},
										{ID: "false", Text: "False"},
									},
								},
							},
						},
					},
				},
			},
		},
	})
	s.log.Info("seeded demo course", "course_id", c.ID)
	return c.ID
}
