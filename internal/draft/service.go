package draft

import (
	"context"

	"github.com/gravitrone/lectern/internal/course"
)

// ContentService is the remote side of a commit. Create calls carry the temp
// id of the entity as idemKey so a retried create can be deduplicated.
type ContentService interface {
	LoadCourse(ctx context.Context, courseID string) (course.Course, error)
	UpdateCourse(ctx context.Context, courseID string, in course.CourseInput) (course.Course, error)
	PublishCourse(ctx context.Context, courseID string) (course.Course, error)

	CreateTopic(ctx context.Context, courseID string, in course.TopicInput, idemKey string) (course.Topic, error)
	UpdateTopic(ctx context.Context, topicID string, in course.TopicInput) (course.Topic, error)
	DeleteTopic(ctx context.Context, topicID string) error
	ReorderTopics(ctx context.Context, courseID string, ids []string) error

	CreateItem(ctx context.Context, topicID string, in course.ItemInput, idemKey string) (course.Item, error)
	UpdateItem(ctx context.Context, itemID string, in course.ItemInput) (course.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	ReorderItems(ctx context.Context, topicID string, ids []string) error

	UploadAsset(ctx context.Context, class course.AssetClass, f course.LocalFile) (string, error)
	UploadInlineImage(ctx context.Context, markerID string, f course.LocalFile) (string, error)
}
