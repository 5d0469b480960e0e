package api

import (
	"context"

	"github.com/gravitrone/lectern/internal/course"
)

// --- Topics ---

// CreateTopic appends a topic to a course. idemKey lets the service recognize
// a retried create.
func (c *Client) CreateTopic(ctx context.Context, courseID string, in course.TopicInput, idemKey string) (course.Topic, error) {
	data, err := c.create(ctx, "/api/courses/"+escape(courseID)+"/topics", in, idemKey)
	if err != nil {
		return course.Topic{}, err
	}
	out, err := decodeOne[course.Topic](data)
	if err != nil {
		return course.Topic{}, err
	}
	return *out, nil
}

func (c *Client) UpdateTopic(ctx context.Context, topicID string, in course.TopicInput) (course.Topic, error) {
	data, err := c.patch(ctx, "/api/topics/"+escape(topicID), in)
	if err != nil {
		return course.Topic{}, err
	}
	out, err := decodeOne[course.Topic](data)
	if err != nil {
		return course.Topic{}, err
	}
	return *out, nil
}

// DeleteTopic removes a topic and every item in it.
func (c *Client) DeleteTopic(ctx context.Context, topicID string) error {
	_, err := c.del(ctx, "/api/topics/"+escape(topicID))
	return err
}

// ReorderTopics sets the topic order of a course.
func (c *Client) ReorderTopics(ctx context.Context, courseID string, ids []string) error {
	_, err := c.put(ctx, "/api/courses/"+escape(courseID)+"/topics/order", ReorderInput{IDs: ids})
	return err
}
