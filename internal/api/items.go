package api

import (
	"context"

	"github.com/gravitrone/lectern/internal/course"
)

// --- Items ---

// CreateItem appends a lesson or quiz to a topic.
func (c *Client) CreateItem(ctx context.Context, topicID string, in course.ItemInput, idemKey string) (course.Item, error) {
	data, err := c.create(ctx, "/api/topics/"+escape(topicID)+"/items", in, idemKey)
	if err != nil {
		return course.Item{}, err
	}
	out, err := decodeOne[course.Item](data)
	if err != nil {
		return course.Item{}, err
	}
	return *out, nil
}

// UpdateItem patches title and payload. Kind cannot change.
func (c *Client) UpdateItem(ctx context.Context, itemID string, in course.ItemInput) (course.Item, error) {
	in.Kind = ""
	data, err := c.patch(ctx, "/api/items/"+escape(itemID), in)
	if err != nil {
		return course.Item{}, err
	}
	out, err := decodeOne[course.Item](data)
	if err != nil {
		return course.Item{}, err
	}
	return *out, nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	_, err := c.del(ctx, "/api/items/"+escape(itemID))
	return err
}

// ReorderItems sets the item order of a topic.
func (c *Client) ReorderItems(ctx context.Context, topicID string, ids []string) error {
	_, err := c.put(ctx, "/api/topics/"+escape(topicID)+"/items/order", ReorderInput{IDs: ids})
	return err
}
