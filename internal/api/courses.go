package api

import (
	"context"

	"github.com/gravitrone/lectern/internal/course"
)

// --- Courses ---

// LoadCourse fetches a course with its full topic and item tree.
func (c *Client) LoadCourse(ctx context.Context, courseID string) (course.Course, error) {
	data, err := c.get(ctx, "/api/courses/"+escape(courseID))
	if err != nil {
		return course.Course{}, err
	}
	out, err := decodeOne[course.Course](data)
	if err != nil {
		return course.Course{}, err
	}
	return *out, nil
}

// ListCourses returns every course without its topics.
func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	data, err := c.get(ctx, "/api/courses")
	if err != nil {
		return nil, err
	}
	return decodeList[course.Course](data)
}

// CreateCourse creates an empty draft course.
func (c *Client) CreateCourse(ctx context.Context, in course.CourseInput) (course.Course, error) {
	data, err := c.post(ctx, "/api/courses", in)
	if err != nil {
		return course.Course{}, err
	}
	out, err := decodeOne[course.Course](data)
	if err != nil {
		return course.Course{}, err
	}
	return *out, nil
}

// UpdateCourse patches course-level settings.
func (c *Client) UpdateCourse(ctx context.Context, courseID string, in course.CourseInput) (course.Course, error) {
	data, err := c.patch(ctx, "/api/courses/"+escape(courseID), in)
	if err != nil {
		return course.Course{}, err
	}
	out, err := decodeOne[course.Course](data)
	if err != nil {
		return course.Course{}, err
	}
	return *out, nil
}

// PublishCourse moves a course from draft to published.
func (c *Client) PublishCourse(ctx context.Context, courseID string) (course.Course, error) {
	data, err := c.post(ctx, "/api/courses/"+escape(courseID)+"/publish", nil)
	if err != nil {
		return course.Course{}, err
	}
	out, err := decodeOne[course.Course](data)
	if err != nil {
		return course.Course{}, err
	}
	return *out, nil
}
