package devserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gravitrone/lectern/internal/course"
)

const maxUploadBytes = 64 << 20

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{
		Error: apiError{
			Message: msg,
			Code:    code,
		},
	})
}

func respondOK(c *gin.Context, status int, payload any) {
	c.JSON(status, dataEnvelope{Data: payload})
}

// respondErr maps content errors to HTTP statuses.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, errInvalid):
		respondError(c, http.StatusUnprocessableEntity, "invalid", err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("decode body: %w", err))
		return false
	}
	return true
}

// --- Health ---

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
}

// --- Courses ---

func (s *Server) listCourses(c *gin.Context) {
	respondOK(c, http.StatusOK, s.content.listCourses())
}

func (s *Server) createCourse(c *gin.Context) {
	var in course.CourseInput
	if !bind(c, &in) {
		return
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		respondError(c, http.StatusUnprocessableEntity, "invalid", errors.New("course title is required"))
		return
	}
	out := s.content.addCourse(course.Course{Title: title, Topics: []course.Topic{}})
	respondOK(c, http.StatusCreated, out)
}

func (s *Server) loadCourse(c *gin.Context) {
	out, err := s.content.getCourse(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) updateCourse(c *gin.Context) {
	var in course.CourseInput
	if !bind(c, &in) {
		return
	}
	out, err := s.content.updateCourse(c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) publishCourse(c *gin.Context) {
	out, err := s.content.publishCourse(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, out)
}

// --- Topics ---

func (s *Server) createTopic(c *gin.Context) {
	var in course.TopicInput
	if !bind(c, &in) {
		return
	}
	out, replayed, err := s.content.createTopic(c.Param("id"), in, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		s.log.Debug("replayed create", "topic_id", out.ID)
		status = http.StatusOK
	}
	respondOK(c, status, out)
}

func (s *Server) updateTopic(c *gin.Context) {
	var in course.TopicInput
	if !bind(c, &in) {
		return
	}
	out, err := s.content.updateTopic(c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) deleteTopic(c *gin.Context) {
	if err := s.content.deleteTopic(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderInput struct {
	IDs []string `json:"ids"`
}

func (s *Server) reorderTopics(c *gin.Context) {
	var in reorderInput
	if !bind(c, &in) {
		return
	}
	if err := s.content.reorderTopics(c.Param("id"), in.IDs); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"ids": in.IDs})
}

// --- Items ---

func (s *Server) createItem(c *gin.Context) {
	var in course.ItemInput
	if !bind(c, &in) {
		return
	}
	out, replayed, err := s.content.createItem(c.Param("id"), in, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		s.log.Debug("replayed create", "item_id", out.ID)
		status = http.StatusOK
	}
	respondOK(c, status, out)
}

func (s *Server) updateItem(c *gin.Context) {
	var in course.ItemInput
	if !bind(c, &in) {
		return
	}
	out, err := s.content.updateItem(c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, out)
}

func (s *Server) deleteItem(c *gin.Context) {
	if err := s.content.deleteItem(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) reorderItems(c *gin.Context) {
	var in reorderInput
	if !bind(c, &in) {
		return
	}
	if err := s.content.reorderItems(c.Param("id"), in.IDs); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"ids": in.IDs})
}

// --- Uploads ---

func (s *Server) upload(c *gin.Context) {
	class := c.Param("class")
	if !uploadClasses[class] {
		respondError(c, http.StatusNotFound, "not_found", fmt.Errorf("unknown upload class %q", class))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("file is required: %w", err))
		return
	}
	if class == "inline" && strings.TrimSpace(c.PostForm("marker_id")) == "" {
		respondError(c, http.StatusBadRequest, "bad_request", errors.New("marker_id is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); ct != "" {
		contentType = ct
	}
	path := s.content.putBlob(class, header.Filename, contentType, data)
	s.log.Debug("stored upload", "path", path, "bytes", len(data))
	respondOK(c, http.StatusCreated, gin.H{"path": path})
}

// --- Media ---

func (s *Server) media(c *gin.Context) {
	p := strings.TrimPrefix(c.Param("path"), "/")
	b, ok := s.content.getBlob(p)
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", fmt.Errorf("media %s not found", p))
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	contentType := b.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, b.data)
}
