// Package devserver is an in-memory course content service for local
// development and integration tests. It speaks the same HTTP contract as the
// production service.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/logger"
)

// Version is reported by /api/health.
const Version = "dev"

// Options configure a Server.
type Options struct {
	// APIKey, when set, is required as a bearer token on /api routes.
	APIKey string
	Logger *logger.Logger
}

// Server serves the content API from memory.
type Server struct {
	content *content
	log     *logger.Logger
	apiKey  string
	router  *gin.Engine
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		content: newContent(),
		log:     log.With("component", "devserver"),
		apiKey:  opts.APIKey,
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// AddCourse stores c as is and returns the stored copy.
func (s *Server) AddCourse(c course.Course) course.Course {
	return s.content.addCourse(c)
}

// FailNext makes the next call of op answer with status. op is the handler
// name, e.g. "reorder_items".
func (s *Server) FailNext(op string, status int) {
	s.content.mu.Lock()
	defer s.content.mu.Unlock()
	s.content.failNext[op] = status
}

// Blobs lists every stored upload path.
func (s *Server) Blobs() []string { return s.content.blobPaths() }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/media/*path", s.media)

	api := router.Group("/api")
	api.GET("/health", s.health)

	protected := api.Group("/")
	protected.Use(s.requireKey())
	// Courses
	protected.GET("/courses", s.op("list_courses", s.listCourses))
	protected.POST("/courses", s.op("create_course", s.createCourse))
	protected.GET("/courses/:id", s.op("load_course", s.loadCourse))
	protected.PATCH("/courses/:id", s.op("update_course", s.updateCourse))
	protected.POST("/courses/:id/publish", s.op("publish_course", s.publishCourse))
	// Topics
	protected.POST("/courses/:id/topics", s.op("create_topic", s.createTopic))
	protected.PUT("/courses/:id/topics/order", s.op("reorder_topics", s.reorderTopics))
	protected.PATCH("/topics/:id", s.op("update_topic", s.updateTopic))
	protected.DELETE("/topics/:id", s.op("delete_topic", s.deleteTopic))
	// Items
	protected.POST("/topics/:id/items", s.op("create_item", s.createItem))
	protected.PUT("/topics/:id/items/order", s.op("reorder_items", s.reorderItems))
	protected.PATCH("/items/:id", s.op("update_item", s.updateItem))
	protected.DELETE("/items/:id", s.op("delete_item", s.deleteItem))
	// Uploads
	protected.POST("/uploads/:class", s.op("upload", s.upload))

	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) requireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") && header[7:] == s.apiKey {
			c.Next()
			return
		}
		respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid api key"))
		c.Abort()
	}
}

// op wraps a handler with failure injection.
func (s *Server) op(name string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status, ok := s.content.takeFailure(name); ok {
			respondError(c, status, "injected", errors.New(name+" failed"))
			return
		}
		h(c)
	}
}
