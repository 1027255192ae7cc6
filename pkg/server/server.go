// Package server exposes sessions over HTTP with gin.
//
// Routes:
//
//	POST   /sessions                              upload page images or a PDF
//	GET    /sessions                              list sessions
//	GET    /sessions/:id                          session and page state
//	DELETE /sessions/:id                          forget a session
//	POST   /sessions/:id/extract                  extract every page
//	POST   /sessions/:id/pages/:page/extract      extract one page again
//	POST   /sessions/:id/restore                  restore pending pages
//	POST   /sessions/:id/pages/:page/restore      restore one page again
//	POST   /sessions/:id/authorize                clear the authorization flag
//	GET    /sessions/:id/history                  recorded page transitions
//	GET    /sessions/:id/artifacts/:kind          text, picture or final PDF
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/session"
	"github.com/gardar/slidelayers/pkg/slidedoc"
)

// Config holds the server options.
type Config struct {
	MaxUploadBytes int64              // Largest accepted upload; 0 = 64 MiB
	Logger         logrus.FieldLogger // nil = standard logger
}

// Server routes requests to a session.Manager.
type Server struct {
	manager *session.Manager
	cfg     Config
	log     logrus.FieldLogger
	engine  *gin.Engine
}

// New builds the router.
func New(manager *session.Manager, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	s := &Server{manager: manager, cfg: cfg, log: getLogger(cfg.Logger)}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	g := r.Group("/sessions")
	g.POST("", s.createSession)
	g.GET("", s.listSessions)
	g.GET("/:id", s.withSession(s.getSession))
	g.DELETE("/:id", s.deleteSession)
	g.POST("/:id/extract", s.withSession(s.extractAll))
	g.POST("/:id/pages/:page/extract", s.withSession(s.extractPage))
	g.POST("/:id/restore", s.withSession(s.restoreAll))
	g.POST("/:id/pages/:page/restore", s.withSession(s.restorePage))
	g.POST("/:id/authorize", s.withSession(s.authorize))
	g.GET("/:id/history", s.withSession(s.history))
	g.GET("/:id/artifacts/:kind", s.withSession(s.artifact))

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("Request")
	}
}

type sessionHandler func(c *gin.Context, sess *session.Session)

func (s *Server) withSession(h sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.manager.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h(c, sess)
	}
}

func pageParam(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return 0, false
	}
	return page, true
}

// abort writes err with the status its kind maps to.
func (s *Server) abort(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, failure.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoRasterizer):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrIncomplete):
		return http.StatusConflict
	case errors.Is(err, slidedoc.ErrNoPages):
		return http.StatusNotFound
	case errors.Is(err, failure.ErrAuthorizationRequired):
		return http.StatusForbidden
	case errors.Is(err, failure.ErrExtractionFailed), errors.Is(err, failure.ErrRestorationRefused):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
