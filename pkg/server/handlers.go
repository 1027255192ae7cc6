package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gardar/slidelayers/pkg/raster"
	"github.com/gardar/slidelayers/pkg/restore"
	"github.com/gardar/slidelayers/pkg/session"
	"github.com/gardar/slidelayers/pkg/slidedoc"
)

type createResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Pages int    `json:"pages"`
}

type batchResponse struct {
	Complete bool             `json:"complete"`
	Paused   bool             `json:"paused"`
	Canceled bool             `json:"canceled"`
	Session  session.Snapshot `json:"session"`
}

// createSession accepts page images in "pages" or one PDF in "pdf".
// Uploads larger than MaxUploadBytes are rejected.
func (s *Server) createSession(c *gin.Context) {
	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(s.cfg.MaxUploadBytes)})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(s.cfg.MaxUploadBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form"})
		return
	}

	var sess *session.Session
	if pdfs := form.File["pdf"]; len(pdfs) > 0 {
		data, err := readPart(pdfs[0])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err = s.manager.CreateFromPDF(c.Request.Context(), formName(c, pdfs), data)
		if err != nil {
			s.abort(c, err)
			return
		}
	} else {
		files := form.File["pages"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no pages uploaded"})
			return
		}
		images := make([]raster.Image, 0, len(files))
		for _, fh := range files {
			data, err := readPart(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			images = append(images, raster.Image{Data: data, MimeType: raster.SniffMime(data)})
		}
		sess, err = s.manager.Create(formName(c, files), images)
		if err != nil {
			s.abort(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, createResponse{ID: sess.ID, Name: sess.Name, Pages: sess.Len()})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("upload exceeds %d MiB", limit>>20)
}

func formName(c *gin.Context, files []*multipart.FileHeader) string {
	if name := c.PostForm("name"); name != "" {
		return name
	}
	return files[0].Filename
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.List())
}

func (s *Server) getSession(c *gin.Context, sess *session.Session) {
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.manager.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) extractAll(c *gin.Context, sess *session.Session) {
	if err := sess.ExtractAll(c.Request.Context()); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) extractPage(c *gin.Context, sess *session.Session) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	if err := sess.ExtractPage(c.Request.Context(), page); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot().Pages[page-1])
}

func (s *Server) restoreAll(c *gin.Context, sess *session.Session) {
	batch, err := sess.Restore(c.Request.Context())
	s.batchResult(c, sess, batch, err)
}

func (s *Server) restorePage(c *gin.Context, sess *session.Session) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	batch, err := sess.RestorePage(c.Request.Context(), page)
	s.batchResult(c, sess, batch, err)
}

func (s *Server) batchResult(c *gin.Context, sess *session.Session, batch restore.Batch, err error) {
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, batchResponse{
		Complete: batch.Complete,
		Paused:   batch.Paused,
		Canceled: batch.Canceled,
		Session:  sess.Snapshot(),
	})
}

func (s *Server) authorize(c *gin.Context, sess *session.Session) {
	sess.Authorize()
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) history(c *gin.Context, sess *session.Session) {
	events, err := sess.History(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) artifact(c *gin.Context, sess *session.Session) {
	kind, err := slidedoc.ParseArtifact(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := sess.WriteArtifact(&buf, kind); err != nil {
		s.abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, sess.FileName(kind)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
