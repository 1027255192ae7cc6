// Package session drives one document from page images to layered slides.
//
// A Session owns the pages of one document and runs the stages on them:
//
// - Extraction, page by page in order, each page keeping its own status so
// one failed page never discards the others
// - Restoration through a shared restore.Pipeline, one page at a time
// - Composition and writing of the text, picture and final artifacts
//
// Every page transition is recorded in a store.Ledger.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/compose"
	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/layout"
	"github.com/gardar/slidelayers/pkg/raster"
	"github.com/gardar/slidelayers/pkg/restore"
	"github.com/gardar/slidelayers/pkg/slidedoc"
	"github.com/gardar/slidelayers/pkg/store"
)

// ErrIncomplete is returned for the final artifact while some page still
// needs restoration.
var ErrIncomplete = errors.New("restoration is not complete")

var (
	errNoExtractor = errors.New("no extractor configured")
	errNoRestorer  = errors.New("no restorer configured")
)

// Rasterizer turns a PDF into one image per page.
type Rasterizer interface {
	PageImages(ctx context.Context, pdf []byte) ([]raster.Image, error)
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Extractor  extract.Extractor
	Pipeline   *restore.Pipeline
	Writer     *slidedoc.Writer
	Rasterizer Rasterizer         // Optional; needed for PDF input
	Ledger     store.Ledger       // nil = in-memory
	Logger     logrus.FieldLogger // nil = standard logger
}

func (d Deps) withDefaults() Deps {
	if d.Ledger == nil {
		d.Ledger = store.NewMemory()
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return d
}

// Session is one document being converted.
type Session struct {
	ID      string
	Name    string // Base name of the artifacts
	Created time.Time

	deps Deps
	log  logrus.FieldLogger

	extractMu sync.Mutex // one extraction run at a time
	restoreMu sync.Mutex // one restoration run at a time

	mu    sync.RWMutex
	pages []restore.PageState
	text  []PageText
	auth  restore.AuthState
}

// New creates a session for the given page images, numbered from 1.
func New(name string, images []raster.Image, deps Deps) (*Session, error) {
	if len(images) == 0 {
		return nil, failure.New(failure.ErrInvalidInput, 0, fmt.Errorf("document has no pages"))
	}
	deps = deps.withDefaults()

	id := uuid.NewString()
	s := &Session{
		ID:      id,
		Name:    BaseName(name),
		Created: time.Now(),
		deps:    deps,
		log:     deps.Logger.WithField("session", id),
		pages:   restore.NewPages(images),
		text:    make([]PageText, len(images)),
	}
	s.log.WithFields(logrus.Fields{"name": s.Name, "pages": len(images)}).Info("Session created")
	return s, nil
}

// BaseName derives the artifact base name from an input file name.
func BaseName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "slides"
	}
	return base
}

// Len returns the number of pages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// position returns the slice position of a 1-based page index.
func (s *Session) position(index int) (int, error) {
	if index < 1 || index > len(s.pages) {
		return 0, failure.New(failure.ErrInvalidInput, index, fmt.Errorf("no such page"))
	}
	return index - 1, nil
}

// Restore restores every page that is not yet restored. The session's
// authorization flag is carried into and out of the batch.
func (s *Session) Restore(ctx context.Context) (restore.Batch, error) {
	if s.deps.Pipeline == nil {
		return restore.Batch{}, errNoRestorer
	}
	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()

	pages, auth := s.restoreInput()
	batch, err := s.deps.Pipeline.RunBatch(s.observe(ctx), pages, auth)
	s.applyBatch(batch)
	return batch, err
}

// RestorePage restores one page again, whatever its status.
func (s *Session) RestorePage(ctx context.Context, index int) (restore.Batch, error) {
	if s.deps.Pipeline == nil {
		return restore.Batch{}, errNoRestorer
	}
	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()

	pages, auth := s.restoreInput()
	batch, err := s.deps.Pipeline.RetryOne(s.observe(ctx), pages, index, auth)
	s.applyBatch(batch)
	return batch, err
}

func (s *Session) restoreInput() ([]restore.PageState, restore.AuthState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages := make([]restore.PageState, len(s.pages))
	copy(pages, s.pages)
	return pages, s.auth
}

func (s *Session) applyBatch(batch restore.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(batch.Pages) == len(s.pages) {
		s.pages = batch.Pages
	}
	s.auth = batch.Auth
}

// observe makes the pipeline publish page transitions into the session
// while a batch runs.
func (s *Session) observe(ctx context.Context) context.Context {
	return restore.WithObserver(ctx, restore.ObserverFunc(func(page restore.PageState) {
		s.mu.Lock()
		if pos, err := s.position(page.Index); err == nil {
			s.pages[pos] = page
		}
		s.mu.Unlock()
		s.record(ctx, store.Event{
			Page:       page.Index,
			Stage:      store.StageRestore,
			Status:     page.Status.String(),
			Diagnostic: page.Diagnostic,
		})
	}))
}

// Auth returns the authorization flag.
func (s *Session) Auth() restore.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// Authorize clears the authorization flag after the user re-authorized
// outside the application.
func (s *Session) Authorize() {
	s.mu.Lock()
	s.auth = restore.AuthState{}
	s.mu.Unlock()
	s.log.Info("Authorization flag cleared")
}

// Complete reports whether every page is restored or needs no restoration.
func (s *Session) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return restore.Complete(s.pages)
}

// Pairs composes the current state of every page. Only restored pages
// carry a background.
func (s *Session) Pairs() []compose.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	placements := make(map[int][]layout.Placement, len(s.pages))
	backgrounds := make(map[int]raster.Image, len(s.pages))
	for i, p := range s.pages {
		placements[p.Index] = s.text[i].Placements
		if p.Eligible && p.Status == restore.Success {
			backgrounds[p.Index] = p.Current
		}
	}
	return compose.Compose(placements, backgrounds, compose.Order(len(s.pages)))
}

// WriteArtifact writes one artifact of the session to w. The final
// artifact is refused until restoration is complete.
func (s *Session) WriteArtifact(w io.Writer, kind slidedoc.Artifact) error {
	if s.deps.Writer == nil {
		return fmt.Errorf("no document writer configured")
	}
	if kind == slidedoc.Final && !s.Complete() {
		return ErrIncomplete
	}
	if err := s.deps.Writer.Write(w, s.Pairs(), kind); err != nil {
		return fmt.Errorf("failed to write %s artifact: %w", kind, err)
	}
	return nil
}

// FileName is the artifact's file name for this session.
func (s *Session) FileName(kind slidedoc.Artifact) string {
	return slidedoc.FileName(s.Name, kind)
}

// History returns the recorded transitions of this session.
func (s *Session) History(ctx context.Context) ([]store.Event, error) {
	return s.deps.Ledger.History(ctx, s.ID)
}

func (s *Session) record(ctx context.Context, e store.Event) {
	e.Session = s.ID
	if err := s.deps.Ledger.Record(context.WithoutCancel(ctx), e); err != nil {
		s.log.WithError(err).Warn("Failed to record page transition")
	}
}
