package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/raster"
)

// ErrNoRasterizer is returned for PDF input when no rasterizer is configured.
var ErrNoRasterizer = errors.New("PDF input needs a rasterizer")

// Manager keeps the sessions of a running service.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a Manager whose sessions share deps.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps.withDefaults(), sessions: map[string]*Session{}}
}

// Create starts a session for page images.
func (m *Manager) Create(name string, images []raster.Image) (*Session, error) {
	s, err := New(name, images, m.deps)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// CreateFromPDF rasterizes a PDF once and starts a session for its pages.
func (m *Manager) CreateFromPDF(ctx context.Context, name string, pdf []byte) (*Session, error) {
	images, err := Rasterize(ctx, m.deps.Rasterizer, pdf)
	if err != nil {
		return nil, err
	}
	return m.Create(name, images)
}

// Rasterize turns a PDF into page images with r.
func Rasterize(ctx context.Context, r Rasterizer, pdf []byte) ([]raster.Image, error) {
	if r == nil {
		return nil, ErrNoRasterizer
	}
	if len(pdf) == 0 {
		return nil, failure.New(failure.ErrInvalidInput, 0, fmt.Errorf("empty PDF"))
	}
	images, err := r.PageImages(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize PDF: %w", err)
	}
	return images, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete forgets a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// List returns snapshots of all sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Created.Before(sessions[j].Created)
	})
	out := make([]Snapshot, len(sessions))
	for i, s := range sessions {
		out[i] = s.Snapshot()
	}
	return out
}
