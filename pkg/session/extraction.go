package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/layout"
	"github.com/gardar/slidelayers/pkg/raster"
	"github.com/gardar/slidelayers/pkg/store"
)

// ExtractStatus is the extraction state of one page.
type ExtractStatus int

const (
	ExtractPending ExtractStatus = iota
	ExtractDone
	ExtractDegraded // Answer unreadable, page has no text
	ExtractFailed
)

var extractNames = [...]string{"pending", "done", "degraded", "failed"}

func (s ExtractStatus) String() string {
	if int(s) >= 0 && int(s) < len(extractNames) {
		return extractNames[s]
	}
	return fmt.Sprintf("ExtractStatus(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s ExtractStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *ExtractStatus) UnmarshalText(b []byte) error {
	for i, name := range extractNames {
		if string(b) == name {
			*s = ExtractStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown extraction status %q", b)
}

// PageText is the extraction record of one page.
type PageText struct {
	Status     ExtractStatus
	Blocks     []layout.TextBlock
	Placements []layout.Placement
	Dropped    int
	Diagnostic string
	Err        error
}

// ExtractAll extracts every page in order. A failed page is recorded and
// the run moves on; the returned error is non-nil only when ctx ends the
// run early.
func (s *Session) ExtractAll(ctx context.Context) error {
	if s.deps.Extractor == nil {
		return errNoExtractor
	}
	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	for i := 0; i < s.Len(); i++ {
		if err := ctx.Err(); err != nil {
			s.log.WithField("page", i+1).Info("Extraction canceled")
			return err
		}
		s.extractPage(ctx, i)
	}
	return nil
}

// ExtractPage extracts one page again and returns its classified failure,
// if any.
func (s *Session) ExtractPage(ctx context.Context, index int) error {
	if s.deps.Extractor == nil {
		return errNoExtractor
	}
	s.extractMu.Lock()
	defer s.extractMu.Unlock()

	s.mu.RLock()
	pos, err := s.position(index)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return s.extractPage(ctx, pos)
}

// Text returns the extraction record of a page.
func (s *Session) Text(index int) (PageText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, err := s.position(index)
	if err != nil {
		return PageText{}, err
	}
	return s.text[pos], nil
}

func (s *Session) extractPage(ctx context.Context, pos int) error {
	s.mu.RLock()
	src := s.pages[pos].Source
	s.mu.RUnlock()

	index := pos + 1
	logger := s.log.WithField("page", index)

	var (
		pt  PageText
		err error
	)
	if !raster.IsRaster(src.Data) {
		pt = PageText{Status: ExtractDone, Placements: []layout.Placement{}, Diagnostic: "page has no raster content"}
	} else {
		var res extract.Result
		res, err = s.deps.Extractor.Extract(ctx, src.Data, src.MimeType)
		pt = pageText(res, err, index)
		err = pt.Err
	}

	s.mu.Lock()
	s.text[pos] = pt
	s.mu.Unlock()

	fields := logrus.Fields{"status": pt.Status.String(), "blocks": len(pt.Blocks)}
	switch pt.Status {
	case ExtractFailed:
		logger.WithFields(fields).WithError(err).Warn("Page extraction failed")
	case ExtractDegraded:
		logger.WithFields(fields).Warn(pt.Diagnostic)
	default:
		logger.WithFields(fields).Info("Page extracted")
	}

	s.record(ctx, store.Event{
		Page:       index,
		Stage:      store.StageExtract,
		Status:     pt.Status.String(),
		Diagnostic: pt.Diagnostic,
	})
	return err
}

// pageText converts an extraction outcome into the page's record.
func pageText(res extract.Result, err error, index int) PageText {
	if err != nil {
		if fe, ok := err.(*failure.Error); ok && fe.Page == 0 {
			err = failure.New(fe.Kind, index, fe.Err)
		}
		return PageText{Status: ExtractFailed, Placements: []layout.Placement{}, Diagnostic: err.Error(), Err: err}
	}

	pt := PageText{
		Status:     ExtractDone,
		Blocks:     res.Blocks,
		Placements: layout.MapAll(res.Blocks),
		Dropped:    res.Dropped,
		Diagnostic: res.Diagnostic,
	}
	if res.Status == extract.StatusDegraded {
		pt.Status = ExtractDegraded
	}
	return pt
}
