// Package restore turns slide images into content-free backgrounds, one page
// at a time.
//
// Pages are submitted to the restoration service strictly in ascending page
// order and never concurrently: the call for page N+1 is issued only after
// page N's call has resolved. A Pipeline holds a mutex for the duration of a
// batch, so the guarantee also holds across concurrent callers.
//
// Per-page lifecycle:
//
//	Pending -> Processing -> Success | Error
//
// Success and Error are both re-enterable through RetryOne. Pages whose
// source is not a real bitmap are ineligible and become Success without a
// service call.
//
// Authorization failures are not hidden in package state. The caller passes
// an AuthState into every batch and reads the updated one back from the
// result; the Pipeline's AuthPolicy decides whether a set flag pauses the
// batch or is assumed resolved.
package restore

import (
	"context"
	"fmt"
	"strings"

	"github.com/gardar/slidelayers/pkg/raster"
)

// Status is the restoration state of one page.
type Status int

const (
	Pending Status = iota
	Processing
	Success
	Error
)

var statusNames = [...]string{"pending", "processing", "success", "error"}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown restoration status %q", b)
}

// PageState is the restoration record of one page.
type PageState struct {
	Index      int          // 1-based, stable for the session
	Source     raster.Image // Original bitmap, kept for retries
	Current    raster.Image // Source until a restoration succeeds
	Status     Status
	Eligible   bool   // Source is a genuine raster
	Diagnostic string // Failure message of the last attempt
	Err        error  // Classified failure of the last attempt
}

// NewPages creates one Pending page per image, numbered from 1. Empty or
// undecodable images are placeholders and ineligible for restoration.
func NewPages(images []raster.Image) []PageState {
	pages := make([]PageState, len(images))
	for i, img := range images {
		pages[i] = PageState{
			Index:    i + 1,
			Source:   img,
			Current:  img,
			Status:   Pending,
			Eligible: raster.IsRaster(img.Data),
		}
	}
	return pages
}

// Complete reports whether every page is restored or ineligible.
func Complete(pages []PageState) bool {
	for _, p := range pages {
		if p.Eligible && p.Status != Success {
			return false
		}
	}
	return true
}

// Restorer produces a content-free background for one page image.
type Restorer interface {
	Restore(ctx context.Context, src raster.Image) (raster.Image, error)
}

// RestorerFunc adapts a function to the Restorer interface.
type RestorerFunc func(ctx context.Context, src raster.Image) (raster.Image, error)

// Restore calls f(ctx, src).
func (f RestorerFunc) Restore(ctx context.Context, src raster.Image) (raster.Image, error) {
	return f(ctx, src)
}

// AuthPolicy decides what a batch does while authorization is required.
type AuthPolicy int

const (
	// AuthPause stops submitting until the caller clears the flag.
	AuthPause AuthPolicy = iota
	// AuthContinue assumes a prior grant holds and keeps submitting.
	AuthContinue
)

func (p AuthPolicy) String() string {
	switch p {
	case AuthPause:
		return "pause"
	case AuthContinue:
		return "continue"
	}
	return fmt.Sprintf("AuthPolicy(%d)", int(p))
}

// ParseAuthPolicy parses "pause" or "continue". Empty means pause.
func ParseAuthPolicy(s string) (AuthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pause":
		return AuthPause, nil
	case "continue":
		return AuthContinue, nil
	}
	return AuthPause, fmt.Errorf("unknown auth policy %q (want pause or continue)", s)
}

// AuthState is the authorization-required flag carried between batches.
type AuthState struct {
	Required bool   // The service reported an authorization problem
	Page     int    // Page whose call reported it
	Reason   string // Service message
}

// Authorizer is asked to re-establish authorization before an AuthContinue
// batch proceeds with the flag set.
type Authorizer interface {
	Reauthorize(ctx context.Context, state AuthState) error
}

// Observer is told about every page transition.
type Observer interface {
	PageChanged(page PageState)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(page PageState)

// PageChanged calls f(page).
func (f ObserverFunc) PageChanged(page PageState) {
	f(page)
}
