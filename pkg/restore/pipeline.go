package restore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/failure"
)

// Config holds the Pipeline's policies and collaborators.
type Config struct {
	Policy      AuthPolicy         // What a set authorization flag does
	Authorizer  Authorizer         // Optional; consulted by AuthContinue
	Observer    Observer           // Optional; sees every transition
	CallTimeout time.Duration      // Bound on one restoration call; 0 = none
	Logger      logrus.FieldLogger // nil = standard logger
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Policy:      AuthPause,
		CallTimeout: 3 * time.Minute,
	}
}

// Batch is the outcome of RunBatch or RetryOne.
type Batch struct {
	Pages    []PageState // Updated copy, in input order
	Auth     AuthState   // Flag to carry into the next batch
	Complete bool        // Every page restored or ineligible
	Paused   bool        // Stopped because authorization is required
	Canceled bool        // Stopped because ctx was canceled
}

// Pipeline submits pages to a Restorer one at a time.
type Pipeline struct {
	mu       sync.Mutex
	restorer Restorer
	cfg      Config
	log      logrus.FieldLogger
}

// New creates a Pipeline around restorer.
func New(restorer Restorer, cfg Config) *Pipeline {
	return &Pipeline{restorer: restorer, cfg: cfg, log: getLogger(cfg.Logger)}
}

// RunBatch restores every page that is not yet Success, in ascending page
// order. pages is not modified.
//
// A canceled ctx stops further submissions; a call already in flight runs
// to completion bounded by CallTimeout. An error is returned only when the
// Authorizer fails.
func (p *Pipeline) RunBatch(ctx context.Context, pages []PageState, auth AuthState) (Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := Batch{Pages: clonePages(pages), Auth: auth}
	if err := p.admit(ctx, &batch); err != nil || batch.Paused {
		batch.Complete = Complete(batch.Pages)
		return batch, err
	}

	for _, i := range submissionOrder(batch.Pages) {
		if ctx.Err() != nil {
			batch.Canceled = true
			p.log.WithField("page", batch.Pages[i].Index).Info("Restoration batch canceled")
			break
		}
		page := &batch.Pages[i]
		if page.Status == Success {
			continue
		}

		p.submit(ctx, page)
		if p.authFailed(&batch, page) && p.cfg.Policy == AuthPause {
			batch.Paused = true
			break
		}
	}

	batch.Complete = Complete(batch.Pages)
	return batch, nil
}

// RetryOne restores the page with the given index again, whatever its
// status. Every other page is returned unchanged.
func (p *Pipeline) RetryOne(ctx context.Context, pages []PageState, index int, auth AuthState) (Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := Batch{Pages: clonePages(pages), Auth: auth}
	pos := -1
	for i := range batch.Pages {
		if batch.Pages[i].Index == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		batch.Complete = Complete(batch.Pages)
		return batch, failure.New(failure.ErrInvalidInput, index, fmt.Errorf("no such page"))
	}

	if err := p.admit(ctx, &batch); err != nil || batch.Paused {
		batch.Complete = Complete(batch.Pages)
		return batch, err
	}

	page := &batch.Pages[pos]
	p.submit(ctx, page)
	p.authFailed(&batch, page)

	batch.Complete = Complete(batch.Pages)
	return batch, nil
}

// admit applies the authorization policy before any page is submitted.
func (p *Pipeline) admit(ctx context.Context, batch *Batch) error {
	if !batch.Auth.Required {
		return nil
	}

	switch p.cfg.Policy {
	case AuthContinue:
		if p.cfg.Authorizer != nil {
			if err := p.cfg.Authorizer.Reauthorize(ctx, batch.Auth); err != nil {
				batch.Paused = true
				return failure.New(failure.ErrAuthorizationRequired, batch.Auth.Page,
					fmt.Errorf("failed to reauthorize: %w", err))
			}
		}
		p.log.WithField("page", batch.Auth.Page).Info("Assuming authorization granted, continuing")
		batch.Auth = AuthState{}
	default:
		p.log.WithField("page", batch.Auth.Page).Warn("Authorization required, not submitting pages")
		batch.Paused = true
	}
	return nil
}

// authFailed records an authorization failure of page in the batch.
func (p *Pipeline) authFailed(batch *Batch, page *PageState) bool {
	if page.Status != Error || !errors.Is(page.Err, failure.ErrAuthorizationRequired) {
		return false
	}
	batch.Auth = AuthState{Required: true, Page: page.Index, Reason: page.Diagnostic}
	return true
}

// submit restores one page in place and reports each transition.
func (p *Pipeline) submit(ctx context.Context, page *PageState) {
	logger := p.log.WithField("page", page.Index)

	if !page.Eligible {
		page.Status = Success
		page.Diagnostic = ""
		page.Err = nil
		p.notify(ctx, page)
		logger.Debug("Page has no raster content, nothing to restore")
		return
	}

	page.Status = Processing
	p.notify(ctx, page)
	logger.Info("Restoring page background")

	callCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if p.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, p.cfg.CallTimeout)
	}
	start := time.Now()
	img, err := p.restorer.Restore(callCtx, page.Source)
	cancel()

	if err == nil && img.Empty() {
		err = failure.New(failure.ErrRestorationRefused, page.Index, fmt.Errorf("service returned no image"))
	}
	if err != nil {
		page.Status = Error
		page.Err = classify(err, page.Index)
		page.Diagnostic = page.Err.Error()
		p.notify(ctx, page)
		logger.WithError(page.Err).Warn("Page restoration failed")
		return
	}

	page.Status = Success
	page.Current = img
	page.Diagnostic = ""
	page.Err = nil
	p.notify(ctx, page)
	logger.WithField("elapsed", time.Since(start)).Info("Page background restored")
}

func (p *Pipeline) notify(ctx context.Context, page *PageState) {
	if p.cfg.Observer != nil {
		p.cfg.Observer.PageChanged(*page)
	}
	if o, ok := ctx.Value(observerKey{}).(Observer); ok {
		o.PageChanged(*page)
	}
}

type observerKey struct{}

// WithObserver returns a context whose batches also report transitions
// to o, in addition to the Pipeline's own Observer. It lets callers
// sharing one Pipeline follow their own pages.
func WithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

// classify attaches the page number and failure kind to a restorer error.
func classify(err error, index int) error {
	if failure.IsAuthorizationSignature(err) && !errors.Is(err, failure.ErrAuthorizationRequired) {
		return failure.New(failure.ErrAuthorizationRequired, index, err)
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		if fe.Page == 0 {
			return failure.New(fe.Kind, index, fe.Err)
		}
		return err
	}
	return fmt.Errorf("failed to restore page %d: %w", index, err)
}

func clonePages(pages []PageState) []PageState {
	out := make([]PageState, len(pages))
	copy(out, pages)
	return out
}

// submissionOrder returns positions of pages sorted by page index.
func submissionOrder(pages []PageState) []int {
	order := make([]int, len(pages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pages[order[a]].Index < pages[order[b]].Index
	})
	return order
}

// getLogger returns logger, defaulting to the logrus standard logger if nil.
func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
