package restore

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/raster"
)

func pngImage(t *testing.T, shade uint8) raster.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for x := 0; x < 16; x++ {
		img.Set(x, 0, color.RGBA{R: shade, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return raster.Image{Data: buf.Bytes(), MimeType: "image/png"}
}

func slides(t *testing.T, n int) []PageState {
	t.Helper()
	images := make([]raster.Image, n)
	for i := range images {
		images[i] = pngImage(t, uint8(10*(i+1)))
	}
	return NewPages(images)
}

// recorder is a Restorer that tracks call order and overlap.
type recorder struct {
	mu       sync.Mutex
	delay    time.Duration
	calls    []raster.Image
	inFlight int32
	maxSeen  int32
	result   raster.Image
	fail     func(call int) error
}

func (r *recorder) Restore(ctx context.Context, src raster.Image) (raster.Image, error) {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&r.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&r.maxSeen, seen, n) {
			break
		}
	}

	time.Sleep(r.delay)

	r.mu.Lock()
	r.calls = append(r.calls, src)
	call := len(r.calls)
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(call); err != nil {
			return raster.Image{}, err
		}
	}
	return r.result, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CallTimeout = time.Second
	return cfg
}

func TestNewPages(t *testing.T) {
	pages := NewPages([]raster.Image{pngImage(t, 1), {}, {Data: []byte("placeholder")}})
	if len(pages) != 3 {
		t.Fatalf("got %d pages", len(pages))
	}
	for i, want := range []bool{true, false, false} {
		if pages[i].Index != i+1 || pages[i].Status != Pending || pages[i].Eligible != want {
			t.Errorf("page %d = %+v, want eligible %v", i+1, pages[i], want)
		}
	}
	if !bytes.Equal(pages[0].Current.Data, pages[0].Source.Data) {
		t.Error("Current should start as Source")
	}
}

func TestRunBatchIsSequential(t *testing.T) {
	clean := pngImage(t, 255)
	r := &recorder{delay: 20 * time.Millisecond, result: clean}
	p := New(r, testConfig())

	pages := slides(t, 3)
	// Out of order input must still be submitted by page index.
	pages[0], pages[2] = pages[2], pages[0]

	batch, err := p.RunBatch(context.Background(), pages, AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if r.count() != 3 {
		t.Fatalf("restorer saw %d calls, want 3", r.count())
	}
	if got := atomic.LoadInt32(&r.maxSeen); got != 1 {
		t.Errorf("max concurrent calls = %d, want 1", got)
	}
	for i, want := range slides(t, 3) {
		if !bytes.Equal(r.calls[i].Data, want.Source.Data) {
			t.Errorf("call %d was not page %d", i+1, i+1)
		}
	}

	if !batch.Complete || batch.Paused || batch.Canceled {
		t.Errorf("batch flags = %+v", batch)
	}
	for _, page := range batch.Pages {
		if page.Status != Success || !bytes.Equal(page.Current.Data, clean.Data) {
			t.Errorf("page %d = %v", page.Index, page.Status)
		}
		if bytes.Equal(page.Source.Data, clean.Data) {
			t.Errorf("page %d source was replaced", page.Index)
		}
	}
	if batch.Pages[0].Index != 3 {
		t.Error("batch did not preserve input order")
	}
	for _, page := range pages {
		if page.Status != Pending {
			t.Error("RunBatch modified its input")
		}
	}
}

func TestConcurrentCallersNeverOverlap(t *testing.T) {
	r := &recorder{delay: 10 * time.Millisecond, result: pngImage(t, 255)}
	p := New(r, testConfig())

	pages := slides(t, 2)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RunBatch(context.Background(), pages, AuthState{})
		}()
	}
	wg.Wait()

	if r.count() != 6 {
		t.Errorf("calls = %d, want 6", r.count())
	}
	if got := atomic.LoadInt32(&r.maxSeen); got != 1 {
		t.Errorf("max concurrent calls = %d, want 1", got)
	}
}

func TestRetryOneIsolation(t *testing.T) {
	first := pngImage(t, 200)
	r := &recorder{result: first}
	p := New(r, testConfig())

	batch, err := p.RunBatch(context.Background(), slides(t, 3), AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	second := pngImage(t, 100)
	r.result = second
	retried, err := p.RetryOne(context.Background(), batch.Pages, 2, batch.Auth)
	if err != nil {
		t.Fatalf("RetryOne: %v", err)
	}
	if r.count() != 4 {
		t.Errorf("calls = %d, want 4", r.count())
	}

	for _, i := range []int{0, 2} {
		before, after := batch.Pages[i], retried.Pages[i]
		if after.Status != before.Status || !bytes.Equal(after.Current.Data, before.Current.Data) {
			t.Errorf("page %d changed by retry of page 2", after.Index)
		}
	}
	if got := retried.Pages[1]; got.Status != Success || !bytes.Equal(got.Current.Data, second.Data) {
		t.Errorf("page 2 = %v, not re-restored", got.Status)
	}
	if !bytes.Equal(batch.Pages[1].Current.Data, first.Data) {
		t.Error("RetryOne modified its input")
	}
}

func TestRetryOneUnknownPage(t *testing.T) {
	p := New(&recorder{}, testConfig())
	_, err := p.RetryOne(context.Background(), slides(t, 1), 7, AuthState{})
	if !errors.Is(err, failure.ErrInvalidInput) {
		t.Errorf("error = %v, want invalid input", err)
	}
}

func TestIneligiblePagesSkipTheService(t *testing.T) {
	r := &recorder{result: pngImage(t, 255)}
	p := New(r, testConfig())

	pages := NewPages([]raster.Image{{}, {Data: []byte("unavailable"), MimeType: "text/plain"}})
	batch, err := p.RunBatch(context.Background(), pages, AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if r.count() != 0 {
		t.Errorf("restorer called %d times for ineligible pages", r.count())
	}
	for _, page := range batch.Pages {
		if page.Status != Success {
			t.Errorf("page %d = %v, want success", page.Index, page.Status)
		}
	}
	if !batch.Complete {
		t.Error("batch of ineligible pages should be complete")
	}

	retried, err := p.RetryOne(context.Background(), batch.Pages, 1, AuthState{})
	if err != nil || r.count() != 0 || retried.Pages[0].Status != Success {
		t.Errorf("retry of ineligible page: err=%v calls=%d", err, r.count())
	}
}

func TestRefusalMarksPageAndContinues(t *testing.T) {
	clean := pngImage(t, 255)
	r := &recorder{result: clean}
	r.fail = func(call int) error {
		if call == 1 {
			return failure.New(failure.ErrRestorationRefused, 0, errors.New("safety system"))
		}
		return nil
	}
	p := New(r, testConfig())

	pages := slides(t, 2)
	batch, err := p.RunBatch(context.Background(), pages, AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	failed := batch.Pages[0]
	if failed.Status != Error || !errors.Is(failed.Err, failure.ErrRestorationRefused) {
		t.Errorf("page 1 = %v / %v", failed.Status, failed.Err)
	}
	if failed.Diagnostic == "" || !bytes.Equal(failed.Current.Data, pages[0].Source.Data) {
		t.Error("failed page should keep its image and a diagnostic")
	}
	if batch.Pages[1].Status != Success {
		t.Errorf("page 2 = %v, want success", batch.Pages[1].Status)
	}
	if batch.Complete || batch.Auth.Required {
		t.Errorf("batch = %+v", batch)
	}
}

func TestEmptyImageIsRefusal(t *testing.T) {
	p := New(&recorder{}, testConfig())
	batch, _ := p.RunBatch(context.Background(), slides(t, 1), AuthState{})
	if !errors.Is(batch.Pages[0].Err, failure.ErrRestorationRefused) {
		t.Errorf("err = %v, want refusal", batch.Pages[0].Err)
	}
}

func authOnCall(n int) func(int) error {
	return func(call int) error {
		if call == n {
			return errors.New("[404] Requested entity was not found.")
		}
		return nil
	}
}

func TestAuthPausePolicy(t *testing.T) {
	r := &recorder{result: pngImage(t, 255), fail: authOnCall(2)}
	p := New(r, testConfig())

	batch, err := p.RunBatch(context.Background(), slides(t, 3), AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !batch.Paused || !batch.Auth.Required || batch.Auth.Page != 2 {
		t.Fatalf("batch = paused %v auth %+v", batch.Paused, batch.Auth)
	}
	if r.count() != 2 {
		t.Errorf("calls = %d, want 2", r.count())
	}
	if got := []Status{batch.Pages[0].Status, batch.Pages[1].Status, batch.Pages[2].Status}; got[0] != Success || got[1] != Error || got[2] != Pending {
		t.Errorf("statuses = %v", got)
	}
	if !errors.Is(batch.Pages[1].Err, failure.ErrAuthorizationRequired) {
		t.Errorf("page 2 err = %v", batch.Pages[1].Err)
	}

	// While the flag is set nothing is submitted.
	held, err := p.RunBatch(context.Background(), batch.Pages, batch.Auth)
	if err != nil || !held.Paused || r.count() != 2 {
		t.Errorf("held batch: err=%v paused=%v calls=%d", err, held.Paused, r.count())
	}
	if _, err := p.RetryOne(context.Background(), batch.Pages, 2, batch.Auth); err != nil || r.count() != 2 {
		t.Errorf("held retry submitted a page: err=%v calls=%d", err, r.count())
	}

	// Resume after re-authorization.
	resumed, err := p.RunBatch(context.Background(), held.Pages, AuthState{})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Complete || resumed.Paused || resumed.Auth.Required {
		t.Errorf("resumed batch = %+v", resumed)
	}
	if r.count() != 4 {
		t.Errorf("calls = %d, want 4 (page 1 not resubmitted)", r.count())
	}
}

type countingAuthorizer struct {
	calls int
	err   error
}

func (a *countingAuthorizer) Reauthorize(context.Context, AuthState) error {
	a.calls++
	return a.err
}

func TestAuthContinuePolicy(t *testing.T) {
	r := &recorder{result: pngImage(t, 255), fail: authOnCall(2)}
	auth := &countingAuthorizer{}
	cfg := testConfig()
	cfg.Policy = AuthContinue
	cfg.Authorizer = auth
	p := New(r, cfg)

	batch, err := p.RunBatch(context.Background(), slides(t, 3), AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if r.count() != 3 {
		t.Errorf("calls = %d, want 3 (page 3 still submitted)", r.count())
	}
	if batch.Paused || !batch.Auth.Required || batch.Auth.Page != 2 {
		t.Errorf("batch = paused %v auth %+v", batch.Paused, batch.Auth)
	}
	if batch.Pages[2].Status != Success {
		t.Errorf("page 3 = %v", batch.Pages[2].Status)
	}
	if auth.calls != 0 {
		t.Errorf("authorizer consulted mid-batch %d times", auth.calls)
	}

	next, err := p.RunBatch(context.Background(), batch.Pages, batch.Auth)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if auth.calls != 1 {
		t.Errorf("authorizer calls = %d, want 1", auth.calls)
	}
	if next.Auth.Required || !next.Complete || r.count() != 4 {
		t.Errorf("second batch auth=%+v complete=%v calls=%d", next.Auth, next.Complete, r.count())
	}
}

func TestAuthContinueWithoutAuthorizer(t *testing.T) {
	r := &recorder{result: pngImage(t, 255)}
	cfg := testConfig()
	cfg.Policy = AuthContinue
	p := New(r, cfg)

	batch, err := p.RunBatch(context.Background(), slides(t, 1), AuthState{Required: true, Page: 1})
	if err != nil || batch.Paused || batch.Auth.Required || r.count() != 1 {
		t.Errorf("batch = %+v, err = %v, calls = %d", batch, err, r.count())
	}
}

func TestAuthorizerFailurePauses(t *testing.T) {
	r := &recorder{result: pngImage(t, 255)}
	cfg := testConfig()
	cfg.Policy = AuthContinue
	cfg.Authorizer = &countingAuthorizer{err: errors.New("user declined")}
	p := New(r, cfg)

	batch, err := p.RunBatch(context.Background(), slides(t, 2), AuthState{Required: true, Page: 1})
	if !errors.Is(err, failure.ErrAuthorizationRequired) {
		t.Errorf("error = %v, want authorization required", err)
	}
	if !batch.Paused || !batch.Auth.Required || r.count() != 0 {
		t.Errorf("batch = %+v, calls = %d", batch, r.count())
	}
}

func TestCancellationStopsBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var callCtxErr error
	r := RestorerFunc(func(callCtx context.Context, src raster.Image) (raster.Image, error) {
		cancel()
		callCtxErr = callCtx.Err()
		return src, nil
	})
	p := New(r, testConfig())

	batch, err := p.RunBatch(ctx, slides(t, 3), AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if callCtxErr != nil {
		t.Errorf("in-flight call saw cancellation: %v", callCtxErr)
	}
	if !batch.Canceled {
		t.Error("batch not marked canceled")
	}
	if batch.Pages[0].Status != Success || batch.Pages[1].Status != Pending || batch.Pages[2].Status != Pending {
		t.Errorf("statuses = %v %v %v", batch.Pages[0].Status, batch.Pages[1].Status, batch.Pages[2].Status)
	}
}

func TestCallTimeoutIsGenericFailure(t *testing.T) {
	r := RestorerFunc(func(ctx context.Context, src raster.Image) (raster.Image, error) {
		<-ctx.Done()
		return raster.Image{}, ctx.Err()
	})
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	p := New(r, cfg)

	batch, err := p.RunBatch(context.Background(), slides(t, 1), AuthState{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	page := batch.Pages[0]
	if page.Status != Error || !errors.Is(page.Err, context.DeadlineExceeded) {
		t.Errorf("page = %v / %v", page.Status, page.Err)
	}
	if failure.KindOf(page.Err) != nil || batch.Auth.Required {
		t.Errorf("timeout classified as %v", failure.KindOf(page.Err))
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var seen []Status
	cfg := testConfig()
	cfg.Observer = ObserverFunc(func(page PageState) { seen = append(seen, page.Status) })
	p := New(&recorder{result: pngImage(t, 255)}, cfg)

	pages := append(slides(t, 1), NewPages([]raster.Image{{}})...)
	pages[1].Index = 2
	if _, err := p.RunBatch(context.Background(), pages, AuthState{}); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	want := []Status{Processing, Success, Success}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestContextObserver(t *testing.T) {
	var indices []int
	p := New(&recorder{result: pngImage(t, 255)}, testConfig())
	ctx := WithObserver(context.Background(), ObserverFunc(func(page PageState) {
		if page.Status == Success {
			indices = append(indices, page.Index)
		}
	}))

	if _, err := p.RunBatch(ctx, slides(t, 2), AuthState{}); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("observed = %v", indices)
	}
}

func TestComplete(t *testing.T) {
	pages := []PageState{
		{Index: 1, Eligible: true, Status: Success},
		{Index: 2, Eligible: false, Status: Pending},
	}
	if !Complete(pages) {
		t.Error("expected complete")
	}
	pages[0].Status = Error
	if Complete(pages) {
		t.Error("page in error should block completion")
	}
}

func TestParseAuthPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthPolicy
		wantErr bool
	}{
		{"", AuthPause, false},
		{"pause", AuthPause, false},
		{" Continue ", AuthContinue, false},
		{"retry", AuthPause, true},
	}
	for _, tt := range tests {
		got, err := ParseAuthPolicy(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseAuthPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Pending, Processing, Success, Error} {
		b, _ := s.MarshalText()
		var back Status
		if err := back.UnmarshalText(b); err != nil || back != s {
			t.Errorf("status %v did not survive text encoding", s)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("done")); err == nil {
		t.Error("unknown status accepted")
	}
}
