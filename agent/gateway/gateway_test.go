package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

type fakeSearcher struct {
	mu      sync.Mutex
	payload string
	err     error
	block   bool
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func civicBundle() contractx.ContextBundle {
	return contractx.ContextBundle{
		ConversationID: "conv-1",
		Profile: contractx.VehicleProfile{
			UserID: "user-1",
			Make:   "Honda",
			Model:  "Civic",
			Year:   2019,
		},
	}
}

func TestFingerprintNormalizesQuery(t *testing.T) {
	t.Parallel()

	a := Fingerprint("  Labor   Rate \t Brake Job ", "honda civic")
	b := Fingerprint("labor rate brake job", "honda civic")
	if a != b {
		t.Fatalf("Fingerprint() mismatch: %q vs %q", a, b)
	}
	if got := Fingerprint("torque spec", ""); got != "torque spec" {
		t.Fatalf("Fingerprint() without tag = %q", got)
	}
}

func TestInvokeCachesWithinTTL(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{payload: "labor rate: $120/hr"}
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := New(searcher, WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := g.Invoke(context.Background(), "labor rate brake job", civicBundle())
	if first.Source != contractx.ToolSourceLive {
		t.Fatalf("first Invoke() source = %s, want live", first.Source)
	}

	second := g.Invoke(context.Background(), "  LABOR   rate brake JOB ", civicBundle())
	if second.Source != contractx.ToolSourceCached {
		t.Fatalf("second Invoke() source = %s, want cached", second.Source)
	}
	if second.Payload != first.Payload {
		t.Fatalf("cached payload = %q, want %q", second.Payload, first.Payload)
	}
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("search calls = %d, want 1", got)
	}
}

func TestInvokeRefetchesAfterExpiry(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{payload: "front pads in stock, $68 per axle set"}
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := New(searcher,
		WithClock(func() time.Time { return current }),
		WithTTLs(time.Hour, time.Minute),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Pricing queries take the volatile TTL.
	g.Invoke(context.Background(), "brake pads price", civicBundle())
	current = current.Add(2 * time.Minute)
	result := g.Invoke(context.Background(), "brake pads price", civicBundle())

	if result.Source != contractx.ToolSourceLive {
		t.Fatalf("Invoke() after expiry source = %s, want live", result.Source)
	}
	if got := searcher.callCount(); got != 2 {
		t.Fatalf("search calls = %d, want 2", got)
	}
}

func TestInvokeStableQueryOutlivesVolatileTTL(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{payload: "book time 1.9 hours"}
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := New(searcher,
		WithClock(func() time.Time { return current }),
		WithTTLs(time.Hour, time.Minute),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	g.Invoke(context.Background(), "labor rate schedule brake job", civicBundle())
	current = current.Add(10 * time.Minute)
	result := g.Invoke(context.Background(), "labor rate schedule brake job", civicBundle())

	if result.Source != contractx.ToolSourceCached {
		t.Fatalf("Invoke() source = %s, want cached", result.Source)
	}
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("search calls = %d, want 1", got)
	}
}

func TestInvokeTimeoutReturnsFallback(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{block: true}
	g, err := New(searcher, WithSearchTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result := g.Invoke(context.Background(), "labor rate brake job", civicBundle())
	if result.Source != contractx.ToolSourceFallback {
		t.Fatalf("Invoke() source = %s, want fallback", result.Source)
	}
	if result.Payload != "" {
		t.Fatalf("fallback payload = %q, want empty", result.Payload)
	}
}

func TestInvokeErrorReturnsFallbackAndIsNotCached(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: errors.New("upstream 500")}
	g, err := New(searcher)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result := g.Invoke(context.Background(), "recall notices", civicBundle())
	if result.Source != contractx.ToolSourceFallback {
		t.Fatalf("Invoke() source = %s, want fallback", result.Source)
	}

	// A fallback must not poison the cache for the next attempt.
	searcher.mu.Lock()
	searcher.err = nil
	searcher.payload = "no open recalls"
	searcher.mu.Unlock()

	retry := g.Invoke(context.Background(), "recall notices", civicBundle())
	if retry.Source != contractx.ToolSourceLive {
		t.Fatalf("retry Invoke() source = %s, want live", retry.Source)
	}
}

func TestInvokeEmptyPayloadReturnsFallback(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{payload: "   "}
	g, err := New(searcher)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result := g.Invoke(context.Background(), "labor rate", civicBundle())
	if result.Source != contractx.ToolSourceFallback {
		t.Fatalf("Invoke() source = %s, want fallback", result.Source)
	}
}
