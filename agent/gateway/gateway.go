// Package gateway wraps the external search capability behind a cache, a
// bounded timeout and a fallback policy. Invoke never fails: every outcome,
// including timeout and malformed payload, comes back as a ToolResult so the
// decision core can degrade instead of aborting the turn.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

const (
	// Search gets a hard deadline well under the turn budget so synthesis
	// always has headroom left.
	defaultSearchTimeout = 3 * time.Second

	// Stable facts (labor-rate schedules, torque specs, procedures) can be
	// cached far longer than time-sensitive parts pricing.
	defaultStableTTL   = time.Hour
	defaultVolatileTTL = 5 * time.Minute
)

var volatileQueryMarkers = []string{"price", "pricing", "cost", "quote", "deal", "discount"}

type Option func(*Gateway)

func WithSearchTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithTTLs(stable, volatile time.Duration) Option {
	return func(g *Gateway) {
		if stable > 0 {
			g.stableTTL = stable
		}
		if volatile > 0 {
			g.volatileTTL = volatile
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

type Gateway struct {
	search contractx.Searcher
	cache  *resultCache

	timeout     time.Duration
	stableTTL   time.Duration
	volatileTTL time.Duration

	now func() time.Time
}

func New(search contractx.Searcher, opts ...Option) (*Gateway, error) {
	if search == nil {
		return nil, errors.New("searcher is required")
	}

	g := &Gateway{
		search:      search,
		cache:       newResultCache(),
		timeout:     defaultSearchTimeout,
		stableTTL:   defaultStableTTL,
		volatileTTL: defaultVolatileTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Invoke resolves a query to a ToolResult: cached within TTL, live on a
// successful fetch, fallback with an empty payload on any failure.
func (g *Gateway) Invoke(ctx context.Context, query string, bundle contractx.ContextBundle) contractx.ToolResult {
	now := g.now().UTC()
	fingerprint := Fingerprint(query, bundle.VehicleTag())

	if result, ok := g.cache.get(fingerprint, now); ok {
		result.Source = contractx.ToolSourceCached
		log.Debug().Str("fingerprint", fingerprint).Msg("tool cache hit")
		return result
	}

	sctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.search.Search(sctx, query)
	if err != nil || strings.TrimSpace(payload) == "" {
		log.Warn().Err(err).Str("query", query).Msg("search failed, returning fallback result")
		return contractx.ToolResult{
			Query:     query,
			Source:    contractx.ToolSourceFallback,
			FetchedAt: now,
		}
	}

	result := contractx.ToolResult{
		Query:     query,
		Payload:   payload,
		Source:    contractx.ToolSourceLive,
		FetchedAt: now,
	}
	g.cache.put(fingerprint, result, g.ttlFor(query), now)
	return result
}

func (g *Gateway) ttlFor(query string) time.Duration {
	normalized := strings.ToLower(query)
	for _, marker := range volatileQueryMarkers {
		if strings.Contains(normalized, marker) {
			return g.volatileTTL
		}
	}
	return g.stableTTL
}

// Fingerprint normalizes the query (case-folded, whitespace-collapsed) and
// joins it with the coarse vehicle tag to form the cache key.
func Fingerprint(query, vehicleTag string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if vehicleTag == "" {
		return normalized
	}
	return normalized + "|" + vehicleTag
}
