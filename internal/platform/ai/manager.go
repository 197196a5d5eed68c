package ai

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ManagerConfig tunes provider orchestration.
type ManagerConfig struct {
	PrimaryProvider  string        // "gemini" or "claude"
	FallbackEnabled  bool
	QualityThreshold float64       // minimum acceptable quality score
	RequestTimeout   time.Duration // hard per-call timeout
}

func (c *ManagerConfig) applyDefaults() {
	if c.PrimaryProvider == "" {
		c.PrimaryProvider = ProviderGemini
	}
	if c.QualityThreshold == 0 {
		c.QualityThreshold = 6.0
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// UsageStats accumulates per-provider call accounting for the lifetime of
// one Manager. Not persisted; callers wanting durable stats read Snapshot.
type UsageStats struct {
	Successes    int64         `json:"successes"`
	Failures     int64         `json:"failures"`
	TotalLatency time.Duration `json:"total_latency"`
}

// AvgLatency returns mean latency across successful calls.
func (s UsageStats) AvgLatency() time.Duration {
	if s.Successes == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Successes)
}

type statsCell struct {
	successes int64
	failures  int64
	latencyNs int64
}

// ManagedResponse wraps a generation result with orchestration metadata.
type ManagedResponse struct {
	*GenerationResponse
	FallbackUsed  bool   `json:"fallback_used"`
	PrimaryFailed string `json:"primary_failed,omitempty"` // error code when primary lost
}

// Recommendation values from CompareProviders.
const (
	RecommendGemini       = ProviderGemini
	RecommendClaude       = ProviderClaude
	RecommendManualReview = "manual_review"
)

// Comparison is the side-by-side result of running both providers.
type Comparison struct {
	Gemini         *GenerationResponse `json:"gemini,omitempty"`
	Claude         *GenerationResponse `json:"claude,omitempty"`
	GeminiError    string              `json:"gemini_error,omitempty"`
	ClaudeError    string              `json:"claude_error,omitempty"`
	Recommendation string              `json:"recommendation"`
	Rationale      string              `json:"rationale"`
}

// Manager orchestrates primary/fallback provider selection, enforces
// per-call timeouts, gates on quality, and runs side-by-side comparisons.
type Manager struct {
	cfg       ManagerConfig
	providers map[string]Provider
	logger    zerolog.Logger

	statsMu sync.RWMutex
	stats   map[string]*statsCell
}

// NewManager wires the given providers under cfg. Providers are looked up by
// Name(); at least one must match cfg.PrimaryProvider.
func NewManager(cfg ManagerConfig, logger zerolog.Logger, providers ...Provider) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:       cfg,
		providers: make(map[string]Provider, len(providers)),
		logger:    logger.With().Str("component", "ai_manager").Logger(),
		stats:     make(map[string]*statsCell),
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
		m.stats[p.Name()] = &statsCell{}
	}
	return m
}

// GenerateNote runs the primary provider and, when it fails or scores below
// the quality threshold, the fallback. A per-call timeout bounds each
// attempt; a timed-out call is abandoned, classified REQUEST_TIMEOUT, and
// not retried on the same provider.
func (m *Manager) GenerateNote(ctx context.Context, req *GenerationRequest) (*ManagedResponse, error) {
	primary, ok := m.providers[m.cfg.PrimaryProvider]
	if !ok {
		return nil, fmt.Errorf("primary provider %q not configured", m.cfg.PrimaryProvider)
	}

	resp, err := m.callWithTimeout(ctx, primary, req)
	if err == nil && resp.QualityScore >= m.cfg.QualityThreshold {
		return &ManagedResponse{GenerationResponse: resp}, nil
	}

	primaryProblem := ""
	if err != nil {
		primaryProblem = string(CodeOf(err))
		m.logger.Warn().Str("provider", primary.Name()).Str("code", primaryProblem).Msg("primary provider failed")
	} else {
		primaryProblem = fmt.Sprintf("quality %.1f below threshold %.1f", resp.QualityScore, m.cfg.QualityThreshold)
		m.logger.Warn().Str("provider", primary.Name()).Float64("quality", resp.QualityScore).Msg("primary below quality threshold")
	}

	fallback := m.fallbackFor(m.cfg.PrimaryProvider)
	if !m.cfg.FallbackEnabled || fallback == nil {
		if err != nil {
			return nil, err
		}
		// Low quality with no fallback available still returns the note;
		// the caller sees the score and decides.
		return &ManagedResponse{GenerationResponse: resp, PrimaryFailed: primaryProblem}, nil
	}

	fbResp, fbErr := m.callWithTimeout(ctx, fallback, req)
	if fbErr != nil {
		if err != nil {
			return nil, fmt.Errorf("both providers failed: primary %v; fallback %w", err, fbErr)
		}
		return &ManagedResponse{GenerationResponse: resp, PrimaryFailed: primaryProblem}, nil
	}

	// Prefer the primary's result when it succeeded and the fallback did
	// not actually score better.
	if err == nil && resp.QualityScore >= fbResp.QualityScore {
		return &ManagedResponse{GenerationResponse: resp, PrimaryFailed: primaryProblem}, nil
	}
	return &ManagedResponse{
		GenerationResponse: fbResp,
		FallbackUsed:       true,
		PrimaryFailed:      primaryProblem,
	}, nil
}

// CompareProviders runs both providers concurrently and scores a
// recommendation with a weighted rubric: quality difference 40%, syntax
// preservation 30%, response time 20%, availability 10%. Differences inside
// the margin yield manual_review.
func (m *Manager) CompareProviders(ctx context.Context, req *GenerationRequest) (*Comparison, error) {
	gemini, hasGemini := m.providers[ProviderGemini]
	claude, hasClaude := m.providers[ProviderClaude]
	if !hasGemini || !hasClaude {
		return nil, fmt.Errorf("comparison requires both providers configured")
	}

	cmp := &Comparison{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := m.callWithTimeout(gctx, gemini, req)
		if err != nil {
			cmp.GeminiError = string(CodeOf(err))
			return nil
		}
		cmp.Gemini = resp
		return nil
	})
	g.Go(func() error {
		resp, err := m.callWithTimeout(gctx, claude, req)
		if err != nil {
			cmp.ClaudeError = string(CodeOf(err))
			return nil
		}
		cmp.Claude = resp
		return nil
	})
	// Neither result is inspected until both calls have finished.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.recommend(cmp)
	return cmp, nil
}

// comparisonMargin is the weighted-score band treated as a tie.
const comparisonMargin = 0.05

func (m *Manager) recommend(cmp *Comparison) {
	switch {
	case cmp.Gemini == nil && cmp.Claude == nil:
		cmp.Recommendation = RecommendManualReview
		cmp.Rationale = "both providers failed"
		return
	case cmp.Claude == nil:
		cmp.Recommendation = RecommendGemini
		cmp.Rationale = "claude unavailable"
		return
	case cmp.Gemini == nil:
		cmp.Recommendation = RecommendClaude
		cmp.Rationale = "gemini unavailable"
		return
	}

	// Positive score favors Gemini, negative favors Claude. Each term is
	// normalized to [-1, 1] before weighting.
	quality := (cmp.Gemini.QualityScore - cmp.Claude.QualityScore) / 9.0
	preservation := cmp.Gemini.Validation.PreservationScore - cmp.Claude.Validation.PreservationScore

	var speed float64
	slowest := maxDuration(cmp.Gemini.Duration, cmp.Claude.Duration)
	if slowest > 0 {
		speed = float64(cmp.Claude.Duration-cmp.Gemini.Duration) / float64(slowest)
	}

	// Both answered, so availability is a wash here; it only breaks ties
	// via historical failure rates.
	availability := m.availabilityEdge()

	weighted := 0.4*quality + 0.3*preservation + 0.2*speed + 0.1*availability

	switch {
	case math.Abs(weighted) <= comparisonMargin:
		cmp.Recommendation = RecommendManualReview
		cmp.Rationale = fmt.Sprintf("providers within margin (weighted score %+.3f)", weighted)
	case weighted > 0:
		cmp.Recommendation = RecommendGemini
		cmp.Rationale = fmt.Sprintf("gemini ahead (weighted score %+.3f)", weighted)
	default:
		cmp.Recommendation = RecommendClaude
		cmp.Rationale = fmt.Sprintf("claude ahead (weighted score %+.3f)", weighted)
	}
}

// availabilityEdge compares historical success rates, positive favoring
// Gemini.
func (m *Manager) availabilityEdge() float64 {
	g := m.Stats(ProviderGemini)
	c := m.Stats(ProviderClaude)
	return successRate(g) - successRate(c)
}

func successRate(s UsageStats) float64 {
	total := s.Successes + s.Failures
	if total == 0 {
		return 1
	}
	return float64(s.Successes) / float64(total)
}

// HealthCheck pings every configured provider.
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	out := make(map[string]error, len(m.providers))
	for name, p := range m.providers {
		cctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		out[name] = p.Healthy(cctx)
		cancel()
	}
	return out
}

// Stats returns a snapshot of one provider's usage counters.
func (m *Manager) Stats(provider string) UsageStats {
	m.statsMu.RLock()
	cell, ok := m.stats[provider]
	m.statsMu.RUnlock()
	if !ok {
		return UsageStats{}
	}
	return UsageStats{
		Successes:    atomic.LoadInt64(&cell.successes),
		Failures:     atomic.LoadInt64(&cell.failures),
		TotalLatency: time.Duration(atomic.LoadInt64(&cell.latencyNs)),
	}
}

func (m *Manager) callWithTimeout(ctx context.Context, p Provider, req *GenerationRequest) (*GenerationResponse, error) {
	cctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.GenerateNote(cctx, req)
	elapsed := time.Since(start)

	m.statsMu.RLock()
	cell := m.stats[p.Name()]
	m.statsMu.RUnlock()
	if cell != nil {
		if err != nil {
			atomic.AddInt64(&cell.failures, 1)
		} else {
			atomic.AddInt64(&cell.successes, 1)
			atomic.AddInt64(&cell.latencyNs, int64(elapsed))
		}
	}

	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return nil, &ProviderError{
				Provider: p.Name(),
				Code:     CodeRequestTimeout,
				Message:  fmt.Sprintf("no response within %s", m.cfg.RequestTimeout),
				Err:      err,
			}
		}
		return nil, err
	}
	return resp, nil
}

func (m *Manager) fallbackFor(primary string) Provider {
	for name, p := range m.providers {
		if name != primary {
			return p
		}
	}
	return nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
