// Package fetcher implements the Adaptive Fetcher (C2): one HTTP
// request with retry/backoff, user-agent and proxy selection fed by
// the Performance Store, and per-attempt outcome recording.
package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// Result is one fetch outcome returned to the Page Parser.
type Result struct {
	Status    int
	Body      string
	Headers   http.Header
	Cookies   []*http.Cookie
	ElapsedMs int64
	Source    models.DataSource
}

// Renderer drives a headless-browser session for the js_render
// variant (§4.2). This expansion ships a pluggable interface with a
// no-op fallback renderer; a real implementation can be injected
// without changing the Fetcher's contract.
type Renderer interface {
	Render(ctx context.Context, url string) (html string, elapsedMs int64, err error)
}

// noopRenderer always reports that JS rendering is unavailable, so the
// Fetcher falls back to a plain HTML fetch.
type noopRenderer struct{}

func (noopRenderer) Render(ctx context.Context, url string) (string, int64, error) {
	return "", 0, fmt.Errorf("fetcher: js render unavailable")
}

// Config controls the Fetcher's retry/backoff/timeout behavior,
// defaulted per §4.2 and §5.
type Config struct {
	PerRequestTimeout time.Duration
	TotalTimeout      time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	UACacheTTL        time.Duration
	// InitialDelayMin/Max bound the uniform random delay before the
	// first attempt (§4.2: "jittered initial delay of 500-1500ms").
	// InitialDelayMax<=0 falls back to the 500-1500ms default; set
	// both to a small explicit value (e.g. 1ns) in tests to skip it.
	InitialDelayMin time.Duration
	InitialDelayMax time.Duration
}

func defaultConfig(cfg Config) Config {
	if cfg.PerRequestTimeout <= 0 {
		cfg.PerRequestTimeout = 15 * time.Second
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = 45 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 1 * time.Second
	}
	if cfg.UACacheTTL <= 0 {
		cfg.UACacheTTL = 10 * time.Minute
	}
	if cfg.InitialDelayMax <= 0 {
		cfg.InitialDelayMin = 500 * time.Millisecond
		cfg.InitialDelayMax = 1500 * time.Millisecond
	}
	return cfg
}

// retryableStatuses are the HTTP statuses the Fetcher retries on (§4.2).
var retryableStatuses = map[int]bool{429: true, 403: true, 503: true}

// Fetcher performs adaptive HTTP fetches, consulting the Performance
// Store for user-agent and proxy choices and recording every attempt's
// outcome back to it.
type Fetcher struct {
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	store     store.PerformanceStore
	renderer  Renderer
	warmCache *cache.Cache
	cfg       Config
	log       *logging.Logger
}

// New builds a Fetcher. renderer may be nil, in which case the js
// variant degrades to a plain HTML fetch.
func New(perfStore store.PerformanceStore, renderer Renderer, cfg Config) *Fetcher {
	cfg = defaultConfig(cfg)
	if renderer == nil {
		renderer = noopRenderer{}
	}

	client := resty.New()
	client.SetTimeout(cfg.PerRequestTimeout)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "adaptive_fetcher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Global().Info("fetcher circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Fetcher{
		client:    client,
		breaker:   breaker,
		store:     perfStore,
		renderer:  renderer,
		warmCache: cache.New(cfg.UACacheTTL, cfg.UACacheTTL*2),
		cfg:       cfg,
		log:       logging.Global(),
	}
}

// Fetch performs one HTTP request with retry/backoff, selecting a
// user-agent and proxy from the warm cache (or the Performance Store
// on a cold or invalidated cache), and records one outcome per attempt.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.TotalTimeout)
	defer cancel()

	jitterRange := int64(f.cfg.InitialDelayMax - f.cfg.InitialDelayMin)
	delay := f.cfg.InitialDelayMin
	if jitterRange > 0 {
		delay += time.Duration(rand.Int63n(jitterRange))
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, apperr.NewFetchError("fetch", "context cancelled before first attempt", ctx.Err(), false)
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		ua := f.pickUA(ctx)
		proxy := f.pickProxy(ctx)

		result, err := f.attempt(ctx, url, ua, proxy)
		elapsed := int64(0)
		if result != nil {
			elapsed = result.ElapsedMs
		}

		success := err == nil
		status := 0
		if result != nil {
			status = result.Status
		}
		if recErr := f.store.RecordFetch(ctx, url, success, elapsed, status, ua, proxy, attempt); recErr != nil {
			f.log.WithError(recErr).Info("failed to record fetch outcome")
		}

		if success {
			return result, nil
		}
		lastErr = err

		if !f.shouldRetry(result, err) {
			return nil, err
		}
		f.invalidateLastChoice()

		if attempt < f.cfg.MaxRetries {
			backoff := f.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperr.NewFetchError("fetch", "context cancelled during backoff", ctx.Err(), false)
			}
		}
	}
	return nil, apperr.NewFetchError("fetch", "retry budget exhausted", lastErr, false)
}

// FetchJSRender drives the js_render variant with the same contract,
// returning source=js-render, or falling back to a plain fetch when
// no Renderer is configured.
func (f *Fetcher) FetchJSRender(ctx context.Context, url string) (*Result, error) {
	html, elapsed, err := f.renderer.Render(ctx, url)
	if err != nil {
		f.log.WithError(err).Info("js render unavailable, falling back to html fetch")
		return f.Fetch(ctx, url)
	}
	return &Result{Status: http.StatusOK, Body: html, ElapsedMs: elapsed, Source: models.SourceJSRender}, nil
}

func (f *Fetcher) attempt(ctx context.Context, url, ua, proxy string) (*Result, error) {
	start := time.Now()

	raw, err := f.breaker.Execute(func() (interface{}, error) {
		req := f.client.R().SetContext(ctx)
		if ua != "" {
			req.SetHeader("User-Agent", ua)
		}
		if proxy != "" {
			f.client.SetProxy(proxy)
		}
		return req.Get(url)
	})

	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, apperr.NewFetchError("fetch_attempt", "request failed", err, true)
	}

	resp := raw.(*resty.Response)
	result := &Result{
		Status:    resp.StatusCode(),
		Body:      string(resp.Body()),
		Headers:   resp.Header(),
		Cookies:   resp.Cookies(),
		ElapsedMs: elapsed,
		Source:    models.SourceHTMLFetch,
	}

	if resp.StatusCode() == http.StatusNotFound {
		return result, apperr.NewFetchError("fetch_attempt", "not found", nil, false)
	}
	if resp.IsError() {
		return result, apperr.NewFetchError("fetch_attempt", fmt.Sprintf("status %d", resp.StatusCode()), nil, retryableStatuses[resp.StatusCode()])
	}
	return result, nil
}

// shouldRetry implements §4.2's retry predicate: retryable statuses
// and connect/read timeouts; never 404 or malformed body.
func (f *Fetcher) shouldRetry(result *Result, err error) bool {
	if result != nil && result.Status == http.StatusNotFound {
		return false
	}
	if result != nil && retryableStatuses[result.Status] {
		return true
	}
	return apperr.IsRetryable(err)
}

func (f *Fetcher) pickUA(ctx context.Context) string {
	if v, ok := f.warmCache.Get("ua"); ok {
		return v.(string)
	}
	ua, err := f.store.BestUA(ctx)
	if err != nil || ua == "" {
		return defaultUserAgent
	}
	f.warmCache.Set("ua", ua, cache.DefaultExpiration)
	return ua
}

func (f *Fetcher) pickProxy(ctx context.Context) string {
	if v, ok := f.warmCache.Get("proxy"); ok {
		return v.(string)
	}
	proxy, err := f.store.BestProxy(ctx)
	if err != nil {
		return ""
	}
	f.warmCache.Set("proxy", proxy, cache.DefaultExpiration)
	return proxy
}

// invalidateLastChoice drops the warm-cache entries so the next
// attempt requests a fresh UA/proxy choice, per §4.2's "on retry,
// invalidates the cache entry that last failed."
func (f *Fetcher) invalidateLastChoice() {
	f.warmCache.Delete("ua")
	f.warmCache.Delete("proxy")
}

const defaultUserAgent = "Mozilla/5.0 (compatible; qoo10-analyzer/1.0)"
