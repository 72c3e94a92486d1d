// Package metrics records render, fetch and cache observations.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can
// be switched on by injecting a PrometheusRecorder without nil checks at the
// call sites.
package metrics

import "time"

// RenderLabel is the outcome of a page render.
type RenderLabel string

const (
	RenderReady    RenderLabel = "ready"
	RenderLoading  RenderLabel = "loading"
	RenderNotFound RenderLabel = "not_found"
	RenderError    RenderLabel = "error"
)

// CacheLabel is the outcome of a record map cache lookup.
type CacheLabel string

const (
	CacheHit    CacheLabel = "hit"
	CacheMiss   CacheLabel = "miss"
	CacheStale  CacheLabel = "stale"
	CacheShared CacheLabel = "shared"
)

// TweetLabel is where a tweet payload was served from.
type TweetLabel string

const (
	TweetCached   TweetLabel = "cached"
	TweetUpstream TweetLabel = "upstream"
	TweetFailed   TweetLabel = "failed"
)

// Recorder defines observability hooks for the page server.
type Recorder interface {
	IncPageRender(result RenderLabel)
	ObserveRenderDuration(d time.Duration)
	ObserveFetchDuration(d time.Duration, success bool)
	IncCacheResult(result CacheLabel)
	IncTweetFetch(result TweetLabel)
	AddPreviewImages(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) IncPageRender(RenderLabel)                {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)      {}
func (NoopRecorder) ObserveFetchDuration(time.Duration, bool) {}
func (NoopRecorder) IncCacheResult(CacheLabel)                {}
func (NoopRecorder) IncTweetFetch(TweetLabel)                 {}
func (NoopRecorder) AddPreviewImages(int)                     {}
