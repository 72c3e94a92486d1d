package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "notionsite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renders        *prom.CounterVec
	renderDuration prom.Histogram
	fetchDuration  *prom.HistogramVec
	cacheResults   *prom.CounterVec
	tweetFetches   *prom.CounterVec
	previewImages  prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Page renders by outcome",
		}, []string{"result"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "page_render_duration_seconds",
			Help:      "Duration of a page render pass",
			Buckets:   prom.DefBuckets,
		}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "notion_fetch_duration_seconds",
			Help:      "Duration of record map fetches from Notion",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		cacheResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_results_total",
			Help:      "Record map cache lookups by outcome",
		}, []string{"result"}),
		tweetFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tweet_fetches_total",
			Help:      "Tweet payload requests by source",
		}, []string{"result"}),
		previewImages: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "preview_images_generated_total",
			Help:      "Preview images generated",
		}),
	}
	reg.MustRegister(pr.renders, pr.renderDuration, pr.fetchDuration, pr.cacheResults, pr.tweetFetches, pr.previewImages)
	return pr
}

func (p *PrometheusRecorder) IncPageRender(result RenderLabel) {
	if p == nil || p.renders == nil {
		return
	}
	p.renders.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheResult(result CacheLabel) {
	if p == nil || p.cacheResults == nil {
		return
	}
	p.cacheResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncTweetFetch(result TweetLabel) {
	if p == nil || p.tweetFetches == nil {
		return
	}
	p.tweetFetches.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddPreviewImages(n int) {
	if p == nil || p.previewImages == nil || n <= 0 {
		return
	}
	p.previewImages.Add(float64(n))
}
