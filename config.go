package notionsite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
	"github.com/eringen/notionsite/renderer"
	"github.com/eringen/notionsite/views"
)

// SiteConfig holds all configuration for a notionsite server.
type SiteConfig struct {
	Site notion.Site `yaml:"site"`

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/notionsite.db")
	Dev          bool   `yaml:"dev"`           // Suppresses canonical URLs and enables debug logging of derived pages

	NotionAPIBaseURL string `yaml:"notion_api_base_url"` // default notion.DefaultAPIBaseURL
	NotionToken      string `yaml:"-"`                   // NOTION_TOKEN, token_v2 for private workspaces
	NotionActiveUser string `yaml:"-"`                   // NOTION_ACTIVE_USER

	PageCacheTTL      time.Duration `yaml:"page_cache_ttl"`       // Record map cache TTL (default 5min)
	PageCacheMaxPages int           `yaml:"page_cache_max_pages"` // Record maps kept in memory (default 1000)
	// Fallback serves the loading page on a cold cache miss instead of
	// blocking the request on the Notion fetch.
	Fallback bool `yaml:"fallback"`

	PreviewImages      bool `yaml:"preview_images"`      // Generate blurred placeholders for images
	PreviewConcurrency int  `yaml:"preview_concurrency"` // Parallel image downloads (default 4)

	TweetSyndicationURL string `yaml:"tweet_syndication_url"` // default DefaultTweetSyndicationURL

	DarkMode bool           `yaml:"dark_mode"`
	Comments views.Comments `yaml:"comments"`
	Metrics  bool           `yaml:"metrics"` // Expose /metrics

	AdminPassword string `yaml:"-"`             // ADMIN_PASSWORD, required
	SessionSecret string `yaml:"-"`             // ADMIN_SESSION_SECRET, required
	CookieSecure  bool   `yaml:"cookie_secure"` // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "Notion Site"
	}
	if c.Site.Domain == "" {
		c.Site.Domain = "localhost:3000"
	}
	if c.Site.Language == "" {
		c.Site.Language = "en"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/notionsite.db"
	}
	if c.NotionAPIBaseURL == "" {
		c.NotionAPIBaseURL = notion.DefaultAPIBaseURL
	}
	if c.PageCacheTTL == 0 {
		c.PageCacheTTL = 5 * time.Minute
	}
	if c.PageCacheMaxPages <= 0 {
		c.PageCacheMaxPages = DefaultMaxCachedPages
	}
	if c.PreviewConcurrency <= 0 {
		c.PreviewConcurrency = 4
	}
	if c.TweetSyndicationURL == "" {
		c.TweetSyndicationURL = DefaultTweetSyndicationURL
	}
}

// LoadConfig reads .env (when present), then the YAML file at path (when
// path is non-empty), then applies environment overrides and defaults.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("notionsite: load .env: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("notionsite: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("notionsite: parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	c.Site.Name = EnvOr("SITE_NAME", c.Site.Name)
	c.Site.Domain = EnvOr("SITE_DOMAIN", c.Site.Domain)
	c.Site.RootNotionPageID = EnvOr("NOTION_ROOT_PAGE_ID", c.Site.RootNotionPageID)
	c.Site.RootNotionSpaceID = EnvOr("NOTION_ROOT_SPACE_ID", c.Site.RootNotionSpaceID)
	c.Addr = EnvOr("ADDR", c.Addr)
	c.DatabasePath = EnvOr("DATABASE_PATH", c.DatabasePath)
	c.NotionToken = EnvOr("NOTION_TOKEN", c.NotionToken)
	c.NotionActiveUser = EnvOr("NOTION_ACTIVE_USER", c.NotionActiveUser)
	c.AdminPassword = EnvOr("ADMIN_PASSWORD", c.AdminPassword)
	c.SessionSecret = EnvOr("ADMIN_SESSION_SECRET", c.SessionSecret)

	for key, dst := range map[string]*bool{
		"DEV":           &c.Dev,
		"COOKIE_SECURE": &c.CookieSecure,
		"FALLBACK":      &c.Fallback,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("notionsite: %s: %w", key, err)
		}
		*dst = b
	}
	if v := os.Getenv("PAGE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("notionsite: PAGE_CACHE_TTL: %w", err)
		}
		c.PageCacheTTL = d
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithPageSource replaces the Notion client the server fetches pages from.
func WithPageSource(src PageSource) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithDebugSink sets the sink that observes every derived page.
func WithDebugSink(sink page.DebugSink) Option {
	return func(a *App) {
		a.Builder.Debug = sink
	}
}

// WithMetrics sets the metrics recorder. The Prometheus registry, when
// non-nil, is served on /metrics.
func WithMetrics(rec metrics.Recorder, reg *prom.Registry) Option {
	return func(a *App) {
		a.Metrics = rec
		a.registry = reg
	}
}

// WithComponents replaces the sub-renderer registry of the page renderer.
func WithComponents(c *renderer.Components) Option {
	return func(a *App) {
		a.Renderer = renderer.New(renderer.Options{Components: c})
	}
}
