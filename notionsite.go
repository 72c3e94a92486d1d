// Package notionsite serves a website whose pages live in Notion.
//
// Each request resolves one page: the record map is loaded through a TTL
// cache, the page package decides whether it is ready and derives its
// presentation and head metadata, and the renderer package turns the block
// tree into HTML inside the layout supplied through ViewFuncs.
package notionsite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
	"github.com/eringen/notionsite/renderer"
	"github.com/eringen/notionsite/views"
)

// PageSource loads record maps and search results. *notion.Client
// implements it.
type PageSource interface {
	GetPage(ctx context.Context, pageID string) (*notion.RecordMap, error)
	Search(ctx context.Context, params notion.SearchParams) (json.RawMessage, error)
}

// ViewFuncs holds the templ components the server renders around Notion
// content. Nil fields fall back to the views package.
type ViewFuncs struct {
	Document       func(doc views.Document) templ.Component
	Loading        func(site *notion.Site) templ.Component
	NotFound       func(site *notion.Site, pageID string, err error) templ.Component
	ServerError    func(site *notion.Site) templ.Component
	Header         func(site *notion.Site, searchEndpoint string) templ.Component
	Footer         func(site *notion.Site) templ.Component
	Aside          func(p page.Presentation) templ.Component
	Cover          func(site *notion.Site, p page.Presentation) templ.Component
	PageFooter     func(p page.Presentation) templ.Component
	AdminLogin     func(site *notion.Site, showError bool, csrfToken string) templ.Component
	AdminDashboard func(site *notion.Site, pages []views.PageEntry, message, csrfToken string) templ.Component
}

func (v ViewFuncs) withDefaults(cfg SiteConfig) ViewFuncs {
	if v.Document == nil {
		v.Document = views.Layout
	}
	if v.Loading == nil {
		v.Loading = views.Loading
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
	if v.Header == nil {
		v.Header = views.Header
	}
	if v.Footer == nil {
		v.Footer = views.Footer
	}
	if v.Aside == nil {
		v.Aside = views.AsideSlot
	}
	if v.Cover == nil {
		v.Cover = views.CoverSlot
	}
	if v.PageFooter == nil {
		comments := cfg.Comments
		v.PageFooter = func(p page.Presentation) templ.Component {
			if !p.IsBlogPost || comments.Repo == "" {
				return nil
			}
			return views.CommentsWidget(comments)
		}
	}
	if v.AdminLogin == nil {
		v.AdminLogin = views.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = views.AdminDashboard
	}
	return v
}

// App is the central notionsite application. It wires together the page
// source, cache, store, renderer, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PageCache
	Views    ViewFuncs
	Renderer *renderer.Renderer
	Builder  page.Builder
	Tweets   *TweetFetcher
	Previews *PreviewGenerator
	Metrics  metrics.Recorder
	Logger   *slog.Logger

	source        PageSource
	registry      *prom.Registry
	loginLimiter  *RateLimiter
	searchLimiter *RateLimiter
	customRoutes  []func(*App)
	staticDir     string
	ready         bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, viewFuncs ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     viewFuncs.withDefaults(cfg),
		Renderer:  renderer.New(renderer.Options{}),
		Builder:   page.Builder{Dev: cfg.Dev},
		Logger:    slog.Default(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.Metrics == nil {
		if cfg.Metrics {
			a.registry = prom.NewRegistry()
			a.Metrics = metrics.NewPrometheusRecorder(a.registry)
		} else {
			a.Metrics = metrics.NoopRecorder{}
		}
	}
	if a.Builder.Debug == nil {
		if cfg.Dev {
			a.Builder.Debug = page.SlogDebugSink{Logger: a.Logger}
		} else {
			a.Builder.Debug = page.NopDebugSink{}
		}
	}
	if a.source == nil {
		clientOpts := []notion.ClientOption{notion.WithBaseURL(cfg.NotionAPIBaseURL)}
		if cfg.NotionToken != "" {
			clientOpts = append(clientOpts, notion.WithAuthToken(cfg.NotionToken))
		}
		if cfg.NotionActiveUser != "" {
			clientOpts = append(clientOpts, notion.WithActiveUser(cfg.NotionActiveUser))
		}
		a.source = notion.NewClient(clientOpts...)
	}
	return a
}

// Site returns the configured site.
func (a *App) Site() *notion.Site {
	return &a.Config.Site
}

// Setup validates the configuration, opens the store and registers the
// middleware and routes. Start calls it; tests call it to serve requests
// through a.Echo without listening.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("notionsite: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("notionsite: SessionSecret is required")
	}
	if notion.ParsePageID(a.Config.Site.RootNotionPageID) == "" {
		return fmt.Errorf("notionsite: invalid root page id %q", a.Config.Site.RootNotionPageID)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("notionsite: init store: %w", err)
	}
	a.Store = store
	a.Tweets = NewTweetFetcher(store, a.Config.TweetSyndicationURL, a.Metrics)
	a.Previews = NewPreviewGenerator(store, a.Config.PreviewConcurrency, a.Metrics, a.Logger)
	a.Cache = NewPageCache(a.fetchPage, a.Config.PageCacheTTL, a.Metrics)
	a.Cache.SetMaxEntries(a.Config.PageCacheMaxPages)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.searchLimiter = NewRateLimiter(60, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and starts the server.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are embedded; everything else under /public comes
	// from the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/notion.css", embeddedHandler)
	e.GET("/public/notion.js", embeddedHandler)
	e.GET("/public/code.css", a.handleCodeCSS)
	e.Static("/public", a.staticDir)
	e.GET("/favicon.ico", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	if a.registry != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.HTTPHandler(a.registry)))
	}

	e.POST(SearchEndpoint, a.handleSearch)
	e.GET(renderer.DefaultTweetEndpoint+":tweetId", a.handleTweet)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/purge/", a.handlePurgeAll)
	e.POST("/admin/purge/:pageId/", a.handlePurge)

	e.GET("/", a.handleRoot)
	e.GET("/:pageId", a.handlePage)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.searchLimiter != nil {
		a.searchLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("notionsite: required environment variable %s is not set", key)
	}
	return v
}
