package notionsite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/notion/notiontest"
	"github.com/eringen/notionsite/page"
)

// fakeSource serves record maps from memory.
type fakeSource struct {
	mu       sync.Mutex
	pages    map[string]*notion.RecordMap
	searches []notion.SearchParams
	gets     atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{pages: make(map[string]*notion.RecordMap)}
}

func (s *fakeSource) add(id string, rm *notion.RecordMap) {
	s.mu.Lock()
	s.pages[notion.NormalizeID(id)] = rm
	s.mu.Unlock()
}

func (s *fakeSource) GetPage(_ context.Context, pageID string) (*notion.RecordMap, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.pages[notion.NormalizeID(pageID)]
	if !ok {
		return nil, fmt.Errorf("page %s is not public", pageID)
	}
	return rm, nil
}

func (s *fakeSource) Search(_ context.Context, params notion.SearchParams) (json.RawMessage, error) {
	s.mu.Lock()
	s.searches = append(s.searches, params)
	s.mu.Unlock()
	return json.RawMessage(`{"results":[],"total":0}`), nil
}

func testConfig(t *testing.T) SiteConfig {
	t.Helper()
	return SiteConfig{
		Site:          *notiontest.Site(),
		DatabasePath:  filepath.Join(t.TempDir(), "test.db"),
		AdminPassword: "correct horse",
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
}

func setupTestApp(t *testing.T, cfg SiteConfig, opts ...Option) (*App, *fakeSource) {
	t.Helper()
	src := newFakeSource()
	src.add(notiontest.RootPageID, notiontest.RecordMap(notiontest.Page(notiontest.RootPageID, "Home")))
	src.add(notiontest.PostPageID, notiontest.BlogPost("Hello World", "First post", ""))

	opts = append([]Option{WithPageSource(src), WithStaticDir(t.TempDir())}, opts...)
	a := New(cfg, ViewFuncs{}, opts...)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, src
}

func serve(a *App, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSetupValidatesConfig(t *testing.T) {
	cases := map[string]func(*SiteConfig){
		"missing password": func(c *SiteConfig) { c.AdminPassword = "" },
		"missing secret":   func(c *SiteConfig) { c.SessionSecret = "" },
		"bad root page":    func(c *SiteConfig) { c.Site.RootNotionPageID = "not-a-page" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			mutate(&cfg)
			a := New(cfg, ViewFuncs{}, WithPageSource(newFakeSource()))
			if err := a.Setup(); err == nil {
				t.Fatal("expected Setup to fail")
			}
		})
	}
}

func TestRootPageRenders(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Home") {
		t.Errorf("expected page title in head, got %s", body)
	}
	if !strings.Contains(body, `rel="canonical"`) {
		t.Error("expected a canonical link outside dev mode")
	}
	if !strings.Contains(body, "application/ld+json") {
		t.Error("expected JSON-LD")
	}
}

func TestBlogPostRendersAndIndexes(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BlogPosting") {
		t.Error("expected BlogPosting JSON-LD for a collection item page")
	}

	p, err := a.Store.GetPage(context.Background(), notiontest.PostPageID)
	if err != nil {
		t.Fatalf("expected the post to be indexed: %v", err)
	}
	if !p.BlogPost || p.Title != "Hello World" {
		t.Errorf("unexpected index entry: %+v", p)
	}
}

func TestUnknownPageIsNotFound(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/11111111111111111111111111111111", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Notion Page Not Found") {
		t.Errorf("expected not-found page, got %s", body)
	}
	if !strings.Contains(body, "is not public") {
		t.Error("expected the upstream error to be shown")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
}

func TestForeignSpacePageIsNotFound(t *testing.T) {
	a, src := setupTestApp(t, testConfig(t))
	foreignID := "22222222-3333-4444-8555-666666666666"
	src.add(foreignID, notiontest.RecordMap(
		notiontest.Page(foreignID, "Elsewhere", notiontest.Space("11111111-2222-4333-8444-555555555555")),
	))

	rec := serve(a, http.MethodGet, "/"+notion.NormalizeID(foreignID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if _, err := a.Store.GetPage(context.Background(), foreignID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected the foreign page to stay out of the index, got %v", err)
	}
}

func TestPageRendersRequestedBlock(t *testing.T) {
	a, src := setupTestApp(t, testConfig(t))
	postBody := "bbbbbbbb-0000-4000-8000-000000000011"
	rootBody := "bbbbbbbb-0000-4000-8000-000000000012"
	src.add(notiontest.PostPageID, notiontest.RecordMap(
		notiontest.Page(notiontest.PostPageID, "Hello World", notiontest.Children(postBody)),
		notiontest.Block(postBody, "text", notiontest.Title("post paragraph")),
		notiontest.Page(notiontest.RootPageID, "Home", notiontest.Children(rootBody)),
		notiontest.Block(rootBody, "text", notiontest.Title("root paragraph")),
	))

	rec := serve(a, http.MethodGet, "/"+notion.NormalizeID(notiontest.PostPageID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "post paragraph") {
		t.Error("expected the requested page body")
	}
	if strings.Contains(body, "root paragraph") {
		t.Error("root page body rendered in place of the requested page")
	}
}

func TestInvalidPageIDIsNotFound(t *testing.T) {
	a, src := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/not-a-notion-page", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if n := src.gets.Load(); n != 0 {
		t.Errorf("expected no upstream fetch, got %d", n)
	}
}

func TestDevModeOmitsCanonical(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dev = true
	a, _ := setupTestApp(t, cfg)

	rec := serve(a, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `rel="canonical"`) {
		t.Error("expected no canonical link in dev mode")
	}
}

func TestLiteModeAddsBodyClass(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/?lite=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "notion-lite") {
		t.Error("expected lite body class")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("lite page should be frameable, got X-Frame-Options %q", got)
	}

	rec = serve(a, http.MethodGet, "/", "")
	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("expected SAMEORIGIN on full pages, got %q", got)
	}
}

func TestFallbackServesLoadingThenPage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fallback = true
	a, _ := setupTestApp(t, cfg)

	rec := serve(a, http.MethodGet, "/", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("expected Retry-After 2, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "notion-loading") {
		t.Error("expected the loading view")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(a.Cache.Pages()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec = serve(a, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once fetched, got %d", rec.Code)
	}
}

func TestSearchScopesToRoot(t *testing.T) {
	a, src := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodPost, SearchEndpoint, `{"query":" notes "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(src.searches) != 1 {
		t.Fatalf("expected one search, got %d", len(src.searches))
	}
	params := src.searches[0]
	if params.Query != "notes" {
		t.Errorf("expected trimmed query, got %q", params.Query)
	}
	if params.AncestorID != notion.FormatID(notiontest.RootPageID) {
		t.Errorf("expected root ancestor, got %q", params.AncestorID)
	}
	if params.Limit != 20 {
		t.Errorf("expected default limit, got %d", params.Limit)
	}
	if params.Filters == nil || !params.Filters.IsNavigableOnly {
		t.Errorf("expected default filters, got %+v", params.Filters)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	a, src := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodPost, SearchEndpoint, `{"query":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(src.searches) != 0 {
		t.Error("expected no upstream search")
	}
}

func TestTweetEndpoint(t *testing.T) {
	var hits atomic.Int32
	syndication := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("id") != "1234567890" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("token") == "" {
			t.Error("expected a token parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id_str":"1234567890","text":"hello"}`)
	}))
	defer syndication.Close()

	cfg := testConfig(t)
	cfg.TweetSyndicationURL = syndication.URL
	a, _ := setupTestApp(t, cfg)

	for i := 0; i < 2; i++ {
		rec := serve(a, http.MethodGet, "/api/get-tweet-ast/1234567890", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"hello"`) {
			t.Errorf("unexpected payload: %s", rec.Body.String())
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected the second request to be served from the store, got %d upstream hits", n)
	}

	if rec := serve(a, http.MethodGet, "/api/get-tweet-ast/42", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown tweet, got %d", rec.Code)
	}
	if rec := serve(a, http.MethodGet, "/api/get-tweet-ast/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid id, got %d", rec.Code)
	}
}

func TestSitemapAndFeed(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	if rec := serve(a, http.MethodGet, "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := serve(a, http.MethodGet, "/sitemap.xml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<loc>https://example.com</loc>") {
		t.Errorf("expected root URL in sitemap, got %s", body)
	}
	if !strings.Contains(body, "https://example.com/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b") {
		t.Errorf("expected post URL in sitemap, got %s", body)
	}

	rec = serve(a, http.MethodGet, "/feed.xml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<title>Hello World</title>") {
		t.Errorf("expected post in feed, got %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestRobots(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/robots.txt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("expected sitemap line, got %s", rec.Body.String())
	}
}

func TestEmbeddedAssets(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	for _, path := range []string{"/public/notion.css", "/public/notion.js", "/public/code.css"} {
		rec := serve(a, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Body.Len() == 0 {
			t.Errorf("%s: expected a body", path)
		}
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	a, _ := setupTestApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/admin/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("expected the login form")
	}

	rec = serve(a, http.MethodPost, "/admin/purge/", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected CSRF rejection, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics = true
	a, _ := setupTestApp(t, cfg)

	if rec := serve(a, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := serve(a, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `notionsite_page_renders_total{result="ready"} 1`) {
		t.Errorf("expected render counter, got %s", rec.Body.String())
	}
}

func TestRenderPageWithoutServer(t *testing.T) {
	src := newFakeSource()
	src.add(notiontest.RootPageID, notiontest.RecordMap(notiontest.Page(notiontest.RootPageID, "Home")))
	a := New(SiteConfig{Site: *notiontest.Site()}, ViewFuncs{}, WithPageSource(src))

	var buf strings.Builder
	state, err := a.RenderPage(context.Background(), notiontest.RootPageID, nil, &buf)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if state != page.StateReady {
		t.Fatalf("expected ready, got %v", state)
	}
	if !strings.Contains(buf.String(), "<title>Home</title>") {
		t.Errorf("unexpected document: %s", buf.String())
	}

	buf.Reset()
	state, err = a.RenderPage(context.Background(), notiontest.PostPageID, nil, &buf)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if state != page.StateNotFound {
		t.Fatalf("expected not found, got %v", state)
	}
	if !strings.Contains(buf.String(), "Notion Page Not Found") {
		t.Errorf("expected the not-found view, got %s", buf.String())
	}

	if _, err := a.RenderPage(context.Background(), "nope", nil, &buf); err == nil {
		t.Error("expected an error for an invalid id")
	}
}
