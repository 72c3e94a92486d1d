package notionsite

import (
	"errors"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
	"github.com/eringen/notionsite/renderer"
	"github.com/eringen/notionsite/views"
)

// SearchEndpoint is the route of the search passthrough.
const SearchEndpoint = "/api/search-notion"

func (a *App) handleRoot(c echo.Context) error {
	return a.renderPage(c, a.Config.Site.RootNotionPageID)
}

func (a *App) handlePage(c echo.Context) error {
	raw := c.Param("pageId")
	pageID := notion.ParsePageID(raw)
	if pageID == "" {
		a.Metrics.IncPageRender(metrics.RenderNotFound)
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Site(), raw, nil))
	}
	return a.renderPage(c, pageID)
}

// loadProps fetches the record map of a page. In fallback mode a cold miss
// is reported as a pending navigation instead of blocking on the fetch.
func (a *App) loadProps(c echo.Context, pageID string) (page.Props, page.Navigation) {
	ctx := c.Request().Context()
	props := page.Props{Site: a.Site(), PageID: pageID}
	if a.Config.Fallback {
		rm, ok, err := a.Cache.Lookup(ctx, pageID)
		if !ok {
			return props, page.Transitioning
		}
		props.RecordMap, props.Err = rm, err
		return props, page.Idle
	}
	props.RecordMap, props.Err = a.Cache.Get(ctx, pageID)
	return props, page.Idle
}

func (a *App) renderPage(c echo.Context, pageID string) error {
	start := time.Now()
	defer func() { a.Metrics.ObserveRenderDuration(time.Since(start)) }()

	props, nav := a.loadProps(c, pageID)
	res := a.Builder.Build(c.Request().Context(), props, nav, c.QueryParams())

	switch res.State {
	case page.StateLoading:
		a.Metrics.IncPageRender(metrics.RenderLoading)
		c.Response().Header().Set("Cache-Control", "no-store")
		c.Response().Header().Set("Retry-After", "2")
		return RenderStatus(c, http.StatusServiceUnavailable, a.Views.Loading(a.Site()))
	case page.StateNotFound:
		a.Metrics.IncPageRender(metrics.RenderNotFound)
		a.Logger.Info("page not found", logfields.PageID(pageID), logfields.Reason(errorText(res.Reason)))
		c.Response().Header().Set("Cache-Control", "no-store")
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(res.Props.Site, res.Props.PageID, res.Props.Err))
	}

	doc := a.pageDocument(res)
	if err := RenderStatus(c, http.StatusOK, a.Views.Document(doc)); err != nil {
		a.Metrics.IncPageRender(metrics.RenderError)
		return err
	}
	a.Metrics.IncPageRender(metrics.RenderReady)
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// rendererParams hands a ready page to the block renderer.
func (a *App) rendererParams(res page.Result) renderer.Params {
	site := res.Props.Site
	p := res.Presentation
	return renderer.Params{
		RecordMap:               res.Props.RecordMap,
		PageID:                  res.Block.ID,
		RootPageID:              site.RootNotionPageID,
		RootSpaceID:             site.RootNotionSpaceID,
		FullPage:                true,
		Lite:                    p.Lite,
		DarkMode:                a.Config.DarkMode,
		ShowTableOfContents:     p.ShowTableOfContents,
		MinTableOfContentsItems: p.MinTableOfContentsItems,
		PreviewImages:           a.Config.PreviewImages,
		MapPageURL:              p.PageURL,
		MapImageURL:             p.ImageURL,
		SearchEndpoint:          SearchEndpoint,
		TweetEndpoint:           renderer.DefaultTweetEndpoint,
		Header:                  a.Views.Header(site, SearchEndpoint),
		Footer:                  a.Views.Footer(site),
		PageAside:               a.Views.Aside(p),
		PageCover:               a.Views.Cover(site, p),
		PageFooter:              a.Views.PageFooter(p),
	}
}

func (a *App) pageDocument(res page.Result) views.Document {
	site := res.Props.Site
	jsonLD := []string{views.WebsiteJSONLD(site)}
	if p := res.Presentation; p.IsBlogPost {
		published := ""
		if t := fromNotionTime(p.Block.CreatedTime); !t.IsZero() {
			published = t.Format("2006-01-02")
		}
		jsonLD = append(jsonLD, views.BlogPostingJSONLD(site, p, published))
	}
	return views.Document{
		Site:   site,
		Meta:   res.Meta,
		JSONLD: jsonLD,
		Lite:   res.Presentation.Lite,
		Body:   a.Renderer.Page(a.rendererParams(res)),
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, pages)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.ListBlogPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	path := filepath.Join(a.staticDir, "favicon.ico")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	icon := strings.TrimSpace(a.Config.Site.DefaultPageIcon)
	if icon == "" || strings.ContainsAny(icon, "/:.") {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text y=".9em" font-size="90">` +
		html.EscapeString(icon) + `</text></svg>`
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\nDisallow: /api/\nDisallow: /admin/\n")
	if !a.Config.Dev {
		b.WriteString("\nSitemap: " + notion.SiteURL(a.Site()) + "/sitemap.xml\n")
	}
	return c.String(http.StatusOK, b.String())
}

func (a *App) handleCodeCSS(c echo.Context) error {
	var b strings.Builder
	if err := renderer.CodeCSS(&b); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(b.String()))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Site(), "", nil))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.Site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
