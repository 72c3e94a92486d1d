package notionsite

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component is rendered into a buffer first so a failing component
// still leaves the error handler a clean response.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// writeXML encodes v as an XML document with the given content type.
func writeXML(c echo.Context, contentType string, v any) error {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	enc := xml.NewEncoder(c.Response())
	enc.Indent("", "  ")
	return enc.Encode(v)
}

// RenderPage writes the HTML document of a page to w without going through
// the HTTP server or the page cache. Pages that are not ready are written
// with the not-found view. The returned state is the outcome of the page
// guard.
func (a *App) RenderPage(ctx context.Context, pageID string, query url.Values, w io.Writer) (page.State, error) {
	id := notion.ParsePageID(pageID)
	if id == "" {
		return page.StateNotFound, fmt.Errorf("notionsite: invalid page id %q", pageID)
	}
	props := page.Props{Site: a.Site(), PageID: id}
	props.RecordMap, props.Err = a.fetchPage(ctx, id)

	res := a.Builder.Build(ctx, props, page.Idle, query)
	if !res.Ready() {
		return res.State, a.Views.NotFound(res.Props.Site, res.Props.PageID, res.Props.Err).Render(ctx, w)
	}
	return res.State, a.Views.Document(a.pageDocument(res)).Render(ctx, w)
}
