package views

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
)

// LoadingRefreshSeconds is how often the loading page reloads itself.
const LoadingRefreshSeconds = 2

func noindex() page.MetaTag {
	return page.MetaTag{Kind: page.MetaName, Key: "robots", Value: "noindex"}
}

// Loading is shown while a page is still being fetched.
func Loading(site *notion.Site) templ.Component {
	return Layout(Document{
		Site: site,
		Meta: []page.MetaTag{
			{Kind: page.MetaTitle, Key: "title", Value: siteName(site)},
			noindex(),
		},
		Head: templ.Raw(fmt.Sprintf(`<meta http-equiv="refresh" content="%d"/>`, LoadingRefreshSeconds)),
		Body: component(func(_ context.Context, buf *bytes.Buffer) error {
			buf.WriteString(`<div class="notion-loading" role="status" aria-live="polite"><div class="notion-loading-icon"></div><span>Loading&hellip;</span></div>`)
			return nil
		}),
	})
}

// NotFound is shown for any page that cannot be resolved. err may be nil.
func NotFound(site *notion.Site, pageID string, err error) templ.Component {
	return Layout(Document{
		Site: site,
		Meta: []page.MetaTag{
			{Kind: page.MetaTitle, Key: "title", Value: "Notion Page Not Found"},
			{Kind: page.MetaProperty, Key: "og:site_name", Value: siteName(site)},
			noindex(),
		},
		Body: component(func(_ context.Context, buf *bytes.Buffer) error {
			buf.WriteString(`<main class="notion-error-page"><h1>Notion Page Not Found</h1>`)
			switch {
			case err != nil:
				buf.WriteString(`<p class="notion-error-message">` + esc(err.Error()) + `</p>`)
			case pageID != "":
				buf.WriteString(`<p>Make sure that Notion page &quot;` + esc(pageID) + `&quot; is publicly accessible.</p>`)
			}
			buf.WriteString(`<p><a href="/">Back to ` + esc(siteName(site)) + `</a></p></main>`)
			return nil
		}),
	})
}

// ServerError is shown when rendering fails unexpectedly.
func ServerError(site *notion.Site) templ.Component {
	return Layout(Document{
		Site: site,
		Meta: []page.MetaTag{
			{Kind: page.MetaTitle, Key: "title", Value: "Something went wrong"},
			noindex(),
		},
		Body: component(func(_ context.Context, buf *bytes.Buffer) error {
			buf.WriteString(`<main class="notion-error-page"><h1>Something went wrong</h1>`)
			buf.WriteString(`<p>The page could not be rendered. Please try again later.</p>`)
			buf.WriteString(`<p><a href="/">Back to ` + esc(siteName(site)) + `</a></p></main>`)
			return nil
		}),
	})
}
