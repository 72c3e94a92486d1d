package notionsite

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/notion"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// buildSitemap lists the root URL followed by every indexed page.
func (a *App) buildSitemap(pages []IndexedPage) sitemapURLSet {
	base := notion.SiteURL(a.Site())
	rootID := notion.NormalizeID(a.Config.Site.RootNotionPageID)
	urls := []sitemapURL{{Loc: base}}
	for _, p := range pages {
		if notion.NormalizeID(p.ID) == rootID {
			continue
		}
		u := sitemapURL{Loc: base + p.Path}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, pages []IndexedPage) error {
	return writeXML(c, "application/xml; charset=utf-8", a.buildSitemap(pages))
}
