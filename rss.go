package notionsite

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/notion"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate,omitempty"`
	GUID        string        `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

func (a *App) buildRSS(posts []IndexedPage) rssXML {
	site := a.Site()
	base := notion.SiteURL(site)
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		link := base + p.Path
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Description,
			GUID:        link,
		}
		if !p.CreatedAt.IsZero() {
			item.PubDate = p.CreatedAt.Format("Mon, 02 Jan 2006 15:04:05 -0700")
		}
		if p.Cover != "" {
			item.Enclosure = &rssEnclosure{URL: p.Cover, Type: "image/jpeg"}
		}
		items = append(items, item)
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        base,
			Description: site.Description,
			Language:    site.Language,
			Items:       items,
		},
	}
}

func (a *App) renderRSS(c echo.Context, posts []IndexedPage) error {
	return writeXML(c, "application/rss+xml; charset=utf-8", a.buildRSS(posts))
}
