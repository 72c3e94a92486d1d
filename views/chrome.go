package views

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
	"github.com/eringen/notionsite/renderer"
)

// Header is the navigation bar above every page.
func Header(site *notion.Site, searchEndpoint string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<header class="notion-header"><nav class="notion-nav-header">`)
		buf.WriteString(`<a class="notion-nav-breadcrumb" href="/">` + esc(siteName(site)) + `</a>`)
		if searchEndpoint != "" {
			buf.WriteString(`<form class="notion-search" role="search" data-search-endpoint="` + esc(searchEndpoint) + `">`)
			buf.WriteString(`<input type="search" name="query" placeholder="Search" aria-label="Search"/></form>`)
		}
		buf.WriteString(`</nav></header>`)
		return nil
	})
}

// HeroHeader replaces the page cover of the root and bio pages.
func HeroHeader(site *notion.Site, p page.Presentation) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		cover := ""
		if p.Block != nil {
			cover = p.Block.Format.PageCover
		}
		if cover == "" && site != nil {
			cover = site.DefaultPageCover
		}
		if cover != "" && p.ImageURL != nil {
			cover = p.ImageURL(cover, p.Block)
		}
		buf.WriteString(`<div class="notion-hero">`)
		if src := renderer.SafeURL(cover); src != "" {
			buf.WriteString(`<img class="notion-hero-image" src="` + src + `" alt=""/>`)
		}
		buf.WriteString(`<div class="notion-hero-text"><h1 class="notion-hero-title">` + esc(p.Title) + `</h1>`)
		if p.SocialDescription != "" {
			buf.WriteString(`<p class="notion-hero-description">` + esc(p.SocialDescription) + `</p>`)
		}
		buf.WriteString(`</div></div>`)
		return nil
	})
}

// Footer is the site footer.
func Footer(site *notion.Site) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		owner := siteName(site)
		if site != nil && site.Author != "" {
			owner = site.Author
		}
		fmt.Fprintf(buf, `<footer class="notion-footer"><div class="notion-footer-copyright">Copyright %d %s</div>`, time.Now().Year(), esc(owner))
		if handle := twitterHandle(site); handle != "" {
			buf.WriteString(`<div class="notion-footer-social"><a class="notion-footer-twitter" href="https://twitter.com/` + url.PathEscape(handle) + `" title="Twitter @` + esc(handle) + `" target="_blank" rel="noopener noreferrer">@` + esc(handle) + `</a></div>`)
		}
		buf.WriteString(`</footer>`)
		return nil
	})
}

// SocialShare links to share pageURL on social networks.
func SocialShare(pageURL, title string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		u := url.QueryEscape(pageURL)
		t := url.QueryEscape(title)
		links := []struct{ name, href string }{
			{"Twitter", "https://twitter.com/intent/tweet?url=" + u + "&text=" + t},
			{"LinkedIn", "https://www.linkedin.com/sharing/share-offsite/?url=" + u},
			{"Email", "mailto:?subject=" + t + "&body=" + u},
		}
		buf.WriteString(`<div class="notion-social-share" aria-label="Share">`)
		for _, l := range links {
			buf.WriteString(`<a class="notion-social-share-link" href="` + esc(l.href) + `" target="_blank" rel="noopener noreferrer">` + l.name + `</a>`)
		}
		buf.WriteString(`</div>`)
		return nil
	})
}

// PageActions lets readers like or retweet the tweet announcing a post. It
// writes nothing when tweetRef holds no tweet id.
func PageActions(tweetRef string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		id := notion.TweetID(tweetRef)
		if id == "" {
			return nil
		}
		buf.WriteString(`<div class="notion-page-actions">`)
		buf.WriteString(`<a class="notion-page-action-like" href="https://twitter.com/intent/like?tweet_id=` + id + `" target="_blank" rel="noopener noreferrer" title="Like this post on Twitter">Like</a>`)
		buf.WriteString(`<a class="notion-page-action-retweet" href="https://twitter.com/intent/retweet?tweet_id=` + id + `" target="_blank" rel="noopener noreferrer" title="Retweet this post on Twitter">Retweet</a>`)
		buf.WriteString(`</div>`)
		return nil
	})
}

// CommentsWidget embeds the utterances comment thread. It writes nothing
// without a repository.
func CommentsWidget(cfg Comments) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		if cfg.Repo == "" {
			return nil
		}
		term := cfg.IssueTerm
		if term == "" {
			term = "pathname"
		}
		theme := cfg.Theme
		if theme == "" {
			theme = "github-light"
		}
		buf.WriteString(`<section class="notion-comments"><script src="https://utteranc.es/client.js" repo="` + esc(cfg.Repo) +
			`" issue-term="` + esc(term) + `" theme="` + esc(theme) + `" crossorigin="anonymous" async></script></section>`)
		return nil
	})
}

// AsideSlot returns the component for the aside slot of a page, or nil.
func AsideSlot(p page.Presentation) templ.Component {
	switch p.Aside.Kind {
	case page.SlotEngagementActions:
		if notion.TweetID(p.Aside.TweetRef) == "" {
			return nil
		}
		return PageActions(p.Aside.TweetRef)
	case page.SlotSocialShare:
		shareURL := p.CanonicalPageURL
		if shareURL == "" && p.PageURL != nil {
			shareURL = p.PageURL(p.PageID)
		}
		return SocialShare(shareURL, p.Title)
	}
	return nil
}

// CoverSlot returns the component for the cover slot of a page, or nil.
func CoverSlot(site *notion.Site, p page.Presentation) templ.Component {
	if p.Cover.Kind == page.SlotHeroCover {
		return HeroHeader(site, p)
	}
	return nil
}
