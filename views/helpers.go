package views

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
)

// component wraps a buffered writer so a failing component writes nothing.
func component(fill func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fill(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string { return html.EscapeString(s) }

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

func siteName(site *notion.Site) string {
	if site == nil || site.Name == "" {
		return "Notion Site"
	}
	return site.Name
}

// WebsiteJSONLD produces a Schema.org WebSite JSON-LD block for the site.
func WebsiteJSONLD(site *notion.Site) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     siteName(site),
	}
	if site != nil {
		data["url"] = notion.SiteURL(site)
		if site.Description != "" {
			data["description"] = site.Description
		}
		if site.Author != "" {
			data["author"] = map[string]string{
				"@type": "Person",
				"name":  site.Author,
			}
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJSONLD produces a Schema.org BlogPosting JSON-LD block for a
// blog post. published may be empty.
func BlogPostingJSONLD(site *notion.Site, p page.Presentation, published string) string {
	postURL := p.CanonicalPageURL
	if postURL == "" && site != nil {
		postURL = buildURL(notion.SiteURL(site), notion.NormalizeID(p.PageID))
	}
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    p.Title,
		"description": p.SocialDescription,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  siteName(site),
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if p.SocialImage != "" {
		data["image"] = p.SocialImage
	}
	if published != "" {
		data["datePublished"] = published
	}
	if site != nil && site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// twitterHandle returns the handle without a leading @.
func twitterHandle(site *notion.Site) string {
	if site == nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(site.TwitterHandle), "@")
}
