package notion

import (
	"net/url"
	"regexp"
	"strings"
)

const notionHost = "https://www.notion.so"

var reTweetID = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// PageURLMapper maps a page id to a URL.
type PageURLMapper func(pageID string) string

// ImageURLMapper maps an image source referenced by a block to a URL.
type ImageURLMapper func(src string, b *Block) string

// BlockTitle returns the title of a page-like block, or "" when it has none.
func BlockTitle(b *Block, rm *RecordMap) string {
	if b == nil {
		return ""
	}
	if title := strings.TrimSpace(b.Properties["title"].PlainText()); title != "" {
		return title
	}
	if b.Type == "collection_view_page" || b.Type == "collection_view" {
		if coll := rm.CollectionByID(b.CollectionID); coll != nil {
			return strings.TrimSpace(coll.Name.PlainText())
		}
	}
	return ""
}

// PageProperty returns the value of a named collection property of a
// collection item page as rich text. Non-collection pages have no properties.
func PageProperty(name string, b *Block, rm *RecordMap) RichText {
	if b == nil || b.ParentTable != "collection" {
		return nil
	}
	coll := rm.CollectionByID(b.ParentID)
	if coll == nil {
		return nil
	}
	for propID, schema := range coll.Schema {
		if strings.EqualFold(schema.Name, name) {
			return b.Properties[propID]
		}
	}
	return nil
}

// PagePropertyURL returns the link target of a named file or url property,
// falling back to its plain text.
func PagePropertyURL(name string, b *Block, rm *RecordMap) string {
	prop := PageProperty(name, b, rm)
	if link := prop.FirstLink(); link != "" {
		return link
	}
	return strings.TrimSpace(prop.PlainText())
}

// PageDescription returns the "Description" property of a page.
func PageDescription(b *Block, rm *RecordMap) string {
	return strings.TrimSpace(PageProperty("Description", b, rm).PlainText())
}

// PageTweet returns the "Tweet" property of a page: the URL or id of the
// post that discusses it.
func PageTweet(b *Block, rm *RecordMap) string {
	return PagePropertyURL("Tweet", b, rm)
}

// TweetID extracts the numeric id from a tweet URL or returns ref when it is
// already an id.
func TweetID(ref string) string {
	ref = strings.TrimSpace(ref)
	if m := reTweetID.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return ref
}

// CanonicalPageID returns the path segment used for a page: its slugified
// title followed by its compact id.
func CanonicalPageID(pageID string, rm *RecordMap) string {
	id := NormalizeID(pageID)
	slug := Slugify(BlockTitle(rm.BlockByID(pageID), rm))
	if slug == "" {
		return id
	}
	return slug + "-" + id
}

// InSiteSpace reports whether b belongs to the workspace of site. A site or
// block without a space id is not checked.
func InSiteSpace(site *Site, b *Block) bool {
	if site == nil || b == nil || site.RootNotionSpaceID == "" || b.SpaceID == "" {
		return true
	}
	return NormalizeID(site.RootNotionSpaceID) == NormalizeID(b.SpaceID)
}

// SiteURL returns the base URL of the site's domain.
func SiteURL(site *Site) string {
	domain := strings.TrimSuffix(strings.TrimSpace(site.Domain), "/")
	if strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain
}

// MapPageURL returns a mapper from page ids to site-relative URLs. The root
// page maps to "/" and searchParams are carried on every URL.
func MapPageURL(site *Site, rm *RecordMap, searchParams url.Values) PageURLMapper {
	rootID := NormalizeID(site.RootNotionPageID)
	query := ""
	if len(searchParams) > 0 {
		query = "?" + searchParams.Encode()
	}
	return func(pageID string) string {
		if NormalizeID(pageID) == rootID {
			return "/" + query
		}
		return "/" + CanonicalPageID(pageID, rm) + query
	}
}

// CanonicalPageURL returns a mapper from page ids to absolute canonical URLs.
func CanonicalPageURL(site *Site, rm *RecordMap) PageURLMapper {
	rootID := NormalizeID(site.RootNotionPageID)
	base := SiteURL(site)
	return func(pageID string) string {
		if NormalizeID(pageID) == rootID {
			return base
		}
		return base + "/" + CanonicalPageID(pageID, rm)
	}
}

// MapImageURL routes Notion-hosted and relative image sources through
// Notion's image proxy. Data URIs, site-local paths and Unsplash images are
// returned unchanged.
func MapImageURL(src string, b *Block) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "data:"),
		strings.HasPrefix(src, "https://images.unsplash.com"),
		strings.HasPrefix(src, notionHost+"/image/"):
		return src
	case strings.HasPrefix(src, "/images"):
		src = notionHost + src
	case strings.HasPrefix(src, "/"):
		return src
	}

	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" {
		return ""
	}

	out := notionHost + "/image/" + url.QueryEscape(src)
	if b == nil {
		return out
	}
	table := b.ParentTable
	if table == "" || table == "space" {
		table = "block"
	}
	q := url.Values{}
	q.Set("table", table)
	q.Set("id", b.ID)
	q.Set("cache", "v2")
	return out + "?" + q.Encode()
}

// SiteImageURLMapper wraps MapImageURL so the site's default cover and icon
// are never proxied.
func SiteImageURLMapper(site *Site) ImageURLMapper {
	return func(src string, b *Block) string {
		if site != nil && src != "" && (src == site.DefaultPageCover || src == site.DefaultPageIcon) {
			return src
		}
		return MapImageURL(src, b)
	}
}

// BlockImageSource returns the raw source of an image-like block.
func BlockImageSource(b *Block, rm *RecordMap) string {
	if b == nil {
		return ""
	}
	if rm != nil {
		if signed, ok := rm.SignedURLs[b.ID]; ok && signed != "" {
			return signed
		}
	}
	if b.Format.DisplaySource != "" {
		return b.Format.DisplaySource
	}
	return strings.TrimSpace(b.Properties["source"].PlainText())
}

// PageImageURLs collects the mapped URLs of every image and page cover in
// the record map, in block order and without duplicates.
func PageImageURLs(rm *RecordMap, mapImage ImageURLMapper) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(raw string, b *Block) {
		u := mapImage(raw, b)
		if u == "" || strings.HasPrefix(u, "data:") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	for _, id := range rm.BlockIDs() {
		rec := rm.Block[id]
		if rec == nil || rec.Value == nil {
			continue
		}
		b := rec.Value
		if b.Format.PageCover != "" {
			add(b.Format.PageCover, b)
		}
		if b.Type == "image" {
			add(BlockImageSource(b, rm), b)
		}
	}
	return urls
}
