package page

import (
	"strings"

	"github.com/eringen/notionsite/notion"
)

// MetaKind selects how a MetaTag is written into the document head.
type MetaKind int

const (
	// MetaTitle is the <title> element.
	MetaTitle MetaKind = iota
	// MetaName is <meta name=Key content=Value>.
	MetaName
	// MetaProperty is <meta property=Key content=Value>.
	MetaProperty
	// MetaLink is <link rel=Key href=Value>.
	MetaLink
)

// MetaTag is one element of the document head.
type MetaTag struct {
	Kind  MetaKind
	Key   string
	Value string
}

// Twitter card types.
const (
	CardSummary      = "summary"
	CardSummaryLarge = "summary_large_image"
)

// BuildMeta returns the head tags of a page. Every tag appears at most once
// and only when its source value is present. The twitter card falls back to
// the summary card when there is no social image.
func BuildMeta(site *notion.Site, p Presentation) []MetaTag {
	var tags []MetaTag
	seen := make(map[MetaTag]struct{})
	add := func(kind MetaKind, key, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		k := MetaTag{Kind: kind, Key: key}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		tags = append(tags, MetaTag{Kind: kind, Key: key, Value: value})
	}

	add(MetaTitle, "title", p.Title)
	add(MetaProperty, "og:title", p.Title)
	add(MetaName, "twitter:title", p.Title)
	add(MetaProperty, "og:type", p.OGType)
	if site != nil {
		add(MetaProperty, "og:site_name", site.Name)
		add(MetaName, "twitter:domain", site.Domain)
		if handle := strings.TrimPrefix(strings.TrimSpace(site.TwitterHandle), "@"); handle != "" {
			add(MetaName, "twitter:creator", "@"+handle)
		}
	}

	add(MetaName, "description", p.SocialDescription)
	add(MetaProperty, "og:description", p.SocialDescription)
	add(MetaName, "twitter:description", p.SocialDescription)

	if p.SocialImage != "" {
		add(MetaName, "twitter:card", CardSummaryLarge)
		add(MetaName, "twitter:image", p.SocialImage)
		add(MetaProperty, "og:image", p.SocialImage)
	} else {
		add(MetaName, "twitter:card", CardSummary)
	}

	add(MetaLink, "canonical", p.CanonicalPageURL)
	add(MetaProperty, "og:url", p.CanonicalPageURL)
	add(MetaName, "twitter:url", p.CanonicalPageURL)
	return tags
}

// Lookup returns the value of the first tag with the given kind and key.
func Lookup(tags []MetaTag, kind MetaKind, key string) (string, bool) {
	for _, t := range tags {
		if t.Kind == kind && t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}
