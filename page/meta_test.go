package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/notionsite/notion/notiontest"
	"github.com/eringen/notionsite/page"
)

func metaKeys(tags []page.MetaTag) map[page.MetaTag]int {
	counts := make(map[page.MetaTag]int)
	for _, tag := range tags {
		counts[page.MetaTag{Kind: tag.Kind, Key: tag.Key}]++
	}
	return counts
}

func TestBuildMetaFullSet(t *testing.T) {
	site := notiontest.Site()
	site.TwitterHandle = "@example"
	p := page.Presentation{
		Title:             "Hello",
		SocialImage:       "https://cdn.example.com/a.png",
		SocialDescription: "About hello",
		CanonicalPageURL:  "https://example.com/hello-1",
		OGType:            "article",
	}
	tags := page.BuildMeta(site, p)

	for key, n := range metaKeys(tags) {
		assert.Equal(t, 1, n, "tag %v emitted more than once", key)
	}

	want := []struct {
		kind  page.MetaKind
		key   string
		value string
	}{
		{page.MetaTitle, "title", "Hello"},
		{page.MetaProperty, "og:title", "Hello"},
		{page.MetaName, "twitter:title", "Hello"},
		{page.MetaProperty, "og:site_name", "Example Site"},
		{page.MetaProperty, "og:description", "About hello"},
		{page.MetaName, "description", "About hello"},
		{page.MetaName, "twitter:description", "About hello"},
		{page.MetaProperty, "og:image", "https://cdn.example.com/a.png"},
		{page.MetaName, "twitter:image", "https://cdn.example.com/a.png"},
		{page.MetaName, "twitter:card", page.CardSummaryLarge},
		{page.MetaProperty, "og:url", "https://example.com/hello-1"},
		{page.MetaName, "twitter:url", "https://example.com/hello-1"},
		{page.MetaLink, "canonical", "https://example.com/hello-1"},
		{page.MetaName, "twitter:creator", "@example"},
		{page.MetaName, "twitter:domain", "example.com"},
		{page.MetaProperty, "og:type", "article"},
	}
	for _, w := range want {
		got, ok := page.Lookup(tags, w.kind, w.key)
		if assert.True(t, ok, "missing %s", w.key) {
			assert.Equal(t, w.value, got, w.key)
		}
	}
	assert.Len(t, tags, len(want))
}

func TestBuildMetaWithoutOptionalValues(t *testing.T) {
	site := notiontest.Site()
	tags := page.BuildMeta(site, page.Presentation{Title: "Hello"})

	card, ok := page.Lookup(tags, page.MetaName, "twitter:card")
	assert.True(t, ok)
	assert.Equal(t, page.CardSummary, card)

	for _, absent := range []struct {
		kind page.MetaKind
		key  string
	}{
		{page.MetaProperty, "og:image"},
		{page.MetaName, "twitter:image"},
		{page.MetaName, "twitter:creator"},
		{page.MetaLink, "canonical"},
		{page.MetaProperty, "og:url"},
		{page.MetaName, "twitter:url"},
		{page.MetaName, "description"},
	} {
		_, ok := page.Lookup(tags, absent.kind, absent.key)
		assert.False(t, ok, absent.key)
	}
}

func TestBuildMetaNilSite(t *testing.T) {
	tags := page.BuildMeta(nil, page.Presentation{Title: "Hello"})
	_, ok := page.Lookup(tags, page.MetaProperty, "og:site_name")
	assert.False(t, ok)
	title, _ := page.Lookup(tags, page.MetaTitle, "title")
	assert.Equal(t, "Hello", title)
}
