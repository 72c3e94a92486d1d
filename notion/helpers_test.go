package notion_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/notion/notiontest"
)

func TestBlockTitle(t *testing.T) {
	rm := notiontest.RecordMap(notiontest.Page(notiontest.RootPageID, "Home"))
	assert.Equal(t, "Home", notion.BlockTitle(rm.FirstBlock(), rm))

	untitled := notiontest.RecordMap(notiontest.Page(notiontest.RootPageID, ""))
	assert.Empty(t, notion.BlockTitle(untitled.FirstBlock(), untitled))
	assert.Empty(t, notion.BlockTitle(nil, nil))
}

func TestBlockTitleCollectionPage(t *testing.T) {
	b := notiontest.Block(notiontest.RootPageID, "collection_view_page")
	b.CollectionID = notiontest.BlogCollection
	rm := notiontest.WithCollection(notiontest.RecordMap(b), notiontest.BlogCollection, "Writing", nil)
	assert.Equal(t, "Writing", notion.BlockTitle(b, rm))
}

func TestPagePropertiesOfCollectionItem(t *testing.T) {
	rm := notiontest.BlogPost("Post", "About things", "https://twitter.com/someone/status/1234567890")
	post := rm.FirstBlock()

	assert.Equal(t, "About things", notion.PageDescription(post, rm))
	assert.Equal(t, "https://twitter.com/someone/status/1234567890", notion.PageTweet(post, rm))
	assert.Equal(t, "1234567890", notion.TweetID(notion.PageTweet(post, rm)))
}

func TestPagePropertiesOutsideCollection(t *testing.T) {
	b := notiontest.Page(notiontest.RootPageID, "Home", notiontest.Prop("desc", notion.Plain("ignored")))
	rm := notiontest.WithCollection(notiontest.RecordMap(b), notiontest.BlogCollection, "Posts", map[string]string{"desc": "Description"})
	assert.Empty(t, notion.PageDescription(b, rm))
	assert.Empty(t, notion.PageTweet(b, rm))
}

func TestTweetID(t *testing.T) {
	assert.Equal(t, "42", notion.TweetID("42"))
	assert.Equal(t, "1600", notion.TweetID("https://x.com/a/status/1600?s=20"))
	assert.Empty(t, notion.TweetID("https://example.com/post"))
	assert.Empty(t, notion.TweetID(""))
}

func TestInSiteSpace(t *testing.T) {
	site := notiontest.Site()
	own := notiontest.Page(notiontest.RootPageID, "Home")
	assert.True(t, notion.InSiteSpace(site, own))

	compact := notiontest.Page(notiontest.RootPageID, "Home", notiontest.Space("fde5ac74eea345278f004482710e1af3"))
	assert.True(t, notion.InSiteSpace(site, compact))

	foreign := notiontest.Page(notiontest.PostPageID, "Elsewhere", notiontest.Space("11111111-2222-4333-8444-555555555555"))
	assert.False(t, notion.InSiteSpace(site, foreign))

	unknown := notiontest.Page(notiontest.PostPageID, "Unknown", notiontest.Space(""))
	assert.True(t, notion.InSiteSpace(site, unknown))

	unscoped := notiontest.Site()
	unscoped.RootNotionSpaceID = ""
	assert.True(t, notion.InSiteSpace(unscoped, foreign))
}

func TestMapPageURL(t *testing.T) {
	site := notiontest.Site()
	rm := notiontest.RecordMap(
		notiontest.Page(notiontest.RootPageID, "Home"),
		notiontest.Page(notiontest.PostPageID, "Hello World"),
	)

	mapURL := notion.MapPageURL(site, rm, nil)
	assert.Equal(t, "/", mapURL(notiontest.RootPageID))
	assert.Equal(t, "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b", mapURL(notiontest.PostPageID))

	lite := notion.MapPageURL(site, rm, url.Values{"lite": {"true"}})
	assert.Equal(t, "/?lite=true", lite(notiontest.RootPageID))
	assert.Equal(t, "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b?lite=true", lite(notiontest.PostPageID))
}

func TestCanonicalPageURL(t *testing.T) {
	site := notiontest.Site()
	rm := notiontest.RecordMap(notiontest.Page(notiontest.PostPageID, "Hello World"))

	canonical := notion.CanonicalPageURL(site, rm)
	assert.Equal(t, "https://example.com", canonical(notiontest.RootPageID))
	assert.Equal(t, "https://example.com/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b", canonical(notiontest.PostPageID))

	site.Domain = "http://localhost:3000/"
	assert.Equal(t, "http://localhost:3000", notion.CanonicalPageURL(site, rm)(notiontest.RootPageID))
}

func TestMapImageURL(t *testing.T) {
	b := notiontest.Page(notiontest.PostPageID, "Post", notiontest.Parent(notiontest.BlogCollection, "collection"))

	assert.Empty(t, notion.MapImageURL("", b))
	assert.Equal(t, "data:image/png;base64,AAA", notion.MapImageURL("data:image/png;base64,AAA", b))
	assert.Equal(t, "https://images.unsplash.com/photo?w=1", notion.MapImageURL("https://images.unsplash.com/photo?w=1", b))
	assert.Equal(t, "/public/cover.png", notion.MapImageURL("/public/cover.png", b))

	got := notion.MapImageURL("/images/page-cover/woodcuts_1.jpg", b)
	assert.Equal(t,
		"https://www.notion.so/image/https%3A%2F%2Fwww.notion.so%2Fimages%2Fpage-cover%2Fwoodcuts_1.jpg?cache=v2&id="+notiontest.PostPageID+"&table=collection",
		got)

	root := notiontest.Page(notiontest.RootPageID, "Home", notiontest.Parent("space", "space"))
	got = notion.MapImageURL("https://s3.example.com/a.png", root)
	assert.Contains(t, got, "table=block")
	assert.Empty(t, notion.MapImageURL("not a url", root))
}

func TestSiteImageURLMapperKeepsDefaults(t *testing.T) {
	site := notiontest.Site()
	site.DefaultPageCover = "https://cdn.example.com/cover.jpg"
	mapImage := notion.SiteImageURLMapper(site)

	assert.Equal(t, site.DefaultPageCover, mapImage(site.DefaultPageCover, nil))
	assert.Contains(t, mapImage("https://cdn.example.com/other.jpg", nil), "https://www.notion.so/image/")
}

func TestPageImageURLs(t *testing.T) {
	img := notiontest.Block("11111111-1111-4111-8111-111111111111", "image",
		notiontest.Prop("source", notion.Plain("https://cdn.example.com/a.png")))
	dup := notiontest.Block("22222222-2222-4222-8222-222222222222", "image",
		notiontest.Prop("source", notion.Plain("https://cdn.example.com/a.png")))
	inline := notiontest.Block("33333333-3333-4333-8333-333333333333", "image",
		notiontest.Prop("source", notion.Plain("data:image/gif;base64,R0lG")))
	root := notiontest.Page(notiontest.RootPageID, "Home", notiontest.Cover("https://cdn.example.com/cover.png"))
	rm := notiontest.RecordMap(root, img, dup, inline)

	identity := func(src string, _ *notion.Block) string { return src }
	assert.Equal(t, []string{"https://cdn.example.com/cover.png", "https://cdn.example.com/a.png"},
		notion.PageImageURLs(rm, identity))
}
