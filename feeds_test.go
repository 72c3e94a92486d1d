package notionsite

import (
	"testing"
	"time"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/notion/notiontest"
)

func TestIndexPages(t *testing.T) {
	site := notiontest.Site()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rm := notiontest.BlogPost("Hello World", "First post", "", notiontest.Cover("/images/cover.png"), func(b *notion.Block) {
		b.CreatedTime = created.UnixMilli()
	})
	now := time.Now()

	pages := indexPages(site, rm, now)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	if p.ID != notion.NormalizeID(notiontest.PostPageID) {
		t.Errorf("unexpected id %q", p.ID)
	}
	if p.Path != "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b" {
		t.Errorf("unexpected path %q", p.Path)
	}
	if !p.BlogPost {
		t.Error("expected a blog post")
	}
	if p.Description != "First post" {
		t.Errorf("unexpected description %q", p.Description)
	}
	if p.Cover == "" {
		t.Error("expected a mapped cover")
	}
	if !p.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, p.CreatedAt)
	}
	if !p.FetchedAt.Equal(now) {
		t.Errorf("expected fetched %v, got %v", now, p.FetchedAt)
	}
}

func TestIndexPagesSkipsPlainChildren(t *testing.T) {
	rm := notiontest.RecordMap(
		notiontest.Page(notiontest.RootPageID, "Home", notiontest.Children("aaaaaaaa-0000-4000-8000-000000000001")),
		notiontest.Block("aaaaaaaa-0000-4000-8000-000000000001", "text", notiontest.Title("hello")),
	)
	pages := indexPages(notiontest.Site(), rm, time.Now())
	if len(pages) != 1 {
		t.Fatalf("expected only the root page, got %d", len(pages))
	}
	if pages[0].Path != "/" || pages[0].BlogPost {
		t.Errorf("unexpected root entry: %+v", pages[0])
	}
}

func TestIndexPagesSkipsForeignSpace(t *testing.T) {
	other := notiontest.Space("11111111-2222-4333-8444-555555555555")
	foreign := notiontest.RecordMap(notiontest.Page(notiontest.PostPageID, "Elsewhere", other))
	if pages := indexPages(notiontest.Site(), foreign, time.Now()); pages != nil {
		t.Errorf("expected a foreign page to be skipped, got %+v", pages)
	}

	item := notiontest.Page("bbbbbbbb-0000-4000-8000-000000000002", "Borrowed", notiontest.Parent(notiontest.BlogCollection, "collection"), other)
	rm := notiontest.RecordMap(notiontest.Page(notiontest.RootPageID, "Home"), item)
	pages := indexPages(notiontest.Site(), rm, time.Now())
	if len(pages) != 1 || pages[0].Path != "/" {
		t.Errorf("expected only the root page, got %+v", pages)
	}
}

func TestIndexPagesEmpty(t *testing.T) {
	if pages := indexPages(notiontest.Site(), &notion.RecordMap{}, time.Now()); pages != nil {
		t.Errorf("expected nil, got %+v", pages)
	}
}

func TestBuildSitemap(t *testing.T) {
	a := New(SiteConfig{Site: *notiontest.Site()}, ViewFuncs{}, WithPageSource(newFakeSource()))
	updated := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	set := a.buildSitemap([]IndexedPage{
		{ID: notiontest.RootPageID, Path: "/"},
		{ID: notiontest.PostPageID, Path: "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b", UpdatedAt: updated},
	})
	if len(set.URLs) != 2 {
		t.Fatalf("expected root plus one page, got %d", len(set.URLs))
	}
	if set.URLs[0].Loc != "https://example.com" {
		t.Errorf("expected root first, got %q", set.URLs[0].Loc)
	}
	if set.URLs[1].Loc != "https://example.com/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b" {
		t.Errorf("unexpected loc %q", set.URLs[1].Loc)
	}
	if set.URLs[1].LastMod != "2024-05-06" {
		t.Errorf("unexpected lastmod %q", set.URLs[1].LastMod)
	}
}

func TestBuildRSS(t *testing.T) {
	a := New(SiteConfig{Site: *notiontest.Site()}, ViewFuncs{}, WithPageSource(newFakeSource()))
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	feed := a.buildRSS([]IndexedPage{{
		Title:       "Hello World",
		Description: "First post",
		Path:        "/hello-world",
		Cover:       "https://example.com/cover.jpg",
		CreatedAt:   created,
	}})
	if feed.Version != "2.0" {
		t.Errorf("unexpected version %q", feed.Version)
	}
	if feed.Channel.Title != "Example Site" || feed.Channel.Link != "https://example.com" {
		t.Errorf("unexpected channel: %+v", feed.Channel)
	}
	if feed.Channel.Language != "en" {
		t.Errorf("expected default language, got %q", feed.Channel.Language)
	}
	if len(feed.Channel.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(feed.Channel.Items))
	}
	item := feed.Channel.Items[0]
	if item.Link != "https://example.com/hello-world" || item.GUID != item.Link {
		t.Errorf("unexpected link/guid: %q %q", item.Link, item.GUID)
	}
	if item.PubDate != "Mon, 15 Jan 2024 00:00:00 +0000" {
		t.Errorf("unexpected pubDate %q", item.PubDate)
	}
	if item.Enclosure == nil || item.Enclosure.URL != "https://example.com/cover.jpg" {
		t.Errorf("expected cover enclosure, got %+v", item.Enclosure)
	}
}
