package notionsite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/notionsite/notion"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetPage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	page := IndexedPage{
		ID:          "3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b",
		Title:       "Hello World",
		Description: "First post",
		Path:        "/hello-world-3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b",
		BlogPost:    true,
		Cover:       "https://example.com/cover.png",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		FetchedAt:   created.Add(2 * time.Hour),
	}
	if err := s.SavePages(ctx, []IndexedPage{page}); err != nil {
		t.Fatalf("SavePages failed: %v", err)
	}

	got, err := s.GetPage(ctx, "3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got.ID != "3f2a9c1e5b7d4e8f9a0b1c2d3e4f5a6b" {
		t.Errorf("expected normalized id, got %q", got.ID)
	}
	if got.Title != page.Title || got.Description != page.Description || got.Path != page.Path {
		t.Errorf("unexpected page: %+v", got)
	}
	if !got.BlogPost {
		t.Error("expected blog post flag")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(page.UpdatedAt) {
		t.Errorf("expected updated %v, got %v", page.UpdatedAt, got.UpdatedAt)
	}
}

func TestSavePagesUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := IndexedPage{ID: "067dd719a912471ea9a3ac10710e86bf", Title: "Old", Path: "/", FetchedAt: time.Now()}
	if err := s.SavePages(ctx, []IndexedPage{p}); err != nil {
		t.Fatalf("SavePages failed: %v", err)
	}
	p.Title = "New"
	if err := s.SavePages(ctx, []IndexedPage{p}); err != nil {
		t.Fatalf("SavePages failed: %v", err)
	}

	pages, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Title != "New" {
		t.Errorf("expected updated title, got %q", pages[0].Title)
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPage(context.Background(), "067dd719a912471ea9a3ac10710e86bf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBlogPostsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	pages := []IndexedPage{
		{ID: "00000000000000000000000000000001", Title: "Root", Path: "/", FetchedAt: now},
		{ID: "00000000000000000000000000000002", Title: "Older", Path: "/older", BlogPost: true,
			CreatedAt: now.Add(-48 * time.Hour), FetchedAt: now},
		{ID: "00000000000000000000000000000003", Title: "Newer", Path: "/newer", BlogPost: true,
			CreatedAt: now.Add(-time.Hour), FetchedAt: now},
	}
	if err := s.SavePages(ctx, pages); err != nil {
		t.Fatalf("SavePages failed: %v", err)
	}

	posts, err := s.ListBlogPosts(ctx)
	if err != nil {
		t.Fatalf("ListBlogPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "Newer" || posts[1].Title != "Older" {
		t.Errorf("unexpected order: %q, %q", posts[0].Title, posts[1].Title)
	}
}

func TestDeletePages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	pages := []IndexedPage{
		{ID: "00000000000000000000000000000001", Title: "One", Path: "/one", FetchedAt: now},
		{ID: "00000000000000000000000000000002", Title: "Two", Path: "/two", FetchedAt: now},
	}
	if err := s.SavePages(ctx, pages); err != nil {
		t.Fatalf("SavePages failed: %v", err)
	}

	if err := s.DeletePage(ctx, "00000000-0000-0000-0000-000000000001"); err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	left, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(left) != 1 || left[0].Title != "Two" {
		t.Fatalf("expected only page Two, got %+v", left)
	}

	if err := s.DeleteAllPages(ctx); err != nil {
		t.Fatalf("DeleteAllPages failed: %v", err)
	}
	left, err = s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected empty index, got %d pages", len(left))
	}
}

func TestSaveAndGetTweet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetTweet(ctx, "20"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	payload := json.RawMessage(`{"id_str":"20","text":"just setting up my twttr"}`)
	if err := s.SaveTweet(ctx, "20", payload); err != nil {
		t.Fatalf("SaveTweet failed: %v", err)
	}
	got, err := s.GetTweet(ctx, "20")
	if err != nil {
		t.Fatalf("GetTweet failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %s, got %s", payload, got)
	}
}

func TestPreviewImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	img := notion.PreviewImage{OriginalWidth: 800, OriginalHeight: 600, DataURIBase64: "data:image/jpeg;base64,AAAA"}
	if err := s.SavePreviewImage(ctx, "https://example.com/a.png", img); err != nil {
		t.Fatalf("SavePreviewImage failed: %v", err)
	}

	found, err := s.GetPreviewImages(ctx, []string{"https://example.com/a.png", "https://example.com/b.png"})
	if err != nil {
		t.Fatalf("GetPreviewImages failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 preview, got %d", len(found))
	}
	if found["https://example.com/a.png"] != img {
		t.Errorf("unexpected preview: %+v", found["https://example.com/a.png"])
	}

	empty, err := s.GetPreviewImages(ctx, nil)
	if err != nil {
		t.Fatalf("GetPreviewImages(nil) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no previews, got %d", len(empty))
	}
}
