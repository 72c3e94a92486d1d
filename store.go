package notionsite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/notionsite/notion"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// IndexedPage is a page seen in a fetched record map. The index feeds the
// sitemap, the RSS feed and the admin dashboard.
type IndexedPage struct {
	ID          string
	Title       string
	Description string
	Path        string // site-relative URL
	BlogPost    bool
	Cover       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FetchedAt   time.Time
}

// Store wraps a SQLite database holding the page index, fetched tweets and
// generated preview images.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the page index be read while a fetch writes to it; writers
	// wait on busy_timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    path TEXT NOT NULL,
    blog_post INTEGER NOT NULL DEFAULT 0,
    cover TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL DEFAULT 0,
    fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tweets (
    id TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS preview_images (
    url TEXT PRIMARY KEY,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    data_uri TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`)
	return err
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// SavePages upserts pages into the index in one transaction.
func (s *Store) SavePages(ctx context.Context, pages []IndexedPage) error {
	if len(pages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO pages
		(id, title, description, path, blog_post, cover, created_at, updated_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range pages {
		blogPost := 0
		if p.BlogPost {
			blogPost = 1
		}
		if _, err := stmt.ExecContext(ctx, notion.NormalizeID(p.ID), p.Title, p.Description, p.Path, blogPost, p.Cover,
			unixMilli(p.CreatedAt), unixMilli(p.UpdatedAt), unixMilli(p.FetchedAt)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const pageColumns = `id, title, description, path, blog_post, cover, created_at, updated_at, fetched_at`

func scanPage(row interface{ Scan(...any) error }) (IndexedPage, error) {
	var p IndexedPage
	var blogPost int
	var created, updated, fetched int64
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Path, &blogPost, &p.Cover, &created, &updated, &fetched); err != nil {
		return IndexedPage{}, err
	}
	p.BlogPost = blogPost == 1
	p.CreatedAt = fromUnixMilli(created)
	p.UpdatedAt = fromUnixMilli(updated)
	p.FetchedAt = fromUnixMilli(fetched)
	return p, nil
}

func (s *Store) queryPages(ctx context.Context, query string, args ...any) ([]IndexedPage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []IndexedPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListPages returns every indexed page, most recently fetched first.
func (s *Store) ListPages(ctx context.Context) ([]IndexedPage, error) {
	return s.queryPages(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY fetched_at DESC, id`)
}

// ListBlogPosts returns indexed blog posts, newest first.
func (s *Store) ListBlogPosts(ctx context.Context) ([]IndexedPage, error) {
	return s.queryPages(ctx, `SELECT `+pageColumns+` FROM pages WHERE blog_post = 1 ORDER BY created_at DESC, id`)
}

// GetPage returns one indexed page by id.
func (s *Store) GetPage(ctx context.Context, id string) (IndexedPage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, notion.NormalizeID(id))
	return scanPage(row)
}

// DeletePage removes a page from the index.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, notion.NormalizeID(id))
	return err
}

// DeleteAllPages empties the page index.
func (s *Store) DeleteAllPages(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages`)
	return err
}

// SaveTweet stores a tweet payload.
func (s *Store) SaveTweet(ctx context.Context, id string, payload json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO tweets (id, payload, fetched_at) VALUES (?, ?, ?)`,
		id, string(payload), time.Now().UnixMilli())
	return err
}

// GetTweet returns a stored tweet payload or ErrNotFound.
func (s *Store) GetTweet(ctx context.Context, id string) (json.RawMessage, error) {
	var payload string
	if err := s.db.QueryRowContext(ctx, `SELECT payload FROM tweets WHERE id = ?`, id).Scan(&payload); err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// SavePreviewImage stores the placeholder of an image URL.
func (s *Store) SavePreviewImage(ctx context.Context, url string, img notion.PreviewImage) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO preview_images (url, width, height, data_uri, created_at) VALUES (?, ?, ?, ?, ?)`,
		url, img.OriginalWidth, img.OriginalHeight, img.DataURIBase64, time.Now().UnixMilli())
	return err
}

// GetPreviewImages returns the stored placeholders of the given URLs. URLs
// without a placeholder are absent from the result.
func (s *Store) GetPreviewImages(ctx context.Context, urls []string) (map[string]notion.PreviewImage, error) {
	found := make(map[string]notion.PreviewImage)
	if len(urls) == 0 {
		return found, nil
	}
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT url, width, height, data_uri FROM preview_images WHERE url IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		var img notion.PreviewImage
		if err := rows.Scan(&url, &img.OriginalWidth, &img.OriginalHeight, &img.DataURIBase64); err != nil {
			return nil, err
		}
		found[url] = img
	}
	return found, rows.Err()
}
