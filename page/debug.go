package page

import (
	"context"
	"log/slog"

	"github.com/eringen/notionsite/internal/logfields"
)

// DebugSink receives the derived presentation of every render pass. It is
// called exactly once per ready page and must not retain p.Block.
type DebugSink interface {
	Observe(ctx context.Context, p Presentation)
}

// NopDebugSink discards everything.
type NopDebugSink struct{}

// Observe implements DebugSink.
func (NopDebugSink) Observe(context.Context, Presentation) {}

// SlogDebugSink logs each presentation at debug level.
type SlogDebugSink struct {
	Logger *slog.Logger
}

// Observe implements DebugSink.
func (s SlogDebugSink) Observe(ctx context.Context, p Presentation) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "page derived",
		logfields.PageID(p.PageID),
		logfields.Title(p.Title),
		slog.Bool("root", p.IsRootPage),
		slog.Bool("blog_post", p.IsBlogPost),
		slog.Bool("bio", p.IsBioPage),
		slog.Bool("lite", p.Lite),
		slog.String("aside", p.Aside.Kind.String()),
		slog.String("cover", p.Cover.Kind.String()),
		logfields.URL(p.CanonicalPageURL),
	)
}

// DebugFunc adapts a function to a DebugSink.
type DebugFunc func(ctx context.Context, p Presentation)

// Observe implements DebugSink.
func (f DebugFunc) Observe(ctx context.Context, p Presentation) { f(ctx, p) }
