// Package logfields holds the canonical slog attribute names used across the
// server so log queries do not drift between packages.
package logfields

import "log/slog"

const (
	KeyPageID     = "page_id"
	KeyTitle      = "title"
	KeyState      = "state"
	KeyReason     = "reason"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyCache      = "cache"
	KeyTweetID    = "tweet_id"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyAddr       = "addr"
	KeyError      = "error"
)

func PageID(id string) slog.Attr      { return slog.String(KeyPageID, id) }
func Title(t string) slog.Attr        { return slog.String(KeyTitle, t) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Cache(result string) slog.Attr   { return slog.String(KeyCache, result) }
func TweetID(id string) slog.Attr     { return slog.String(KeyTweetID, id) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
