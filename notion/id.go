package notion

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var rePageID = regexp.MustCompile(`([a-f0-9]{32}|[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})$`)

// NormalizeID returns the compact lowercase form of a Notion id so dashed and
// undashed ids compare equal. Values that are not ids are only trimmed and
// lowercased.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if u, err := uuid.Parse(id); err == nil {
		return strings.ReplaceAll(u.String(), "-", "")
	}
	return strings.ReplaceAll(id, "-", "")
}

// FormatID returns the dashed form of a Notion id, or "" when id is not one.
func FormatID(id string) string {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ""
	}
	return u.String()
}

// ParsePageID extracts the page id from a path segment such as
// "my-post-0123456789abcdef0123456789abcdef". It returns the dashed id or "".
func ParsePageID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")
	m := rePageID.FindString(s)
	if m == "" {
		return ""
	}
	return FormatID(m)
}

// Slugify converts a page title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
