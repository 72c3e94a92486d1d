package renderer

import (
	"encoding/json"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/eringen/notionsite/notion"
)

func (rc *RenderContext) richText(rt notion.RichText) string {
	var b strings.Builder
	for _, span := range rt {
		b.WriteString(rc.span(span))
	}
	return b.String()
}

func (rc *RenderContext) span(s notion.TextSpan) string {
	text := strings.ReplaceAll(html.EscapeString(s.Text), "\n", "<br/>")

	// Mentions and inline equations replace the placeholder text.
	for _, d := range s.Decorations {
		switch d.Type {
		case notion.DecorationPageMention:
			text = rc.pageMention(d.Arg)
		case notion.DecorationEquation:
			text = `<span class="notion-equation notion-equation-inline">` + html.EscapeString(d.Arg) + `</span>`
		case notion.DecorationDate:
			text = html.EscapeString(formatDate(d.Raw))
		case notion.DecorationUserMention:
			if u := rc.RecordMap().UserByID(d.Arg); u != nil && u.Name() != "" {
				text = `<span class="notion-user">@` + html.EscapeString(u.Name()) + `</span>`
			}
		}
	}

	for _, d := range s.Decorations {
		switch d.Type {
		case notion.DecorationBold:
			text = "<b>" + text + "</b>"
		case notion.DecorationItalic:
			text = "<em>" + text + "</em>"
		case notion.DecorationStrikethrough:
			text = "<s>" + text + "</s>"
		case notion.DecorationCode:
			text = `<code class="notion-inline-code">` + text + "</code>"
		case notion.DecorationUnderline:
			text = `<span class="notion-inline-underscore">` + text + "</span>"
		case notion.DecorationColor:
			text = `<span class="notion-` + html.EscapeString(d.Arg) + `">` + text + "</span>"
		case notion.DecorationLink:
			if href := rc.linkHref(d.Arg); href != "" {
				text = `<a class="notion-link" href="` + href + `">` + text + "</a>"
			}
		}
	}
	return text
}

// linkHref maps links to other Notion pages through the page URL mapper and
// sanitizes everything else.
func (rc *RenderContext) linkHref(raw string) string {
	if strings.HasPrefix(raw, "/") {
		path, fragment, _ := strings.Cut(raw, "#")
		if id := notion.ParsePageID(strings.TrimPrefix(path, "/")); id != "" {
			href := rc.PageURL(id)
			if fragment != "" {
				href += "#" + fragment
			}
			return SafeURL(href)
		}
	}
	return SafeURL(raw)
}

func (rc *RenderContext) pageMention(pageID string) string {
	title := "Untitled"
	if b := rc.Block(pageID); b != nil {
		if t := notion.BlockTitle(b, rc.RecordMap()); t != "" {
			title = t
		}
	}
	href := SafeURL(rc.PageURL(pageID))
	return `<a class="notion-link notion-page-mention" href="` + href + `">` + html.EscapeString(title) + `</a>`
}

type dateMention struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func formatDate(raw json.RawMessage) string {
	var d dateMention
	if err := json.Unmarshal(raw, &d); err != nil {
		return ""
	}
	out := formatDay(d.StartDate)
	if end := formatDay(d.EndDate); end != "" {
		out += " → " + end
	}
	return out
}

func formatDay(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

func colorClass(color string) string {
	if color == "" {
		return ""
	}
	return " notion-" + html.EscapeString(color)
}

// SafeURL validates a URL for use in an HTML attribute and returns it
// escaped, or "" when it is not a site-relative, fragment, http(s), mailto or
// tel URL. Protocol-relative URLs such as //host are rejected.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	// Browsers drop tabs and newlines inside URLs, so "/\t/host" is "//host".
	if val == "" || strings.ContainsAny(val, "\t\r\n") {
		return ""
	}
	if strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	if strings.HasPrefix(val, "/") {
		if len(val) > 1 && (val[1] == '/' || val[1] == '\\') {
			return ""
		}
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

// safeImageSrc is SafeURL that also accepts inline image data URIs.
func safeImageSrc(raw string) string {
	val := strings.TrimSpace(raw)
	if strings.HasPrefix(val, "data:image/") {
		return html.EscapeString(val)
	}
	return SafeURL(val)
}
