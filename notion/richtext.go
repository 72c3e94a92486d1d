package notion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decoration types used inside rich text spans.
const (
	DecorationBold          = "b"
	DecorationItalic        = "i"
	DecorationStrikethrough = "s"
	DecorationCode          = "c"
	DecorationUnderline     = "_"
	DecorationLink          = "a"
	DecorationColor         = "h"
	DecorationEquation      = "e"
	DecorationPageMention   = "p"
	DecorationUserMention   = "u"
	DecorationDate          = "d"
)

// RichText is Notion's decorated text: a list of spans, each a text run with
// optional decorations.
type RichText []TextSpan

// TextSpan is one run of text, encoded as ["text", [["b"], ["a", "url"]]].
type TextSpan struct {
	Text        string
	Decorations []Decoration
}

// Decoration is one formatting annotation of a span. Arg holds string
// arguments (link target, color, page id); Raw holds object arguments such
// as dates.
type Decoration struct {
	Type string
	Arg  string
	Raw  json.RawMessage
}

// PlainText concatenates the text of every span.
func (rt RichText) PlainText() string {
	var b strings.Builder
	for _, span := range rt {
		b.WriteString(span.Text)
	}
	return b.String()
}

// FirstLink returns the first link decoration target, if any.
func (rt RichText) FirstLink() string {
	for _, span := range rt {
		if d, ok := span.Decoration(DecorationLink); ok && d.Arg != "" {
			return d.Arg
		}
	}
	return ""
}

// Decoration returns the first decoration of the given type.
func (s TextSpan) Decoration(typ string) (Decoration, bool) {
	for _, d := range s.Decorations {
		if d.Type == typ {
			return d, true
		}
	}
	return Decoration{}, false
}

// UnmarshalJSON decodes a span from its array form.
func (s *TextSpan) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("notion: text span: %w", err)
	}
	*s = TextSpan{}
	if len(parts) == 0 {
		return nil
	}
	if err := json.Unmarshal(parts[0], &s.Text); err != nil {
		return fmt.Errorf("notion: text span text: %w", err)
	}
	if len(parts) < 2 {
		return nil
	}
	var decorations [][]json.RawMessage
	if err := json.Unmarshal(parts[1], &decorations); err != nil {
		return fmt.Errorf("notion: text span decorations: %w", err)
	}
	for _, raw := range decorations {
		if len(raw) == 0 {
			continue
		}
		var d Decoration
		if err := json.Unmarshal(raw[0], &d.Type); err != nil {
			return fmt.Errorf("notion: decoration type: %w", err)
		}
		if len(raw) > 1 {
			if err := json.Unmarshal(raw[1], &d.Arg); err != nil {
				d.Raw = raw[1]
			}
		}
		s.Decorations = append(s.Decorations, d)
	}
	return nil
}

// MarshalJSON encodes a span back to its array form.
func (s TextSpan) MarshalJSON() ([]byte, error) {
	if len(s.Decorations) == 0 {
		return json.Marshal([]any{s.Text})
	}
	decorations := make([][]any, 0, len(s.Decorations))
	for _, d := range s.Decorations {
		switch {
		case d.Raw != nil:
			decorations = append(decorations, []any{d.Type, d.Raw})
		case d.Arg != "":
			decorations = append(decorations, []any{d.Type, d.Arg})
		default:
			decorations = append(decorations, []any{d.Type})
		}
	}
	return json.Marshal([]any{s.Text, decorations})
}

// Plain builds an undecorated rich text value.
func Plain(text string) RichText {
	return RichText{{Text: text}}
}
