// Package views holds the templ components that frame rendered Notion pages:
// the document layout and head, the loading, not-found and error pages, the
// page chrome and the admin screens.
package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/page"
)

// Asset paths served by the application.
const (
	StylesheetPath = "/public/notion.css"
	CodeCSSPath    = "/public/code.css"
	ScriptPath     = "/public/notion.js"
)

// Layout writes a complete HTML document.
func Layout(doc Document) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		lang := "en"
		if doc.Site != nil && doc.Site.Language != "" {
			lang = doc.Site.Language
		}
		buf.WriteString(`<!DOCTYPE html><html lang="` + esc(lang) + `"><head>`)
		buf.WriteString(`<meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		if err := Head(doc.Meta).Render(ctx, buf); err != nil {
			return err
		}
		if _, ok := page.Lookup(doc.Meta, page.MetaTitle, "title"); !ok {
			buf.WriteString(`<title>` + esc(siteName(doc.Site)) + `</title>`)
		}
		buf.WriteString(`<link rel="icon" href="/favicon.ico"/>`)
		buf.WriteString(`<link rel="stylesheet" href="` + StylesheetPath + `"/>`)
		buf.WriteString(`<link rel="stylesheet" href="` + CodeCSSPath + `"/>`)
		for _, ld := range doc.JSONLD {
			buf.WriteString(`<script type="application/ld+json">` + ld + `</script>`)
		}
		if doc.Head != nil {
			if err := doc.Head.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</head>`)

		class := "notion-site"
		if doc.Lite {
			class += " notion-lite"
		}
		buf.WriteString(`<body class="` + class + `">`)
		if doc.Body != nil {
			if err := doc.Body.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`<script src="` + ScriptPath + `" defer></script></body></html>`)
		return nil
	})
}

// Head writes the given tags in order.
func Head(tags []page.MetaTag) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		for _, t := range tags {
			key, value := esc(t.Key), esc(t.Value)
			switch t.Kind {
			case page.MetaTitle:
				buf.WriteString(`<title>` + value + `</title>`)
			case page.MetaName:
				buf.WriteString(`<meta name="` + key + `" content="` + value + `"/>`)
			case page.MetaProperty:
				buf.WriteString(`<meta property="` + key + `" content="` + value + `"/>`)
			case page.MetaLink:
				buf.WriteString(`<link rel="` + key + `" href="` + value + `"/>`)
			}
		}
		return nil
	})
}
