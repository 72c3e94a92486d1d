package renderer

import (
	"bytes"
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/eringen/notionsite/notion"
)

// CodeStyle is the chroma style code blocks are highlighted with.
const CodeStyle = "github"

func codeStyle() *chroma.Style {
	if s := styles.Get(CodeStyle); s != nil {
		return s
	}
	return styles.Fallback
}

func newCodeRenderer() SubRenderer {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	style := codeStyle()

	return func(rc *RenderContext, b *notion.Block) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			code := b.Properties["title"].PlainText()
			lang := strings.ToLower(strings.TrimSpace(b.Properties["language"].PlainText()))

			var buf bytes.Buffer
			buf.WriteString(`<div class="notion-code ` + blockClass(b) + `">`)
			if lang != "" {
				escaped := html.EscapeString(lang)
				buf.WriteString(`<span class="notion-code-lang notion-code-lang-` + strings.ReplaceAll(escaped, " ", "-") + `">` + escaped + `</span>`)
			}

			var highlighted bytes.Buffer
			if err := highlight(&highlighted, formatter, style, lang, code); err != nil {
				buf.WriteString(`<pre class="notion-code-plain"><code>` + html.EscapeString(code) + `</code></pre>`)
			} else {
				buf.Write(highlighted.Bytes())
			}

			if caption := b.Properties["caption"]; len(caption) > 0 {
				buf.WriteString(`<figcaption class="notion-asset-caption">` + rc.richText(caption) + `</figcaption>`)
			}
			buf.WriteString(`</div>`)
			_, err := w.Write(buf.Bytes())
			return err
		})
	}
}

func highlight(w io.Writer, f *chromahtml.Formatter, style *chroma.Style, lang, code string) error {
	if lang == "plain text" {
		lang = "plaintext"
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return err
	}
	return f.Format(w, style, it)
}

// CodeCSS writes the stylesheet for the classes emitted by highlighted code
// blocks.
func CodeCSS(w io.Writer) error {
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, codeStyle())
}
