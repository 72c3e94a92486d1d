package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
)

func writeBuffered(w io.Writer, fill func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func zoomID(b *notion.Block) string {
	return "notion-zoom-" + notion.NormalizeID(b.ID)
}

func caption(rc *RenderContext, b *notion.Block) string {
	if c := b.Properties["caption"]; len(c) > 0 {
		return `<figcaption class="notion-asset-caption">` + rc.richText(c) + `</figcaption>`
	}
	return ""
}

func widthStyle(b *notion.Block) string {
	if b.Format.BlockWidth > 0 {
		return fmt.Sprintf(` style="width: %.0fpx"`, b.Format.BlockWidth)
	}
	return ""
}

func renderImage(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		src := rc.ImageURL(notion.BlockImageSource(b, rc.RecordMap()), b)
		safe := safeImageSrc(src)
		if safe == "" {
			return nil
		}
		alt := strings.TrimSpace(b.Properties["caption"].PlainText())
		if alt == "" {
			alt = "notion image"
		}

		return writeBuffered(w, func(buf *bytes.Buffer) error {
			buf.WriteString(`<figure class="notion-asset-wrapper notion-asset-wrapper-image ` + blockClass(b) + `"` + widthStyle(b) + `>`)
			modal, zoom := rc.Resolve(CapModal)
			if zoom {
				buf.WriteString(`<button type="button" class="notion-image-zoom" data-zoom-target="` + zoomID(b) + `">`)
			}

			preview, hasPreview := rc.RecordMap().PreviewImages[src]
			if rc.Params.PreviewImages && hasPreview && preview.DataURIBase64 != "" {
				fmt.Fprintf(buf, `<div class="notion-lazy-image"><img class="notion-lazy-image-preview" src="%s" alt="" aria-hidden="true" width="%d" height="%d"/>`,
					safeImageSrc(preview.DataURIBase64), preview.OriginalWidth, preview.OriginalHeight)
				fmt.Fprintf(buf, `<img class="notion-lazy-image-full" src="%s" alt="%s" width="%d" height="%d" loading="lazy" decoding="async"/></div>`,
					safe, html.EscapeString(alt), preview.OriginalWidth, preview.OriginalHeight)
			} else {
				buf.WriteString(`<img src="` + safe + `" alt="` + html.EscapeString(alt) + `" loading="lazy" decoding="async"/>`)
			}

			if zoom {
				buf.WriteString(`</button>`)
				if c := modal(rc, b); c != nil {
					if err := c.Render(ctx, buf); err != nil {
						return err
					}
				}
			}
			buf.WriteString(caption(rc, b))
			buf.WriteString(`</figure>`)
			return nil
		})
	})
}

func renderModal(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		src := safeImageSrc(rc.ImageURL(notion.BlockImageSource(b, rc.RecordMap()), b))
		if src == "" {
			return nil
		}
		alt := html.EscapeString(strings.TrimSpace(b.Properties["caption"].PlainText()))
		_, err := io.WriteString(w, `<dialog class="notion-image-modal" id="`+zoomID(b)+`">`+
			`<form method="dialog"><button class="notion-image-modal-close" aria-label="Close">&times;</button></form>`+
			`<img src="`+src+`" alt="`+alt+`"/></dialog>`)
		return err
	})
}

func renderEquation(_ *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		tex := b.Properties["title"].PlainText()
		_, err := io.WriteString(w, `<div class="notion-equation notion-equation-block `+blockClass(b)+`">\[`+html.EscapeString(tex)+`\]</div>`)
		return err
	})
}

func renderPdf(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		src := SafeURL(notion.BlockImageSource(b, rc.RecordMap()))
		if src == "" {
			return nil
		}
		height := b.Format.BlockHeight
		if height <= 0 {
			height = 600
		}
		return writeBuffered(w, func(buf *bytes.Buffer) error {
			fmt.Fprintf(buf, `<div class="notion-asset-wrapper notion-asset-wrapper-pdf %s"%s>`, blockClass(b), widthStyle(b))
			fmt.Fprintf(buf, `<object data="%s" type="application/pdf" width="100%%" height="%.0f"><a href="%s" target="_blank" rel="noopener noreferrer">Open PDF</a></object>`,
				src, height, src)
			buf.WriteString(caption(rc, b))
			buf.WriteString(`</div>`)
			return nil
		})
	})
}

// tweetAST is the subset of a syndication tweet payload shown inline.
type tweetAST struct {
	IDStr     string `json:"id_str"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

func renderTweet(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ref := strings.TrimSpace(b.Properties["source"].PlainText())
		id := notion.TweetID(ref)
		if id == "" {
			return nil
		}
		href := SafeURL(ref)
		if href == "" {
			href = "https://twitter.com/i/status/" + id
		}

		return writeBuffered(w, func(buf *bytes.Buffer) error {
			fmt.Fprintf(buf, `<div class="notion-tweet %s"><blockquote class="twitter-tweet" data-tweet-id="%s" data-tweet-src="%s">`,
				blockClass(b), id, html.EscapeString(rc.Params.TweetEndpoint+id))

			var tweet tweetAST
			if raw, ok := rc.RecordMap().Tweets[id]; ok && json.Unmarshal(raw, &tweet) == nil && tweet.Text != "" {
				buf.WriteString(`<p>` + strings.ReplaceAll(html.EscapeString(tweet.Text), "\n", "<br/>") + `</p>`)
				if tweet.User.ScreenName != "" {
					fmt.Fprintf(buf, `&mdash; %s (@%s) `, html.EscapeString(tweet.User.Name), html.EscapeString(tweet.User.ScreenName))
				}
				buf.WriteString(`<a href="` + href + `">` + html.EscapeString(tweet.CreatedAt) + `</a>`)
			} else {
				buf.WriteString(`<a href="` + href + `">View post</a>`)
			}
			buf.WriteString(`</blockquote></div>`)
			return nil
		})
	})
}

func renderLink(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if b.Type == "embed" {
			src := SafeURL(notion.BlockImageSource(b, rc.RecordMap()))
			if src == "" {
				return nil
			}
			height := b.Format.BlockHeight
			if height <= 0 {
				height = 400
			}
			_, err := fmt.Fprintf(w, `<div class="notion-asset-wrapper notion-asset-wrapper-embed %s"%s><iframe src="%s" height="%.0f" loading="lazy" sandbox="allow-scripts allow-same-origin allow-popups"></iframe>%s</div>`,
				blockClass(b), widthStyle(b), src, height, caption(rc, b))
			return err
		}

		link := strings.TrimSpace(b.Properties["link"].PlainText())
		href := SafeURL(link)
		if href == "" {
			return nil
		}
		title := strings.TrimSpace(b.Properties["title"].PlainText())
		if title == "" {
			title = link
		}
		return writeBuffered(w, func(buf *bytes.Buffer) error {
			buf.WriteString(`<div class="notion-row"><a class="notion-bookmark ` + blockClass(b) + `" href="` + href + `" target="_blank" rel="noopener noreferrer">`)
			buf.WriteString(`<div class="notion-bookmark-title">` + html.EscapeString(title) + `</div>`)
			if desc := b.Properties["description"]; len(desc) > 0 {
				buf.WriteString(`<div class="notion-bookmark-description">` + html.EscapeString(desc.PlainText()) + `</div>`)
			}
			buf.WriteString(`<div class="notion-bookmark-link">` + html.EscapeString(link) + `</div></a></div>`)
			return nil
		})
	})
}

func renderPageLink(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		targetID := b.ID
		if b.Type == "alias" {
			if b.Format.AliasPointer == nil || b.Format.AliasPointer.ID == "" {
				return nil
			}
			targetID = b.Format.AliasPointer.ID
		}
		target := rc.Block(targetID)
		title := "Untitled"
		if t := notion.BlockTitle(target, rc.RecordMap()); t != "" {
			title = t
		}
		href := SafeURL(rc.PageURL(targetID))
		if href == "" {
			return nil
		}
		return writeBuffered(w, func(buf *bytes.Buffer) error {
			buf.WriteString(`<a class="notion-page-link ` + blockClass(b) + `" href="` + href + `">`)
			if target != nil {
				rc.writeIcon(buf, target, "notion-page-icon-inline")
			}
			buf.WriteString(`<span class="notion-page-title-text">` + html.EscapeString(title) + `</span></a>`)
			return nil
		})
	})
}
