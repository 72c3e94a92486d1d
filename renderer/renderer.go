// Package renderer turns a Notion record map into HTML as a templ component.
//
// The renderer walks the block tree of a page. Block types with heavy or
// swappable rendering (images, code, collections, equations, pdfs, modals,
// tweets and links) are delegated to sub-renderers looked up in a Components
// registry; everything else is written inline.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
)

// ErrNoRootBlock is returned when the record map has no page to render.
var ErrNoRootBlock = errors.New("renderer: no root block")

// maxBlockDepth bounds how deep nested blocks are rendered.
const maxBlockDepth = 64

// DefaultTweetEndpoint is the path prefix tweet embeds are hydrated from.
const DefaultTweetEndpoint = "/api/get-tweet-ast/"

// Params is everything a page render needs besides the registry.
type Params struct {
	RecordMap *notion.RecordMap
	// PageID is the page to render. Empty means RootPageID.
	PageID      string
	RootPageID  string
	RootSpaceID string

	FullPage bool
	Lite     bool
	DarkMode bool

	ShowTableOfContents     bool
	MinTableOfContentsItems int
	PreviewImages           bool

	MapPageURL  notion.PageURLMapper
	MapImageURL notion.ImageURLMapper

	SearchEndpoint string
	TweetEndpoint  string

	// Chrome around the page. Header, Footer and PageAside are dropped in
	// lite mode.
	Header     templ.Component
	Footer     templ.Component
	PageAside  templ.Component
	PageCover  templ.Component
	PageFooter templ.Component
}

// Options configures a Renderer.
type Options struct {
	// Components is the sub-renderer registry. Nil means DefaultComponents.
	Components *Components
}

// Renderer renders pages. It is safe for concurrent use.
type Renderer struct {
	components *Components
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	c := opts.Components
	if c == nil {
		c = DefaultComponents()
	}
	return &Renderer{components: c}
}

// Components returns the registry the renderer resolves sub-renderers from.
func (r *Renderer) Components() *Components { return r.components }

// Page returns a component rendering the page p.PageID, or the first block
// when that page is not in the map.
func (r *Renderer) Page(p Params) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rc := r.newContext(p)
		pageID := p.PageID
		if pageID == "" {
			pageID = p.RootPageID
		}
		root := rc.Block(pageID)
		if root == nil {
			root = p.RecordMap.FirstBlock()
		}
		if root == nil {
			return ErrNoRootBlock
		}
		var buf bytes.Buffer
		if err := rc.writePage(ctx, &buf, root); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Block returns a component rendering a single block and its children.
func (r *Renderer) Block(p Params, blockID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rc := r.newContext(p)
		b := rc.Block(blockID)
		if b == nil {
			return fmt.Errorf("renderer: block %s: %w", blockID, ErrNoRootBlock)
		}
		rc.visit(b.ID)
		var buf bytes.Buffer
		if err := rc.writeBlock(ctx, &buf, b); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderContext is passed to sub-renderers. It gives access to the record
// map, the URL mappers and recursive rendering of children.
type RenderContext struct {
	Params     Params
	components *Components
	rootID     string

	// rendered holds the blocks already written so that cyclic content
	// ends instead of recursing forever.
	rendered map[string]bool
	depth    int
}

func (r *Renderer) newContext(p Params) *RenderContext {
	if p.MapPageURL == nil {
		p.MapPageURL = func(id string) string { return "/" + notion.NormalizeID(id) }
	}
	if p.MapImageURL == nil {
		p.MapImageURL = notion.MapImageURL
	}
	if p.TweetEndpoint == "" {
		p.TweetEndpoint = DefaultTweetEndpoint
	}
	return &RenderContext{Params: p, components: r.components, rendered: make(map[string]bool)}
}

// visit marks a block rendered and reports whether it was new.
func (rc *RenderContext) visit(id string) bool {
	key := notion.NormalizeID(id)
	if rc.rendered[key] {
		return false
	}
	rc.rendered[key] = true
	return true
}

// RecordMap returns the record map being rendered.
func (rc *RenderContext) RecordMap() *notion.RecordMap { return rc.Params.RecordMap }

// Block looks up a block by id.
func (rc *RenderContext) Block(id string) *notion.Block {
	return rc.Params.RecordMap.BlockByID(id)
}

// PageURL maps a page id to its site URL.
func (rc *RenderContext) PageURL(id string) string { return rc.Params.MapPageURL(id) }

// ImageURL maps an image source of b.
func (rc *RenderContext) ImageURL(src string, b *notion.Block) string {
	return rc.Params.MapImageURL(src, b)
}

// Children returns a component rendering the children of b.
func (rc *RenderContext) Children(b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := rc.writeChildren(ctx, &buf, b.Content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Text returns a component rendering rich text.
func (rc *RenderContext) Text(rt notion.RichText) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rc.richText(rt))
		return err
	})
}

// Resolve returns the sub-renderer of a capability.
func (rc *RenderContext) Resolve(capability Capability) (SubRenderer, bool) {
	return rc.components.Resolve(capability)
}

func (rc *RenderContext) writePage(ctx context.Context, w *bytes.Buffer, root *notion.Block) error {
	p := rc.Params
	rc.rootID = root.ID
	rc.visit(root.ID)

	classes := []string{"notion", "notion-app"}
	if p.Lite {
		classes = append(classes, "notion-lite")
	}
	if p.DarkMode {
		classes = append(classes, "dark-mode")
	}
	if p.RootPageID != "" && notion.NormalizeID(root.ID) == notion.NormalizeID(p.RootPageID) {
		classes = append(classes, "index-page")
	}
	w.WriteString(`<div class="` + strings.Join(classes, " ") + `"`)
	if p.SearchEndpoint != "" {
		w.WriteString(` data-search-endpoint="` + html.EscapeString(p.SearchEndpoint) + `"`)
	}
	if p.RootSpaceID != "" {
		w.WriteString(` data-space-id="` + html.EscapeString(p.RootSpaceID) + `"`)
	}
	w.WriteString(`><div class="notion-frame">`)

	if !p.Lite {
		if err := renderOptional(ctx, w, p.Header); err != nil {
			return err
		}
	}
	w.WriteString(`<div class="notion-page-scroller">`)

	switch {
	case p.PageCover != nil:
		if err := p.PageCover.Render(ctx, w); err != nil {
			return err
		}
	case root.Format.PageCover != "":
		if src := SafeURL(rc.ImageURL(root.Format.PageCover, root)); src != "" {
			position := (1 - root.Format.PageCoverPosition) * 100
			if root.Format.PageCoverPosition == 0 {
				position = 50
			}
			fmt.Fprintf(w, `<div class="notion-page-cover-wrapper"><img class="notion-page-cover" src="%s" alt="%s" style="object-position: center %.0f%%"/></div>`,
				src, html.EscapeString(notion.BlockTitle(root, p.RecordMap)), position)
		}
	}

	pageClasses := []string{"notion-page"}
	if p.FullPage {
		pageClasses = append(pageClasses, "notion-full-page")
	}
	if root.Format.PageFullWidth {
		pageClasses = append(pageClasses, "notion-full-width")
	}
	if root.Format.PageSmallText {
		pageClasses = append(pageClasses, "notion-small-text")
	}
	w.WriteString(`<main class="` + strings.Join(pageClasses, " ") + `">`)

	rc.writeIcon(w, root, "notion-page-icon-hero")
	w.WriteString(`<h1 class="notion-title">`)
	if title := root.Properties["title"]; len(title) > 0 {
		w.WriteString(rc.richText(title))
	} else {
		w.WriteString(html.EscapeString(notion.BlockTitle(root, p.RecordMap)))
	}
	w.WriteString(`</h1>`)

	toc := rc.tableOfContents(root)
	showTOC := p.ShowTableOfContents && len(toc) >= p.MinTableOfContentsItems && len(toc) > 0
	hasAside := !p.Lite && (showTOC || p.PageAside != nil)

	content := "notion-page-content"
	if hasAside {
		content += " notion-page-content-has-aside"
	}
	w.WriteString(`<div class="` + content + `"><article class="notion-page-content-inner">`)
	if root.Type == "collection_view_page" {
		if err := rc.delegate(ctx, w, CapCollection, root); err != nil {
			return err
		}
	}
	if err := rc.writeChildren(ctx, w, root.Content); err != nil {
		return err
	}
	w.WriteString(`</article>`)

	if hasAside {
		w.WriteString(`<aside class="notion-aside">`)
		if showTOC {
			writeTableOfContents(w, toc, "notion-aside-table-of-contents")
		}
		if err := renderOptional(ctx, w, p.PageAside); err != nil {
			return err
		}
		w.WriteString(`</aside>`)
	}
	w.WriteString(`</div>`)

	if err := renderOptional(ctx, w, p.PageFooter); err != nil {
		return err
	}
	w.WriteString(`</main>`)

	if !p.Lite {
		if err := renderOptional(ctx, w, p.Footer); err != nil {
			return err
		}
	}
	w.WriteString(`</div></div></div>`)
	return nil
}

func renderOptional(ctx context.Context, w io.Writer, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, w)
}

func listTag(typ string) string {
	switch typ {
	case "bulleted_list":
		return "ul"
	case "numbered_list":
		return "ol"
	default:
		return ""
	}
}

func (rc *RenderContext) writeChildren(ctx context.Context, w *bytes.Buffer, ids []string) error {
	if rc.depth >= maxBlockDepth {
		return nil
	}
	rc.depth++
	defer func() { rc.depth-- }()

	open := ""
	closeList := func() {
		if open != "" {
			w.WriteString("</" + open + ">")
			open = ""
		}
	}
	for _, id := range ids {
		b := rc.Block(id)
		if b == nil || !rc.visit(b.ID) {
			continue
		}
		if tag := listTag(b.Type); tag != open {
			closeList()
			if tag == "ul" {
				w.WriteString(`<ul class="notion-list notion-list-disc">`)
			} else if tag == "ol" {
				w.WriteString(`<ol class="notion-list notion-list-numbered">`)
			}
			open = tag
		}
		if err := rc.writeBlock(ctx, w, b); err != nil {
			return err
		}
	}
	closeList()
	return nil
}

func blockClass(b *notion.Block) string {
	return "notion-block-" + notion.NormalizeID(b.ID)
}

func headingLevel(typ string) int {
	switch typ {
	case "header":
		return 2
	case "sub_header":
		return 3
	case "sub_sub_header":
		return 4
	default:
		return 0
	}
}

func (rc *RenderContext) writeBlock(ctx context.Context, w *bytes.Buffer, b *notion.Block) error {
	cls := blockClass(b)
	title := b.Properties["title"]

	switch b.Type {
	case "text":
		if len(title) == 0 && len(b.Content) == 0 {
			w.WriteString(`<div class="notion-blank ` + cls + `">&nbsp;</div>`)
			return nil
		}
		w.WriteString(`<div class="notion-text ` + cls + colorClass(b.Format.BlockColor) + `">` + rc.richText(title))
		if len(b.Content) > 0 {
			w.WriteString(`<div class="notion-text-children">`)
			if err := rc.writeChildren(ctx, w, b.Content); err != nil {
				return err
			}
			w.WriteString(`</div>`)
		}
		w.WriteString(`</div>`)

	case "header", "sub_header", "sub_sub_header":
		level := headingLevel(b.Type)
		id := notion.NormalizeID(b.ID)
		fmt.Fprintf(w, `<h%d class="notion-h notion-h%d %s%s" id="%s"><a class="notion-hash-link" href="#%s" aria-hidden="true">#</a><span class="notion-h-title">%s</span></h%d>`,
			level, level-1, cls, colorClass(b.Format.BlockColor), id, id, rc.richText(title), level)

	case "bulleted_list", "numbered_list":
		w.WriteString(`<li class="` + cls + `">` + rc.richText(title))
		if len(b.Content) > 0 {
			if err := rc.writeChildren(ctx, w, b.Content); err != nil {
				return err
			}
		}
		w.WriteString(`</li>`)

	case "to_do":
		checked := strings.EqualFold(b.Properties["checked"].PlainText(), "yes")
		body := "notion-to-do-body"
		attr := ""
		if checked {
			body += " notion-to-do-checked"
			attr = " checked"
		}
		w.WriteString(`<div class="notion-to-do ` + cls + `"><div class="notion-to-do-item"><input type="checkbox" disabled` + attr + `/><div class="` + body + `">` + rc.richText(title) + `</div></div>`)
		if len(b.Content) > 0 {
			w.WriteString(`<div class="notion-to-do-children">`)
			if err := rc.writeChildren(ctx, w, b.Content); err != nil {
				return err
			}
			w.WriteString(`</div>`)
		}
		w.WriteString(`</div>`)

	case "quote":
		w.WriteString(`<blockquote class="notion-quote ` + cls + colorClass(b.Format.BlockColor) + `">` + rc.richText(title))
		if err := rc.writeChildren(ctx, w, b.Content); err != nil {
			return err
		}
		w.WriteString(`</blockquote>`)

	case "callout":
		w.WriteString(`<div class="notion-callout ` + cls + colorClass(b.Format.BlockColor) + `">`)
		rc.writeIcon(w, b, "notion-callout-icon")
		w.WriteString(`<div class="notion-callout-text">` + rc.richText(title))
		if err := rc.writeChildren(ctx, w, b.Content); err != nil {
			return err
		}
		w.WriteString(`</div></div>`)

	case "divider":
		w.WriteString(`<hr class="notion-hr ` + cls + `"/>`)

	case "toggle":
		w.WriteString(`<details class="notion-toggle ` + cls + `"><summary>` + rc.richText(title) + `</summary><div>`)
		if err := rc.writeChildren(ctx, w, b.Content); err != nil {
			return err
		}
		w.WriteString(`</div></details>`)

	case "column_list":
		w.WriteString(`<div class="notion-row ` + cls + `">`)
		if err := rc.writeChildren(ctx, w, b.Content); err != nil {
			return err
		}
		w.WriteString(`</div>`)

	case "column":
		ratio := b.Format.ColumnRatio
		if ratio <= 0 {
			ratio = 1 / float64(max(1, rc.siblingCount(b)))
		}
		fmt.Fprintf(w, `<div class="notion-column %s" style="width: %.4g%%">`, cls, ratio*100)
		if err := rc.writeChildren(ctx, w, b.Content); err != nil {
			return err
		}
		w.WriteString(`</div>`)

	case "table":
		rc.writeTable(w, b)

	case "table_of_contents":
		page := rc.Block(rc.rootID)
		if page == nil {
			page = b
		}
		writeTableOfContents(w, rc.tableOfContents(page), "notion-table-of-contents "+cls)

	case "page", "alias":
		return rc.delegate(ctx, w, CapPageLink, b)

	case "image":
		return rc.delegate(ctx, w, CapImage, b)
	case "code":
		return rc.delegate(ctx, w, CapCode, b)
	case "equation":
		return rc.delegate(ctx, w, CapEquation, b)
	case "pdf":
		return rc.delegate(ctx, w, CapPdf, b)
	case "tweet":
		return rc.delegate(ctx, w, CapTweet, b)
	case "bookmark", "embed":
		return rc.delegate(ctx, w, CapLink, b)
	case "collection_view", "collection_view_page":
		return rc.delegate(ctx, w, CapCollection, b)

	default:
		return rc.writeChildren(ctx, w, b.Content)
	}
	return nil
}

// delegate renders b through the sub-renderer of a capability. Blocks whose
// capability has no registered renderer are skipped.
func (rc *RenderContext) delegate(ctx context.Context, w io.Writer, capability Capability, b *notion.Block) error {
	sr, ok := rc.components.Resolve(capability)
	if !ok {
		return nil
	}
	c := sr(rc, b)
	if c == nil {
		return nil
	}
	if err := c.Render(ctx, w); err != nil {
		return fmt.Errorf("renderer: %s block %s: %w", capability, b.ID, err)
	}
	return nil
}

func (rc *RenderContext) siblingCount(b *notion.Block) int {
	parent := rc.Block(b.ParentID)
	if parent == nil {
		return 1
	}
	return len(parent.Content)
}

func (rc *RenderContext) writeIcon(w *bytes.Buffer, b *notion.Block, class string) {
	icon := strings.TrimSpace(b.Format.PageIcon)
	if icon == "" {
		return
	}
	if strings.HasPrefix(icon, "http") || strings.HasPrefix(icon, "/") {
		if src := SafeURL(rc.ImageURL(icon, b)); src != "" {
			w.WriteString(`<img class="notion-page-icon ` + class + `" src="` + src + `" alt=""/>`)
		}
		return
	}
	w.WriteString(`<span class="notion-page-icon ` + class + `" role="img">` + html.EscapeString(icon) + `</span>`)
}

func (rc *RenderContext) writeTable(w *bytes.Buffer, b *notion.Block) {
	columns := b.Format.TableBlockColumnOrder
	w.WriteString(`<table class="notion-simple-table ` + blockClass(b) + `"><tbody>`)
	for i, rowID := range b.Content {
		row := rc.Block(rowID)
		if row == nil {
			continue
		}
		cell := "td"
		if i == 0 && b.Format.TableBlockColumnHeader {
			cell = "th"
		}
		w.WriteString(`<tr class="notion-simple-table-row">`)
		for _, col := range columns {
			w.WriteString("<" + cell + ">" + rc.richText(row.Properties[col]) + "</" + cell + ">")
		}
		w.WriteString(`</tr>`)
	}
	w.WriteString(`</tbody></table>`)
}

type tocEntry struct {
	ID    string
	Text  string
	Level int
}

// tableOfContents lists the headings of a page in document order.
func (rc *RenderContext) tableOfContents(page *notion.Block) []tocEntry {
	var entries []tocEntry
	seen := map[string]bool{notion.NormalizeID(page.ID): true}
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			b := rc.Block(id)
			if b == nil || seen[notion.NormalizeID(b.ID)] {
				continue
			}
			seen[notion.NormalizeID(b.ID)] = true
			if level := headingLevel(b.Type); level > 0 {
				text := strings.TrimSpace(b.Properties["title"].PlainText())
				if text != "" {
					entries = append(entries, tocEntry{ID: notion.NormalizeID(b.ID), Text: text, Level: level})
				}
				continue
			}
			if b.Type == "page" || b.Type == "collection_view_page" {
				continue
			}
			walk(b.Content)
		}
	}
	walk(page.Content)
	return entries
}

func writeTableOfContents(w *bytes.Buffer, entries []tocEntry, class string) {
	w.WriteString(`<nav class="` + class + `">`)
	for _, e := range entries {
		fmt.Fprintf(w, `<a class="notion-table-of-contents-item notion-table-of-contents-item-indent-level-%d" href="#%s">%s</a>`,
			e.Level-2, e.ID, html.EscapeString(e.Text))
	}
	w.WriteString(`</nav>`)
}
