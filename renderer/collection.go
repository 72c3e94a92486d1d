package renderer

import (
	"bytes"
	"context"
	"html"
	"io"
	"sort"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
)

// renderCollection renders a collection view as a table of its items. The
// title column links to each item page; other columns are listed by name.
func renderCollection(rc *RenderContext, b *notion.Block) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		rm := rc.RecordMap()
		coll := rm.CollectionByID(b.CollectionID)
		if coll == nil {
			return nil
		}

		type column struct {
			id   string
			name string
		}
		var columns []column
		for id, schema := range coll.Schema {
			if id == "title" {
				continue
			}
			columns = append(columns, column{id: id, name: schema.Name})
		}
		sort.Slice(columns, func(i, j int) bool { return columns[i].name < columns[j].name })
		titleName := "Name"
		if s, ok := coll.Schema["title"]; ok && s.Name != "" {
			titleName = s.Name
		}

		return writeBuffered(w, func(buf *bytes.Buffer) error {
			buf.WriteString(`<div class="notion-collection ` + blockClass(b) + `">`)
			if b.ID != rc.rootID {
				if name := coll.Name.PlainText(); name != "" {
					buf.WriteString(`<div class="notion-collection-header"><h3 class="notion-collection-header-title">` + html.EscapeString(name) + `</h3></div>`)
				}
			}
			buf.WriteString(`<table class="notion-table"><thead><tr><th>` + html.EscapeString(titleName) + `</th>`)
			for _, col := range columns {
				buf.WriteString(`<th>` + html.EscapeString(col.name) + `</th>`)
			}
			buf.WriteString(`</tr></thead><tbody>`)

			for _, id := range collectionItems(rm, b) {
				item := rm.BlockByID(id)
				if item == nil {
					continue
				}
				title := notion.BlockTitle(item, rm)
				if title == "" {
					title = "Untitled"
				}
				buf.WriteString(`<tr class="notion-table-row"><td><a class="notion-page-link" href="` + SafeURL(rc.PageURL(item.ID)) + `">` + html.EscapeString(title) + `</a></td>`)
				for _, col := range columns {
					buf.WriteString(`<td>` + rc.richText(item.Properties[col.id]) + `</td>`)
				}
				buf.WriteString(`</tr>`)
			}
			buf.WriteString(`</tbody></table></div>`)
			return nil
		})
	})
}

// collectionItems returns the item ids of the first view of a collection
// block, or every loaded item of the collection when no query result exists.
func collectionItems(rm *notion.RecordMap, b *notion.Block) []string {
	if views, ok := rm.CollectionQuery[b.CollectionID]; ok {
		for _, viewID := range b.ViewIDs {
			if items := views[viewID].Items(); len(items) > 0 {
				return items
			}
		}
	}
	collID := notion.NormalizeID(b.CollectionID)
	var items []string
	for _, id := range rm.BlockIDs() {
		rec := rm.Block[id]
		if rec == nil || rec.Value == nil {
			continue
		}
		if rec.Value.ParentTable == "collection" && notion.NormalizeID(rec.Value.ParentID) == collID {
			items = append(items, id)
		}
	}
	return items
}
