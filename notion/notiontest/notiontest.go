// Package notiontest builds record maps for tests.
package notiontest

import (
	"github.com/eringen/notionsite/notion"
)

// Fixed ids used across tests.
const (
	RootPageID     = "067dd719-a912-471e-a9a3-ac10710e86bf"
	SpaceID        = "fde5ac74-eea3-4527-8f00-4482710e1af3"
	BlogCollection = "a1b2c3d4-0000-4000-8000-000000000001"
	PostPageID     = "3f2a9c1e-5b7d-4e8f-9a0b-1c2d3e4f5a6b"
)

// Option mutates a block under construction.
type Option func(*notion.Block)

// Block creates a block of the given type.
func Block(id, typ string, opts ...Option) *notion.Block {
	b := &notion.Block{
		ID:          id,
		Type:        typ,
		Alive:       true,
		SpaceID:     SpaceID,
		ParentTable: "block",
		Properties:  map[string]notion.RichText{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Page creates a page block with a title.
func Page(id, title string, opts ...Option) *notion.Block {
	return Block(id, "page", append([]Option{Title(title)}, opts...)...)
}

// Title sets the title property.
func Title(title string) Option {
	return func(b *notion.Block) {
		if title == "" {
			delete(b.Properties, "title")
			return
		}
		b.Properties["title"] = notion.Plain(title)
	}
}

// Prop sets an arbitrary property.
func Prop(id string, value notion.RichText) Option {
	return func(b *notion.Block) {
		b.Properties[id] = value
	}
}

// Parent sets the parent relation.
func Parent(id, table string) Option {
	return func(b *notion.Block) {
		b.ParentID = id
		b.ParentTable = table
	}
}

// Space sets the workspace id.
func Space(id string) Option {
	return func(b *notion.Block) {
		b.SpaceID = id
	}
}

// Cover sets the page cover.
func Cover(src string) Option {
	return func(b *notion.Block) {
		b.Format.PageCover = src
	}
}

// Children sets the content ids.
func Children(ids ...string) Option {
	return func(b *notion.Block) {
		b.Content = ids
	}
}

// RecordMap builds a record map whose block order follows the arguments.
func RecordMap(blocks ...*notion.Block) *notion.RecordMap {
	rm := &notion.RecordMap{Block: make(map[string]*notion.Record[notion.Block])}
	for _, b := range blocks {
		rm.Block[b.ID] = &notion.Record[notion.Block]{Role: "reader", Value: b}
		rm.BlockOrder = append(rm.BlockOrder, b.ID)
	}
	return rm
}

// WithCollection adds a collection with the given property names keyed by
// property id.
func WithCollection(rm *notion.RecordMap, id, name string, schema map[string]string) *notion.RecordMap {
	if rm.Collection == nil {
		rm.Collection = make(map[string]*notion.Record[notion.Collection])
	}
	coll := &notion.Collection{
		ID:     id,
		Name:   notion.Plain(name),
		Schema: map[string]notion.PropertySchema{"title": {Name: "Name", Type: "title"}},
	}
	for propID, propName := range schema {
		coll.Schema[propID] = notion.PropertySchema{Name: propName, Type: "text"}
	}
	rm.Collection[id] = &notion.Record[notion.Collection]{Role: "reader", Value: coll}
	return rm
}

// BlogPost builds a record map holding one collection item page with a
// Description and a Tweet property.
func BlogPost(title, description, tweet string, opts ...Option) *notion.RecordMap {
	opts = append([]Option{Parent(BlogCollection, "collection")}, opts...)
	if description != "" {
		opts = append(opts, Prop("desc", notion.Plain(description)))
	}
	if tweet != "" {
		opts = append(opts, Prop("twt", notion.Plain(tweet)))
	}
	post := Page(PostPageID, title, opts...)
	rm := RecordMap(post)
	return WithCollection(rm, BlogCollection, "Posts", map[string]string{
		"desc": "Description",
		"twt":  "Tweet",
	})
}

// Site returns a site config rooted at RootPageID.
func Site() *notion.Site {
	return &notion.Site{
		Name:              "Example Site",
		Domain:            "example.com",
		RootNotionPageID:  "067dd719a912471ea9a3ac10710e86bf",
		RootNotionSpaceID: SpaceID,
		Description:       "Notes and essays",
		Author:            "Example Author",
	}
}
