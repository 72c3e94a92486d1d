// Package notion models the record maps served by Notion's content API and
// provides the page helpers the site needs to map ids, URLs and properties.
package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Site describes a deployed content site.
type Site struct {
	Name              string `yaml:"name"`
	Domain            string `yaml:"domain"`
	RootNotionPageID  string `yaml:"root_notion_page_id"`
	RootNotionSpaceID string `yaml:"root_notion_space_id"`
	Description       string `yaml:"description"`
	Author            string `yaml:"author"`
	Language          string `yaml:"language"`
	TwitterHandle     string `yaml:"twitter"`
	DefaultPageCover  string `yaml:"default_page_cover"`
	DefaultPageIcon   string `yaml:"default_page_icon"`
}

// Record is the role/value envelope Notion wraps around every record.
type Record[T any] struct {
	Role  string `json:"role,omitempty"`
	Value *T     `json:"value"`
}

// RecordMap is a fetched subtree of content blocks keyed by block id.
// BlockOrder keeps the order in which blocks appeared in the source JSON so
// the first block of a page chunk is well defined.
type RecordMap struct {
	Block           map[string]*Record[Block]                    `json:"block,omitempty"`
	Collection      map[string]*Record[Collection]               `json:"collection,omitempty"`
	CollectionView  map[string]*Record[CollectionView]           `json:"collection_view,omitempty"`
	CollectionQuery map[string]map[string]*CollectionQueryResult `json:"collection_query,omitempty"`
	NotionUser      map[string]*Record[User]                     `json:"notion_user,omitempty"`
	SignedURLs      map[string]string                            `json:"signed_urls,omitempty"`
	PreviewImages   map[string]PreviewImage                      `json:"preview_images,omitempty"`
	Tweets          map[string]json.RawMessage                   `json:"tweets,omitempty"`

	BlockOrder []string `json:"-"`
}

// Block is one node of the content tree.
type Block struct {
	ID             string              `json:"id"`
	Version        int                 `json:"version,omitempty"`
	Type           string              `json:"type"`
	Properties     map[string]RichText `json:"properties,omitempty"`
	Format         BlockFormat         `json:"format"`
	Content        []string            `json:"content,omitempty"`
	ParentID       string              `json:"parent_id"`
	ParentTable    string              `json:"parent_table"`
	Alive          bool                `json:"alive"`
	SpaceID        string              `json:"space_id,omitempty"`
	CollectionID   string              `json:"collection_id,omitempty"`
	ViewIDs        []string            `json:"view_ids,omitempty"`
	CreatedTime    int64               `json:"created_time,omitempty"`
	LastEditedTime int64               `json:"last_edited_time,omitempty"`
}

// BlockFormat holds the display attributes of a block.
type BlockFormat struct {
	PageCover              string        `json:"page_cover,omitempty"`
	PageCoverPosition      float64       `json:"page_cover_position,omitempty"`
	PageIcon               string        `json:"page_icon,omitempty"`
	PageFullWidth          bool          `json:"page_full_width,omitempty"`
	PageSmallText          bool          `json:"page_small_text,omitempty"`
	BlockWidth             float64       `json:"block_width,omitempty"`
	BlockHeight            float64       `json:"block_height,omitempty"`
	BlockAspectRatio       float64       `json:"block_aspect_ratio,omitempty"`
	BlockColor             string        `json:"block_color,omitempty"`
	DisplaySource          string        `json:"display_source,omitempty"`
	ColumnRatio            float64       `json:"column_ratio,omitempty"`
	TableBlockColumnOrder  []string      `json:"table_block_column_order,omitempty"`
	TableBlockColumnHeader bool          `json:"table_block_column_header,omitempty"`
	AliasPointer           *AliasPointer `json:"alias_pointer,omitempty"`
}

// AliasPointer references the target of an alias (link-to-page) block.
type AliasPointer struct {
	ID    string `json:"id"`
	Table string `json:"table"`
}

// Collection is a database-like grouping of blocks.
type Collection struct {
	ID       string                    `json:"id"`
	Name     RichText                  `json:"name,omitempty"`
	Schema   map[string]PropertySchema `json:"schema,omitempty"`
	ParentID string                    `json:"parent_id,omitempty"`
	Icon     string                    `json:"icon,omitempty"`
}

// PropertySchema describes one column of a collection.
type PropertySchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CollectionView is a saved view over a collection.
type CollectionView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// CollectionQueryResult lists the items a collection view resolved to.
type CollectionQueryResult struct {
	Type                   string        `json:"type,omitempty"`
	BlockIDs               []string      `json:"blockIds,omitempty"`
	CollectionGroupResults *GroupResults `json:"collection_group_results,omitempty"`
}

// GroupResults is the reducer output of a collection query.
type GroupResults struct {
	Type     string   `json:"type,omitempty"`
	BlockIDs []string `json:"blockIds"`
}

// Items returns the block ids of a query result regardless of its shape.
func (q *CollectionQueryResult) Items() []string {
	if q == nil {
		return nil
	}
	if q.CollectionGroupResults != nil && len(q.CollectionGroupResults.BlockIDs) > 0 {
		return q.CollectionGroupResults.BlockIDs
	}
	return q.BlockIDs
}

// User is a Notion workspace member.
type User struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name,omitempty"`
	FamilyName   string `json:"family_name,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
}

// Name returns the display name of the user.
func (u *User) Name() string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

// PreviewImage is a low quality placeholder for an image URL.
type PreviewImage struct {
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
	DataURIBase64  string `json:"dataURIBase64"`
}

// UnmarshalJSON decodes a record map and records the order of its blocks.
func (rm *RecordMap) UnmarshalJSON(data []byte) error {
	type alias RecordMap
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*rm = RecordMap(a)

	var raw struct {
		Block json.RawMessage `json:"block"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	order, err := objectKeys(raw.Block)
	if err != nil {
		return fmt.Errorf("notion: block order: %w", err)
	}
	rm.BlockOrder = order
	return nil
}

// MarshalJSON encodes the record map keeping blocks in BlockOrder.
func (rm RecordMap) MarshalJSON() ([]byte, error) {
	type alias RecordMap
	a := alias(rm)
	a.Block = nil
	rest, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"block":{`)
	for i, id := range rm.BlockIDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(id)
		val, err := json.Marshal(rm.Block[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	if len(rest) > 2 {
		buf.WriteByte(',')
		buf.Write(rest[1 : len(rest)-1])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func objectKeys(data json.RawMessage) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// BlockIDs returns every block id, in source order first and then any
// remaining ids sorted.
func (rm *RecordMap) BlockIDs() []string {
	if rm == nil || len(rm.Block) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rm.Block))
	seen := make(map[string]struct{}, len(rm.Block))
	for _, id := range rm.BlockOrder {
		if _, ok := rm.Block[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	var rest []string
	for id := range rm.Block {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// FirstBlock returns the value of the first block entry, or nil.
func (rm *RecordMap) FirstBlock() *Block {
	ids := rm.BlockIDs()
	if len(ids) == 0 {
		return nil
	}
	rec := rm.Block[ids[0]]
	if rec == nil {
		return nil
	}
	return rec.Value
}

// BlockByID looks a block up by dashed or compact id.
func (rm *RecordMap) BlockByID(id string) *Block {
	if rm == nil || id == "" {
		return nil
	}
	if rec, ok := rm.Block[id]; ok && rec != nil {
		return rec.Value
	}
	if dashed := FormatID(id); dashed != "" {
		if rec, ok := rm.Block[dashed]; ok && rec != nil {
			return rec.Value
		}
	}
	return nil
}

// CollectionByID looks a collection up by dashed or compact id.
func (rm *RecordMap) CollectionByID(id string) *Collection {
	if rm == nil || id == "" {
		return nil
	}
	if rec, ok := rm.Collection[id]; ok && rec != nil {
		return rec.Value
	}
	if dashed := FormatID(id); dashed != "" {
		if rec, ok := rm.Collection[dashed]; ok && rec != nil {
			return rec.Value
		}
	}
	return nil
}

// UserByID returns the workspace member with the given id, or nil.
func (rm *RecordMap) UserByID(id string) *User {
	if rm == nil {
		return nil
	}
	if rec, ok := rm.NotionUser[id]; ok && rec != nil {
		return rec.Value
	}
	return nil
}

// Merge copies every record of src into rm, appending new blocks to the
// block order. Existing records are overwritten.
func (rm *RecordMap) Merge(src *RecordMap) {
	if src == nil {
		return
	}
	if rm.Block == nil {
		rm.Block = make(map[string]*Record[Block])
	}
	for _, id := range src.BlockIDs() {
		if _, exists := rm.Block[id]; !exists {
			rm.BlockOrder = append(rm.BlockOrder, id)
		}
		rm.Block[id] = src.Block[id]
	}
	rm.Collection = mergeMap(rm.Collection, src.Collection)
	rm.CollectionView = mergeMap(rm.CollectionView, src.CollectionView)
	rm.NotionUser = mergeMap(rm.NotionUser, src.NotionUser)
	rm.SignedURLs = mergeMap(rm.SignedURLs, src.SignedURLs)
	rm.PreviewImages = mergeMap(rm.PreviewImages, src.PreviewImages)
	rm.Tweets = mergeMap(rm.Tweets, src.Tweets)
	for collID, views := range src.CollectionQuery {
		if rm.CollectionQuery == nil {
			rm.CollectionQuery = make(map[string]map[string]*CollectionQueryResult)
		}
		rm.CollectionQuery[collID] = mergeMap(rm.CollectionQuery[collID], views)
	}
}

func mergeMap[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
