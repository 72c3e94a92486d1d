package page

import (
	"context"
	"net/url"
	"strings"

	"github.com/eringen/notionsite/notion"
)

// BioPageID is the page that gets the hero header in addition to the root.
const BioPageID = "b1e5a7c2-4d3f-4a8e-9c6b-2f1d0e3a5b7c"

// MinTableOfContentsItems is the number of headings below which the table of
// contents of a blog post is not rendered.
const MinTableOfContentsItems = 3

// LiteParam is the query parameter that switches a page to lite mode.
const LiteParam = "lite"

// Helpers are the collaborators used to map URLs and read page properties.
// Nil fields fall back to the notion package implementations.
type Helpers struct {
	MapPageURL       func(site *notion.Site, rm *notion.RecordMap, searchParams url.Values) notion.PageURLMapper
	CanonicalPageURL func(site *notion.Site, rm *notion.RecordMap) notion.PageURLMapper
	MapImageURL      notion.ImageURLMapper
	PageDescription  func(b *notion.Block, rm *notion.RecordMap) string
	PageTweet        func(b *notion.Block, rm *notion.RecordMap) string
}

func (h Helpers) withDefaults(site *notion.Site) Helpers {
	if h.MapPageURL == nil {
		h.MapPageURL = notion.MapPageURL
	}
	if h.CanonicalPageURL == nil {
		h.CanonicalPageURL = notion.CanonicalPageURL
	}
	if h.MapImageURL == nil {
		h.MapImageURL = notion.SiteImageURLMapper(site)
	}
	if h.PageDescription == nil {
		h.PageDescription = notion.PageDescription
	}
	if h.PageTweet == nil {
		h.PageTweet = notion.PageTweet
	}
	return h
}

// Env describes the request environment of a render pass.
type Env struct {
	// Dev suppresses the canonical URL.
	Dev bool
	// Query is the request query string.
	Query url.Values
}

// Presentation is everything derived from the root block of a page.
type Presentation struct {
	PageID string
	Block  *notion.Block

	IsRootPage bool
	IsBlogPost bool
	IsBioPage  bool

	ShowTableOfContents     bool
	MinTableOfContentsItems int

	Title             string
	SocialImage       string
	SocialDescription string
	CanonicalPageURL  string
	OGType            string

	Aside Slot
	Cover Slot

	// Lite drops the header, footer and aside for embedded contexts.
	Lite bool
	// SearchParams are carried on every internal link.
	SearchParams url.Values

	PageURL  notion.PageURLMapper
	ImageURL notion.ImageURLMapper
}

// DeriveInput is the input of Derive.
type DeriveInput struct {
	Site      *notion.Site
	RecordMap *notion.RecordMap
	Block     *notion.Block
	PageID    string
	Env       Env
	Helpers   Helpers
	Debug     DebugSink
}

// Derive computes the presentation of a resolved page. It has no side effects
// except one call to the debug sink.
func Derive(ctx context.Context, in DeriveInput) Presentation {
	site, rm, block := in.Site, in.RecordMap, in.Block
	h := in.Helpers.withDefaults(site)

	pageID := in.PageID
	if pageID == "" {
		pageID = block.ID
	}
	blockID := notion.NormalizeID(block.ID)

	p := Presentation{
		PageID:                  pageID,
		Block:                   block,
		IsRootPage:              blockID == notion.NormalizeID(site.RootNotionPageID),
		IsBlogPost:              block.Type == "page" && block.ParentTable == "collection",
		IsBioPage:               blockID == notion.NormalizeID(BioPageID),
		MinTableOfContentsItems: MinTableOfContentsItems,
		ImageURL:                h.MapImageURL,
	}
	p.ShowTableOfContents = p.IsBlogPost

	p.Title = notion.BlockTitle(block, rm)
	if p.Title == "" {
		p.Title = site.Name
	}

	cover := notion.PagePropertyURL("Social Image", block, rm)
	if cover == "" {
		cover = block.Format.PageCover
	}
	if cover == "" {
		cover = site.DefaultPageCover
	}
	p.SocialImage = h.MapImageURL(cover, block)

	p.SocialDescription = h.PageDescription(block, rm)
	if p.SocialDescription == "" {
		p.SocialDescription = site.Description
	}

	if !in.Env.Dev {
		p.CanonicalPageURL = h.CanonicalPageURL(site, rm)(pageID)
	}

	p.OGType = "website"
	if p.IsBlogPost {
		p.OGType = "article"
	}

	switch {
	case !p.IsBlogPost:
		p.Aside = SocialShare()
	default:
		// Refs that name no tweet leave the aside empty.
		if tweet := strings.TrimSpace(h.PageTweet(block, rm)); notion.TweetID(tweet) != "" {
			p.Aside = EngagementActions(tweet)
		}
	}
	if p.IsRootPage || p.IsBioPage {
		p.Cover = HeroCover()
	}

	p.SearchParams = url.Values{}
	if lite := in.Env.Query.Get(LiteParam); lite != "" {
		p.SearchParams.Set(LiteParam, lite)
		p.Lite = lite == "true"
	}
	p.PageURL = h.MapPageURL(site, rm, p.SearchParams)

	if in.Debug != nil {
		in.Debug.Observe(ctx, p)
	}
	return p
}
