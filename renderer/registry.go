package renderer

import (
	"sync"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
)

// Capability names a swappable part of the block renderer.
type Capability string

const (
	// CapImage renders image blocks.
	CapImage Capability = "image"
	// CapLink renders external link blocks (bookmarks and embeds).
	CapLink Capability = "link"
	// CapPageLink renders links to other pages (child pages and aliases).
	CapPageLink Capability = "page_link"
	// CapCode renders code blocks.
	CapCode Capability = "code"
	// CapCollection renders collection views.
	CapCollection Capability = "collection"
	// CapEquation renders block equations.
	CapEquation Capability = "equation"
	// CapPdf renders pdf embeds.
	CapPdf Capability = "pdf"
	// CapModal renders the zoom dialog of an image.
	CapModal Capability = "modal"
	// CapTweet renders tweet embeds.
	CapTweet Capability = "tweet"
)

// SubRenderer renders one block.
type SubRenderer func(rc *RenderContext, b *notion.Block) templ.Component

// Factory builds a SubRenderer. It is called at most once per registration,
// the first time a block needs the capability.
type Factory func() SubRenderer

// Components is a registry of lazily built sub-renderers keyed by
// capability. It is safe for concurrent use.
type Components struct {
	mu        sync.Mutex
	factories map[Capability]Factory
	resolved  map[Capability]SubRenderer
}

// NewComponents returns an empty registry.
func NewComponents() *Components {
	return &Components{
		factories: make(map[Capability]Factory),
		resolved:  make(map[Capability]SubRenderer),
	}
}

// DefaultComponents returns a registry holding the built-in sub-renderers.
func DefaultComponents() *Components {
	c := NewComponents()
	c.Register(CapImage, func() SubRenderer { return renderImage })
	c.Register(CapLink, func() SubRenderer { return renderLink })
	c.Register(CapPageLink, func() SubRenderer { return renderPageLink })
	c.Register(CapCode, newCodeRenderer)
	c.Register(CapCollection, func() SubRenderer { return renderCollection })
	c.Register(CapEquation, func() SubRenderer { return renderEquation })
	c.Register(CapPdf, func() SubRenderer { return renderPdf })
	c.Register(CapModal, func() SubRenderer { return renderModal })
	c.Register(CapTweet, func() SubRenderer { return renderTweet })
	return c
}

// Register sets the factory of a capability, replacing any previous one.
func (c *Components) Register(capability Capability, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[capability] = f
	delete(c.resolved, capability)
}

// Resolve returns the sub-renderer of a capability, building it on first
// use. It reports false when nothing is registered.
func (c *Components) Resolve(capability Capability) (SubRenderer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sr, ok := c.resolved[capability]; ok {
		return sr, true
	}
	f, ok := c.factories[capability]
	if !ok || f == nil {
		return nil, false
	}
	sr := f()
	if sr == nil {
		return nil, false
	}
	c.resolved[capability] = sr
	return sr, true
}

// Loaded reports whether a capability has been built.
func (c *Components) Loaded(capability Capability) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.resolved[capability]
	return ok
}
