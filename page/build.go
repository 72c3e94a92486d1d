package page

import (
	"context"
	"net/url"
)

// Builder runs a full render pass: guard, derivation and metadata.
type Builder struct {
	Helpers Helpers
	Debug   DebugSink
	Dev     bool
}

// Result is the outcome of Builder.Build. Presentation and Meta are only
// set when the page is ready.
type Result struct {
	Resolution
	Presentation Presentation
	Meta         []MetaTag
}

// Ready reports whether the page can be rendered.
func (r Result) Ready() bool { return r.State == StateReady }

// Build resolves props and, for a ready page, derives its presentation and
// head metadata.
func (b Builder) Build(ctx context.Context, props Props, nav Navigation, query url.Values) Result {
	res := Result{Resolution: Resolve(props, nav)}
	if res.State != StateReady {
		return res
	}
	res.Presentation = Derive(ctx, DeriveInput{
		Site:      props.Site,
		RecordMap: props.RecordMap,
		Block:     res.Block,
		PageID:    props.PageID,
		Env:       Env{Dev: b.Dev, Query: query},
		Helpers:   b.Helpers,
		Debug:     b.Debug,
	})
	res.Meta = BuildMeta(props.Site, res.Presentation)
	return res
}
