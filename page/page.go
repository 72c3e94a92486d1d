// Package page decides what a request for a Notion page renders: the guard
// state of the page, the presentation flags derived from its root block,
// the widgets shown around it and the metadata emitted in the document head.
//
// Nothing in this package traverses the content tree beyond the first block
// of the record map; layout is left to the renderer package.
package page

import (
	"errors"

	"github.com/eringen/notionsite/notion"
)

var (
	// ErrPageNotFound is the not-found reason when the record map holds no
	// resolvable block and no upstream error was given.
	ErrPageNotFound = errors.New("page: not found")
	// ErrMissingSite is the not-found reason when no site is configured.
	ErrMissingSite = errors.New("page: missing site")
	// ErrEmptyRecordMap is the not-found reason when the record map is absent
	// or has no blocks.
	ErrEmptyRecordMap = errors.New("page: empty record map")
	// ErrForeignSpace is the not-found reason when the page belongs to a
	// workspace other than the site's.
	ErrForeignSpace = errors.New("page: page belongs to another workspace")
)

// Props is the immutable input of one render pass.
type Props struct {
	Site      *notion.Site
	RecordMap *notion.RecordMap
	Err       error
	PageID    string
}

// Navigation reports whether a transition to another page is in flight.
type Navigation interface {
	Pending() bool
}

// NavState is a Navigation with a fixed answer.
type NavState bool

const (
	// Idle means the page data is present.
	Idle NavState = false
	// Transitioning means the page data is still being fetched.
	Transitioning NavState = true
)

// Pending implements Navigation.
func (n NavState) Pending() bool { return bool(n) }

// State is the outcome of the page guard. Each state is terminal for a
// render pass.
type State int

const (
	StateReady State = iota
	StateLoading
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolution is the result of Resolve. Props are always forwarded
// unchanged so the not-found view can show the original site, page id and
// error. Block is set only when State is StateReady.
type Resolution struct {
	State  State
	Props  Props
	Block  *notion.Block
	Reason error
}

// Resolve runs the page guard. A pending navigation wins over every other
// input. Otherwise an upstream error, a missing site, an empty record map,
// an unresolvable first block or a block outside the site's workspace yields
// StateNotFound with Reason set to the upstream error when there is one.
func Resolve(props Props, nav Navigation) Resolution {
	res := Resolution{Props: props}
	if nav != nil && nav.Pending() {
		res.State = StateLoading
		return res
	}

	res.State = StateNotFound
	switch {
	case props.Err != nil:
		res.Reason = props.Err
	case props.Site == nil:
		res.Reason = ErrMissingSite
	case props.RecordMap == nil || len(props.RecordMap.Block) == 0:
		res.Reason = ErrEmptyRecordMap
	default:
		block := props.RecordMap.FirstBlock()
		if block == nil {
			res.Reason = ErrPageNotFound
			return res
		}
		if !notion.InSiteSpace(props.Site, block) {
			res.Reason = ErrForeignSpace
			return res
		}
		res.State = StateReady
		res.Block = block
	}
	return res
}
