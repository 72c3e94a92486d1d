package views

import (
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
)

// Document is everything Layout needs to write a full HTML page.
type Document struct {
	Site *notion.Site
	Meta []page.MetaTag
	// JSONLD holds serialized Schema.org blocks written into the head.
	JSONLD []string
	// Lite adds the notion-lite body class.
	Lite bool
	// Head is extra markup appended to the head, e.g. a refresh directive.
	Head templ.Component
	Body templ.Component
}

// PageEntry is one cached page listed on the admin dashboard.
type PageEntry struct {
	ID        string
	Title     string
	URL       string
	BlogPost  bool
	FetchedAt time.Time
}

// Comments configures the utterances widget shown under blog posts.
type Comments struct {
	Repo      string `yaml:"repo"`       // owner/name of the GitHub repository holding the issues
	IssueTerm string `yaml:"issue_term"` // default "pathname"
	Theme     string `yaml:"theme"`      // default "github-light"
}
