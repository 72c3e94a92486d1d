package notionsite

import "embed"

// EmbeddedAssets contains static assets shipped with the server:
// notion.css and notion.js.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
