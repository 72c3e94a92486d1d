// Package scaffold provides the embedded template files used by
// "notionsite init" to create a project that embeds the notionsite server.
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS
