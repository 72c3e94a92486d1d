package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/page"
)

func adminDocument(site *notion.Site, title string, body templ.Component) templ.Component {
	return Layout(Document{
		Site: site,
		Meta: []page.MetaTag{
			{Kind: page.MetaTitle, Key: "title", Value: title + " | " + siteName(site)},
			noindex(),
		},
		Body: body,
	})
}

func csrfField(token string) string {
	return `<input type="hidden" name="_csrf" value="` + esc(token) + `"/>`
}

// AdminLogin is the admin password form.
func AdminLogin(site *notion.Site, showError bool, csrfToken string) templ.Component {
	return adminDocument(site, "Admin", component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="admin admin-login"><h1>Admin</h1>`)
		if showError {
			buf.WriteString(`<p class="admin-error" role="alert">Invalid password or too many attempts.</p>`)
		}
		buf.WriteString(`<form method="post" action="/admin/login/">` + csrfField(csrfToken))
		buf.WriteString(`<label for="password">Password</label><input id="password" type="password" name="password" autocomplete="current-password" required/>`)
		buf.WriteString(`<button type="submit">Sign in</button></form></main>`)
		return nil
	}))
}

// AdminDashboard lists cached pages with purge actions.
func AdminDashboard(site *notion.Site, pages []PageEntry, message, csrfToken string) templ.Component {
	return adminDocument(site, "Dashboard", component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="admin admin-dashboard"><header class="admin-header"><h1>Cached pages</h1>`)
		buf.WriteString(`<form method="post" action="/admin/logout/">` + csrfField(csrfToken) + `<button type="submit">Log out</button></form></header>`)
		if message != "" {
			buf.WriteString(`<p class="admin-message" role="status">` + esc(message) + `</p>`)
		}
		buf.WriteString(`<form method="post" action="/admin/purge/">` + csrfField(csrfToken) + `<button type="submit">Purge all</button></form>`)
		if len(pages) == 0 {
			buf.WriteString(`<p>No pages cached yet.</p></main>`)
			return nil
		}
		buf.WriteString(`<table class="admin-pages"><thead><tr><th>Title</th><th>Type</th><th>Fetched</th><th></th></tr></thead><tbody>`)
		for _, p := range pages {
			kind := "page"
			if p.BlogPost {
				kind = "post"
			}
			title := p.Title
			if title == "" {
				title = p.ID
			}
			buf.WriteString(`<tr><td><a href="` + esc(p.URL) + `">` + esc(title) + `</a></td><td>` + kind + `</td>`)
			buf.WriteString(`<td><time datetime="` + p.FetchedAt.UTC().Format("2006-01-02T15:04:05Z") + `">` + p.FetchedAt.Format("Jan 2, 2006 15:04") + `</time></td>`)
			buf.WriteString(`<td><form method="post" action="/admin/purge/` + esc(p.ID) + `/">` + csrfField(csrfToken) + `<button type="submit">Purge</button></form></td></tr>`)
		}
		buf.WriteString(`</tbody></table></main>`)
		return nil
	}))
}
