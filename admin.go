package notionsite

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.Site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.Site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handlePurge drops one page from the cache and the index so its next
// request fetches it from Notion again.
func (a *App) handlePurge(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	pageID := notion.ParsePageID(c.Param("pageId"))
	if pageID == "" {
		return redirectWithMessage(c, "Invalid page id.")
	}
	a.Cache.Invalidate(pageID)
	if err := a.Store.DeletePage(c.Request().Context(), pageID); err != nil {
		return err
	}
	a.Logger.Info("page purged", logfields.PageID(pageID))
	return redirectWithMessage(c, "Page purged.")
}

func (a *App) handlePurgeAll(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.Cache.InvalidateAll()
	if err := a.Store.DeleteAllPages(c.Request().Context()); err != nil {
		return err
	}
	a.Logger.Info("cache purged")
	return redirectWithMessage(c, "Cache purged.")
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	entries := make([]views.PageEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, views.PageEntry{
			ID:        p.ID,
			Title:     p.Title,
			URL:       p.Path,
			BlogPost:  p.BlogPost,
			FetchedAt: p.FetchedAt,
		})
	}
	return Render(c, a.Views.AdminDashboard(a.Site(), entries, msg, CsrfToken(c)))
}
