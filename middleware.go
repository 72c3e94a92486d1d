package notionsite

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/notionsite/page"
)

const (
	sessionName     = "notionsite_admin"
	sessionLoginKey = "login_at"
	adminSessionTTL = 12 * time.Hour
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())
	// Page URLs never end in a slash; admin URLs always do.
	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper:      isAdminPath,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/") || c.Request().URL.Path == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))
	e.Use(liteFrameMiddleware)

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/admin",
		CookieSameSite: http.SameSiteStrictMode,
		CookieSecure:   a.Config.CookieSecure,
		CookieHTTPOnly: true,
		// Only the admin screens post forms; the JSON API is read only.
		Skipper: func(c echo.Context) bool {
			return !isAdminPath(c)
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return !isAdminPath(c)
		},
	}))

	e.Use(cacheControlMiddleware)
}

func isAdminPath(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/admin")
}

// contentSecurityPolicy allows the third-party frames and scripts Notion
// content embeds: tweets, utterances comments and arbitrary embed blocks.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' https://utteranc.es; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self' data:; connect-src 'self'; frame-src https:; media-src 'self' https: data:; object-src 'self' https:"

// liteFrameMiddleware lets lite pages be framed by other sites, which is how
// oEmbed consumers show them.
func liteFrameMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam(page.LiteParam) == "true" && !isAdminPath(c) {
			c.Response().Header().Del(echo.HeaderXFrameOptions)
		}
		return next(c)
	}
}

// cacheControlMiddleware sets default Cache-Control headers. Handlers may
// override them, e.g. for loading and not-found pages.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		path := c.Request().URL.Path
		switch {
		case path == "/public/notion.css" || path == "/public/notion.js" || path == "/public/code.css":
			h.Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/public/"):
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/admin") || path == "/metrics":
			h.Set("Cache-Control", "no-store")
		case strings.HasPrefix(path, "/api/"):
			// set by the handlers
		default:
			h.Set("Cache-Control", "public, max-age=60, stale-while-revalidate=3600")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/admin",
		HttpOnly: true,
		MaxAge:   int(adminSessionTTL / time.Second),
		SameSite: http.SameSiteStrictMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// IsAdmin reports whether the request carries an admin session younger than
// adminSessionTTL.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	loginAt, ok := sess.Values[sessionLoginKey].(int64)
	if !ok {
		return false
	}
	return time.Since(time.Unix(loginAt, 0)) < adminSessionTTL
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionLoginKey] = time.Now().Unix()
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionLoginKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the CSRF token of the admin form being rendered.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
