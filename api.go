package notionsite

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/notion"
)

const maxSearchLimit = 100

type apiError struct {
	Error string `json:"error"`
}

// handleSearch forwards a search to Notion, scoped to the site's root page
// unless the request names another ancestor.
func (a *App) handleSearch(c echo.Context) error {
	if !a.searchLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, apiError{Error: "too many requests"})
	}
	var params notion.SearchParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "invalid search request"})
	}
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return c.JSON(http.StatusBadRequest, apiError{Error: "query is required"})
	}
	if params.AncestorID == "" {
		params.AncestorID = a.Config.Site.RootNotionPageID
	}
	params.AncestorID = notion.FormatID(params.AncestorID)
	if params.AncestorID == "" {
		return c.JSON(http.StatusBadRequest, apiError{Error: "invalid ancestorId"})
	}
	if params.Limit <= 0 || params.Limit > maxSearchLimit {
		params.Limit = 20
	}
	if params.Filters == nil {
		params.Filters = &notion.SearchFilters{
			ExcludeTemplates: true,
			IsNavigableOnly:  true,
		}
	}

	results, err := a.source.Search(c.Request().Context(), params)
	if err != nil {
		a.Logger.Warn("search failed", logfields.Error(err))
		return c.JSON(http.StatusBadGateway, apiError{Error: "search failed"})
	}
	c.Response().Header().Set("Cache-Control", "public, s-maxage=60, max-age=60, stale-while-revalidate=60")
	return c.JSONBlob(http.StatusOK, results)
}

func (a *App) handleTweet(c echo.Context) error {
	id := c.Param("tweetId")
	if !validTweetID(id) {
		return c.JSON(http.StatusBadRequest, apiError{Error: "invalid tweet id"})
	}
	payload, err := a.Tweets.Get(c.Request().Context(), id)
	switch {
	case errors.Is(err, ErrTweetNotFound):
		return c.JSON(http.StatusNotFound, apiError{Error: "tweet not found"})
	case err != nil:
		a.Logger.Warn("tweet fetch failed", logfields.TweetID(id), logfields.Error(err))
		return c.JSON(http.StatusBadGateway, apiError{Error: "tweet unavailable"})
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400, immutable")
	return c.JSONBlob(http.StatusOK, payload)
}
