package notionsite

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/notion"
)

// fetchPage loads a record map from the page source and enriches it with
// preview images and tweets before it is cached. The pages it contains are
// added to the index.
func (a *App) fetchPage(ctx context.Context, pageID string) (*notion.RecordMap, error) {
	rm, err := a.source.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if a.Config.PreviewImages && a.Previews != nil {
		if err := a.Previews.Attach(ctx, rm, notion.SiteImageURLMapper(a.Site())); err != nil {
			a.Logger.Warn("preview images failed", logfields.PageID(pageID), logfields.Error(err))
		}
	}
	if a.Tweets != nil {
		a.attachTweets(ctx, rm)
	}
	if a.Store != nil {
		if err := a.Store.SavePages(ctx, indexPages(a.Site(), rm, time.Now())); err != nil {
			a.Logger.Warn("page index update failed", logfields.PageID(pageID), logfields.Error(err))
		}
	}
	return rm, nil
}

// attachTweets loads the payloads of the tweet blocks of rm into rm.Tweets.
// Tweets that cannot be loaded are left out.
func (a *App) attachTweets(ctx context.Context, rm *notion.RecordMap) {
	ids := tweetIDs(rm)
	if len(ids) == 0 {
		return
	}
	var mu sync.Mutex
	tweets := make(map[string]json.RawMessage, len(ids))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, id := range ids {
		eg.Go(func() error {
			payload, err := a.Tweets.Get(egCtx, id)
			if err != nil {
				if !errors.Is(err, ErrTweetNotFound) {
					a.Logger.Warn("tweet fetch failed", logfields.TweetID(id), logfields.Error(err))
				}
				return nil
			}
			mu.Lock()
			tweets[id] = payload
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if rm.Tweets == nil {
		rm.Tweets = make(map[string]json.RawMessage, len(tweets))
	}
	for id, payload := range tweets {
		rm.Tweets[id] = payload
	}
}

func fromNotionTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// indexPages lists the root page of rm and every collection item page it
// holds. Pages outside the site's workspace are left out.
func indexPages(site *notion.Site, rm *notion.RecordMap, now time.Time) []IndexedPage {
	root := rm.FirstBlock()
	if root == nil || !notion.InSiteSpace(site, root) {
		return nil
	}
	mapURL := notion.MapPageURL(site, rm, nil)
	mapImage := notion.SiteImageURLMapper(site)

	var pages []IndexedPage
	for _, id := range rm.BlockIDs() {
		rec := rm.Block[id]
		if rec == nil || rec.Value == nil {
			continue
		}
		b := rec.Value
		blogPost := b.Type == "page" && b.ParentTable == "collection"
		if b != root && !blogPost || !notion.InSiteSpace(site, b) {
			continue
		}
		cover := ""
		if b.Format.PageCover != "" {
			cover = mapImage(b.Format.PageCover, b)
		}
		pages = append(pages, IndexedPage{
			ID:          notion.NormalizeID(b.ID),
			Title:       notion.BlockTitle(b, rm),
			Description: notion.PageDescription(b, rm),
			Path:        mapURL(b.ID),
			BlogPost:    blogPost,
			Cover:       cover,
			CreatedAt:   fromNotionTime(b.CreatedTime),
			UpdatedAt:   fromNotionTime(b.LastEditedTime),
			FetchedAt:   now,
		})
	}
	return pages
}
