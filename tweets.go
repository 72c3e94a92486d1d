package notionsite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
)

// DefaultTweetSyndicationURL is the public endpoint tweet payloads are read from.
const DefaultTweetSyndicationURL = "https://cdn.syndication.twimg.com/tweet-result"

// ErrTweetNotFound is returned when the syndication API has no such tweet.
var ErrTweetNotFound = errors.New("notionsite: tweet not found")

const maxTweetBytes = 1 << 20

// TweetFetcher serves tweet payloads, reading through the store.
type TweetFetcher struct {
	store      *Store
	baseURL    string
	httpClient *http.Client
	metrics    metrics.Recorder
}

// NewTweetFetcher creates a TweetFetcher.
func NewTweetFetcher(store *Store, baseURL string, rec metrics.Recorder) *TweetFetcher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &TweetFetcher{
		store:      store,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    rec,
	}
}

// validTweetID reports whether id is a numeric tweet id.
func validTweetID(id string) bool {
	if id == "" || len(id) > 25 {
		return false
	}
	return notion.TweetID(id) == id
}

// tweetToken derives the token the syndication API expects for an id.
func tweetToken(id string) string {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return "a"
	}
	f := n / 1e15 * math.Pi
	whole := math.Floor(f)
	var b strings.Builder
	b.WriteString(strconv.FormatInt(int64(whole), 36))
	frac := f - whole
	for i := 0; i < 10 && frac > 0; i++ {
		frac *= 36
		d := int64(frac)
		b.WriteString(strconv.FormatInt(d, 36))
		frac -= float64(d)
	}
	token := strings.ReplaceAll(b.String(), "0", "")
	if token == "" {
		return "a"
	}
	return token
}

// Get returns the payload of a tweet from the store or, on a miss, from the
// syndication API.
func (f *TweetFetcher) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if !validTweetID(id) {
		return nil, ErrTweetNotFound
	}
	if payload, err := f.store.GetTweet(ctx, id); err == nil {
		f.metrics.IncTweetFetch(metrics.TweetCached)
		return payload, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	payload, err := f.fetch(ctx, id)
	if err != nil {
		f.metrics.IncTweetFetch(metrics.TweetFailed)
		return nil, err
	}
	f.metrics.IncTweetFetch(metrics.TweetUpstream)
	if err := f.store.SaveTweet(ctx, id, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *TweetFetcher) fetch(ctx context.Context, id string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("lang", "en")
	q.Set("token", tweetToken(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notionsite: fetch tweet %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTweetNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("notionsite: fetch tweet %s: status %d", id, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTweetBytes))
	if err != nil {
		return nil, fmt.Errorf("notionsite: read tweet %s: %w", id, err)
	}
	if len(body) == 0 || !json.Valid(body) || string(body) == "{}" {
		return nil, ErrTweetNotFound
	}
	return json.RawMessage(body), nil
}

// tweetIDs returns the ids of the tweet blocks of a record map.
func tweetIDs(rm *notion.RecordMap) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, blockID := range rm.BlockIDs() {
		rec := rm.Block[blockID]
		if rec == nil || rec.Value == nil || rec.Value.Type != "tweet" {
			continue
		}
		id := notion.TweetID(rec.Value.Properties["source"].PlainText())
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
