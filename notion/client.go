package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIBaseURL is the endpoint of Notion's private content API.
const DefaultAPIBaseURL = "https://www.notion.so/api/v3"

const (
	maxPageChunks   = 10
	pageChunkLimit  = 100
	collectionLimit = 999
)

var (
	// ErrPageNotFound is returned when the content API has no such page.
	ErrPageNotFound = errors.New("notion: page not found")
	// ErrInvalidPageID is returned for ids that are not Notion ids.
	ErrInvalidPageID = errors.New("notion: invalid page id")
)

// Client fetches record maps and search results from Notion.
type Client struct {
	baseURL    string
	authToken  string
	activeUser string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAuthToken sets the token_v2 cookie used to read private workspaces.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithActiveUser sets the x-notion-active-user-header value.
func WithActiveUser(id string) ClientOption {
	return func(c *Client) {
		c.activeUser = id
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for the public content API.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pageChunkRequest struct {
	PageID          string      `json:"pageId"`
	Limit           int         `json:"limit"`
	Cursor          chunkCursor `json:"cursor"`
	ChunkNumber     int         `json:"chunkNumber"`
	VerticalColumns bool        `json:"verticalColumns"`
}

type chunkCursor struct {
	Stack []json.RawMessage `json:"stack"`
}

type pageChunkResponse struct {
	RecordMap RecordMap   `json:"recordMap"`
	Cursor    chunkCursor `json:"cursor"`
}

// GetPage loads every chunk of a page and the items of its collections.
func (c *Client) GetPage(ctx context.Context, pageID string) (*RecordMap, error) {
	id := FormatID(pageID)
	if id == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPageID, pageID)
	}

	rm := &RecordMap{}
	req := pageChunkRequest{
		PageID: id,
		Limit:  pageChunkLimit,
		Cursor: chunkCursor{Stack: []json.RawMessage{}},
	}
	for chunk := 0; chunk < maxPageChunks; chunk++ {
		req.ChunkNumber = chunk
		var resp pageChunkResponse
		if err := c.post(ctx, "loadPageChunk", req, &resp); err != nil {
			return nil, err
		}
		rm.Merge(&resp.RecordMap)
		if len(resp.Cursor.Stack) == 0 {
			break
		}
		req.Cursor = resp.Cursor
	}
	if len(rm.Block) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}

	if err := c.loadCollections(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

type queryCollectionRequest struct {
	Collection     recordPointer  `json:"collection"`
	CollectionView recordPointer  `json:"collectionView"`
	Loader         map[string]any `json:"loader"`
}

type recordPointer struct {
	ID      string `json:"id"`
	SpaceID string `json:"spaceId,omitempty"`
}

type queryCollectionResponse struct {
	Result struct {
		ReducerResults struct {
			CollectionGroupResults GroupResults `json:"collection_group_results"`
		} `json:"reducerResults"`
	} `json:"result"`
	RecordMap RecordMap `json:"recordMap"`
}

func (c *Client) loadCollections(ctx context.Context, rm *RecordMap) error {
	for _, blockID := range rm.BlockIDs() {
		rec := rm.Block[blockID]
		if rec == nil || rec.Value == nil {
			continue
		}
		b := rec.Value
		if (b.Type != "collection_view" && b.Type != "collection_view_page") || b.CollectionID == "" {
			continue
		}
		for _, viewID := range b.ViewIDs {
			req := queryCollectionRequest{
				Collection:     recordPointer{ID: b.CollectionID, SpaceID: b.SpaceID},
				CollectionView: recordPointer{ID: viewID, SpaceID: b.SpaceID},
				Loader: map[string]any{
					"type": "reducer",
					"reducers": map[string]any{
						"collection_group_results": map[string]any{"type": "results", "limit": collectionLimit},
					},
					"searchQuery":  "",
					"userTimeZone": "UTC",
				},
			}
			var resp queryCollectionResponse
			if err := c.post(ctx, "queryCollection", req, &resp); err != nil {
				return fmt.Errorf("notion: query collection %s: %w", b.CollectionID, err)
			}
			rm.Merge(&resp.RecordMap)
			if rm.CollectionQuery == nil {
				rm.CollectionQuery = make(map[string]map[string]*CollectionQueryResult)
			}
			if rm.CollectionQuery[b.CollectionID] == nil {
				rm.CollectionQuery[b.CollectionID] = make(map[string]*CollectionQueryResult)
			}
			groups := resp.Result.ReducerResults.CollectionGroupResults
			rm.CollectionQuery[b.CollectionID][viewID] = &CollectionQueryResult{
				Type:                   "results",
				CollectionGroupResults: &groups,
			}
		}
	}
	return nil
}

// SearchParams is the body of a full text search within a workspace subtree.
type SearchParams struct {
	AncestorID string         `json:"ancestorId"`
	Query      string         `json:"query"`
	Limit      int            `json:"limit,omitempty"`
	Filters    *SearchFilters `json:"filters,omitempty"`
}

// SearchFilters narrows search results.
type SearchFilters struct {
	IsDeletedOnly          bool `json:"isDeletedOnly"`
	ExcludeTemplates       bool `json:"excludeTemplates"`
	IsNavigableOnly        bool `json:"isNavigableOnly"`
	RequireEditPermissions bool `json:"requireEditPermissions"`
}

// Search runs a search and returns the API response unmodified.
func (c *Client) Search(ctx context.Context, params SearchParams) (json.RawMessage, error) {
	if params.Limit == 0 {
		params.Limit = 20
	}
	if params.Filters == nil {
		params.Filters = &SearchFilters{ExcludeTemplates: true, IsNavigableOnly: true}
	}
	body := map[string]any{
		"type":            "BlocksInAncestor",
		"source":          "quick_find_public",
		"ancestorId":      FormatID(params.AncestorID),
		"query":           params.Query,
		"limit":           params.Limit,
		"filters":         params.Filters,
		"sort":            map[string]string{"field": "relevance"},
		"searchSessionId": "",
	}
	var out json.RawMessage
	if err := c.post(ctx, "search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notion: encode %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notion: %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.AddCookie(&http.Cookie{Name: "token_v2", Value: c.authToken})
	}
	if c.activeUser != "" {
		req.Header.Set("x-notion-active-user-header", c.activeUser)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrPageNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion: %s: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("notion: decode %s: %w", endpoint, err)
	}
	return nil
}
