package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGetPageFollowsCursor(t *testing.T) {
	var chunks int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loadPageChunk", r.URL.Path)
		cookie, err := r.Cookie("token_v2")
		require.NoError(t, err)
		assert.Equal(t, "secret", cookie.Value)

		var req pageChunkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "067dd719-a912-471e-a9a3-ac10710e86bf", req.PageID)
		assert.Equal(t, chunks, req.ChunkNumber)
		chunks++

		w.Header().Set("Content-Type", "application/json")
		if req.ChunkNumber == 0 {
			_, _ = io.WriteString(w, `{"recordMap":`+chunkJSON+`,"cursor":{"stack":[[{"table":"block","id":"x","index":0}]]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"recordMap":{"block":{"ffffffff-1111-4222-8333-444455556666":{"value":{"id":"ffffffff-1111-4222-8333-444455556666","type":"text"}}}},"cursor":{"stack":[]}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithAuthToken("secret"))
	rm, err := c.GetPage(context.Background(), "067dd719a912471ea9a3ac10710e86bf")
	require.NoError(t, err)

	assert.Equal(t, 2, chunks)
	assert.Len(t, rm.BlockIDs(), 4)
	assert.Equal(t, "067dd719-a912-471e-a9a3-ac10710e86bf", rm.FirstBlock().ID)
	assert.NotNil(t, rm.BlockByID("ffffffff-1111-4222-8333-444455556666"))
}

func TestClientGetPageQueriesCollections(t *testing.T) {
	const page = `{"recordMap":{"block":{"067dd719-a912-471e-a9a3-ac10710e86bf":{"value":{
		"id":"067dd719-a912-471e-a9a3-ac10710e86bf","type":"collection_view_page",
		"collection_id":"a1b2c3d4-0000-4000-8000-000000000001","view_ids":["view-1"]}}}},"cursor":{"stack":[]}}`
	const query = `{"result":{"reducerResults":{"collection_group_results":{"type":"results","blockIds":["b1","b2"]}}},
		"recordMap":{"collection":{"a1b2c3d4-0000-4000-8000-000000000001":{"value":{"id":"a1b2c3d4-0000-4000-8000-000000000001","name":[["Posts"]]}}}}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/loadPageChunk":
			_, _ = io.WriteString(w, page)
		case "/queryCollection":
			var req queryCollectionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "view-1", req.CollectionView.ID)
			_, _ = io.WriteString(w, query)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	rm, err := NewClient(WithBaseURL(srv.URL)).GetPage(context.Background(), "067dd719-a912-471e-a9a3-ac10710e86bf")
	require.NoError(t, err)

	result := rm.CollectionQuery["a1b2c3d4-0000-4000-8000-000000000001"]["view-1"]
	require.NotNil(t, result)
	assert.Equal(t, []string{"b1", "b2"}, result.Items())
	assert.Equal(t, "Posts", BlockTitle(rm.FirstBlock(), rm))
}

func TestClientGetPageErrors(t *testing.T) {
	c := NewClient()
	_, err := c.GetPage(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrInvalidPageID))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"recordMap":{},"cursor":{"stack":[]}}`)
	}))
	defer srv.Close()
	_, err = NewClient(WithBaseURL(srv.URL)).GetPage(context.Background(), "067dd719a912471ea9a3ac10710e86bf")
	assert.True(t, errors.Is(err, ErrPageNotFound))

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	_, err = NewClient(WithBaseURL(missing.URL)).GetPage(context.Background(), "067dd719a912471ea9a3ac10710e86bf")
	assert.True(t, errors.Is(err, ErrPageNotFound))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer broken.Close()
	_, err = NewClient(WithBaseURL(broken.URL)).GetPage(context.Background(), "067dd719a912471ea9a3ac10710e86bf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.False(t, errors.Is(err, ErrPageNotFound))
}

func TestClientSearchPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BlocksInAncestor", body["type"])
		assert.Equal(t, "067dd719-a912-471e-a9a3-ac10710e86bf", body["ancestorId"])
		assert.Equal(t, "golang", body["query"])
		assert.EqualValues(t, 20, body["limit"])
		_, _ = io.WriteString(w, `{"results":[{"id":"b1"}],"total":1}`)
	}))
	defer srv.Close()

	out, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), SearchParams{
		AncestorID: "067dd719a912471ea9a3ac10710e86bf",
		Query:      "golang",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":"b1"}],"total":1}`, string(out))
}
