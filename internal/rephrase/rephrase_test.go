package rephrase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/pagefit/internal/audit"
	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/types"
)

func chatServer(t *testing.T, status int, reply string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"bad things","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply + " (" + body.Messages[1].Content + ")"},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func overflowResult() preview.Result {
	opts := paginate.DefaultOptions()
	opts.PageHeight = 1080
	ms := []types.Measurement{
		{SectionID: "intro", Height: 100, Content: "intro", Type: types.SectionBody},
		{SectionID: "big", Height: 1500, Content: "long experience", Type: types.SectionBody},
		{SectionID: "huge", Height: 1800, Content: "even longer", Type: types.SectionBody},
		{SectionID: "small", Height: 200, Content: "fits", Type: types.SectionBody},
	}
	return preview.PaginationResult(ms, opts)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAdvise(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusOK, "Shorter", &calls)

	a, err := New(Config{APIKey: "test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	require.NoError(t, err)

	out, err := a.Advise(context.Background(), overflowResult())
	require.NoError(t, err)
	require.Len(t, out, 2, "one suggestion per overflowing page")
	assert.Equal(t, int32(2), calls.Load())

	assert.Equal(t, audit.SuggestRephrase, out[0].Type)
	assert.Equal(t, types.LevelMedium, out[0].Priority)
	assert.Equal(t, "big", out[0].SectionID)
	assert.Contains(t, out[0].Description, "Shorter (long experience)")
	assert.Equal(t, "huge", out[1].SectionID)
}

func TestAdvise_Limit(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusOK, "Shorter", &calls)

	a, err := New(Config{APIKey: "test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client(), MaxSuggestions: 1})
	require.NoError(t, err)

	out, err := a.Advise(context.Background(), overflowResult())
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAdvise_APIErrorSkipsPage(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusBadRequest, "", &calls)

	a, err := New(Config{APIKey: "test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	require.NoError(t, err)

	out, err := a.Advise(context.Background(), overflowResult())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAdvise_NoOverflow(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusOK, "x", &calls)

	a, err := New(Config{APIKey: "test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	require.NoError(t, err)

	r := preview.PaginationResult([]types.Measurement{{SectionID: "a", Height: 500, Content: "a"}}, paginate.DefaultOptions())
	out, err := a.Advise(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(0), calls.Load())
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", excerpt("a\n  b\tc"))
	long := strings.Repeat("x", maxExcerpt+10)
	assert.Equal(t, maxExcerpt+1, len([]rune(excerpt(long))))
}
