package playstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playreviews/pkg/config"
	errs "playreviews/pkg/errors"
	"playreviews/pkg/logger"
	"playreviews/pkg/ratelimit"
	"playreviews/pkg/retrieval"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// reviewRow builds one review the way the store encodes it
func reviewRow(id, user string, score int, content string, at time.Time, version string) []interface{} {
	row := make([]interface{}, 11)
	row[0] = id
	row[1] = []interface{}{user, []interface{}{nil, 2, nil, []interface{}{nil, 0, "avatar"}}}
	row[2] = score
	row[4] = content
	row[5] = []interface{}{at.Unix(), 0}
	row[6] = 3
	row[10] = version
	return row
}

// batchBody wraps a reviews payload in the batchexecute envelope
func batchBody(t *testing.T, rows []interface{}, token string) string {
	t.Helper()

	var tail interface{}
	if token != "" {
		tail = []interface{}{nil, token}
	}
	payload, err := json.Marshal([]interface{}{rows, nil, tail, nil})
	require.NoError(t, err)

	envelope, err := json.Marshal([]interface{}{
		[]interface{}{"wrb.fr", reviewsRPC, string(payload), nil, nil, nil, "generic"},
		[]interface{}{"di", 42},
	})
	require.NoError(t, err)

	return ")]}'\n\n" + string(envelope)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger()
	cfg := config.DefaultConfig().Store
	cfg.BaseURL = srv.URL
	return NewClient(cfg, ratelimit.Unlimited{}, log), log
}

func TestFetchPageDecodesReviews(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	var gotReq *http.Request
	var gotForm url.Values

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		io.WriteString(w, batchBody(t, []interface{}{
			reviewRow("gp:1", "Anna", 5, "Отличное приложение", at, "1.2.3"),
			reviewRow("gp:2", "Boris", 2, "Плохо", at.Add(-time.Hour), ""),
		}, "next-token"))
	})

	page, err := client.FetchPage(context.Background(), retrieval.PageRequest{
		AppID: "com.example", Language: "ru", Country: "ru", Sort: retrieval.SortNewest, Count: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, BatchExecutePath, gotReq.URL.Path)
	assert.Equal(t, "ru", gotReq.URL.Query().Get("hl"))
	assert.Equal(t, "ru", gotReq.URL.Query().Get("gl"))
	assert.Contains(t, gotForm.Get("f.req"), `"UsvDTd"`)
	assert.Contains(t, gotForm.Get("f.req"), `com.example`)

	require.Len(t, page.Reviews, 2)
	assert.Equal(t, "next-token", page.NextToken)

	r := page.Reviews[0]
	assert.Equal(t, "gp:1", r.ID)
	assert.Equal(t, "Anna", r.UserName)
	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, "Отличное приложение", r.Content)
	assert.Equal(t, at, r.SubmittedAt)
	assert.Equal(t, 3, r.ThumbsUp)
	assert.Equal(t, "1.2.3", r.AppVersion)
}

func TestFetchPageLastPageHasNoToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, batchBody(t, []interface{}{
			reviewRow("gp:9", "Vera", 4, "Нормально", time.Now(), ""),
		}, ""))
	})

	page, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10, Token: "t"})
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 1)
	assert.Empty(t, page.NextToken)
}

func TestFetchPageNullPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `)]}'`+"\n\n"+`[["wrb.fr","UsvDTd",null,null,null,null,"generic"]]`)
	})

	page, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
	assert.Empty(t, page.NextToken)
}

func TestFetchPageStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   errs.Kind
	}{
		{http.StatusNotFound, errs.KindNotFound},
		{http.StatusTooManyRequests, errs.KindRateLimited},
		{http.StatusForbidden, errs.KindRateLimited},
		{http.StatusInternalServerError, errs.KindTransient},
		{http.StatusBadRequest, errs.KindTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10})
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))

			var apiErr *errs.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestFetchPageMalformedBodyIsUnknown(t *testing.T) {
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>captcha</html>")
	})

	_, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10})
	require.Error(t, err)
	assert.Equal(t, errs.KindUnknown, errs.KindOf(err))
	assert.True(t, log.HasMessage("failed to parse reviews response"))
}

func TestFetchPageNetworkErrorIsTransient(t *testing.T) {
	client := NewClient(config.DefaultConfig().Store, nil, logger.NewTestLogger())
	client.httpClient = &http.Client{Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset by peer")
	}}}

	_, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10})
	require.Error(t, err)
	assert.Equal(t, errs.KindTransient, errs.KindOf(err))
}

func TestFetchPageCancelledIsNotStoreFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(config.DefaultConfig().Store, nil, logger.NewTestLogger())
	client.httpClient = &http.Client{Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, req.Context().Err()
	}}}

	_, err := client.FetchPage(ctx, retrieval.PageRequest{AppID: "com.example", Count: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var apiErr *errs.Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestFetchPageSetsHeaders(t *testing.T) {
	client := NewClient(config.DefaultConfig().Store, nil, logger.NewTestLogger())

	var seen http.Header
	client.httpClient = &http.Client{Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		seen = req.Header
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(batchBody(t, nil, ""))),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}}}

	_, err := client.FetchPage(context.Background(), retrieval.PageRequest{AppID: "com.example", Count: 10})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, seen.Get("Origin"))
	assert.Contains(t, seen.Get("User-Agent"), "Mozilla")
	assert.Contains(t, seen.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func TestEncodeReviewsRequest(t *testing.T) {
	first, err := encodeReviewsRequest(retrieval.PageRequest{AppID: "com.example", Sort: retrieval.SortNewest, Count: 150})
	require.NoError(t, err)
	assert.Equal(t,
		`[[["UsvDTd","[null,null,[2,2,[150,null,null],null,[]],[\"com.example\",7]]",null,"generic"]]]`,
		first)

	next, err := encodeReviewsRequest(retrieval.PageRequest{AppID: "com.example", Sort: retrieval.SortNewest, Count: 50, Token: "abc"})
	require.NoError(t, err)
	assert.Equal(t,
		`[[["UsvDTd","[null,null,[2,2,[50,null,\"abc\"],null,[]],[\"com.example\",7]]",null,"generic"]]]`,
		next)
}

func TestDecodeReviewsResponseSkipsRowsWithoutID(t *testing.T) {
	rows := []interface{}{
		[]interface{}{nil, nil, 5},
		reviewRow("gp:1", "A", 5, "ok", time.Unix(1700000000, 0), ""),
	}
	page, err := decodeReviewsResponse([]byte(batchBody(t, rows, "")))
	require.NoError(t, err)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, "gp:1", page.Reviews[0].ID)
}
