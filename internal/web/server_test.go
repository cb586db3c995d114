package web

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/pkg/coverage"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string
	raw   string
	err   error
}

func (f *fakeClient) Lookup(_ context.Context, address string) (*coverage.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return coverage.NewPayload([]byte(f.raw))
}

func newTestServer(t *testing.T, client coverage.Client) http.Handler {
	t.Helper()
	s, err := NewServer(client, []string{"http://localhost:3000"})
	require.NoError(t, err)
	return s.Routes()
}

func postSearch(h http.Handler, address string) *httptest.ResponseRecorder {
	body := url.Values{"address": {address}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestIndex_RendersEmptyForm(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	page := rr.Body.String()
	assert.Contains(t, page, "Mobile Network Coverage")
	assert.Contains(t, page, `name="address"`)
	assert.Contains(t, page, "Search</button>")
	assert.NotContains(t, page, `class="result"`)
}

func TestSearch_RendersPayload(t *testing.T) {
	t.Parallel()
	client := &fakeClient{raw: `{"technology": "5G", "covered": true}`}
	h := newTestServer(t, client)

	rr := postSearch(h, "221B Baker Street")

	assert.Equal(t, http.StatusOK, rr.Code)
	page := html.UnescapeString(rr.Body.String())
	assert.Contains(t, page, "<pre class=\"result\">{\n  \"technology\": \"5G\",\n  \"covered\": true\n}</pre>")
	assert.Contains(t, page, `value="221B Baker Street"`)
	assert.Equal(t, []string{"221B Baker Street"}, client.calls)
}

func TestSearch_EmptyAddress(t *testing.T) {
	t.Parallel()
	client := &fakeClient{raw: `{}`}
	h := newTestServer(t, client)

	rr := postSearch(h, "   ")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<pre class="result">Please enter an address.</pre>`)
	assert.Empty(t, client.calls)
}

func TestSearch_FetchError(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{err: errors.New("dial tcp: connection refused")})

	rr := postSearch(h, "Eiffel Tower, Paris")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<pre class="result">Error fetching data</pre>`)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestSearch_EscapesAddress(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{err: errors.New("nope")})

	rr := postSearch(h, `"><script>alert(1)</script>`)

	assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
}

func TestAPISearch_Payload(t *testing.T) {
	t.Parallel()
	client := &fakeClient{raw: `{"Orange":{"2G":true,"3G":true,"4G":false}}`}
	h := newTestServer(t, client)

	req := httptest.NewRequest(http.MethodGet, "/api/search?address="+url.QueryEscape("42 Rue papernest 75011, Paris"), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result":{"Orange":{"2G":true,"3G":true,"4G":false}}}`, rr.Body.String())
	assert.Equal(t, []string{"42 Rue papernest 75011, Paris"}, client.calls)
}

func TestAPISearch_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		client  *fakeClient
		want    string
	}{
		{name: "empty", address: "", client: &fakeClient{raw: `{}`}, want: "Please enter an address."},
		{name: "failure", address: "x", client: &fakeClient{err: errors.New("boom")}, want: "Error fetching data"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestServer(t, tt.client)

			req := httptest.NewRequest(http.MethodGet, "/api/search?address="+url.QueryEscape(tt.address), nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["status"])
			assert.NotContains(t, body, "result")
		})
	}
}

func TestAPISearch_CORS(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{raw: `{}`})

	req := httptest.NewRequest(http.MethodGet, "/api/search?address=x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/search?address=x", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodDelete, "/search", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
