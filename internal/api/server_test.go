package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	apperrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSerp struct {
	mu     sync.Mutex
	params []url.Values
	err    error
}

func (f *fakeSerp) Search(ctx context.Context, params url.Values) (map[string]any, error) {
	f.mu.Lock()
	f.params = append(f.params, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if params.Get("engine") == "google_hotels" {
		props := make([]any, 0, 7)
		for i := 0; i < 7; i++ {
			props = append(props, map[string]any{"name": "Hotel", "rank": float64(i)})
		}
		return map[string]any{"properties": props}, nil
	}
	return map[string]any{"best_flights": []any{map[string]any{"price": 420.0}}}, nil
}

type mockChatter struct {
	mock.Mock
}

func (m *mockChatter) Run(ctx context.Context, sessionID, text string) (string, error) {
	args := m.Called(ctx, sessionID, text)
	return args.String(0), args.Error(1)
}

type failingTools struct{}

func (failingTools) Execute(ctx context.Context, name string, args any) (any, error) {
	return nil, errors.New("boom")
}

func newRunner(t *testing.T, searcher travel.Searcher) *tool.Runner {
	t.Helper()
	finder := travel.NewFinder(searcher, travel.Locale{Language: "en", Country: "us", Currency: "USD", Stops: "1"}, 5)
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{Finder: finder})
	require.NoError(t, err)
	return tool.NewRunner(registry, observe.DefaultMetrics())
}

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	srv, err := NewServer(config.ServerConfig{Port: 0}, opts)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestRootHealthAndDocs(t *testing.T) {
	h := newTestServer(t, Options{})

	rr := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"message": "Welcome to the Travel Agent API", "docs": "/docs"}, decode(t, rr))

	rr = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "healthy"}, decode(t, rr))

	rr = do(t, h, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	docs := decode(t, rr)
	assert.Equal(t, "Travel Agent API", docs["title"])
	assert.Len(t, docs["endpoints"], 4)

	rr = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthReportsComponents(t *testing.T) {
	h := newTestServer(t, Options{Health: func(ctx context.Context) map[string]error {
		return map[string]error{"Workers": nil, "Adapters": errors.New("slack unreachable")}
	}})

	body := decode(t, do(t, h, http.MethodGet, "/health", ""))
	assert.Equal(t, "degraded", body["status"])
	components := body["components"].(map[string]any)
	assert.Equal(t, map[string]any{"healthy": true}, components["Workers"])
	assert.Equal(t, map[string]any{"healthy": false, "error": "slack unreachable"}, components["Adapters"])
}

func TestFlightSearch(t *testing.T) {
	serp := &fakeSerp{}
	h := newTestServer(t, Options{Tools: newRunner(t, serp)})

	rr := do(t, h, http.MethodPost, "/flights/search", `{"departure_airport":"SFO","arrival_airport":"JFK","outbound_date":"2024-06-22","adults":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decode(t, rr)["result"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"price": 420.0}}, result["flights"])

	require.Len(t, serp.params, 1)
	assert.Equal(t, "google_flights", serp.params[0].Get("engine"))
	assert.Equal(t, "SFO", serp.params[0].Get("departure_id"))
	assert.Equal(t, "2", serp.params[0].Get("adults"))
	assert.Equal(t, "0", serp.params[0].Get("children"))
}

func TestFlightSearch_EmptyObjectUsesDefaults(t *testing.T) {
	serp := &fakeSerp{}
	h := newTestServer(t, Options{Tools: newRunner(t, serp)})

	rr := do(t, h, http.MethodPost, "/flights/search", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, serp.params, 1)
	assert.Equal(t, "1", serp.params[0].Get("adults"))
}

func TestFlightSearch_ProviderErrorIsResult(t *testing.T) {
	h := newTestServer(t, Options{Tools: newRunner(t, &fakeSerp{err: errors.New("Invalid API key.")})})

	rr := do(t, h, http.MethodPost, "/flights/search", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"error": "Invalid API key."}, decode(t, rr)["result"])
}

func TestFlightSearch_MissingKey(t *testing.T) {
	h := newTestServer(t, Options{Tools: newRunner(t, nil)})

	rr := do(t, h, http.MethodPost, "/flights/search", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"error": travel.MissingKeyMessage}, decode(t, rr)["result"])
}

func TestHotelSearch_CapsResults(t *testing.T) {
	serp := &fakeSerp{}
	h := newTestServer(t, Options{Tools: newRunner(t, serp)})

	rr := do(t, h, http.MethodPost, "/hotels/search", `{"q":"Paris","check_in_date":"2024-07-01","check_out_date":"2024-07-05"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decode(t, rr)["result"].(map[string]any)
	assert.Len(t, result["hotels"], 5)
	assert.Equal(t, "1", serp.params[0].Get("rooms"))
}

func TestHotelSearch_ValidationErrors(t *testing.T) {
	h := newTestServer(t, Options{Tools: newRunner(t, &fakeSerp{})})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing q", body: `{"check_in_date":"2024-07-01","check_out_date":"2024-07-05"}`},
		{name: "missing dates", body: `{"q":"Paris"}`},
		{name: "malformed json", body: `{"q":`},
		{name: "empty body", body: ""},
		{name: "wrong type", body: `{"q":"Paris","check_in_date":"2024-07-01","check_out_date":"2024-07-05","adults":"two"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/hotels/search", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.NotEmpty(t, decode(t, rr)["detail"])
		})
	}
}

func TestSearch_ToolFailureIs500(t *testing.T) {
	h := newTestServer(t, Options{Tools: failingTools{}})

	rr := do(t, h, http.MethodPost, "/hotels/search", `{"q":"Rome","check_in_date":"2024-07-01","check_out_date":"2024-07-03"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error searching hotels: boom", decode(t, rr)["detail"])

	rr = do(t, h, http.MethodPost, "/flights/search", `{}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error searching flights: boom", decode(t, rr)["detail"])
}

func TestWrongMethod(t *testing.T) {
	h := newTestServer(t, Options{Tools: failingTools{}})

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/flights/search", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/health", "").Code)
}

func TestChat(t *testing.T) {
	chat := new(mockChatter)
	chat.On("Run", mock.Anything, "sess-42", "Hotels in Rome?").Return("Here are five hotels.", nil).Once()
	h := newTestServer(t, Options{Chat: chat})

	rr := do(t, h, http.MethodPost, "/v1/chat", `{"session_id":"sess-42","message":"Hotels in Rome?"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"session_id": "sess-42", "response": "Here are five hotels."}, decode(t, rr))
	chat.AssertExpectations(t)
}

func TestChat_AssignsSessionID(t *testing.T) {
	chat := new(mockChatter)
	chat.On("Run", mock.Anything, mock.MatchedBy(func(id string) bool { return strings.HasPrefix(id, "sess_") }), "hi").
		Return("Hello!", nil).Once()
	h := newTestServer(t, Options{Chat: chat})

	rr := do(t, h, http.MethodPost, "/v1/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(decode(t, rr)["session_id"].(string), "sess_"))
	chat.AssertExpectations(t)
}

func TestChat_Errors(t *testing.T) {
	chat := new(mockChatter)
	chat.On("Run", mock.Anything, "s1", "cancel me").Return("", apperrors.Transient("run cancelled")).Once()
	h := newTestServer(t, Options{Chat: chat})

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/v1/chat", `{"message":"  "}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"cancel me"}`).Code)
	chat.AssertExpectations(t)
}

func TestOptionalRoutes(t *testing.T) {
	voice := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("# metrics")) })

	h := newTestServer(t, Options{Voice: voice, MetricsEnabled: true, MetricsHandler: metrics})
	assert.Equal(t, http.StatusTeapot, do(t, h, http.MethodGet, "/v1/voice", "").Code)
	rr := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, "# metrics", rr.Body.String())

	bare := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodGet, "/v1/voice", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodPost, "/v1/chat", `{"message":"hi"}`).Code)
}
