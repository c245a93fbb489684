package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/schema"
	"github.com/roach88/ndcstatic/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*Server
	metrics *Metrics
	logs    *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	doc, err := schema.Default()
	require.NoError(t, err)

	metrics := NewMetrics(nil)
	exec := engine.New(testutil.Store(t), engine.WithHook(metrics))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	s, err := New(exec, doc,
		WithLogger(logger),
		WithMetrics(metrics),
		WithRequestIDs(testutil.NewFixedRequestIDs("req-1")),
	)
	require.NoError(t, err)
	return &testServer{Server: s, metrics: metrics, logs: &logs}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const exampleQuery = `{
  "collection": "articles",
  "collection_relationships": {},
  "query": {
    "fields": {
      "id": {"type": "column", "column": "id"},
      "title": {"type": "column", "column": "title"}
    },
    "where": {
      "type": "binary_comparison_operator",
      "column": {"type": "column", "name": "author_id"},
      "operator": {"type": "equal"},
      "value": {"type": "scalar", "value": 1}
    },
    "order_by": {"elements": [
      {"target": {"type": "column", "name": "id"}, "order_direction": "desc"}
    ]}
  }
}`

func TestNew_RequiresExecutorAndDocument(t *testing.T) {
	doc, err := schema.Default()
	require.NoError(t, err)

	_, err = New(nil, doc)
	assert.Error(t, err)

	_, err = New(engine.New(testutil.Store(t)), nil)
	assert.Error(t, err)
}

func TestStaticRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Greeting, rec.Body.String())

	rec = ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCapabilitiesAndSchema(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, string(ts.doc.CapabilitiesJSON()), rec.Body.String())

	rec = ts.do(http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(ts.doc.SchemaJSON()), rec.Body.String())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Contains(t, decoded, "collections")
}

func TestQuery_Example(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/query", exampleQuery)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `[{"rows":[{"id":11,"title":"B"},{"id":10,"title":"A"}]}]`, rec.Body.String())
}

func TestQuery_Relationship(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/query", `{
  "collection": "articles",
  "collection_relationships": {
    "author": {
      "relationship_type": "object",
      "target_collection": "authors",
      "column_mapping": {"author_id": "id"}
    }
  },
  "query": {
    "fields": {
      "title": {"type": "column", "column": "title"},
      "author": {"type": "relationship", "relationship": "author",
        "query": {"fields": {"last_name": {"type": "column", "column": "last_name"}}}}
    },
    "where": {
      "type": "binary_comparison_operator",
      "column": {"type": "column", "name": "id"},
      "operator": {"type": "equal"},
      "value": {"type": "scalar", "value": 12}
    }
  }
}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `[{"rows":[{"title":"C","author":{"rows":[{"last_name":"Turing"}]}}]}]`, rec.Body.String())
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "or predicate",
			body:   `{"collection":"articles","query":{"where":{"type":"or","expressions":[]}}}`,
			status: http.StatusNotImplemented,
			code:   "UNSUPPORTED_EXPRESSION",
		},
		{
			name:   "unknown collection",
			body:   `{"collection":"editors","query":{}}`,
			status: http.StatusBadRequest,
			code:   "UNKNOWN_COLLECTION",
		},
		{
			name: "unknown relationship",
			body: `{"collection":"authors","query":{"fields":{
				"a":{"type":"relationship","relationship":"nope","query":{}}}}}`,
			status: http.StatusBadRequest,
			code:   "UNKNOWN_RELATIONSHIP",
		},
		{
			name: "like on an int column",
			body: `{"collection":"articles","query":{"where":{"type":"binary_comparison_operator",
				"column":{"type":"column","name":"id"},"operator":{"type":"other","name":"like"},
				"value":{"type":"scalar","value":"1"}}}}`,
			status: http.StatusUnprocessableEntity,
			code:   "TYPE_MISMATCH",
		},
		{
			name: "pattern does not compile",
			body: `{"collection":"articles","query":{"where":{"type":"binary_comparison_operator",
				"column":{"type":"column","name":"title"},"operator":{"type":"other","name":"like"},
				"value":{"type":"scalar","value":"("}}}}`,
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_PATTERN",
		},
		{
			name: "variable value",
			body: `{"collection":"articles","query":{"where":{"type":"binary_comparison_operator",
				"column":{"type":"column","name":"id"},"operator":{"type":"equal"},
				"value":{"type":"variable","name":"x"}}}}`,
			status: http.StatusNotImplemented,
			code:   "UNSUPPORTED_VALUE_KIND",
		},
		{
			name:   "not JSON",
			body:   `{"collection":`,
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "missing query",
			body:   `{"collection":"articles"}`,
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "where without type",
			body:   `{"collection":"articles","query":{"where":{"expressions":[]}}}`,
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name: "float scalar",
			body: `{"collection":"articles","query":{"where":{"type":"binary_comparison_operator",
				"column":{"type":"column","name":"id"},"operator":{"type":"equal"},
				"value":{"type":"scalar","value":1.5}}}}`,
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(http.MethodPost, "/query", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestQuery_SchemaViolationsAreListed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/query", `{"collection":"","query":{}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Contains(t, body.Details["errors"], "collection")
}

func TestNotImplementedRoutes(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/mutation", "/mutations", "/explain"} {
		rec := ts.do(http.MethodPost, path, `{}`)
		assert.Equal(t, http.StatusNotImplemented, rec.Code, path)
		assert.Equal(t, CodeNotImplemented, decodeError(t, rec).Code, path)
	}
}

func TestNoRoute(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/example/hello", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeNotFound, body.Code)
	assert.Equal(t, "no route for GET /example/hello", body.Message)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, ts.logs.String(), "request_id=req-1")
	assert.Contains(t, ts.logs.String(), "path=/healthz")
	assert.Contains(t, ts.logs.String(), "status=200")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "from-client")
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, "from-client", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog_ErrorsAreLogged(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodPost, "/query", `{"collection":"editors","query":{}}`)

	assert.Contains(t, ts.logs.String(), "status=400")
	assert.Contains(t, ts.logs.String(), `collection \"editors\" not found`)
}

func TestUUIDv7Generator(t *testing.T) {
	a := UUIDv7Generator{}.Generate()
	b := UUIDv7Generator{}.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodPost, "/query", exampleQuery)
	ts.do(http.MethodPost, "/query", `{"collection":"articles","query":{"where":{"type":"or","expressions":[]}}}`)
	ts.do(http.MethodGet, "/nowhere", "")

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()

	assert.Contains(t, text, `ndcstatic_http_requests_total{method="POST",path="/query",status="200"} 1`)
	assert.Contains(t, text, `ndcstatic_http_requests_total{method="POST",path="/query",status="501"} 1`)
	assert.Contains(t, text, `ndcstatic_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.Contains(t, text, `ndcstatic_query_errors_total{code="UNSUPPORTED_EXPRESSION"} 1`)
	assert.Contains(t, text, "ndcstatic_query_rows_scanned_sum 3")
	assert.Contains(t, text, "ndcstatic_query_rows_returned_sum 2")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code engine.ErrorCode
		want int
	}{
		{engine.ErrCodeInvalidRequest, http.StatusBadRequest},
		{engine.ErrCodeUnknownCollection, http.StatusBadRequest},
		{engine.ErrCodeUnknownRelationship, http.StatusBadRequest},
		{engine.ErrCodeTypeMismatch, http.StatusUnprocessableEntity},
		{engine.ErrCodeInvalidPattern, http.StatusUnprocessableEntity},
		{engine.ErrCodeUnsupportedExpression, http.StatusNotImplemented},
		{engine.ErrCodeUnsupportedColumnReference, http.StatusNotImplemented},
		{engine.ErrCodeUnsupportedValueKind, http.StatusNotImplemented},
		{engine.ErrCodeUnsupportedOperator, http.StatusNotImplemented},
		{engine.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.code), tt.code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ts.Serve(ctx, ln, time.Second, time.Second)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
