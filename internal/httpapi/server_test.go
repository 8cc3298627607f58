package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/audit"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/validator"
)

type fakeValidator struct {
	broken map[string]validator.RejectionReason
}

func (f *fakeValidator) ValidateMany(_ context.Context, urls []string) []validator.Result {
	out := make([]validator.Result, len(urls))
	for i, u := range urls {
		if reason, ok := f.broken[u]; ok {
			out[i] = validator.Result{URL: u, RejectionReason: reason, HTTPStatus: http.StatusNotFound}
			continue
		}
		out[i] = validator.Result{URL: u, IsValid: true, HTTPStatus: http.StatusOK}
	}
	return out
}

type failingAssembler struct{}

func (failingAssembler) AssembleReport(context.Context, references.Section) (*references.Report, error) {
	return nil, errors.New("registry exploded")
}

type testEnv struct {
	handler http.Handler
	sink    *audit.MemorySink
}

func newTestEnv(t *testing.T, policy references.Policy, broken map[string]validator.RejectionReason) testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	registry := sources.Default()
	v := &fakeValidator{broken: broken}
	a, err := references.NewAssembler(registry, v, references.Config{Policy: policy}, logger)
	require.NoError(t, err)

	sink := audit.NewMemorySink(16)
	srv := NewServer(a, v, registry, audit.NewRecorder(sink, logger), logger)
	return testEnv{handler: srv.Router(), sink: sink}
}

func (e testEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestAssembleAccepted(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, map[string]validator.RejectionReason{
		"https://www.bbc.com/news/gone": validator.ReasonNotFound,
	})

	rec := env.do(t, http.MethodPost, "/v1/references/assemble", `{
		"section_id": "key_developments",
		"sector": "energy",
		"content": "Output fell sharply, though https://www.bbc.com/news/gone disagreed.",
		"citations": [{"url": "https://www.reuters.com/business/energy/opec-cut", "title": "OPEC cuts output"}, "https://www.janes.com/defence-news/item"]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body struct {
		Outcome    string                 `json:"outcome"`
		References []references.Reference `json:"references"`
		Rejections []references.Rejection `json:"rejections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body.Outcome)
	require.Len(t, body.References, 2)
	assert.Equal(t, "https://www.reuters.com/business/energy/opec-cut", body.References[0].URL)
	assert.Equal(t, "OPEC cuts output", body.References[0].Title)
	assert.Equal(t, "Reuters", body.References[0].Source)
	require.Len(t, body.Rejections, 1)
	assert.Equal(t, "not_found", body.Rejections[0].Reason)

	events, err := env.sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "key_developments", events[0].SectionID)
	assert.Equal(t, 2, events[0].Accepted)
}

func TestAssembleNoWorkingReferences(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, map[string]validator.RejectionReason{
		"https://www.bbc.com/news/gone": validator.ReasonNotFound,
	})

	rec := env.do(t, http.MethodPost, "/v1/references/assemble",
		`{"section_id":"outlook","sector":"defense","content":"See https://www.bbc.com/news/gone"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body noWorkingReferencesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_working_references", body.Error)
	assert.Equal(t, "outlook", body.SectionID)
	assert.Equal(t, 1, body.Candidates)
	require.Len(t, body.Rejections, 1)
	assert.Equal(t, "https://www.bbc.com/news/gone", body.Rejections[0].URL)

	events, err := env.sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "no_working_references", events[0].Outcome)
}

func TestAssembleFallbackPolicyOverride(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, nil)

	rec := env.do(t, http.MethodPost, "/v1/references/assemble",
		`{"section_id":"outlook","sector":"defense","content":"No links here.","policy":"fallback"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body assembleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, references.OutcomeSectorDefaults, body.Outcome)
	assert.Len(t, body.References, 4)
}

func TestAssembleFallbackEmptyIsArray(t *testing.T) {
	env := newTestEnv(t, references.PolicyFallback, nil)

	rec := env.do(t, http.MethodPost, "/v1/references/assemble",
		`{"section_id":"outlook","sector":"agriculture","content":"No links here."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"references":[]`)
}

func TestAssembleBadRequests(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"section_id":`},
		{"unknown policy", `{"content":"x","policy":"lenient"}`},
		{"bad citation shape", `{"content":"x","citations":[42]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/references/assemble", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"bad_request"`)
		})
	}
	events, err := env.sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAssembleInternalError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	srv := NewServer(failingAssembler{}, &fakeValidator{}, sources.Default(), nil, logger)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/references/assemble", strings.NewReader(`{"content":"x"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "registry exploded")
}

func TestValidateEndpoint(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, map[string]validator.RejectionReason{
		"https://example.com/b": validator.ReasonNotFound,
	})

	rec := env.do(t, http.MethodPost, "/v1/references/validate", `{"urls":["https://example.com/a","https://example.com/b"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "https://example.com/a", body.Results[0].URL)
	assert.True(t, body.Results[0].IsValid)
	assert.Equal(t, validator.ReasonNotFound, body.Results[1].RejectionReason)

	urls := make([]string, maxValidateURLs+1)
	for i := range urls {
		urls[i] = "https://example.com/x"
	}
	payload, err := json.Marshal(validateRequest{URLs: urls})
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/v1/references/validate", string(payload))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupEndpoint(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, nil)

	rec := env.do(t, http.MethodGet, "/v1/sources/lookup?url=https://www.reuters.com/world/x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var desc sources.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	assert.Equal(t, "Reuters", desc.DisplayName)
	assert.Equal(t, sources.CategoryNews, desc.Category)

	rec = env.do(t, http.MethodGet, "/v1/sources/lookup?url=https://unknown.example.org/a", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	assert.Equal(t, sources.ExternalSourceName, desc.DisplayName)

	rec = env.do(t, http.MethodGet, "/v1/sources/lookup", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentAuditEndpoint(t *testing.T) {
	env := newTestEnv(t, references.PolicyFallback, nil)
	for _, id := range []string{"a", "b", "c"} {
		rec := env.do(t, http.MethodPost, "/v1/references/assemble", `{"section_id":"`+id+`","sector":"energy","content":""}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/v1/audit/recent?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []audit.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, "c", body.Events[0].SectionID)
	assert.Equal(t, "sector_defaults", body.Events[0].Outcome)

	rec = env.do(t, http.MethodGet, "/v1/audit/recent?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	env := newTestEnv(t, references.PolicyStrict, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/sources/lookup?url=https://www.janes.com/a", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = env.do(t, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
