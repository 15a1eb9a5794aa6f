// Package testutil provides common test utilities and helpers for HerSpace tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/HerSpace/internal/api"
	"github.com/BTreeMap/HerSpace/internal/flow"
	"github.com/BTreeMap/HerSpace/internal/prompt"
	"github.com/BTreeMap/HerSpace/internal/store"
)

// TestCredential is accepted by FakeCompleter unless ValidateErr is set.
const TestCredential = "test-key"

// FixedTime is the clock reading used by NewTestServer.
var FixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// FakeCompleter is a scripted completion service. It is safe for concurrent use.
type FakeCompleter struct {
	mu          sync.Mutex
	Reply       string
	Err         error
	ValidateErr error
	Prompts     []string
	credentials []string
}

func (f *FakeCompleter) Complete(ctx context.Context, credential, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, p)
	f.credentials = append(f.credentials, credential)
	return f.Reply, f.Err
}

func (f *FakeCompleter) ValidateCredential(ctx context.Context, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ValidateErr
}

// Calls returns how many completions were requested.
func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// Credentials returns the credential passed to each completion, in call order.
func (f *FakeCompleter) Credentials() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.credentials...)
}

// SectionReply returns a model reply carrying every section, each body prefixed.
func SectionReply(prefix string) string {
	var b strings.Builder
	for _, s := range prompt.Sections {
		fmt.Fprintf(&b, "%s\n%s %s\n%s\n", s.StartMarker(), prefix, s.Key(), s.EndMarker())
	}
	return b.String()
}

// NewTestServer creates an API server over an in-memory store.
// videos and finder may be nil.
func NewTestServer(c flow.Completer, videos flow.VideoSearcher, finder api.TherapistFinder) (*api.Server, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	clock := func() time.Time { return FixedTime }
	w := flow.NewWizard(c, videos, flow.WithClock(clock))
	return api.NewServer(w, st, finder, api.WithClock(clock)), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	assert.Equal(t, expected, actual, "%s: unexpected HTTP status", context)
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response), "failed to decode JSON response")

	status, ok := response["status"].(string)
	if assert.True(t, ok, "response missing or invalid 'status' field") {
		assert.Equal(t, expectedStatus, status)
	}
	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		reqBody = bytes.NewBuffer(MustMarshalJSON(t, body))
	}
	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err, "failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// Do serves one request against h and returns the recorded response.
func Do(t testing.TB, h http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, CreateHTTPRequest(t, method, url, body))
	return rr
}

// DecodeResult decodes the result field of an API envelope into target and returns the
// envelope status and message.
func DecodeResult(t testing.TB, rr *httptest.ResponseRecorder, target interface{}) (status, message string) {
	t.Helper()
	var env struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	MustUnmarshalJSON(t, rr.Body.Bytes(), &env)
	if target != nil && len(env.Result) > 0 {
		MustUnmarshalJSON(t, env.Result, target)
	}
	return env.Status, env.Message
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err, "failed to marshal JSON")
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t testing.TB, data []byte, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, target), "failed to unmarshal JSON")
}
