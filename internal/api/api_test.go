package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/HerSpace/internal/api"
	"github.com/BTreeMap/HerSpace/internal/flow"
	"github.com/BTreeMap/HerSpace/internal/models"
	"github.com/BTreeMap/HerSpace/internal/places"
	"github.com/BTreeMap/HerSpace/internal/testutil"
)

type fakeVideos struct {
	queries []string
}

func (f *fakeVideos) Search(ctx context.Context, query string, max int64) []models.Video {
	f.queries = append(f.queries, query)
	return []models.Video{{Title: "Finding calm", VideoID: "abc123"}}
}

type fakeFinder struct {
	res     places.Result
	err     error
	address string
	at      *models.Location
	radius  float64
}

func (f *fakeFinder) Find(ctx context.Context, address string, at *models.Location, radiusMiles float64) (places.Result, error) {
	f.address, f.at, f.radius = address, at, radiusMiles
	return f.res, f.err
}

func createSession(t *testing.T, h http.Handler) flow.View {
	t.Helper()
	rr := testutil.Do(t, h, http.MethodPost, "/sessions", nil)
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create session")
	var v flow.View
	status, _ := testutil.DecodeResult(t, rr, &v)
	require.Equal(t, "ok", status)
	require.NotEmpty(t, v.SessionID)
	return v
}

func act(t *testing.T, h http.Handler, id string, a flow.Action, wantCode int) flow.View {
	t.Helper()
	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/actions", a)
	testutil.AssertHTTPStatus(t, wantCode, rr.Code, "action "+string(a.Kind))
	var v flow.View
	testutil.DecodeResult(t, rr, &v)
	return v
}

func validate(t *testing.T, h http.Handler, id string) {
	t.Helper()
	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/credential", api.CredentialRequest{Credential: testutil.TestCredential})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "credential")
}

func TestCreateAndGetSession(t *testing.T) {
	server, st := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	v := createSession(t, h)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, 9, v.TotalSteps)
	_, err := st.GetSession(context.Background(), v.SessionID)
	assert.NoError(t, err, "session not stored")

	rr := testutil.Do(t, h, http.MethodGet, "/sessions/"+v.SessionID, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get session")
	var got flow.View
	testutil.DecodeResult(t, rr, &got)
	assert.Equal(t, v.SessionID, got.SessionID)
	assert.Equal(t, models.StepWelcome, got.Name)
}

func TestUnknownSession(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/sessions/nope"},
		{http.MethodPost, "/sessions/nope/agent"},
		{http.MethodGet, "/sessions/nope/videos"},
	} {
		rr := testutil.Do(t, h, tc.method, tc.path, nil)
		testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, tc.method+" "+tc.path)
	}
	rr := testutil.Do(t, h, http.MethodPost, "/sessions/nope/actions", flow.Action{Kind: flow.ActionAdvance})
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "action on unknown session")
}

func TestAdvanceWithoutCredentialIsRefused(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID

	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/actions", flow.Action{Kind: flow.ActionAdvance})
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "advance without credential")
	var v flow.View
	status, msg := testutil.DecodeResult(t, rr, &v)
	assert.Equal(t, "error", status)
	assert.Equal(t, models.ErrCredentialRequired.Error(), msg)
	assert.Equal(t, 1, v.Step, "expected to stay on step 1")
}

func TestCredentialHandler(t *testing.T) {
	fc := &testutil.FakeCompleter{}
	server, _ := testutil.NewTestServer(fc, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	path := "/sessions/" + id + "/credential"

	rr := testutil.Do(t, h, http.MethodPost, path, api.CredentialRequest{Credential: "   "})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "empty credential")

	fc.ValidateErr = errors.New("auth failed")
	rr = testutil.Do(t, h, http.MethodPost, path, api.CredentialRequest{Credential: "bad"})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid credential")
	var v flow.View
	_, msg := testutil.DecodeResult(t, rr, &v)
	assert.Equal(t, "Invalid API key. Please check your key and try again.", msg)
	assert.False(t, v.CredentialValidated)

	fc.ValidateErr = nil
	rr = testutil.Do(t, h, http.MethodPost, path, api.CredentialRequest{Credential: testutil.TestCredential})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "valid credential")
	testutil.DecodeResult(t, rr, &v)
	assert.True(t, v.CredentialValidated)

	rr = testutil.Do(t, h, http.MethodPost, path, nil)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing body")
}

func TestCredentialStaysOutOfStore(t *testing.T) {
	fc := &testutil.FakeCompleter{Reply: "Take a breath."}
	server, st := testutil.NewTestServer(fc, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	validate(t, h, id)

	stored, err := st.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, stored.Credential, "store must not receive the credential")
	assert.False(t, stored.CredentialValidated)

	v := act(t, h, id, flow.Action{Kind: flow.ActionAdvance}, http.StatusOK)
	assert.Equal(t, 2, v.Step, "held credential should still unlock the wizard")
	assert.True(t, v.CredentialValidated)

	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/agent", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "agent with held credential")
	assert.Equal(t, []string{testutil.TestCredential}, fc.Credentials())

	stored, err = st.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, stored.Credential)
}

func TestDeleteForgetsCredential(t *testing.T) {
	server, st := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	validate(t, h, id)

	rr := testutil.Do(t, h, http.MethodDelete, "/sessions/"+id, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "delete")

	// A session recreated under the same id starts without a credential.
	require.NoError(t, st.SaveSession(context.Background(), models.NewSession(id, testutil.FixedTime)))
	v := act(t, h, id, flow.Action{Kind: flow.ActionAdvance}, http.StatusConflict)
	assert.Equal(t, 1, v.Step)
	assert.False(t, v.CredentialValidated)
}

func TestActionValidationErrors(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	validate(t, h, id)

	act(t, h, id, flow.Action{Kind: flow.ActionSet, Field: flow.FieldCategory, Value: "Not a topic"}, http.StatusBadRequest)
	act(t, h, id, flow.Action{Kind: "dance"}, http.StatusBadRequest)
	act(t, h, id, flow.Action{Kind: flow.ActionAdvance}, http.StatusOK)
	v := act(t, h, id, flow.Action{Kind: flow.ActionDelete, List: flow.ListThoughts, Index: flow.AtIndex(5)}, http.StatusBadRequest)
	assert.Equal(t, 2, v.Step, "failed action should return the current view")

	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/actions", "not an action")
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "malformed action")
}

func TestDeleteWithoutIndexKeepsEntries(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	validate(t, h, id)
	act(t, h, id, flow.Action{Kind: flow.ActionAdvance}, http.StatusOK)
	act(t, h, id, flow.Action{Kind: flow.ActionAdd, List: flow.ListThoughts, Value: "I deserve rest"}, http.StatusOK)

	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/actions", map[string]string{"kind": "delete", "list": "thoughts"})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "delete without index")

	rr = testutil.Do(t, h, http.MethodGet, "/sessions/"+id, nil)
	var v flow.View
	testutil.DecodeResult(t, rr, &v)
	require.Len(t, v.Lists, 1)
	assert.Equal(t, []string{"I deserve rest"}, v.Lists[0].Custom)
}

func TestFullWizardFlow(t *testing.T) {
	fc := &testutil.FakeCompleter{Reply: testutil.SectionReply("•")}
	vids := &fakeVideos{}
	server, _ := testutil.NewTestServer(fc, vids, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID
	validate(t, h, id)

	v := act(t, h, id, flow.Action{Kind: flow.ActionSet, Field: flow.FieldCategory, Value: "Domestic Violence"}, http.StatusOK)
	require.Equal(t, 1, v.Step)
	act(t, h, id, flow.Action{Kind: flow.ActionSet, Field: flow.FieldSituation, Value: "I feel unsafe at home"}, http.StatusOK)

	fc.Reply = "You are brave for sharing this."
	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/agent", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "agent support")
	var reply api.AgentReply
	testutil.DecodeResult(t, rr, &reply)
	assert.Equal(t, models.StepWelcome, reply.Step)
	assert.Equal(t, "You are brave for sharing this.", reply.Response)
	fc.Reply = testutil.SectionReply("•")

	for i := 0; i < 8; i++ {
		v = act(t, h, id, flow.Action{Kind: flow.ActionAdvance}, http.StatusOK)
	}
	require.Equal(t, 9, v.Step)
	require.Len(t, v.Response, 6)
	assert.NotEmpty(t, v.Response[0].Body)
	assert.Len(t, v.Videos, 1)
	assert.Equal(t, []string{"deal with Domestic Violence problems"}, vids.queries)

	calls := fc.Calls()
	rr = testutil.Do(t, h, http.MethodGet, "/sessions/"+id, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get final view")
	assert.Equal(t, calls, fc.Calls(), "final response should be generated only once")

	rr = testutil.Do(t, h, http.MethodGet, "/sessions/"+id+"/videos", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "videos")
	var got []models.Video
	testutil.DecodeResult(t, rr, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "abc123", got[0].VideoID)
	assert.Len(t, vids.queries, 1, "videos should be cached")

	rr = testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/agent", nil)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "agent on response step")

	v = act(t, h, id, flow.Action{Kind: flow.ActionReset}, http.StatusOK)
	assert.Equal(t, 1, v.Step)
	assert.False(t, v.CredentialValidated, "reset should clear the credential")
}

func TestVideosBeforeResponseIsEmpty(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, &fakeVideos{}, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID

	rr := testutil.Do(t, h, http.MethodGet, "/sessions/"+id+"/videos", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "videos")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	list, ok := resp["result"].([]interface{})
	require.True(t, ok, "expected a list, got %v", resp["result"])
	assert.Empty(t, list)
}

func TestDeleteSession(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID

	rr := testutil.Do(t, h, http.MethodDelete, "/sessions/"+id, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "delete")
	rr = testutil.Do(t, h, http.MethodGet, "/sessions/"+id, nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "get after delete")
}

func TestAgentRequiresCredential(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()
	id := createSession(t, h).SessionID

	rr := testutil.Do(t, h, http.MethodPost, "/sessions/"+id+"/agent", nil)
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "agent without credential")
}

func TestTherapistsHandler(t *testing.T) {
	open := true
	finder := &fakeFinder{res: places.Result{Lat: 43.65, Lng: -79.38, Places: []models.Place{
		{Name: "Calm Counselling", Vicinity: "1 King St", Rating: 4.5, OpenNow: &open},
	}}}
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, finder)
	h := server.Handler()

	rr := testutil.Do(t, h, http.MethodGet, "/therapists?address=Toronto&radius=50", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "address search")
	var res places.Result
	testutil.DecodeResult(t, rr, &res)
	require.Len(t, res.Places, 1)
	assert.Equal(t, "Calm Counselling", res.Places[0].Name)
	assert.Equal(t, "Toronto", finder.address)
	assert.Nil(t, finder.at)
	assert.Equal(t, float64(places.MaxRadiusMiles), finder.radius)

	rr = testutil.Do(t, h, http.MethodGet, "/therapists?lat=43.6&lng=-79.4", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "coordinate search")
	require.NotNil(t, finder.at)
	assert.Equal(t, 43.6, finder.at.Lat)
	assert.Equal(t, float64(places.DefaultRadiusMiles), finder.radius)

	for _, q := range []string{"", "?lat=abc&lng=1", "?lat=1", "?address=x&radius=far"} {
		rr = testutil.Do(t, h, http.MethodGet, "/therapists"+q, nil)
		testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "bad query "+q)
	}
}

func TestTherapistsFailuresShowNotFound(t *testing.T) {
	finder := &fakeFinder{}
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, finder)
	h := server.Handler()

	for _, err := range []error{places.ErrNotFound, errors.New("nearby search: upstream down")} {
		finder.err = err
		rr := testutil.Do(t, h, http.MethodGet, "/therapists?address=Toronto", nil)
		testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, err.Error())
		status, msg := testutil.DecodeResult(t, rr, nil)
		assert.Equal(t, "error", status)
		assert.Equal(t, "Location not found. Please try a different address.", msg)
	}
}

func TestTherapistsWithoutFinder(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	rr := testutil.Do(t, server.Handler(), http.MethodGet, "/therapists?address=Toronto", nil)
	testutil.AssertHTTPStatus(t, http.StatusServiceUnavailable, rr.Code, "no finder")
}

func TestStaticContent(t *testing.T) {
	server, _ := testutil.NewTestServer(&testutil.FakeCompleter{}, nil, nil)
	h := server.Handler()

	rr := testutil.Do(t, h, http.MethodGet, "/resources/crisis", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "crisis")
	var crisis api.CrisisContent
	testutil.DecodeResult(t, rr, &crisis)
	assert.NotEmpty(t, crisis.Intro)
	assert.NotEmpty(t, crisis.Groups)

	rr = testutil.Do(t, h, http.MethodGet, "/faq", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "faq")
	testutil.AssertJSONResponse(t, rr, "ok")

	rr = testutil.Do(t, h, http.MethodPost, "/faq", nil)
	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "wrong method")

	rr = testutil.Do(t, h, http.MethodGet, "/healthz", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "healthz")
}
