package testkit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
	"github.com/shashiranjanraj/souq/pkg/testkit"
)

// echoUpstream calls the mocked upstream and relays its body.
var echoUpstream = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	resp, err := souqhttp.Get("https://upstream.test/v1/ping").WithContext(r.Context()).Send()
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Raw)
})

func TestRunWithVarsAndMock(t *testing.T) {
	testkit.Run(t, echoUpstream, "testdata/ping.json", testkit.Vars{"token": "secret"})
}

func TestLoadScenarioDefaults(t *testing.T) {
	s, err := testkit.LoadScenario("testdata/ping.json")
	require.NoError(t, err)

	assert.Equal(t, "GET", s.RequestMethod)
	assert.True(t, s.IsMockRequired)
	require.Len(t, s.NetUtilMockStep, 1)
	assert.Equal(t, "GET", s.NetUtilMockStep[0].MatchMethod)
}

func TestMockTransportMatchesMethod(t *testing.T) {
	s := &testkit.Scenario{
		IsMockRequired: true,
		NetUtilMockStep: []testkit.MockStep{{
			Method:      "httprequest",
			IsMock:      true,
			MatchURL:    "https://api.example.com/",
			MatchMethod: "POST",
			ReturnData:  testkit.MockReturnData{StatusCode: 201, Body: "eyJvayI6dHJ1ZX0="},
		}},
	}
	mt := testkit.NewMockTransport(s)

	_, err := mt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://api.example.com/x", nil))
	assert.Error(t, err)

	resp, err := mt.RoundTrip(httptest.NewRequest(http.MethodPost, "https://api.example.com/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, mt.AssertAllCalled())
	assert.Len(t, mt.Calls(), 2)
}

func TestMockTransportReportsUncalledSteps(t *testing.T) {
	mt := testkit.NewMockTransport(&testkit.Scenario{NetUtilMockStep: []testkit.MockStep{
		{Method: "httprequest", IsMock: true, MatchURL: "https://never.test/"},
	}})
	assert.Len(t, mt.AssertAllCalled(), 1)
}

func TestAssertJSONBodyWildcard(t *testing.T) {
	s := &testkit.Scenario{Name: "wildcard"}
	testkit.AssertJSONBody(t, s,
		[]byte(`{"order":{"_id":"*","status":"pending"},"items":["*",2]}`),
		[]byte(`{"items":["abc",2],"order":{"status":"pending","_id":"65f0c0ffee"}}`),
	)
}
