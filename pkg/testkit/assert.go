package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wildcard in an expected response matches any actual value.
const Wildcard = "*"

func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch\nbody: %s", s.Name, body)
}

// AssertJSONBody compares decoded JSON so key order and whitespace never
// matter. Positions holding Wildcard in expected are not compared.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var exp, act any
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expected response file is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] actual response is not valid JSON\nbody: %s", s.Name, actual) {
		return
	}

	assert.Equal(t, exp, mask(exp, act), "[%s] response body mismatch", s.Name)
}

func AssertMocksAllCalled(t *testing.T, s *Scenario, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.AssertAllCalled() {
		assert.NoError(t, err, "[%s] calls made: %v", s.Name, mt.Calls())
	}
}

// mask copies act, replacing every value whose counterpart in exp is the
// wildcard.
func mask(exp, act any) any {
	if w, ok := exp.(string); ok && w == Wildcard {
		return Wildcard
	}

	switch e := exp.(type) {
	case map[string]any:
		a, ok := act.(map[string]any)
		if !ok {
			return act
		}
		out := make(map[string]any, len(a))
		for k, v := range a {
			if ev, ok := e[k]; ok {
				out[k] = mask(ev, v)
			} else {
				out[k] = v
			}
		}
		return out
	case []any:
		a, ok := act.([]any)
		if !ok {
			return act
		}
		out := make([]any, len(a))
		for i, v := range a {
			if i < len(e) {
				out[i] = mask(e[i], v)
			} else {
				out[i] = v
			}
		}
		return out
	default:
		return act
	}
}
