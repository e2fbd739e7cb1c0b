// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario names the request to fire, the expected status and response
// body, and the outgoing HTTP calls to intercept:
//
//	testdata/
//	  checkout_ok.json        scenario
//	  checkout_ok_req.json    request body
//	  checkout_ok_res.json    expected response body
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata", testkit.Vars{"adminToken": tok})
//	}
//
// "{{name}}" placeholders in the URL, headers and request body are replaced
// from Vars. A "*" string in an expected response matches any value.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one REST API test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // relative to the scenario file
	Headers         map[string]string `json:"headers"`

	ResponseFileName string `json:"responseFileName"`
	ExpectedCode     int    `json:"expectedCode"`

	// IsMockRequired fails any outgoing call without a matching step.
	IsMockRequired bool `json:"isMockRequired"`

	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep intercepts one outgoing HTTP call made through pkg/http.
type MockStep struct {
	Method string `json:"method"` // "httprequest"
	IsMock bool   `json:"isMock"`

	// MatchURL is a prefix of the outgoing URL; empty matches any URL.
	MatchURL string `json:"matchUrl"`
	// MatchMethod restricts the step to one HTTP verb; empty matches any.
	MatchMethod string `json:"matchMethod"`

	ReturnData MockReturnData `json:"returnData"`
}

type MockReturnData struct {
	StatusCode int    `json:"statusCode"` // default 200
	Body       string `json:"body"`       // base64
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method == "" {
			return fmt.Errorf("netUtilMockStep[%d].method is required", i)
		}
	}
	return nil
}

func (s *Scenario) RequestBodyPath() string { return s.resolve(s.RequestFileName) }

func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
