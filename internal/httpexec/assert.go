package httpexec

import (
	"fmt"
	"strings"

	"github.com/vortexhq/vortex/internal/entity"
)

// AssertionResult reports one stored test expectation against the received
// response. Detail is only set on failure.
type AssertionResult struct {
	Type   entity.AssertionType
	Passed bool
	Detail string
}

func evaluateAssertions(tests []entity.Assertion, resp *Response) []AssertionResult {
	if len(tests) == 0 {
		return nil
	}

	results := make([]AssertionResult, 0, len(tests))
	for _, test := range tests {
		results = append(results, evaluateAssertion(test, resp))
	}
	return results
}

func evaluateAssertion(test entity.Assertion, resp *Response) AssertionResult {
	result := AssertionResult{Type: test.Type}

	switch test.Type {
	case entity.AssertStatus:
		if test.Status == nil {
			result.Detail = "status assertion has no payload"
			return result
		}
		if resp.StatusCode == test.Status.Equals {
			result.Passed = true
			return result
		}
		result.Detail = fmt.Sprintf("expected status %d, got %d", test.Status.Equals, resp.StatusCode)
	case entity.AssertHeader:
		if test.Header == nil {
			result.Detail = "header assertion has no payload"
			return result
		}
		got := resp.Headers.Get(test.Header.Name)
		if got == test.Header.Equals {
			result.Passed = true
			return result
		}
		result.Detail = fmt.Sprintf("expected header %s=%q, got %q", test.Header.Name, test.Header.Equals, got)
	case entity.AssertBodyContains:
		if test.BodyContains == nil {
			result.Detail = "body assertion has no payload"
			return result
		}
		if strings.Contains(string(resp.Body), test.BodyContains.Value) {
			result.Passed = true
			return result
		}
		result.Detail = fmt.Sprintf("body does not contain %q", test.BodyContains.Value)
	default:
		result.Detail = fmt.Sprintf("unknown assertion type %q", test.Type)
	}
	return result
}
