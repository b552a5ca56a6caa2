package entity

import (
	"encoding/json"
	"fmt"
)

type AssertionType string

const (
	AssertStatus       AssertionType = "status"
	AssertHeader       AssertionType = "header"
	AssertBodyContains AssertionType = "body_contains"
)

// Assertion is a stored test expectation attached to a request. Execution of
// assertions lives with the caller; this core only persists them.
type Assertion struct {
	Type         AssertionType
	Status       *StatusAssertion
	Header       *HeaderAssertion
	BodyContains *BodyContainsAssertion
}

type StatusAssertion struct {
	Equals int `json:"equals"`
}

type HeaderAssertion struct {
	Equals string `json:"equals"`
	Name   string `json:"name"`
}

type BodyContainsAssertion struct {
	Value string `json:"value"`
}

func (a Assertion) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case AssertStatus:
		if a.Status == nil {
			return nil, fmt.Errorf("assertion type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Equals int           `json:"equals"`
			Type   AssertionType `json:"type"`
		}{a.Status.Equals, a.Type})
	case AssertHeader:
		if a.Header == nil {
			return nil, fmt.Errorf("assertion type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Equals string        `json:"equals"`
			Name   string        `json:"name"`
			Type   AssertionType `json:"type"`
		}{a.Header.Equals, a.Header.Name, a.Type})
	case AssertBodyContains:
		if a.BodyContains == nil {
			return nil, fmt.Errorf("assertion type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Type  AssertionType `json:"type"`
			Value string        `json:"value"`
		}{a.Type, a.BodyContains.Value})
	default:
		return nil, fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (a *Assertion) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type AssertionType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*a = Assertion{Type: probe.Type}
	switch probe.Type {
	case AssertStatus:
		var payload StatusAssertion
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.Status = &payload
	case AssertHeader:
		var payload HeaderAssertion
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.Header = &payload
	case AssertBodyContains:
		var payload BodyContainsAssertion
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.BodyContains = &payload
	default:
		return fmt.Errorf("unknown assertion type %q", probe.Type)
	}
	return nil
}
