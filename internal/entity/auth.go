package entity

import (
	"encoding/json"
	"fmt"
)

type AuthType string

const (
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
)

// Auth is a closed sum over the supported authentication schemes. On disk it
// is a flattened object with a "type" discriminator; the tag is checked before
// the payload shape is decoded.
type Auth struct {
	Type   AuthType
	Basic  *BasicAuth
	Bearer *BearerAuth
	APIKey *APIKeyAuth
}

type BasicAuth struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

type BearerAuth struct {
	Token string `json:"token"`
}

type APIKeyAuth struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

func (a Auth) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case AuthBasic:
		if a.Basic == nil {
			return nil, fmt.Errorf("auth type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Password string   `json:"password"`
			Type     AuthType `json:"type"`
			Username string   `json:"username"`
		}{a.Basic.Password, a.Type, a.Basic.Username})
	case AuthBearer:
		if a.Bearer == nil {
			return nil, fmt.Errorf("auth type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Token string   `json:"token"`
			Type  AuthType `json:"type"`
		}{a.Bearer.Token, a.Type})
	case AuthAPIKey:
		if a.APIKey == nil {
			return nil, fmt.Errorf("auth type %q has no payload", a.Type)
		}
		return json.Marshal(struct {
			Header string   `json:"header"`
			Type   AuthType `json:"type"`
			Value  string   `json:"value"`
		}{a.APIKey.Header, a.Type, a.APIKey.Value})
	default:
		return nil, fmt.Errorf("unknown auth type %q", a.Type)
	}
}

func (a *Auth) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type AuthType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*a = Auth{Type: probe.Type}
	switch probe.Type {
	case AuthBasic:
		var payload BasicAuth
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.Basic = &payload
	case AuthBearer:
		var payload BearerAuth
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.Bearer = &payload
	case AuthAPIKey:
		var payload APIKeyAuth
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.APIKey = &payload
	default:
		return fmt.Errorf("unknown auth type %q", probe.Type)
	}
	return nil
}
