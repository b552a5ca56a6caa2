// Package entity holds the persisted data shapes. Entities are immutable
// value objects: repositories create and load them, callers pass them back
// into save/update operations, and nothing mutates them in the background.
//
// Struct fields are declared in alphabetical json-key order on purpose - the
// canonical serializer emits struct fields in declaration order, and the
// on-disk format requires alphabetical keys.
package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CurrentSchemaVersion is the newest persisted schema this build understands.
// Loading a document with a higher version fails instead of downgrade-reading.
const CurrentSchemaVersion = 1

// Variable is one stored variable cell. Disabled variables resolve to
// "not found", never to an empty string.
type Variable struct {
	Enabled bool   `json:"enabled"`
	Value   string `json:"value"`
}

// Manifest is the workspace root document (vortex.json). Collections are
// referenced by relative path, not owned; a collection directory missing from
// the list is inconsistent but not fatal.
type Manifest struct {
	Collections        []string           `json:"collections"`
	DefaultEnvironment string             `json:"default_environment,omitempty"`
	Name               string             `json:"name"`
	SchemaVersion      int                `json:"schema_version"`
	Settings           *WorkspaceSettings `json:"settings,omitempty"`
}

type WorkspaceSettings struct {
	DefaultTimeoutSeconds int  `json:"default_timeout_seconds,omitempty"`
	FollowRedirects       bool `json:"follow_redirects,omitempty"`
}

// Collection metadata (collection.json). Collection variables sit below
// environment variables in resolution precedence.
type Collection struct {
	Auth          *Auth               `json:"auth,omitempty"`
	Description   string              `json:"description,omitempty"`
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	SchemaVersion int                 `json:"schema_version"`
	Variables     map[string]Variable `json:"variables"`
}

// Folder metadata (folder.json). Auth, when present, overrides the
// collection-level auth for requests underneath.
type Folder struct {
	Auth          *Auth    `json:"auth,omitempty"`
	Description   string   `json:"description,omitempty"`
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Order         []string `json:"order"`
	SchemaVersion int      `json:"schema_version"`
}

// Request is a saved request (<slug>.json). The filename is always derivable
// from Name through the slug function.
type Request struct {
	Auth          *Auth             `json:"auth,omitempty"`
	Body          *Body             `json:"body,omitempty"`
	Headers       map[string]string `json:"headers"`
	ID            string            `json:"id"`
	Method        string            `json:"method"`
	Name          string            `json:"name"`
	QueryParams   map[string]string `json:"query_params"`
	SchemaVersion int               `json:"schema_version"`
	Settings      *RequestSettings  `json:"settings,omitempty"`
	Tests         []Assertion       `json:"tests"`
	URL           string            `json:"url"`
}

type RequestSettings struct {
	FollowRedirects *bool `json:"follow_redirects,omitempty"`
	TimeoutSeconds  int   `json:"timeout_seconds,omitempty"`
}

// Environment is a named variable set (environments/<slug>.json).
type Environment struct {
	Name          string              `json:"name"`
	SchemaVersion int                 `json:"schema_version"`
	Variables     map[string]Variable `json:"variables"`
}

// Secrets is the per-workspace secret store (.vortex/secrets.json), keyed by
// lowercased environment name. It never travels with version-controlled
// collection data.
type Secrets struct {
	SchemaVersion int                          `json:"schema_version"`
	Secrets       map[string]map[string]string `json:"secrets"`
}

var httpMethods = []any{
	"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "TRACE",
}

func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.SchemaVersion, validation.Required, validation.Min(1), validation.Max(CurrentSchemaVersion)),
	)
}

func (c Collection) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.SchemaVersion, validation.Required, validation.Min(1), validation.Max(CurrentSchemaVersion)),
	)
}

func (f Folder) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.SchemaVersion, validation.Required, validation.Min(1), validation.Max(CurrentSchemaVersion)),
	)
}

func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Method, validation.Required, validation.In(httpMethods...)),
		validation.Field(&r.URL, validation.Required),
		validation.Field(&r.SchemaVersion, validation.Required, validation.Min(1), validation.Max(CurrentSchemaVersion)),
	)
}

func (e Environment) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.SchemaVersion, validation.Required, validation.Min(1), validation.Max(CurrentSchemaVersion)),
	)
}

// Timeout returns the effective request timeout, falling back to def when the
// request carries no override.
func (r Request) Timeout(def time.Duration) time.Duration {
	if r.Settings == nil || r.Settings.TimeoutSeconds <= 0 {
		return def
	}
	return time.Duration(r.Settings.TimeoutSeconds) * time.Second
}
