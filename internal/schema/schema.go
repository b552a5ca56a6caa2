// Package schema checks on-disk documents against JSON Schemas before they
// are decoded into entities. This catches shape drift (a string
// schema_version, a collections object instead of an array) with a precise
// diagnostic instead of a generic unmarshal error.
package schema

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/vortexhq/vortex/internal/errdef"
)

const manifestSchema = `{
  "type": "object",
  "required": ["collections", "name", "schema_version"],
  "properties": {
    "collections": {"type": "array", "items": {"type": "string"}},
    "default_environment": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "schema_version": {"type": "integer", "minimum": 1},
    "settings": {"type": "object"}
  }
}`

const collectionSchema = `{
  "type": "object",
  "required": ["id", "name", "schema_version", "variables"],
  "properties": {
    "auth": {"type": "object", "required": ["type"]},
    "description": {"type": "string"},
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "schema_version": {"type": "integer", "minimum": 1},
    "variables": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["enabled", "value"],
        "properties": {
          "enabled": {"type": "boolean"},
          "value": {"type": "string"}
        }
      }
    }
  }
}`

const requestSchema = `{
  "type": "object",
  "required": ["headers", "id", "method", "name", "query_params", "schema_version", "url"],
  "properties": {
    "auth": {"type": "object", "required": ["type"]},
    "body": {"type": "object", "required": ["type"]},
    "headers": {"type": "object", "additionalProperties": {"type": "string"}},
    "id": {"type": "string", "minLength": 1},
    "method": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "query_params": {"type": "object", "additionalProperties": {"type": "string"}},
    "schema_version": {"type": "integer", "minimum": 1},
    "tests": {"type": "array"},
    "url": {"type": "string", "minLength": 1}
  }
}`

func VerifyManifest(data []byte) error {
	return verify(data, manifestSchema, "workspace manifest")
}

func VerifyCollection(data []byte) error {
	return verify(data, collectionSchema, "collection")
}

func VerifyRequest(data []byte) error {
	return verify(data, requestSchema, "request")
}

func verify(data []byte, schemaDoc, label string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaDoc),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeSerialization, err, "parse %s", label)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		issues = append(issues, issue.String())
	}
	return errdef.New(errdef.CodeSerialization, "%s is malformed: %s", label, strings.Join(issues, "; "))
}
