// Package canonical is the deterministic JSON codec for persisted documents:
// 2-space indentation, alphabetical keys, a single trailing newline, UTF-8
// without BOM. Re-serializing a just-decoded value is byte-identical, which
// keeps version-control diffs stable.
//
// Map keys come out sorted from encoding/json; struct keys follow declaration
// order, and every entity declares its fields alphabetically.
package canonical

import (
	"bytes"
	"encoding/json"

	"github.com/vortexhq/vortex/internal/errdef"
)

// Marshal renders v in canonical form.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errdef.Wrap(errdef.CodeSerialization, err, "encode canonical json")
	}
	// Encode already terminates the document with exactly one newline.
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v. Canonicality is an emission guarantee only;
// any well-formed JSON, minified included, is accepted. Syntax errors and
// shape mismatches come back as serialization errors carrying the underlying
// diagnostic.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errdef.Wrap(errdef.CodeSerialization, err, "decode canonical json")
	}
	return nil
}
