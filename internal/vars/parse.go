package vars

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Reference is a single {{name}} occurrence inside a template string.
// Start and End are byte offsets of the whole token, delimiters included.
type Reference struct {
	Name    string
	Builtin bool
	Start   int
	End     int
}

// ParseVariables scans input left to right and returns every {{name}} token.
// The first }} after an opening {{ always closes the reference; braces are not
// counted recursively. Empty or whitespace-only names are skipped, and an
// unterminated {{ ends the scan with whatever was already found.
func ParseVariables(input string) []Reference {
	var refs []Reference
	pos := 0
	for pos+len(openDelim) <= len(input) {
		open := strings.Index(input[pos:], openDelim)
		if open < 0 {
			break
		}
		open += pos

		rest := open + len(openDelim)
		closing := strings.Index(input[rest:], closeDelim)
		if closing < 0 {
			break
		}
		closing += rest

		end := closing + len(closeDelim)
		name := strings.TrimSpace(input[rest:closing])
		if name != "" {
			refs = append(refs, Reference{
				Name:    name,
				Builtin: strings.HasPrefix(name, "$"),
				Start:   open,
				End:     end,
			})
		}
		pos = end
	}
	return refs
}

// HasVariables is a cheap pre-check for template syntax. It only tests that
// both delimiters appear somewhere, so "}} {{" reports true even though the
// parser finds nothing in it.
func HasVariables(s string) bool {
	return strings.Contains(s, openDelim) && strings.Contains(s, closeDelim)
}

func ExtractVariableNames(s string) []string {
	refs := ParseVariables(s)
	if len(refs) == 0 {
		return nil
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

// IsValidVariableName reports whether s can be used as a variable name: an
// optional leading $, then a letter or underscore, then letters, digits,
// underscores or hyphens. A bare "$" or an empty string is invalid.
func IsValidVariableName(s string) bool {
	name := strings.TrimPrefix(s, "$")
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if i == 0 {
			if !isNameStart(ch) {
				return false
			}
			continue
		}
		if !isNameChar(ch) {
			return false
		}
	}
	return true
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || ch == '-' || (ch >= '0' && ch <= '9')
}
