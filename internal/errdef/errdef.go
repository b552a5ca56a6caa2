package errdef

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeNotFound      Code = "not_found"
	CodeExists        Code = "already_exists"
	CodeSchema        Code = "schema_mismatch"
	CodeSerialization Code = "serialization"
	CodeFilesystem    Code = "filesystem"
	CodeInvalid       Code = "invalid_structure"
	CodeParse         Code = "parse"
	CodeHTTP          Code = "http"
	CodeHistory       Code = "history"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf walks the wrap chain and returns the outermost code.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Message returns a display string without the repeated wrap prefixes that
// Error() accumulates on deep chains.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if !errors.As(err, &coded) {
		return err.Error()
	}
	parts := []string{coded.Msg}
	inner := coded.Err
	for inner != nil {
		var next *Error
		if errors.As(inner, &next) {
			parts = append(parts, next.Msg)
			inner = next.Err
			continue
		}
		parts = append(parts, inner.Error())
		break
	}
	return strings.Join(parts, ": ")
}
