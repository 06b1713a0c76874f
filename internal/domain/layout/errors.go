package layout

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error category returned to editing clients.
type Code string

const (
	CodeUnauthorized       Code = "unauthorized"
	CodeNotFound           Code = "not_found"
	CodeLocked             Code = "locked"
	CodeValidation         Code = "validation_error"
	CodePersistence        Code = "persistence_error"
	CodeUpload             Code = "upload_error"
	CodeConsistencyWarning Code = "consistency_warning"
)

// Sentinels for errors.Is checks. An *Error matches the sentinel of its Code.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrLocked             = errors.New("locked")
	ErrValidation         = errors.New("validation failed")
	ErrPersistence        = errors.New("persistence failure")
	ErrUpload             = errors.New("artifact upload failed")
	ErrConsistencyWarning = errors.New("consistency warning")
)

var sentinels = map[Code]error{
	CodeUnauthorized:       ErrUnauthorized,
	CodeNotFound:           ErrNotFound,
	CodeLocked:             ErrLocked,
	CodeValidation:         ErrValidation,
	CodePersistence:        ErrPersistence,
	CodeUpload:             ErrUpload,
	CodeConsistencyWarning: ErrConsistencyWarning,
}

type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func E(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

func NotFound(op, format string, args ...any) *Error {
	return E(CodeNotFound, op, fmt.Errorf(format, args...))
}

func Locked(op, format string, args ...any) *Error {
	return E(CodeLocked, op, fmt.Errorf(format, args...))
}

func Invalid(op, format string, args ...any) *Error {
	return E(CodeValidation, op, fmt.Errorf(format, args...))
}

func Persistence(op string, err error) *Error {
	return E(CodePersistence, op, err)
}

// CodeOf reports the taxonomy code carried by err. Untyped errors are
// treated as persistence failures.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	for code, s := range sentinels {
		if errors.Is(err, s) {
			return code
		}
	}
	return CodePersistence
}
