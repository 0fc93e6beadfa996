// Package errors carries numeric error codes through the engine so callers
// can branch on what failed without matching message text.
//
// Codes are grouped by hundreds, see error_code.go. A typical call site:
//
//	if len(bars) == 0 {
//		return errors.Newf(errors.ErrCodeDataNotFound, "no candles for %s on %s", symbol, day)
//	}
//
//	if err := store.Save(ctx, trade); err != nil {
//		return errors.Wrap(errors.ErrCodeWriteFailed, "persist closed trade", err)
//	}
//
// HasCode and GetCode look only at the outermost coded error, so a wrap
// decides the code the caller sees.
package errors

import (
	"errors"
	"fmt"
)

// Error is an error tagged with a code. Cause is optional.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap tags cause with code. A nil cause gives a plain coded error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same code, so a bare New(code, "") can
// serve as a sentinel for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Code == e.Code
}

// GetCode returns the code of the outermost *Error in err's chain, or
// ErrCodeUnknown when there is none.
func GetCode(err error) ErrorCode {
	var coded *Error
	if !errors.As(err, &coded) {
		return ErrCodeUnknown
	}

	return coded.Code
}

func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// InsufficientDataError reports a series lookup that needs more bars than
// the history holds. Indicators return it while a symbol is still warming up.
type InsufficientDataError struct {
	Symbol   string
	Required int
	Actual   int
}

func NewInsufficientDataError(symbol string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{Symbol: symbol, Required: required, Actual: actual}
}

func (e *InsufficientDataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("insufficient history: required %d bars, got %d", e.Required, e.Actual)
	}

	return fmt.Sprintf("insufficient history for %s: required %d bars, got %d", e.Symbol, e.Required, e.Actual)
}

func IsInsufficientDataError(err error) bool {
	var insufficient *InsufficientDataError

	return errors.As(err, &insufficient)
}
