package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error sentinel values
var (
	ErrBadRequest      = errors.New("malformed request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInternal        = errors.New("internal server error")
	ErrDuplicateTitle  = errors.New("a blog with this title already exists")
	ErrRouteNotFound   = errors.New("route not found")
)

type ApiErr struct {
	StatusCode int
	err        error
	Details    string // Additional details about the error
	Field      string // Field that caused the error (for validation errors)
	Cause      error  // The underlying cause of the error
}

func NewApiErr(statusCode int, message string) *ApiErr {
	return &ApiErr{
		StatusCode: statusCode,
		err:        errors.New(message),
	}
}

// implements error interface. this allows us to pass an instance of ApiErr as an argument of type `error`
func (e *ApiErr) Error() string {
	return e.err.Error()
}

// GetFullError returns a recursive error message including details and all causes
func (e *ApiErr) GetFullError() string {
	msg := e.Error()
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Cause != nil {
		// Check if the cause is also an ApiErr for recursive error handling
		var apiErr *ApiErr
		if errors.As(e.Cause, &apiErr) {
			msg = fmt.Sprintf("%s -> %s", msg, apiErr.GetFullError())
		} else {
			msg = fmt.Sprintf("%s -> %s", msg, e.Cause.Error())
		}
	}
	return msg
}

// this function allows us to do the following:
// err := &ApiErr{StatusCode: ..., err: someSentinelError}
// errors.Is(err, someSentinelError) ==> evaluates to true
func (e *ApiErr) Unwrap() error {
	return e.err
}

// BadRequest reports invalid input. message is returned to the caller verbatim.
func BadRequest(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        &messageErr{msg: message, kind: ErrBadRequest},
	}
}

func NewInvalidFieldError(fieldName string, message string) *ApiErr {
	e := BadRequest(message)
	e.Field = fieldName
	return e
}

// Unauthorized is a rejected sign-in. It never carries account details.
func Unauthorized() *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrUnauthorized}
}

// Unauthenticated is a request without a valid session.
func Unauthenticated() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        &messageErr{msg: "Not authenticated", kind: ErrUnauthenticated},
	}
}

func NewRouteNotFound() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        &messageErr{msg: "Route not found", kind: ErrRouteNotFound},
	}
}

func NewDuplicateTitle(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        &messageErr{msg: "A blog with this title already exists. Please use a different title.", kind: ErrDuplicateTitle},
		Field:      "title",
		Cause:      cause,
	}
}

func NewInternalErrorWithCause(message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        &messageErr{msg: message, kind: ErrInternal},
		Cause:      cause,
	}
}

func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateTitle(err error) bool {
	return errors.Is(err, ErrDuplicateTitle)
}

// messageErr keeps a caller-facing message while still matching its sentinel.
type messageErr struct {
	msg  string
	kind error
}

func (e *messageErr) Error() string { return e.msg }

func (e *messageErr) Unwrap() error { return e.kind }
