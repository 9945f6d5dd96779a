package api

import (
	"errors"
	"net/http"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidParameter     = errors.New("invalid parameter")
)

// HTTPError is an error with a fixed status and client facing code.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details map[string][]string
	Err     error
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error { return e.Err }

func badRequest(msg string, err error) HTTPError {
	return HTTPError{Status: http.StatusBadRequest, Code: "bad_request", Message: msg, Err: err}
}

func invalidParam(name, msg string) HTTPError {
	return HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "validation_error",
		Message: "Invalid request parameters",
		Details: map[string][]string{name: {msg}},
		Err:     ErrInvalidParameter,
	}
}

var errUnauthorized = HTTPError{
	Status:  http.StatusUnauthorized,
	Code:    "unauthorized",
	Message: "Missing or invalid access token",
}
