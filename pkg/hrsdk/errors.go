package hrsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeConflict           = "conflict"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError - backend reported failure
// ============================================================================

// APIError is a non-2xx response from the HR backend.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"code"`

	// Message is the backend's human-readable message, possibly empty
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hrsdk: %s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("hrsdk: %s: %s", e.Code, e.Message)
}

// ============================================================================
// NetworkError - transport failure
// ============================================================================

// NetworkError wraps timeouts and connection failures. It never carries a
// response, the request didn't make it.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("hrsdk: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ============================================================================
// Classification helpers
// ============================================================================

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsInvalidCredentials reports a rejected email/password pair.
func IsInvalidCredentials(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == ErrorCodeInvalidCredentials
}

// IsUnauthorized reports rejected or expired tokens (and bad credentials).
func IsUnauthorized(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.StatusCode == http.StatusUnauthorized ||
		ae.Code == ErrorCodeUnauthorized ||
		ae.Code == ErrorCodeInvalidCredentials
}

// ============================================================================
// Error Parsing
// ============================================================================

// errorBody covers the shapes the backend uses for failures: our own
// {code,message}, {error,message} and ASP.NET problem details {title,detail}.
type errorBody struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
}

// parseErrorResponse turns a non-2xx response into an APIError. Returns nil
// for 2xx.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       codeForStatus(resp.StatusCode),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Code != "":
			apiErr.Code = eb.Code
		case eb.Error != "":
			apiErr.Code = eb.Error
		}

		switch {
		case eb.Message != "":
			apiErr.Message = eb.Message
		case eb.Detail != "":
			apiErr.Message = eb.Detail
		case eb.Title != "":
			apiErr.Message = eb.Title
		}
	}

	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrorCodeValidation
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusConflict:
		return ErrorCodeConflict
	default:
		return ErrorCodeServerError
	}
}
