package hrsdk

import (
	"errors"
)

// UserMessager is implemented by errors that already carry end-user text
// (local validation errors, for instance).
type UserMessager interface {
	UserMessage() string
}

var defaultMessages = map[string]string{
	ErrorCodeInvalidCredentials: "Invalid email or password.",
	ErrorCodeUnauthorized:       "Your session has expired. Please sign in again.",
	ErrorCodeForbidden:          "You do not have permission to perform this action.",
	ErrorCodeNotFound:           "The requested record was not found.",
	ErrorCodeValidation:         "Some of the submitted fields are invalid.",
	ErrorCodeConflict:           "A conflicting record already exists.",
	ErrorCodeServerError:        "The server could not complete the request. Try again later.",
}

const networkMessage = "Could not reach the server. Check your connection and try again."

// FormatError is the one place backend and transport failures get turned
// into user-facing text. Backend messages win over the generic text for
// validation and conflict errors since those are usually specific.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var um UserMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}

	if IsNetwork(err) {
		return networkMessage
	}

	var ae *APIError
	if errors.As(err, &ae) {
		switch ae.Code {
		case ErrorCodeValidation, ErrorCodeConflict:
			if ae.Message != "" {
				return ae.Message
			}
		}

		if msg, ok := defaultMessages[ae.Code]; ok {
			return msg
		}
		if ae.Message != "" {
			return ae.Message
		}
		return defaultMessages[ErrorCodeServerError]
	}

	return err.Error()
}
