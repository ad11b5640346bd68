package justification

import "errors"

var (
	ErrNoEmployee   = errors.New("justification: employee id unknown")
	ErrNoBoss       = errors.New("justification: immediate boss unknown")
	ErrNoType       = errors.New("justification: no type selected")
	ErrUnknownType  = errors.New("justification: type not recognised")
	ErrMissingStart = errors.New("justification: start missing")
	ErrMissingEnd   = errors.New("justification: end missing")
	ErrDifferentDay = errors.New("justification: start and end on different days")
	ErrBadDate      = errors.New("justification: invalid date")
)

// ValidationError is a local rule violation. Message is shown to the user
// as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + " (" + e.Field + ")"
}

func (e *ValidationError) Unwrap() error       { return e.Err }
func (e *ValidationError) UserMessage() string { return e.Message }

func invalid(field string, err error, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg, Err: err}
}

func missingStart(m Mode) *ValidationError {
	switch m {
	case ModePicada:
		return invalid("punchAt", ErrMissingStart, "Enter the date and time of the missed punch.")
	case ModeDias:
		return invalid("startDate", ErrMissingStart, "Enter the start date.")
	default:
		return invalid("start", ErrMissingStart, "Enter the start time.")
	}
}

func differentDay() *ValidationError {
	return invalid("end", ErrDifferentDay, "Start and end must fall on the same day.")
}
