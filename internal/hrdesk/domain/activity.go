package domain

// ActivityKind is a user interaction that counts towards the inactivity
// timeout.
type ActivityKind string

const (
	ActivityPointer  ActivityKind = "pointer"
	ActivityKeyboard ActivityKind = "keyboard"
	ActivityScroll   ActivityKind = "scroll"
	ActivityTouch    ActivityKind = "touch"
)

// Valid reports whether k is one of the tracked kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityPointer, ActivityKeyboard, ActivityScroll, ActivityTouch:
		return true
	}
	return false
}
