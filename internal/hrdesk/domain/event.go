package domain

import "strings"

// LoginEventType is the only push event type the session manager acts on.
const LoginEventType = "Login"

// LoginEventData identifies the user an external login was completed for.
type LoginEventData struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// LoginEvent is delivered over the push channel once the identity provider
// flow completes.
type LoginEvent struct {
	EventType string         `json:"eventType"`
	Data      LoginEventData `json:"data"`
	Pair      TokenPair      `json:"pair"`
	EventID   string         `json:"eventId,omitempty"`
}

// DedupeKey is the event id, or eventType:email when the id is missing.
func (e LoginEvent) DedupeKey() string {
	if e.EventID != "" {
		return e.EventID
	}
	return e.EventType + ":" + strings.ToLower(strings.TrimSpace(e.Data.Email))
}

// HasExplicitID reports whether the dedupe key is a real event id.
func (e LoginEvent) HasExplicitID() bool {
	return e.EventID != ""
}
