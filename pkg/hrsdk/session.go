package hrsdk

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Session performs authenticated calls. The token source is asked for a
// token on every request, so a source backed by live session state always
// sends the latest access token.
type Session struct {
	client *Client
	tokens oauth2.TokenSource
}

// ============================================================================
// User
// ============================================================================

// CurrentUser retrieves the user behind the access token.
func (s *Session) CurrentUser(ctx context.Context) (*UserInfo, error) {
	var ui UserInfo
	if err := s.doAuthJSON(ctx, http.MethodGet, "/api/auth/me", nil, &ui); err != nil {
		return nil, err
	}
	return &ui, nil
}

// EmployeeDetailsByEmail looks up the HR profile for email.
func (s *Session) EmployeeDetailsByEmail(ctx context.Context, email string) (*EmployeeDetails, error) {
	q := url.Values{"email": {email}}

	var ed EmployeeDetails
	if err := s.doAuthJSON(ctx, http.MethodGet, "/api/employees/details?"+q.Encode(), nil, &ed); err != nil {
		return nil, err
	}
	return &ed, nil
}

// ============================================================================
// Justifications
// ============================================================================

// ListJustificationTypes returns the justification type catalog.
func (s *Session) ListJustificationTypes(ctx context.Context) ([]JustificationType, error) {
	var types []JustificationType
	if err := s.doAuthJSON(ctx, http.MethodGet, "/api/justification-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// CreateJustification submits a new justification request.
func (s *Session) CreateJustification(ctx context.Context, p JustificationPayload) (*Justification, error) {
	var out Justification
	if err := s.doAuthJSON(ctx, http.MethodPost, "/api/justifications", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
