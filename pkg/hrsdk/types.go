package hrsdk

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login, refresh and the Azure callback.
type TokenResponse struct {
	// AccessToken is the JWT sent as a Bearer token
	AccessToken string `json:"accessToken"`

	// RefreshToken is the opaque token used to obtain new access tokens
	RefreshToken string `json:"refreshToken"`

	// ExpiresIn is the access token lifetime in seconds (optional)
	ExpiresIn int `json:"expiresIn,omitempty"`

	// TokenType is normally "Bearer"
	TokenType string `json:"tokenType,omitempty"`
}

// UserInfo is returned by GET /api/auth/me.
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	UserType    string   `json:"userType"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// AzureLoginURL is returned by GET /api/auth/azure/url.
type AzureLoginURL struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// ============================================================================
// Employee Types
// ============================================================================

// EmployeeDetails is the denormalised HR profile returned by the
// employee-details-by-email lookup.
type EmployeeDetails struct {
	EmployeeID      int64  `json:"employeeID"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Department      string `json:"department"`
	Faculty         string `json:"faculty"`
	HasActiveSalary bool   `json:"hasActiveSalary"`
	ImmediateBossID int64  `json:"immediateBossId"`
}

// ============================================================================
// Justification Types
// ============================================================================

// JustificationType is one catalog entry. The backend has shipped this record
// under several shapes over time, so UnmarshalJSON normalises them once here
// and nothing downstream has to probe field names.
type JustificationType struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

var (
	typeIDKeys   = []string{"id", "justificationTypeId", "typeId"}
	typeCodeKeys = []string{"code", "typeCode"}
	typeNameKeys = []string{"name", "typeName", "description"}
)

func (t *JustificationType) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	id, err := firstInt(raw, typeIDKeys)
	if err != nil {
		return err
	}

	*t = JustificationType{
		ID:   id,
		Code: firstString(raw, typeCodeKeys),
		Name: firstString(raw, typeNameKeys),
	}
	return nil
}

// Label is what a picker would show.
func (t JustificationType) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Code
}

func firstString(raw map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// firstInt accepts numbers and numeric strings, the backend sends both.
func firstInt(raw map[string]json.RawMessage, keys []string) (int64, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}

		var n int64
		if err := json.Unmarshal(v, &n); err == nil {
			return n, nil
		}

		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("justification type %s: %w", k, err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("justification type: missing id")
}

// JustificationStatusPending is the only status a client ever creates.
const JustificationStatusPending = "PENDING"

// JustificationPayload is the body of POST /api/justifications. Date fields
// are local wall-clock strings ("2006-01-02T15:04:05") and must never be
// re-expressed in another zone.
type JustificationPayload struct {
	EmployeeID          int64   `json:"employeeId"`
	BossEmployeeID      int64   `json:"bossEmployeeId"`
	JustificationTypeID int64   `json:"justificationTypeId"`
	StartDate           string  `json:"startDate"`
	EndDate             string  `json:"endDate"`
	JustificationDate   string  `json:"justificationDate"`
	Reason              string  `json:"reason"`
	HoursRequested      float64 `json:"hoursRequested"`
	Status              string  `json:"status"`
	CreatedAt           string  `json:"createdAt"`
	CreatedBy           int64   `json:"createdBy"`
}

// Justification is the created record echoed back by the backend.
type Justification struct {
	ID int64 `json:"id"`
	JustificationPayload
}
