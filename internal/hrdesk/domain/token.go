package domain

// TokenPair is the access/refresh pair issued by the backend.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn,omitempty"` // seconds, optional
}

// IsZero reports whether the pair carries no access token.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == ""
}
