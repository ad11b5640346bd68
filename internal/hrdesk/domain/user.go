package domain

import "slices"

// UserSession is the signed-in identity as reported by the backend.
type UserSession struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	UserType    string   `json:"userType"`
	Roles       []string `json:"roles"`
}

// Equal compares every field. Roles are order sensitive.
func (u *UserSession) Equal(o *UserSession) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.ID == o.ID &&
		u.Email == o.Email &&
		u.DisplayName == o.DisplayName &&
		u.UserType == o.UserType &&
		slices.Equal(u.Roles, o.Roles)
}

// Clone returns a deep copy.
func (u *UserSession) Clone() *UserSession {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}
