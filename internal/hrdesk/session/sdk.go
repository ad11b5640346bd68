package session

import (
	"context"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
)

// SDKAuth is the AuthAPI backed by the HR REST client.
type SDKAuth struct {
	Client *hrsdk.Client
}

func (a SDKAuth) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	tr, err := a.Client.Login(ctx, email, password)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pairOf(tr), nil
}

func (a SDKAuth) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	tr, err := a.Client.Refresh(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pairOf(tr), nil
}

func (a SDKAuth) CurrentUser(ctx context.Context, accessToken string) (domain.UserSession, error) {
	ui, err := a.Client.WithAccessToken(accessToken).CurrentUser(ctx)
	if err != nil {
		return domain.UserSession{}, err
	}
	return domain.UserSession{
		ID:          ui.ID,
		Email:       ui.Email,
		DisplayName: ui.DisplayName,
		UserType:    ui.UserType,
		Roles:       ui.Roles,
	}, nil
}

func (a SDKAuth) EmployeeByEmail(ctx context.Context, accessToken, email string) (domain.EmployeeDetails, error) {
	ed, err := a.Client.WithAccessToken(accessToken).EmployeeDetailsByEmail(ctx, email)
	if err != nil {
		return domain.EmployeeDetails{}, err
	}
	return domain.EmployeeDetails{
		EmployeeID:      ed.EmployeeID,
		Email:           ed.Email,
		FirstName:       ed.FirstName,
		LastName:        ed.LastName,
		Department:      ed.Department,
		Faculty:         ed.Faculty,
		HasActiveSalary: ed.HasActiveSalary,
		ImmediateBossID: ed.ImmediateBossID,
	}, nil
}

func pairOf(tr *hrsdk.TokenResponse) domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}
}
