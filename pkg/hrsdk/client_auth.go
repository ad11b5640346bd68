package hrsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Login exchanges email and password for a token pair. A 401 is always
// reported as ErrorCodeInvalidCredentials so callers can tell it apart from
// an expired session.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &tr)
	if err != nil {
		var ae *APIError
		if errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized {
			ae.Code = ErrorCodeInvalidCredentials
		}
		return nil, err
	}
	return &tr, nil
}

// Refresh trades a refresh token for a fresh pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", RefreshRequest{
		RefreshToken: refreshToken,
	}, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// AzureLoginURL asks the backend for the identity provider URL. clientID is
// the push-channel group the backend will deliver the resulting login to.
func (c *Client) AzureLoginURL(ctx context.Context, clientID string) (*AzureLoginURL, error) {
	q := url.Values{"clientId": {clientID}}

	var out AzureLoginURL
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/azure/url?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AzureCallback completes the provider redirect directly, for callers that
// captured code and state themselves instead of waiting on the push channel.
func (c *Client) AzureCallback(ctx context.Context, code, state string) (*TokenResponse, error) {
	q := url.Values{"code": {code}, "state": {state}}

	var tr TokenResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/azure/callback?"+q.Encode(), nil, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
