package hrsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do sends req, waiting on the limiter first. Transport failures come back
// as *NetworkError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	return resp, nil
}

// newRequest builds a request, JSON encoding body when non-nil.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doJSON performs an unauthenticated request and decodes the response.
func (c *Client) doJSON(ctx context.Context, method, path string, body, target any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}

// doAuthJSON performs a request with the session's bearer token.
func (s *Session) doAuthJSON(ctx context.Context, method, path string, body, target any) error {
	tok, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Code: ErrorCodeUnauthorized}
	}

	req, err := s.client.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)

	resp, err := s.client.do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}

// decodeJSON reads the body once, returning a typed APIError for non-2xx
// responses. A nil target or empty body on success is fine.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read response", Err: err}
	}

	if err := parseErrorResponse(resp, bodyBytes); err != nil {
		return err
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
