/*
Package hrsdk provides a typed client for the HR portal REST backend.

# Client vs Session

The package is organized around two types:

  - Client: unauthenticated auth endpoints (login, refresh, Azure AD URL and callback)
  - Session: calls that need a bearer token (current user, employee details,
    justification catalog and submission)

Create a Client and log in:

	client := hrsdk.NewClient("https://hr.example.edu", hrsdk.WithLogger(logger))

	tokens, err := client.Login(ctx, "ana@example.edu", "secret")
	if hrsdk.IsInvalidCredentials(err) {
		// wrong email or password
	}

Authenticated calls take an oauth2.TokenSource. The source is consulted on
every request, so a source backed by live session state never sends a stale
token:

	sess := client.WithTokenSource(manager.TokenSource())
	types, err := sess.ListJustificationTypes(ctx)

While a login is still being applied, pin a single token instead:

	me, err := client.WithAccessToken(tokens.AccessToken).CurrentUser(ctx)

# Timeouts and rate limiting

Every request is bounded by DefaultTimeout (15s) unless WithTimeout says
otherwise. WithRateLimit installs a client-side token bucket that each
request waits on.

# Error Handling

Backend failures come back as *APIError with a machine-readable Code;
transport failures as *NetworkError. FormatError maps either to the text a
user should see:

	if _, err := sess.CreateJustification(ctx, payload); err != nil {
		notifier.Notify(ctx, notify.Error("Could not create justification", hrsdk.FormatError(err)))
	}

# Catalog normalisation

JustificationType.UnmarshalJSON accepts the several shapes the backend has
used for catalog records (id/justificationTypeId/typeId, code/typeCode,
name/typeName/description) and produces one canonical value.
*/
package hrsdk
