package client

import (
	"net/http"
)

// tokenTransport adds the client's current access token to each request.
// The token is read per request, so a signin or logout on the client is
// picked up by every HTTP client it handed out.
type tokenTransport struct {
	client *AuthClient
}

// RoundTrip implements http.RoundTripper
func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.client.Token(); token != "" {
		// Clone the request to avoid mutating the caller's
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	base := t.client.baseTransport
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
