package oauth2_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/panyam/blogauth/oauth2"
	oauth2lib "golang.org/x/oauth2"
)

// mockOAuthServer serves a /token endpoint for the code exchange
type mockOAuthServer struct {
	server        *httptest.Server
	tokenResponse map[string]any
	tokenError    bool
	lastCode      string
}

func newMockOAuthServer() *mockOAuthServer {
	mock := &mockOAuthServer{
		tokenResponse: map[string]any{
			"access_token": "mock_access_token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "mock_id_token",
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if mock.tokenError {
			http.Error(w, "token exchange failed", http.StatusBadRequest)
			return
		}
		r.ParseForm()
		mock.lastCode = r.FormValue("code")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.tokenResponse)
	})
	mock.server = httptest.NewServer(mux)
	return mock
}

func (m *mockOAuthServer) Close() {
	m.server.Close()
}

func TestOauthRedirector(t *testing.T) {
	config := &oauth2lib.Config{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:8080/auth/google/callback/",
		Scopes:      []string{"openid", "email"},
		Endpoint: oauth2lib.Endpoint{
			AuthURL:  "https://provider.example.com/auth",
			TokenURL: "https://provider.example.com/token",
		},
	}
	redirector := oauth2.OauthRedirector(config)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	redirector(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("Expected status %d, got %d", http.StatusFound, rr.Code)
	}
	location, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Failed to parse redirect URL: %v", err)
	}
	if !strings.HasPrefix(location.String(), "https://provider.example.com/auth") {
		t.Errorf("Expected redirect to provider, got: %s", location)
	}
	query := location.Query()
	if query.Get("client_id") != "test-client-id" {
		t.Errorf("Expected client_id in URL")
	}
	if query.Get("response_type") != "code" {
		t.Errorf("Expected response_type=code in URL")
	}

	var cookieState string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "oauthstate" {
			cookieState = c.Value
		}
	}
	if cookieState == "" {
		t.Fatal("Expected oauthstate cookie to be set")
	}
	if cookieState != query.Get("state") {
		t.Errorf("State mismatch: cookie=%s, url=%s", cookieState, query.Get("state"))
	}
}

func TestGoogleOAuth2Callback(t *testing.T) {
	mock := newMockOAuthServer()
	defer mock.Close()

	var handledToken string
	var handledCalled bool
	googleAuth := oauth2.NewGoogleOAuth2(
		"test-client-id",
		"test-client-secret",
		"http://localhost:8080/auth/google/callback/",
		func(idToken string, w http.ResponseWriter, r *http.Request) {
			handledCalled = true
			handledToken = idToken
			w.WriteHeader(http.StatusOK)
		},
	)
	googleAuth.SetHTTPClient(mock.server.Client())
	googleAuth.SetOAuthEndpoint(oauth2lib.Endpoint{
		AuthURL:  mock.server.URL + "/auth",
		TokenURL: mock.server.URL + "/token",
	})

	t.Run("root redirects to provider", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusFound {
			t.Fatalf("Expected status %d, got %d", http.StatusFound, rr.Code)
		}
		if !strings.HasPrefix(rr.Header().Get("Location"), mock.server.URL+"/auth") {
			t.Errorf("Unexpected redirect: %s", rr.Header().Get("Location"))
		}
	})

	t.Run("rejects missing state cookie", func(t *testing.T) {
		handledCalled = false
		req := httptest.NewRequest(http.MethodGet, "/callback/?code=test_code&state=test_state", nil)
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
		if handledCalled {
			t.Error("handler should not be called without state cookie")
		}
	})

	t.Run("rejects mismatched state", func(t *testing.T) {
		handledCalled = false
		req := httptest.NewRequest(http.MethodGet, "/callback/?code=test_code&state=wrong_state", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "correct_state"})
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid oauth state") {
			t.Errorf("Expected invalid oauth state error, got: %s", rr.Body.String())
		}
		if handledCalled {
			t.Error("handler should not be called with mismatched state")
		}
	})

	t.Run("passes id token to handler", func(t *testing.T) {
		handledCalled = false
		req := httptest.NewRequest(http.MethodGet, "/callback/?code=valid_code&state=valid_state", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "valid_state"})
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)

		if !handledCalled {
			t.Fatal("handler should have been called")
		}
		if handledToken != "mock_id_token" {
			t.Errorf("Expected id token 'mock_id_token', got '%s'", handledToken)
		}
		if mock.lastCode != "valid_code" {
			t.Errorf("Expected code 'valid_code' at token endpoint, got '%s'", mock.lastCode)
		}
	})

	t.Run("redirects when response has no id token", func(t *testing.T) {
		handledCalled = false
		saved := mock.tokenResponse
		mock.tokenResponse = map[string]any{"access_token": "a", "token_type": "Bearer"}
		defer func() { mock.tokenResponse = saved }()

		req := httptest.NewRequest(http.MethodGet, "/callback/?code=valid_code&state=valid_state", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "valid_state"})
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusTemporaryRedirect {
			t.Errorf("Expected status %d, got %d", http.StatusTemporaryRedirect, rr.Code)
		}
		if handledCalled {
			t.Error("handler should not be called without id token")
		}
	})

	t.Run("redirects on token exchange failure", func(t *testing.T) {
		handledCalled = false
		mock.tokenError = true
		defer func() { mock.tokenError = false }()

		req := httptest.NewRequest(http.MethodGet, "/callback/?code=bad_code&state=valid_state", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "valid_state"})
		rr := httptest.NewRecorder()
		googleAuth.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusTemporaryRedirect {
			t.Errorf("Expected status %d, got %d", http.StatusTemporaryRedirect, rr.Code)
		}
		if rr.Header().Get("Location") != "/auth/google/fail/" {
			t.Errorf("Unexpected failure redirect: %s", rr.Header().Get("Location"))
		}
		if handledCalled {
			t.Error("handler should not be called on exchange failure")
		}
	})
}
