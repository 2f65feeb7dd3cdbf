package blogauth_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ba "github.com/panyam/blogauth"
)

func newTestServer(t *testing.T, env *testEnv, withSession bool) *httptest.Server {
	t.Helper()
	auth := &ba.BlogAuth{Service: env.Service, Logger: env.Service.Logger}
	if withSession {
		auth.Session = scs.New()
	}
	auth.EnsureDefaults()
	server := httptest.NewServer(auth.Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, client *http.Client, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func getJSON(t *testing.T, client *http.Client, url, token string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestSignupEndpointExample(t *testing.T) {
	env := newTestEnv(t)
	server := newTestServer(t, env, false)
	client := server.Client()

	status, body := postJSON(t, client, server.URL+"/signup", `{"fullname":"Ann Lee","email":"ann@example.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "Ann Lee", body["fullname"])
	assert.Equal(t, "", body["profile_img"])
	assert.NotEmpty(t, body["access_token"])
	assert.Len(t, body, 4)

	status, body = postJSON(t, client, server.URL+"/signup", `{"fullname":"Ann Again","email":"ann@example.com","password":"Qwerty12"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, map[string]any{"error": "Email already exists"}, body)
}

func TestEndpointStatuses(t *testing.T) {
	env := newTestEnv(t)
	server := newTestServer(t, env, false)
	client := server.Client()

	status, _ := postJSON(t, client, server.URL+"/signup", `{"fullname":"Ann Lee","email":"ann@example.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusOK, status)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"short fullname", "/signup", `{"fullname":"An","email":"x@example.com","password":"Abcdef1"}`, http.StatusForbidden, "Full Name must be at least 3 letters"},
		{"missing fields", "/signup", `{}`, http.StatusForbidden, "Full Name must be at least 3 letters"},
		{"empty body", "/signin", ``, http.StatusForbidden, "Email not found"},
		{"malformed json", "/signup", `{"fullname":`, http.StatusBadRequest, "Invalid request body"},
		{"unknown email", "/signin", `{"email":"no@example.com","password":"Abcdef1"}`, http.StatusForbidden, "Email not found"},
		{"wrong password", "/signin", `{"email":"ann@example.com","password":"Abcdef9"}`, http.StatusForbidden, "Incorrect Password"},
		{"signin", "/signin", `{"email":"ann@example.com","password":"Abcdef1"}`, http.StatusOK, ""},
		{"google signin", "/google-auth", `{"access_token":"tok"}`, http.StatusOK, ""},
		{"google rejected", "/google-auth", `{"access_token":""}`, http.StatusForbidden, "Failed to authenticate with google"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postJSON(t, client, server.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status, body)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["access_token"])
			}
		})
	}
}

func TestGoogleAuthEndpointPasswordConflict(t *testing.T) {
	env := newTestEnv(t)
	server := newTestServer(t, env, false)
	client := server.Client()

	status, _ := postJSON(t, client, server.URL+"/signup", `{"fullname":"Ann Lee","email":"ann@gmail.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := postJSON(t, client, server.URL+"/google-auth", `{"access_token":"google-token"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "This email is linked with google , login with password to access", body["error"])

	status, body = postJSON(t, client, server.URL+"/signin", `{"email":"ann@gmail.com","password":"Abcdef1"}`)
	assert.Equal(t, http.StatusOK, status, body)
}

func TestServerErrorHidesCause(t *testing.T) {
	env := newTestEnv(t)
	env.Store.findErr = assert.AnError
	server := newTestServer(t, env, false)

	status, body := postJSON(t, server.Client(), server.URL+"/signin", `{"email":"ann@example.com","password":"Abcdef1"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body["error"], assert.AnError.Error())
	assert.NotEmpty(t, body["error"])
}

func TestMeWithToken(t *testing.T) {
	env := newTestEnv(t)
	server := newTestServer(t, env, false)
	client := server.Client()

	_, body := postJSON(t, client, server.URL+"/google-auth", `{"access_token":"google-token"}`)
	token := body["access_token"].(string)

	status, me := getJSON(t, client, server.URL+"/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann", me["username"])
	assert.Equal(t, true, me["google_auth"])
	assert.NotContains(t, me, "access_token")

	// Bare tokens are accepted too
	status, _ = getJSON(t, client, server.URL+"/me", token)
	assert.Equal(t, http.StatusOK, status)

	status, me = getJSON(t, client, server.URL+"/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", me["error"])

	status, _ = getJSON(t, client, server.URL+"/me", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	forged, err := ba.NewTokenIssuer(testSecret, 0).Issue(&ba.UserRecord{ID: "deleted-user"})
	require.NoError(t, err)
	status, _ = getJSON(t, client, server.URL+"/me", "Bearer "+forged.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSessionSigninAndLogout(t *testing.T) {
	env := newTestEnv(t)
	server := newTestServer(t, env, true)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := server.Client()
	client.Jar = jar

	status, _ := postJSON(t, client, server.URL+"/signup", `{"fullname":"Ann Lee","email":"ann@example.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusOK, status)

	status, me := getJSON(t, client, server.URL+"/me", "")
	require.Equal(t, http.StatusOK, status, me)
	assert.Equal(t, "ann", me["username"])

	resp, err := client.Post(server.URL+"/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, _ = getJSON(t, client, server.URL+"/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	auth := &ba.BlogAuth{Service: env.Service, AllowedOrigins: []string{"https://blog.example.com"}}
	auth.EnsureDefaults()
	handler := auth.Handler()

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/signin", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	rr := preflight("https://blog.example.com")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://blog.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rr = preflight("https://evil.example.com")
	assert.NotEqual(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))

	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAnyOrigin(t *testing.T) {
	env := newTestEnv(t)
	handler := ba.New(env.Service).Handler()

	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://anywhere.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAddAuthMountsHandler(t *testing.T) {
	env := newTestEnv(t)
	auth := ba.New(env.Service)

	var gotPath string
	auth.AddAuth("/auth/google/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	auth.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/google/callback/?code=x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "/callback/", gotPath)
}
