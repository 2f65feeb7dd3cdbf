package blogauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type userParamNameKey string

// Middleware resolves the signed in user from an access token or session
type Middleware struct {
	AuthTokenHeaderName string
	UserParamName       string
	SessionGetter       func(r *http.Request, param string) any
	VerifyToken         func(tokenString string) (userID string, err error)
}

/**
 * Ensures that config values have reasonable defaults.
 */
func (a *Middleware) EnsureReasonableDefaults() {
	if a.UserParamName == "" {
		a.UserParamName = SessionUserKey
	}
	if a.AuthTokenHeaderName == "" {
		a.AuthTokenHeaderName = "Authorization"
	}
}

// GetLoggedInUserId returns the id of the user making the request, or ""
func (a *Middleware) GetLoggedInUserId(r *http.Request) string {
	a.EnsureReasonableDefaults()
	if v, ok := r.Context().Value(userParamNameKey(a.UserParamName)).(string); ok && v != "" {
		return v
	}

	if a.SessionGetter != nil {
		if userParam, ok := a.SessionGetter(r, a.UserParamName).(string); ok && userParam != "" {
			return userParam
		}
	}

	if a.VerifyToken == nil {
		slog.Warn("No auth token verifier found.  Please set one")
		return ""
	}

	for _, header := range r.Header.Values(a.AuthTokenHeaderName) {
		// Some clients send the bare token without a scheme
		authToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if authToken == "" {
			continue
		}
		userID, err := a.VerifyToken(authToken)
		if err == nil && userID != "" {
			return userID
		}
		if err != nil {
			slog.Debug("Error verifying token", "error", err)
		}
	}
	return ""
}

/**
 * Loads the logged in user id into the request context without requiring one.
 */
func (a *Middleware) ExtractUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.GetLoggedInUserId(r)
		next.ServeHTTP(w, a.setLoggedInUserId(userID, r))
	})
}

// EnsureUser rejects requests without a valid token or session with 401
func (a *Middleware) EnsureUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.GetLoggedInUserId(r)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Access token required"})
			return
		}
		next.ServeHTTP(w, a.setLoggedInUserId(userID, r))
	})
}

// Set the logged in user id into the request's variable set
// This will make it available to all other handlers downstream
func (a *Middleware) setLoggedInUserId(userId string, r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), userParamNameKey(a.UserParamName), userId)
	return r.WithContext(ctx)
}
