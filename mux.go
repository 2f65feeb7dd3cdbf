package blogauth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SessionUserKey is the session variable holding the signed in user id
const SessionUserKey = "loggedInUserId"

// maxBodyBytes caps request bodies; credentials and ID tokens are small
const maxBodyBytes = 64 << 10

// BlogAuth exposes a Service over HTTP
type BlogAuth struct {
	Service *Service

	// Optional. When set, successful signins also store the user id in the
	// session and /logout destroys it.
	Session *scs.SessionManager

	Middleware Middleware

	// Origins allowed to call the API from a browser. Empty allows any.
	AllowedOrigins []string

	Logger *slog.Logger

	router *mux.Router
}

// New creates a BlogAuth over service
func New(service *Service) *BlogAuth {
	return (&BlogAuth{Service: service}).EnsureDefaults()
}

// EnsureDefaults wires the middleware to the service's token issuer and
// the session manager when they are not configured explicitly.
func (a *BlogAuth) EnsureDefaults() *BlogAuth {
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Middleware.VerifyToken == nil && a.Service != nil && a.Service.Tokens != nil {
		a.Middleware.VerifyToken = a.Service.Tokens.Verify
	}
	if a.Middleware.SessionGetter == nil && a.Session != nil {
		a.Middleware.SessionGetter = func(r *http.Request, param string) any {
			return a.Session.GetString(r.Context(), param)
		}
	}
	if a.Middleware.UserParamName == "" {
		a.Middleware.UserParamName = SessionUserKey
	}
	return a
}

func (a *BlogAuth) setupRoutes() *mux.Router {
	if a.router == nil {
		a.EnsureDefaults()
		r := mux.NewRouter()
		r.HandleFunc("/signup", a.HandleSignup).Methods(http.MethodPost)
		r.HandleFunc("/signin", a.HandleSignin).Methods(http.MethodPost)
		r.HandleFunc("/google-auth", a.HandleGoogleAuth).Methods(http.MethodPost)
		r.Handle("/me", a.Middleware.EnsureUser(http.HandlerFunc(a.HandleMe))).Methods(http.MethodGet)
		r.HandleFunc("/logout", a.HandleLogout).Methods(http.MethodPost)
		a.router = r
	}
	return a.router
}

// AddAuth mounts handler under prefix, e.g. the Google redirect flow at
// /auth/google.
func (a *BlogAuth) AddAuth(prefix string, handler http.Handler) *BlogAuth {
	prefix = strings.TrimSuffix(prefix, "/")
	a.Logger.Info("adding auth handler", "prefix", prefix)
	a.setupRoutes().PathPrefix(prefix + "/").Handler(http.StripPrefix(prefix, handler))
	return a
}

// Handler returns the routes wrapped with CORS and session handling
func (a *BlogAuth) Handler() http.Handler {
	var h http.Handler = a.setupRoutes()
	if a.Session != nil {
		h = a.Session.LoadAndSave(h)
	}
	return a.cors(h)
}

// HandleMe serves GET /me for the user resolved by the middleware
func (a *BlogAuth) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID := a.Middleware.GetLoggedInUserId(r)
	user, err := a.Service.Profile(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &ProfileResponse{
		Username:   user.Username,
		Fullname:   user.Fullname,
		ProfileImg: user.ProfileImg,
		GoogleAuth: user.GoogleAuth,
	})
}

// HandleLogout serves POST /logout. Issued access tokens stay valid.
func (a *BlogAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if a.Session != nil {
		if err := a.Session.Destroy(r.Context()); err != nil {
			a.writeError(w, r, internalError("Failed to log out", err))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *BlogAuth) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		a.writeError(w, r, NewAuthError(KindValidation, ErrCodeInvalidBody, "Invalid request body", "").WithCause(err))
		return false
	}
	return true
}

func (a *BlogAuth) respond(w http.ResponseWriter, r *http.Request, resp *AuthResponse, err error) {
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if a.Session != nil {
		if err := a.Session.RenewToken(r.Context()); err != nil {
			a.writeError(w, r, internalError("Failed to start session", err))
			return
		}
		a.Session.Put(r.Context(), SessionUserKey, resp.UserID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *BlogAuth) writeError(w http.ResponseWriter, r *http.Request, err error) {
	authErr := AsAuthError(err)
	status := authErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		a.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", authErr.Code, "error", err)
	} else {
		a.Logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "code", authErr.Code)
	}
	writeJSON(w, status, map[string]any{"error": authErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (a *BlogAuth) cors(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(a.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(next)
}
