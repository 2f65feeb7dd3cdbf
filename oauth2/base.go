package oauth2

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

// BaseOAuth2 runs the authorization code flow against an OpenID Connect
// provider and hands the returned ID token to HandleIDToken.
type BaseOAuth2 struct {
	ClientId      string
	ClientSecret  string
	CallbackURL   string
	FailureURL    string
	HandleIDToken IDTokenHandler
	Logger        *slog.Logger
	oauthConfig   oauth2.Config
	httpClient    *http.Client
	mux           *http.ServeMux
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string, handler IDTokenHandler) *BaseOAuth2 {
	out := &BaseOAuth2{
		ClientId:      clientId,
		ClientSecret:  clientSecret,
		CallbackURL:   callbackUrl,
		FailureURL:    "/auth/google/fail/",
		HandleIDToken: handler,
		Logger:        slog.Default(),
		mux:           http.NewServeMux(),
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
	out.mux.HandleFunc("/{$}", OauthRedirector(&out.oauthConfig))
	out.mux.HandleFunc("/callback/", out.handleCallback)
	return out
}

// Handler serves "/" (redirect to the provider) and "/callback/".
// Mount it under a prefix with http.StripPrefix.
func (b *BaseOAuth2) Handler() http.Handler {
	return b.mux
}

// SetHTTPClient sets the client used for the code exchange
func (b *BaseOAuth2) SetHTTPClient(client *http.Client) {
	b.httpClient = client
}

// SetOAuthEndpoint overrides the provider endpoints
func (b *BaseOAuth2) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	b.oauthConfig.Endpoint = endpoint
}

func (b *BaseOAuth2) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	return b.oauthConfig.Exchange(ctx, code)
}

func (b *BaseOAuth2) handleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie(stateCookieName)
	if oauthState == nil {
		b.Logger.Warn("oauth state cookie missing")
		http.Error(w, "OauthState is nil", http.StatusBadRequest)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		clearStateCookie(w)
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	clearStateCookie(w)

	token, err := b.exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		b.Logger.Warn("code exchange failed", "error", err)
		http.Redirect(w, r, b.FailureURL, http.StatusTemporaryRedirect)
		return
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		b.Logger.Warn("token response has no id_token")
		http.Redirect(w, r, b.FailureURL, http.StatusTemporaryRedirect)
		return
	}
	b.HandleIDToken(idToken, w, r)
}
