package oauth2

import (
	"golang.org/x/oauth2/google"
)

// GoogleOAuth2 is the redirect flow for Google sign-in
type GoogleOAuth2 struct {
	*BaseOAuth2
}

func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, handler IDTokenHandler) *GoogleOAuth2 {
	out := GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(clientId, clientSecret, callbackUrl, handler),
	}
	out.BaseOAuth2.oauthConfig.Endpoint = google.Endpoint
	return &out
}
