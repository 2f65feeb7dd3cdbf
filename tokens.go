package blogauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthResponse is the body returned by every successful identity workflow
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	ProfileImg  string `json:"profile_img"`
	Username    string `json:"username"`
	Fullname    string `json:"fullname"`

	UserID string `json:"-"`
}

// ProfileResponse is the body returned by GET /me
type ProfileResponse struct {
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	ProfileImg string `json:"profile_img"`
	GoogleAuth bool   `json:"google_auth"`
}

// TokenIssuer signs and verifies the access tokens handed to clients.
// Tokens carry only the user id.
type TokenIssuer struct {
	SecretKey []byte

	// SigningAlg is one of HS256 (default), HS384 or HS512
	SigningAlg string

	// TTL adds an exp claim when non-zero. Zero issues non-expiring tokens.
	TTL time.Duration

	now func() time.Time
}

// NewTokenIssuer creates an issuer signing with HS256
func NewTokenIssuer(secretKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{SecretKey: []byte(secretKey), TTL: ttl}
}

func (t *TokenIssuer) signingMethod() jwt.SigningMethod {
	switch t.SigningAlg {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	}
	return jwt.SigningMethodHS256
}

func (t *TokenIssuer) currentTime() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Issue signs a token for user and returns it with the public profile fields
func (t *TokenIssuer) Issue(user *UserRecord) (*AuthResponse, error) {
	if len(t.SecretKey) == 0 {
		return nil, errors.New("token signing key not configured")
	}
	now := t.currentTime()
	claims := jwt.MapClaims{
		"id":  user.ID,
		"iat": now.Unix(),
	}
	if t.TTL > 0 {
		claims["exp"] = now.Add(t.TTL).Unix()
	}

	token := jwt.NewWithClaims(t.signingMethod(), claims)
	signed, err := token.SignedString(t.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		AccessToken: signed,
		ProfileImg:  user.ProfileImg,
		Username:    user.Username,
		Fullname:    user.Fullname,
		UserID:      user.ID,
	}, nil
}

// Verify checks the signature (and expiry when present) of tokenString and
// returns the user id it was issued for.
func (t *TokenIssuer) Verify(tokenString string) (userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.SecretKey, nil
	}, jwt.WithTimeFunc(t.currentTime), jwt.WithIssuedAt())
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	userID, ok = claims["id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("missing user id")
	}
	return userID, nil
}
