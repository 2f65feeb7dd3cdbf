package blogauth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SignupRequest is the body accepted by the signup endpoint
type SignupRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest is the body accepted by the password signin endpoint
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleAuthRequest carries the ID token obtained by the browser from Google
type GoogleAuthRequest struct {
	AccessToken string `json:"access_token"`
}

// Password policy bounds
const (
	MinFullnameLength = 3
	MinPasswordLength = 6
	MaxPasswordLength = 20
)

var (
	emailRegex = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

	// RE2 has no lookahead, so each required character class is its own check
	passwordDigit = regexp.MustCompile(`\d`)
	passwordLower = regexp.MustCompile(`[a-z]`)
	passwordUpper = regexp.MustCompile(`[A-Z]`)
)

// ValidateSignup checks a signup request against the account policy.
// Rules run in order and the first violation is returned.
func ValidateSignup(req SignupRequest) error {
	if utf8.RuneCountInString(req.Fullname) < MinFullnameLength {
		return validationError(ErrCodeFullnameTooShort, "Full Name must be at least 3 letters", "fullname")
	}
	if req.Email == "" {
		return validationError(ErrCodeEmailRequired, "Email can't be empty", "email")
	}
	if !ValidEmail(req.Email) {
		return validationError(ErrCodeInvalidEmail, "Invalid email", "email")
	}
	if !ValidPassword(req.Password) {
		return validationError(ErrCodeWeakPassword,
			"Password should be at least 6 letters with 1 numeric, 1 lowercase and 1 uppercase letter", "password")
	}
	return nil
}

// ValidEmail reports whether email has the local@domain.tld shape
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidPassword reports whether password is 6-20 characters with at least
// one digit, one lowercase and one uppercase letter. Line terminators are
// not allowed.
func ValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return false
	}
	if strings.ContainsAny(password, "\n\r\u2028\u2029") {
		return false
	}
	return passwordDigit.MatchString(password) &&
		passwordLower.MatchString(password) &&
		passwordUpper.MatchString(password)
}
