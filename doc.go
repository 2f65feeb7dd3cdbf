// Package blogauth implements account signup, password signin and Google
// signin for a blog, and issues the access tokens its API accepts.
//
// # Architecture
//
// Service runs the three identity workflows over a UserStore:
//
//   - Signup validates the request, hashes the password, derives a username
//     from the email and inserts the record.
//   - Signin looks the account up by email and compares the password.
//     Accounts created through Google cannot sign in with a password.
//   - GoogleSignin verifies a Google ID token and either reuses the Google
//     account for that email or creates one. It never takes over a password
//     account.
//
// Every workflow ends in TokenIssuer.Issue, which signs a token carrying only
// the user id and returns it with the public profile fields.
//
// Failures are *AuthError values with a Kind (validation, authentication,
// conflict, infrastructure) and a stable Code. Infrastructure causes are
// logged and never shown to the caller.
//
// # Stores
//
// UserStore implementations live under stores/: mongo (primary), gorm
// (PostgreSQL and other SQL databases), gae (Cloud Datastore) and fs (local
// JSON files for development and tests). Each enforces unique emails and
// usernames and reports violations as *DuplicateKeyError.
//
// # Basic Usage
//
//	store := fs.NewFSUserStore("/path/to/storage")
//	verifier, _ := oauth2.NewGoogleVerifier(ctx, googleClientID)
//	service := blogauth.NewService(store, blogauth.NewTokenIssuer(secret, 0), verifier)
//
//	auth := &blogauth.BlogAuth{Service: service, Session: scs.New()}
//	auth.EnsureDefaults()
//	http.ListenAndServe(":3000", auth.Handler())
//
// # HTTP API
//
//	POST /signup       {fullname, email, password}
//	POST /signin       {email, password}
//	POST /google-auth  {access_token}   (a Google ID token)
//	GET  /me           current user, requires a token or session
//	POST /logout       ends the session
//
// Successful signins answer {access_token, profile_img, username, fullname}.
// Errors answer {error} with 403 for validation and authentication failures,
// 409 for duplicate accounts and 500 for infrastructure failures.
//
// Clients send the token back as "Authorization: Bearer <token>"; the bare
// token is accepted as well. See Middleware.
package blogauth
