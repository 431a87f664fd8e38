// Package auth implements email and password login for a role based
// account system.
//
// Login flow:
//   - A CredentialStore looks the account up by normalized email. Unknown
//     emails and wrong passwords both fail with ErrInvalidCredentials.
//   - Passwords are verified with bcrypt. Inputs over 72 bytes are refused
//     instead of being silently truncated.
//   - TokenService signs an HS256 JWT carrying the email and one Role
//     (Admin, Teacher or Student). Accounts without a recognized role get no
//     token.
//
// Authorization:
//   - RouteAuthenticator.Protect validates the token on every request and
//     enforces an AccessPolicy. A missing or invalid token answers 401, a
//     valid token with a role outside the policy answers 403.
//   - ClientGuard mirrors what a browser does with a stored token: it reads
//     the claims without the signing key and only decides navigation.
//
// Account management runs through command handlers (create, update, delete,
// profile update, admin seed) backed by the bun Accounts repository. Each
// handler reports to an ActivitySink.
package auth
