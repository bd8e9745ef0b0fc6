// Package accounts provides email/password account primitives (signup, JWT
// session issuance, password lifecycle) plus HTTP helpers to expose them.
//
// Account lifecycle:
//   - Users register with an email and password; the password is stored as a
//     bcrypt hash and a verification token is issued so the email address can
//     be confirmed out of band.
//   - Password resets are single-use and time-boxed. Requesting a reset
//     overwrites any pending token; consuming it clears the token inside the
//     same transaction that rewrites the hash.
//
// Sessions:
//   - Login exchanges credentials for a signed HS256 JWT delivered as an
//     HttpOnly cookie. Protected routes accept the cookie first and fall back
//     to an Authorization bearer header, then re-read the account so deleted
//     users are rejected even when their token is still valid.
//
// Enumeration:
//   - Login failures and forgot-password requests return the same response
//     whether or not the email is registered.
package accounts
