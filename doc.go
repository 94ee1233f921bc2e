// Package authkit implements the identity and session-authentication
// core for the foresteye backend: local credential registration and
// login, stateless JWT session tokens, Google federated login, and
// secure session cookie issuance.
//
// The package is organized around a small set of collaborators:
//
//   - UserStore: persistence for user records (see the stores
//     subpackages for file, Postgres and Datastore backends)
//   - Signer: issues and verifies the session tokens embedded in the
//     "jwt" cookie
//   - IdentityVerifier: validates federated identity tokens (see the
//     googleid subpackage)
//   - SessionIssuer: orchestrates the register/login/verify flows and
//     maps them to typed outcomes
//   - AuthHandler + Middleware: the HTTP boundary
//
// Tokens are self-contained: any instance can verify a session without
// shared state, so the service scales horizontally with no session
// store. The tradeoff is that an issued token cannot be revoked before
// its expiry.
package authkit
