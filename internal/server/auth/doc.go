// Package auth implements the credential hasher and the session token codec.
//
// Passwords are stored as argon2id PHC strings. Sessions are stateless
// HS256-signed tokens carrying the account id; nothing about a session is
// kept on the server.
package auth
