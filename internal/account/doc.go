// Package account is the local stand-in for the remote account service. It
// persists accounts in SQLite, hashes secrets with argon2id and adapts the
// wizard's final submission into a created account plus a fresh session.
package account
