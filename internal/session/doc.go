// Package session implements stateless rotating bearer-token sessions.
//
// A principal may hold many device sessions, each identified by a client id
// and guarded by exactly one current token. Every successful validation
// consumes that token and issues the next one; only its SHA-256 hash is ever
// stored. A replayed or stale token is refused, and of two requests racing
// with the same token exactly one wins.
package session
