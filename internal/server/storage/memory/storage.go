// Package memory implements the server storage interfaces in process memory.
//
// It is meant for tests and single-node development: data does not survive a
// restart.
package memory

import (
	"context"
	"sync"
)

// Storage keeps users and device sessions in maps.
//
// Sessions are locked per (principal, client) entry so validations of
// different sessions never wait on each other; the index lock is only held
// while the map itself is read or changed.
type Storage struct {
	users      map[string]*userRecord // user ID -> user
	emailIndex map[string]string      // lower-cased email -> user ID
	sessions   map[sessionKey]*sessionEntry
	usersMu    sync.RWMutex
	sessionsMu sync.RWMutex
}

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{
		users:      make(map[string]*userRecord),
		emailIndex: make(map[string]string),
		sessions:   make(map[sessionKey]*sessionEntry),
	}
}

// Ping always succeeds
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op, present so Storage matches the durable backends
func (s *Storage) Close() error {
	return nil
}
