// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package cache defines the token cache used by acquisitions and provides an
// in-memory implementation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

var ErrInvalidParameter = errors.New("invalid parameter")

// Key identifies a cached token.
type Key struct {
	Authority string
	ClientID  string
	// Scope is the sorted, space separated set of target scopes.
	Scope string
}

// NewKey returns the key for the target scopes requested by clientID from
// authority.  Scope order and duplicates do not affect the key.
func NewKey(authority, clientID string, scopes []string) Key {
	set := make(map[string]struct{}, len(scopes))
	sorted := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)
	return Key{
		Authority: authority,
		ClientID:  clientID,
		Scope:     strings.Join(sorted, " "),
	}
}

func (k Key) validate() error {
	switch {
	case k.Authority == "":
		return fmt.Errorf("missing authority: %w", ErrInvalidParameter)
	case k.ClientID == "":
		return fmt.Errorf("missing client id: %w", ErrInvalidParameter)
	case k.Scope == "":
		return fmt.Errorf("missing scope: %w", ErrInvalidParameter)
	}
	return nil
}

// Entry is a cached token.
type Entry struct {
	Token   *oauth2.Token
	IDToken string
	Scopes  []string
}

// Clone returns a deep copy of the entry.  Token extras are shared since
// oauth2.Token does not expose them for copying.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := &Entry{
		IDToken: e.IDToken,
		Scopes:  append([]string(nil), e.Scopes...),
	}
	if e.Token != nil {
		tk := *e.Token
		c.Token = &tk
	}
	return c
}

// Cache stores tokens.  Implementations must be safe for concurrent use.
type Cache interface {
	// Lookup returns the entry for key, or nil without an error on a miss.
	Lookup(ctx context.Context, key Key) (*Entry, error)
	// Store replaces the entry for key.
	Store(ctx context.Context, key Key, e *Entry) error
	// Remove deletes the entry for key.  Removing a missing key is not an
	// error.
	Remove(ctx context.Context, key Key) error
}

// Memory is an in-memory Cache.  Entries are copied on the way in and out,
// so callers never share state with the cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: map[Key]*Entry{}}
}

// Lookup implements Cache.
func (m *Memory) Lookup(_ context.Context, key Key) (*Entry, error) {
	const op = "Memory.Lookup"
	if err := key.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[key].Clone(), nil
}

// Store implements Cache.
func (m *Memory) Store(_ context.Context, key Key, e *Entry) error {
	const op = "Memory.Store"
	if err := key.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if e == nil || e.Token == nil {
		return fmt.Errorf("%s: missing token: %w", op, ErrInvalidParameter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e.Clone()
	return nil
}

// Remove implements Cache.
func (m *Memory) Remove(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
