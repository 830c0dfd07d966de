// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package params

import (
	"fmt"
	"net/url"
	"strings"
)

// Pair is a single key/value parsed from a raw, "&" delimited suffix.
type Pair struct {
	Key   string
	Value string
}

// Set is an ordered mapping of parameter names to values. The zero value is
// not usable, see New. A Set is not safe for concurrent use.
type Set struct {
	keys   []string
	values map[string]string

	// raw is appended verbatim after the ordered parameters and suffixKeys
	// are the keys parsed out of it.
	raw        string
	suffixKeys map[string]struct{}
	suffix     []Pair
}

// New returns an empty Set.
func New() *Set {
	return &Set{
		values:     map[string]string{},
		suffixKeys: map[string]struct{}{},
	}
}

// Set adds the key with the value. An existing key is overwritten in place
// and keeps its original position.
func (s *Set) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value for key.
func (s *Set) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// ContainsKey reports whether key has been set.
func (s *Set) ContainsKey(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len returns the number of parameters set, not counting a raw suffix.
func (s *Set) Len() int {
	return len(s.keys)
}

// RawSuffix returns the raw suffix exactly as it was appended.
func (s *Set) RawSuffix() string {
	return s.raw
}

// AppendRawSuffix parses raw as an ordered "&" delimited list of key=value
// pairs. If any parsed key is already in the set, or in a previously appended
// suffix, it returns a *DuplicateParameterError naming the first offending
// key and the set is left untouched. Otherwise raw is stored verbatim and
// will be appended, unparsed, to the encoded output.
func (s *Set) AppendRawSuffix(raw string) error {
	const op = "Set.AppendRawSuffix"
	pairs := ParseRaw(raw)
	for _, p := range pairs {
		if s.ContainsKey(p.Key) {
			return fmt.Errorf("%s: %w", op, &DuplicateParameterError{Key: p.Key})
		}
		if _, ok := s.suffixKeys[p.Key]; ok {
			return fmt.Errorf("%s: %w", op, &DuplicateParameterError{Key: p.Key})
		}
	}
	for _, p := range pairs {
		s.suffixKeys[p.Key] = struct{}{}
	}
	s.suffix = append(s.suffix, pairs...)
	switch {
	case s.raw == "":
		s.raw = raw
	case raw != "":
		s.raw = s.raw + "&" + raw
	}
	return nil
}

// Encode serializes the set as key1=value1&key2=value2 in insertion order
// with keys and values query escaped, followed by the raw suffix.
func (s *Set) Encode() string {
	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.values[k]))
	}
	if s.raw != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(s.raw)
	}
	return b.String()
}

// String is an alias for Encode.
func (s *Set) String() string {
	return s.Encode()
}

// Values returns the parameters, including pairs parsed from the raw suffix,
// as url.Values.
func (s *Set) Values() url.Values {
	v := make(url.Values, len(s.keys)+len(s.suffix))
	for _, k := range s.keys {
		v.Set(k, s.values[k])
	}
	for _, p := range s.suffix {
		v.Add(p.Key, p.Value)
	}
	return v
}

// ParseRaw splits raw into its ordered key/value pairs. Empty segments are
// skipped, a segment without "=" is a key with an empty value, and keys and
// values are query unescaped when they are validly encoded.
func ParseRaw(raw string) []Pair {
	var pairs []Pair
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		pairs = append(pairs, Pair{Key: unescape(k), Value: unescape(v)})
	}
	return pairs
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
