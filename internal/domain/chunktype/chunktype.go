// Package chunktype models a chunk's classification as a bitflag set rather
// than the freeform string array the rest of the ecosystem tends to use for
// this (design note §9: "runtime-unioned chunk types should be a bitflag
// set, not a string array"). Serialization round-trips through a JSON array
// of names for storage compatibility with the documents table.
package chunktype

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Set is a bitflag set of chunk classifications. A chunk may carry more than
// one tag; Content and Structural are not mutually exclusive (a heading
// chunk that also opens a content section, for instance).
type Set uint8

const (
	// Content marks a chunk as indexable prose — included in search results.
	Content Set = 1 << iota
	// Structural marks scaffolding with no standalone meaning (an empty
	// heading, a closing brace, a table's header row repeated for
	// pagination). Chunks tagged purely Structural are filtered from
	// search results (spec.md §3).
	Structural
	// List marks a chunk that is (or begins inside) a Markdown list.
	List
	// Code marks a chunk that is (or begins inside) a fenced code block.
	Code
	// Table marks a chunk that is (or begins inside) a Markdown table.
	Table
)

var names = map[Set]string{
	Content:    "content",
	Structural: "structural",
	List:       "list",
	Code:       "code",
	Table:      "table",
}

var byName = func() map[string]Set {
	m := make(map[string]Set, len(names))
	for set, name := range names {
		m[name] = set
	}
	return m
}()

// Has reports whether every flag in other is present in s.
func (s Set) Has(other Set) bool { return s&other == other }

// Any reports whether s and other share at least one flag.
func (s Set) Any(other Set) bool { return s&other != 0 }

// Union returns a new Set with every flag from s and other.
func (s Set) Union(other Set) Set { return s | other }

// SearchableOnly reports whether s is tagged purely Structural — i.e. it has
// no Content flag and should be excluded from query results.
func (s Set) SearchableOnly() bool { return s != 0 && !s.Has(Content) }

// Names returns the set's flags as their string names, in a stable order,
// for storage or display.
func (s Set) Names() []string {
	out := make([]string, 0, len(names))
	// Stable order: iterate flags from least to most significant bit.
	for flag := Set(1); flag != 0; flag <<= 1 {
		if s.Has(flag) {
			if name, ok := names[flag]; ok {
				out = append(out, name)
			}
		}
	}
	return out
}

// MarshalJSON encodes the set as a JSON array of its flag names, matching
// the on-disk representation of the teacher's string-array chunk types.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a JSON array of flag names back into a Set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var rawNames []string
	if err := json.Unmarshal(data, &rawNames); err != nil {
		return fmt.Errorf("chunktype: unmarshal: %w", err)
	}
	var result Set
	for _, name := range rawNames {
		flag, ok := byName[name]
		if !ok {
			return fmt.Errorf("chunktype: unknown chunk type %q", name)
		}
		result |= flag
	}
	*s = result
	return nil
}

// Value implements driver.Valuer so a Set can be written directly to the
// documents.types column by database/sql or scany, without a caller having
// to marshal it by hand.
func (s Set) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, the inverse of Value.
func (s *Set) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = 0
		return nil
	case string:
		return s.UnmarshalJSON([]byte(v))
	case []byte:
		return s.UnmarshalJSON(v)
	default:
		return fmt.Errorf("chunktype: cannot scan %T into Set", src)
	}
}
