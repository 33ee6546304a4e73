// Package systems holds the list of topics shown in the hero headline and
// the per-visitor flags that decide which of them are revealed.
package systems

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSystem is returned when a flag is toggled for an id that is
	// not in the catalog.
	ErrUnknownSystem = errors.New("unknown system")
	// ErrInvalidCatalog wraps every catalog validation failure.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// System is one topic. UnlockedByDefault is its state for visitors who never
// toggled it.
type System struct {
	ID                string   `json:"id" yaml:"id" toml:"id"`
	Title             string   `json:"title" yaml:"title" toml:"title"`
	Description       string   `json:"description" yaml:"description" toml:"description"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	UnlockedByDefault bool     `json:"unlocked_by_default" yaml:"unlocked" toml:"unlocked"`
}

// Entry is a System as a particular visitor sees it.
type Entry struct {
	System
	Unlocked bool `json:"unlocked"`
}

// Line is the headline text for the entry. Locked entries only hint at what
// they hide.
func (e Entry) Line() string {
	if e.Unlocked {
		return fmt.Sprintf("%s: %s", e.Title, e.Description)
	}
	return fmt.Sprintf("%s — Locked (unlock to reveal)", e.Title)
}

// Resolve applies flags to the catalog. A stored flag wins over the default.
func Resolve(catalog Catalog, flags map[string]bool) []Entry {
	entries := make([]Entry, 0, len(catalog))
	for _, s := range catalog {
		unlocked := s.UnlockedByDefault
		if v, ok := flags[s.ID]; ok {
			unlocked = v
		}
		entries = append(entries, Entry{System: s, Unlocked: unlocked})
	}
	return entries
}

// Lines returns the headline text of every entry, in order.
func Lines(entries []Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines
}
