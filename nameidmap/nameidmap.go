// Package nameidmap implements the insertion-ordered bijection between
// textual block names ("modname:name") and compact numeric block IDs.
//
// Grounded on original_source/mimas-common/game_params.rs's NameIdMap: the
// map is append-only once persisted, and legacy "::" separators are
// normalized to a single ":" on load.
package nameidmap

import (
	"fmt"
	"strings"
	"sync"

	"github.com/est31/mimas-go/world"
)

// Map is the name<->id bijection. Zero value is not usable; use New.
type Map struct {
	mu        sync.RWMutex
	nameToID  map[string]world.Block
	idToName  []string // index i holds the name for Block(i)
}

// New returns an empty map. ID 0 ("air") must be appended by the caller,
// matching the reference's bootstrap sequence.
func New() *Map {
	return &Map{
		nameToID: make(map[string]world.Block),
	}
}

// validName reports whether name matches "modname:name" with only
// [a-zA-Z0-9_] characters in either half, and exactly one separator.
func validName(name string) bool {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !(r == '_' ||
				(r >= 'a' && r <= 'z') ||
				(r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9')) {
				return false
			}
		}
	}
	return true
}

// normalize collapses legacy "::" separators down to a single ":".
func normalize(name string) string {
	return strings.ReplaceAll(name, "::", ":")
}

// GetID looks up the numeric ID for name, if already present.
func (m *Map) GetID(name string) (world.Block, bool) {
	name = normalize(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.nameToID[name]
	return id, ok
}

// GetName looks up the textual name for an ID, if present.
func (m *Map) GetName(id world.Block) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(id) >= len(m.idToName) {
		return "", false
	}
	return m.idToName[id], true
}

// GetOrExtend returns the existing ID for name, or appends a new one at the
// next available ID and returns that. Returns an error if the map is full
// (256 entries, the ID space of a byte) or the name fails validation.
func (m *Map) GetOrExtend(name string) (world.Block, error) {
	name = normalize(name)
	if !validName(name) {
		return 0, fmt.Errorf("invalid block name %q", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.nameToID[name]; ok {
		return id, nil
	}
	if len(m.idToName) >= 256 {
		return 0, fmt.Errorf("name-id map full, cannot add %q", name)
	}
	id := world.Block(len(m.idToName))
	m.idToName = append(m.idToName, name)
	m.nameToID[name] = id
	return id, nil
}

// Len returns the number of registered names.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.idToName)
}

// Names returns a snapshot of all names in ID order (index i is the name of
// Block(i)).
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.idToName))
	copy(out, m.idToName)
	return out
}
