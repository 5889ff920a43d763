package cie10

import "sort"

// Entry is one code and its description
type Entry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Mapping associates normalized codes with their descriptions
type Mapping map[string]string

// Lookup normalizes code before looking it up
func (m Mapping) Lookup(code string) (string, bool) {
	desc, ok := m[NormalizeCode(code)]
	return desc, ok
}

// Codes returns the mapping keys in ascending order
func (m Mapping) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Entries returns the mapping as a slice sorted by code
func (m Mapping) Entries() []Entry {
	codes := m.Codes()
	entries := make([]Entry, len(codes))
	for i, code := range codes {
		entries[i] = Entry{Code: code, Description: m[code]}
	}
	return entries
}

// orderedMap keeps keys in first-insertion order. Setting an existing key
// replaces its value without moving it.
type orderedMap struct {
	keys   []string
	values map[string]string
}

func newOrderedMap(capacity int) *orderedMap {
	return &orderedMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]string, capacity),
	}
}

// set stores value under key and reports whether key was already present
func (om *orderedMap) set(key, value string) bool {
	_, exists := om.values[key]
	if !exists {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
	return exists
}

func (om *orderedMap) len() int {
	return len(om.keys)
}
