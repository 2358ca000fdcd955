package models

import "sort"

// LookupTable maps (port, protocol) pairs to tags. It is built once by the
// lookup loader and only read afterwards.
type LookupTable struct {
	entries map[LookupKey]string
}

func NewLookupTable(entries map[LookupKey]string) *LookupTable {
	if entries == nil {
		entries = map[LookupKey]string{}
	}
	return &LookupTable{entries: entries}
}

func (t *LookupTable) Lookup(key LookupKey) (string, bool) {
	if t == nil {
		return "", false
	}
	tag, ok := t.entries[key]
	return tag, ok
}

func (t *LookupTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Tags returns the distinct tags of the table, sorted.
func (t *LookupTable) Tags() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(t.entries))
	for _, tag := range t.entries {
		seen[tag] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Equal reports whether both tables hold the same entries.
func (t *LookupTable) Equal(o *LookupTable) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t.Len() == 0 {
		return true
	}
	for k, v := range t.entries {
		if ov, ok := o.entries[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
