// Package fitsout assembles FITS containers from Bayer channel planes and
// camera metadata.
package fitsout

import (
	"errors"
	"fmt"
	"strings"
)

// KeyLen is the FITS keyword length limit.
const KeyLen = 8

// ErrInvalidEntry marks a header entry that cannot be carried into a FITS
// header. Invalid entries are dropped with a warning, never fatal.
var ErrInvalidEntry = errors.New("invalid header entry")

// reservedKeys are structural and per-plane cards the serializer owns.
var reservedKeys = map[string]bool{
	"FILTER":   true,
	"SIMPLE":   true,
	"BITPIX":   true,
	"NAXIS":    true,
	"NAXIS1":   true,
	"NAXIS2":   true,
	"NAXIS3":   true,
	"XTENSION": true,
	"EXTNAME":  true,
	"PCOUNT":   true,
	"GCOUNT":   true,
	"BZERO":    true,
	"BSCALE":   true,
	"END":      true,
}

// Entry is one header card: a keyword, a value and an optional comment.
type Entry struct {
	Key     string
	Value   any
	Comment string
}

// ValidateEntry reports whether an entry can be placed in a header.
func ValidateEntry(e Entry) error {
	k := normalizeKey(e.Key)
	switch {
	case k == "":
		return fmt.Errorf("empty key: %w", ErrInvalidEntry)
	case len(k) > KeyLen:
		return fmt.Errorf("key %q longer than %d characters: %w", e.Key, KeyLen, ErrInvalidEntry)
	case reservedKeys[k]:
		return fmt.Errorf("key %q is reserved: %w", e.Key, ErrInvalidEntry)
	}
	return nil
}

func normalizeKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

// Header is an ordered sequence of entries with last-write-wins semantics:
// appending a key that is already present replaces its value in place,
// preserving the position of the first occurrence.
type Header struct {
	entries []Entry
	index   map[string]int
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{index: map[string]int{}}
}

// Append adds or overrides one entry. Keys are case-insensitive and stored
// upper-cased. The entry is not validated; see ValidateEntry.
func (h *Header) Append(e Entry) {
	e.Key = normalizeKey(e.Key)
	if i, ok := h.index[e.Key]; ok {
		h.entries[i] = e
		return
	}
	h.index[e.Key] = len(h.entries)
	h.entries = append(h.entries, e)
}

// AppendAll appends entries in order.
func (h *Header) AppendAll(es []Entry) {
	for _, e := range es {
		h.Append(e)
	}
}

// Get returns the entry for a key, if present.
func (h *Header) Get(key string) (Entry, bool) {
	i, ok := h.index[normalizeKey(key)]
	if !ok {
		return Entry{}, false
	}
	return h.entries[i], true
}

// Index returns the position of a key within the header, or -1.
func (h *Header) Index(key string) int {
	i, ok := h.index[normalizeKey(key)]
	if !ok {
		return -1
	}
	return i
}

// Len returns the number of entries.
func (h *Header) Len() int {
	return len(h.entries)
}

// Entries returns the entries in header order. The slice is shared; callers
// must not modify it.
func (h *Header) Entries() []Entry {
	return h.entries
}
