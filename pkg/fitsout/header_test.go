package fitsout

import (
	"errors"
	"testing"
)

func TestHeaderLastWriteWins(t *testing.T) {
	h := NewHeader()
	h.Append(Entry{Key: "OBJECT", Value: "Unknown"})
	h.Append(Entry{Key: "CAMERA", Value: "NIKON D810A"})
	h.Append(Entry{Key: "OBJECT", Value: "M42"})

	e, ok := h.Get("OBJECT")
	if !ok {
		t.Fatal("OBJECT missing")
	}
	if e.Value != "M42" {
		t.Errorf("OBJECT = %v, want M42", e.Value)
	}
	if h.Index("OBJECT") != 0 {
		t.Errorf("OBJECT at position %d, want 0 (override keeps first position)", h.Index("OBJECT"))
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHeaderCaseInsensitive(t *testing.T) {
	h := NewHeader()
	h.Append(Entry{Key: "object", Value: "M31"})
	h.Append(Entry{Key: "Object", Value: "M42"})

	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	e, ok := h.Get("OBJECT")
	if !ok || e.Value != "M42" {
		t.Errorf("Get(OBJECT) = %v %v, want M42 true", e.Value, ok)
	}
	if e.Key != "OBJECT" {
		t.Errorf("stored key = %q, want upper-cased OBJECT", e.Key)
	}
}

// Applying the same entry sequence twice yields the same header as applying
// it once.
func TestHeaderMergeIdempotent(t *testing.T) {
	user := []Entry{
		{Key: "TELESCOP", Value: "Meade LX200", Comment: "Model"},
		{Key: "OBSERVER", Value: "Your name here"},
		{Key: "OBJECT", Value: "M42"},
	}

	h := NewHeader()
	h.Append(Entry{Key: "OBJECT", Value: "Unknown"})
	h.AppendAll(user)

	once := append([]Entry{}, h.Entries()...)

	h.AppendAll(user)
	twice := h.Entries()

	if len(once) != len(twice) {
		t.Fatalf("entry count changed: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestValidateEntry(t *testing.T) {
	valid := []Entry{
		{Key: "TELESCOP", Value: "Meade LX200"},
		{Key: "a", Value: 1},
	}
	for _, e := range valid {
		if err := ValidateEntry(e); err != nil {
			t.Errorf("ValidateEntry(%+v) = %v, want nil", e, err)
		}
	}

	invalid := []Entry{
		{Key: "", Value: "x"},
		{Key: "   ", Value: "x"},
		{Key: "TOOLONGKEY", Value: "x"},
		{Key: "SIMPLE", Value: true},
		{Key: "naxis1", Value: 12},
		{Key: "extname", Value: "R"},
		{Key: "FILTER", Value: "L"},
	}
	for _, e := range invalid {
		if err := ValidateEntry(e); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("ValidateEntry(%+v) = %v, want ErrInvalidEntry", e, err)
		}
	}
}
