package fitsout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// LoadHeaderFile reads user header entries from a JSON or YAML file. The
// document must be a sequence of [key, value] or [key, value, comment] rows.
func LoadHeaderFile(path string) ([]Entry, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("header read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseHeaderYAML(contents)
	default:
		return ParseHeaderJSON(contents)
	}
}

// ParseHeaderJSON parses a JSON array of [key, value[, comment]] rows.
func ParseHeaderJSON(data []byte) ([]Entry, error) {
	rows := [][]any{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("header parse: %w", err)
	}
	return entriesFromRows(rows)
}

// ParseHeaderYAML parses a YAML sequence of [key, value[, comment]] rows.
func ParseHeaderYAML(data []byte) ([]Entry, error) {
	rows := [][]any{}
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("header parse: %w", err)
	}
	return entriesFromRows(rows)
}

func entriesFromRows(rows [][]any) ([]Entry, error) {
	es := []Entry{}
	for i, row := range rows {
		if len(row) < 2 || len(row) > 3 {
			return nil, fmt.Errorf("header row %d: want [key, value] or [key, value, comment], got %d elements", i, len(row))
		}

		key, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("header row %d: key %v is not a string", i, row[0])
		}

		e := Entry{Key: key, Value: normalizeValue(row[1])}
		if len(row) == 3 {
			c, ok := row[2].(string)
			if !ok {
				return nil, fmt.Errorf("header row %d: comment %v is not a string", i, row[2])
			}
			e.Comment = c
		}
		es = append(es, e)
	}
	return es, nil
}

// normalizeValue collapses decoder-specific number types so that JSON and
// YAML inputs produce identical entries: whole numbers become int, other
// numbers float64.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
		return n
	case float32:
		return normalizeValue(float64(n))
	case int64:
		return int(n)
	default:
		return v
	}
}
