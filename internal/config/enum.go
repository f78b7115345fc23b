package config

import (
	"fmt"
	"sort"
	"strings"
)

// enum maps case-insensitive spellings onto typed values.
type enum[T comparable] struct {
	values   map[string]T
	fallback T
}

func newEnum[T comparable](values map[string]T, fallback T) enum[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[cleanEnum(k)] = v
	}
	return enum[T]{values: normalized, fallback: fallback}
}

// normalize returns the value spelled by raw, or the fallback.
func (e enum[T]) normalize(raw string) (T, bool) {
	v, ok := e.values[cleanEnum(raw)]
	if !ok {
		return e.fallback, false
	}
	return v, true
}

func (e enum[T]) valid(v T) bool {
	for _, known := range e.values {
		if known == v {
			return true
		}
	}
	return false
}

func (e enum[T]) keys() []string {
	out := make([]string, 0, len(e.values))
	for k := range e.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e enum[T]) describe() string {
	return fmt.Sprintf("%v", e.keys())
}

func cleanEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
