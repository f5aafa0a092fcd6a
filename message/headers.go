package message

import (
	"maps"
	"slices"
	"strings"
)

// Headers holds string-valued message headers.
// Lookups are case-insensitive; transports disagree on header key casing.
type Headers map[string]string

// Get returns the value for key, or "" when absent.
func (h Headers) Get(key string) string {
	v, _ := h.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was present.
// An exact match is preferred over a case-insensitive one.
func (h Headers) Lookup(key string) (string, bool) {
	if v, ok := h[key]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}

	return "", false
}

// Clone returns a copy of h. The copy of a nil map is an empty, non-nil map.
func (h Headers) Clone() Headers {
	if h == nil {
		return Headers{}
	}

	return maps.Clone(h)
}

// With returns a copy of h with key set to value.
// Any existing key differing only in case is replaced.
func (h Headers) With(key, value string) Headers {
	out := h.Clone()
	out.Set(key, value)

	return out
}

// Without returns a copy of h without the given keys (case-insensitive).
func (h Headers) Without(keys ...string) Headers {
	out := h.Clone()
	for _, key := range keys {
		out.del(key)
	}

	return out
}

// Keys returns the header keys in sorted order.
func (h Headers) Keys() []string {
	return slices.Sorted(maps.Keys(h))
}

func (h Headers) del(key string) {
	for k := range h {
		if strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
}

// Set stores key=value in place, replacing case variants of key.
// The core only calls Set on maps it allocated itself.
func (h Headers) Set(key, value string) {
	h.del(key)
	h[key] = value
}
