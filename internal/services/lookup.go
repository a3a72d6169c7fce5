package services

import "strings"

// Lookup returns the value of the first key present in payload with a
// non-empty value. Clients have sent the same logical field under several
// names over time, so every handler resolves fields through here.
func Lookup(payload map[string]any, keys ...string) (any, string, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v, key, true
	}
	return nil, "", false
}

// LookupString is Lookup restricted to non-blank string values.
func LookupString(payload map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}
