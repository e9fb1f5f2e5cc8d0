package tools

import (
	"strings"
)

// Params is the raw parameter mapping of one tool call. Validation happens
// here, before any registry or engine work.
type Params map[string]any

// String fetches a required, non-empty string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", errf(KindBadRequest, "%s required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errf(KindBadRequest, "%s must be a string, got %T", key, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", errf(KindBadRequest, "%s required", key)
	}
	return s, nil
}

// OptionalString fetches a string parameter, returning "" when absent.
func (p Params) OptionalString(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errf(KindBadRequest, "%s must be a string, got %T", key, v)
	}
	return s, nil
}

// OptionalStringSlice accepts a JSON array of strings, a []string, or a
// comma-separated string (the form MCP clients tend to send). Absent means
// nil, which tools treat as "use the default subset".
func (p Params) OptionalStringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, errf(KindBadRequest, "%s must contain only strings, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, part := range strings.Split(vv, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, errf(KindBadRequest, "%s must be a string list, got %T", key, v)
	}
}
