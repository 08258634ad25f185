package store

import "strings"

// DeepMerge recursively merges src into dst and returns dst.
// Keys absent from src are preserved at every depth. When both sides hold a
// map the merge recurses; any other src value (slices included) replaces the
// dst value wholesale. Values copied out of src are deep-cloned so later
// mutation of the patch cannot reach the store.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := asMap(srcVal)
		dstMap, dstIsMap := asMap(dst[key])
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = cloneValue(srcVal)
	}
	return dst
}

// asMap normalizes the map shapes produced by decoders (JSON, YAML, Lua bridge).
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// cloneValue creates a deep copy of a value.
func cloneValue(val any) any {
	if m, ok := asMap(val); ok {
		return cloneMap(m)
	}
	if s, ok := val.([]any); ok {
		return cloneSlice(s)
	}
	return val
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

// PatchForPath builds the nested map that sets value at a dot-separated path,
// so a single-path update can go through DeepMerge.
func PatchForPath(path string, value any) map[string]any {
	parts := strings.Split(path, ".")
	patch := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		patch = map[string]any{parts[i]: patch}
	}
	return patch
}
