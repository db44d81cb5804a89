package config

import "strings"

// Repository is a nested key/value store addressed by dot-separated paths —
// mirrors Laravel's Illuminate\Config\Repository.
//
//	cfg := config.New(map[string]any{"app": map[string]any{"name": "demo"}})
//	cfg.Get("app.name", "")        // "demo"
//	cfg.Set("db.host", "127.0.0.1") // creates the "db" mapping
//	cfg.Has("db")                  // true
//
// Any path may hold a scalar, a slice or a nested map[string]any. There is
// no schema. Repository is not safe for concurrent use on its own; the
// container serialises access to it.
type Repository struct {
	items map[string]any
}

// New creates a Repository holding a deep copy of items.
func New(items map[string]any) *Repository {
	r := &Repository{items: make(map[string]any)}
	r.Merge(items)
	return r
}

// Get returns a copy of the value stored at path, or fallback as soon as a
// segment is missing or the current node is not a mapping.
func (r *Repository) Get(path string, fallback any) any {
	v, ok := r.lookup(path)
	if !ok {
		return fallback
	}
	return normalize(v)
}

// Has reports whether path resolves to a stored value.
func (r *Repository) Has(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// Set stores value at path. Missing intermediate mappings are created and
// any non-mapping value found on the way is replaced by an empty mapping.
func (r *Repository) Set(path string, value any) {
	segments := strings.Split(path, ".")
	node := r.items
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = normalize(value)
}

// Unset removes the leaf at path. It never creates intermediate mappings;
// a missing parent makes it a no-op.
func (r *Repository) Unset(path string) {
	segments := strings.Split(path, ".")
	node := r.items
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	delete(node, segments[len(segments)-1])
}

// Merge sets every top-level key of items, replacing what was there.
func (r *Repository) Merge(items map[string]any) {
	for k, v := range items {
		r.items[k] = normalize(v)
	}
}

// All returns a deep copy of the whole tree.
func (r *Repository) All() map[string]any {
	return normalize(r.items).(map[string]any)
}

// Flush empties the repository.
func (r *Repository) Flush() {
	r.items = make(map[string]any)
}

func (r *Repository) lookup(path string) (any, bool) {
	var node any = r.items
	for _, seg := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return node, true
}

// Flatten lists every leaf of items by its dot path. Empty mappings count as
// leaves so that they survive a round trip through Set.
//
//	Flatten(map[string]any{"db": map[string]any{"host": "x", "port": 5432}})
//	// {"db.host": "x", "db.port": 5432}
func Flatten(items map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", items, out)
	return out
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if m, ok := normalize(v).(map[string]any); ok && len(m) > 0 {
			flatten(path, m, out)
			continue
		}
		out[path] = normalize(v)
	}
}

// normalize deep copies mappings so callers never share nested maps with the
// repository, and turns map[any]any (older YAML decoders) into map[string]any.
func normalize(v any) any {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = normalize(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(m))
		for i, val := range m {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
