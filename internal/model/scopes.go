package model

// Scopes is an insertion ordered set of scopes, unique by key.
type Scopes []Scope

// Add appends s unless a scope with the same key is already present. It
// reports whether s was added.
func (ss *Scopes) Add(s Scope) bool {
	if ss.Find(s.Key) != nil {
		return false
	}
	*ss = append(*ss, s)
	return true
}

// Find returns the scope with the given key, or nil.
func (ss Scopes) Find(key string) *Scope {
	for i := range ss {
		if ss[i].Key == key {
			return &ss[i]
		}
	}
	return nil
}

// Keys returns the scope keys in order.
func (ss Scopes) Keys() []string {
	keys := make([]string, 0, len(ss))
	for _, s := range ss {
		keys = append(keys, s.Key)
	}
	return keys
}
