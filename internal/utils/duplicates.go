package utils

// KeyFilter drops repeated identity keys while preserving first-seen order.
// Not safe for concurrent use; create one per query.
type KeyFilter struct {
	seen map[string]struct{}
}

// NewKeyFilter creates an empty filter sized for n keys.
func NewKeyFilter(n int) *KeyFilter {
	return &KeyFilter{seen: make(map[string]struct{}, n)}
}

// ShouldInclude reports whether key is new, and records it.
func (f *KeyFilter) ShouldInclude(key string) bool {
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// Seen reports whether key was already recorded.
func (f *KeyFilter) Seen(key string) bool {
	_, ok := f.seen[key]
	return ok
}
