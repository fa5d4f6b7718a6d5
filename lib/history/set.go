package history

// Set is the collection of identity keys already confirmed uploaded. It
// remembers insertion order so it can be written back the way it was read.
type Set struct {
	keys  []string
	index map[string]struct{}
}

func NewSet(keys ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key, it returns false if the key was already present.
func (s *Set) Add(key string) bool {
	if s.index == nil {
		s.index = map[string]struct{}{}
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

func (s *Set) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[key]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Clone returns an independent copy that can be added to without touching
// the original.
func (s *Set) Clone() *Set {
	if s == nil {
		return NewSet()
	}
	return NewSet(s.keys...)
}

// Merge adds every key of other, it returns how many were new.
func (s *Set) Merge(other *Set) int {
	added := 0
	for _, k := range other.Keys() {
		if s.Add(k) {
			added++
		}
	}
	return added
}
