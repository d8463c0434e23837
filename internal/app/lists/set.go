package lists

import "cinetrack/internal/media"

// set is an insertion-ordered collection of refs unique by key.
type set struct {
	items []media.Ref
	keys  map[media.Key]struct{}
}

// newSet drops duplicate keys, keeping the first occurrence.
func newSet(items []media.Ref) *set {
	s := &set{keys: make(map[media.Key]struct{}, len(items))}
	for _, item := range items {
		s.add(item)
	}
	return s
}

func (s *set) has(key media.Key) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *set) add(ref media.Ref) bool {
	key := ref.Key()
	if s.has(key) {
		return false
	}
	s.keys[key] = struct{}{}
	s.items = append(s.items, ref)
	return true
}

func (s *set) remove(key media.Key) bool {
	if !s.has(key) {
		return false
	}
	delete(s.keys, key)
	for i, item := range s.items {
		if item.Key() == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *set) len() int {
	return len(s.items)
}

func (s *set) snapshot() []media.Ref {
	out := make([]media.Ref, len(s.items))
	copy(out, s.items)
	return out
}
