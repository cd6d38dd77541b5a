package pkg

type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Get(key K) V {
	return m[key]
}

func (m Map[K, V]) Set(key K, value V) {
	m[key] = value
}

func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

func (m Map[K, V]) Delete(key K) {
	delete(m, key)
}

func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Set is a Map used only for membership checks.
type Set[K comparable] Map[K, struct{}]

func (s Set[K]) Add(key K)      { s[key] = struct{}{} }
func (s Set[K]) Remove(key K)   { delete(s, key) }
func (s Set[K]) Has(key K) bool { _, ok := s[key]; return ok }
func (s Set[K]) Len() int       { return len(s) }
