package interactions

// idSet is an insertion-ordered string set. The order slice preserves when
// each id entered the set, which drives pinned-collection ordering; the index
// map makes membership checks cheap.
type idSet struct {
	order []string
	index map[string]bool
}

func newIDSet(ids []string) *idSet {
	s := &idSet{index: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id == "" || s.index[id] {
			continue
		}
		s.index[id] = true
		s.order = append(s.order, id)
	}
	return s
}

func (s *idSet) has(id string) bool {
	return s.index[id]
}

// add inserts id, returning false if it was already present.
func (s *idSet) add(id string) bool {
	if id == "" || s.index[id] {
		return false
	}
	s.index[id] = true
	s.order = append(s.order, id)
	return true
}

// remove deletes id, returning false if it was absent.
func (s *idSet) remove(id string) bool {
	if !s.index[id] {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// toggle flips membership and returns the new membership.
func (s *idSet) toggle(id string) bool {
	if s.has(id) {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

// ids returns a copy of the ordered ids.
func (s *idSet) ids() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// asMap returns a copied membership map.
func (s *idSet) asMap() map[string]bool {
	out := make(map[string]bool, len(s.index))
	for id := range s.index {
		out[id] = true
	}
	return out
}
