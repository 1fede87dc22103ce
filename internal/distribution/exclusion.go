package distribution

import "github.com/google/uuid"

// ExclusionSet tracks every lead id already taken during one distribution
// run. It is scoped to a single run and shared across all of the run's
// destinations, which is what makes the destinations disjoint.
type ExclusionSet struct {
	ids map[uuid.UUID]struct{}
}

func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{ids: make(map[uuid.UUID]struct{})}
}

func (s *ExclusionSet) Add(id uuid.UUID) {
	s.ids[id] = struct{}{}
}

func (s *ExclusionSet) Contains(id uuid.UUID) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *ExclusionSet) Len() int {
	return len(s.ids)
}

// IDs returns the excluded ids for use in pool queries.
func (s *ExclusionSet) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
