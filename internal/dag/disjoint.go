package dag

// disjointSet partitions document paths into equivalence classes with
// path compression and union by rank.
type disjointSet struct {
	parent map[string]string
	rank   map[string]int
}

func newDisjointSet() *disjointSet {
	return &disjointSet{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

func (s *disjointSet) add(x string) {
	if _, ok := s.parent[x]; !ok {
		s.parent[x] = x
	}
}

func (s *disjointSet) find(x string) string {
	s.add(x)
	for s.parent[x] != x {
		s.parent[x] = s.parent[s.parent[x]]
		x = s.parent[x]
	}
	return x
}

func (s *disjointSet) union(x, y string) {
	rx, ry := s.find(x), s.find(y)
	switch {
	case rx == ry:
	case s.rank[rx] < s.rank[ry]:
		s.parent[rx] = ry
	case s.rank[rx] > s.rank[ry]:
		s.parent[ry] = rx
	default:
		s.parent[ry] = rx
		s.rank[rx]++
	}
}

// groups maps each representative to its members, in no fixed order.
func (s *disjointSet) groups() map[string][]string {
	out := make(map[string][]string)
	for x := range s.parent {
		r := s.find(x)
		out[r] = append(out[r], x)
	}
	return out
}
