package hive

// Query2 is the intersection of two component storages: entities that
// carry both an A and a B. Iteration walks whichever storage currently
// holds fewer entities and probes the other by id — the standard
// sparse-set join strategy, since there is no archetype bitmask to test
// membership against the way the teacher's mask-based query.go did.
type Query2[A, B any] struct {
	a View[A]
	b View[B]
}

// FetchQuery2 fetches both storages needed for a Query2.
func FetchQuery2[A, B any](storages *AtomicRefCell[*AllStorages], threadID uint64) (Query2[A, B], error) {
	va, err := FetchView[A](storages, threadID)
	if err != nil {
		return Query2[A, B]{}, err
	}
	vb, err := FetchView[B](storages, threadID)
	if err != nil {
		va.Release()
		return Query2[A, B]{}, err
	}
	return Query2[A, B]{a: va, b: vb}, nil
}

// Release releases both underlying views.
func (q Query2[A, B]) Release() {
	q.a.Release()
	q.b.Release()
}

// All iterates every entity that has both an A and a B.
func (q Query2[A, B]) All() func(yield func(EntityID, *A, *B) bool) {
	return func(yield func(EntityID, *A, *B) bool) {
		if q.a.Len() <= q.b.Len() {
			for id, av := range q.a.All() {
				bv, ok := q.b.Get(id)
				if !ok {
					continue
				}
				if !yield(id, av, bv) {
					return
				}
			}
			return
		}
		for id, bv := range q.b.All() {
			av, ok := q.a.Get(id)
			if !ok {
				continue
			}
			if !yield(id, av, bv) {
				return
			}
		}
	}
}

// Query2Without1 is Query2 filtered to exclude entities that also carry
// a C — spec.md §4.8's negation query. Go methods can't introduce a
// fresh type parameter, so there is no Query2.Without method; callers
// build one directly with FetchQuery2Without1.
type Query2Without1[A, B, C any] struct {
	q       Query2[A, B]
	without View[C]
}

// FetchQuery2Without1 fetches the three storages needed for an
// intersection-minus-one-exclusion query.
func FetchQuery2Without1[A, B, C any](storages *AtomicRefCell[*AllStorages], threadID uint64) (Query2Without1[A, B, C], error) {
	q, err := FetchQuery2[A, B](storages, threadID)
	if err != nil {
		return Query2Without1[A, B, C]{}, err
	}
	without, err := FetchView[C](storages, threadID)
	if err != nil {
		q.Release()
		return Query2Without1[A, B, C]{}, err
	}
	return Query2Without1[A, B, C]{q: q, without: without}, nil
}

// Release releases all three underlying views.
func (q Query2Without1[A, B, C]) Release() {
	q.q.Release()
	q.without.Release()
}

// All iterates every entity with both an A and a B but no C.
func (q Query2Without1[A, B, C]) All() func(yield func(EntityID, *A, *B) bool) {
	return func(yield func(EntityID, *A, *B) bool) {
		for id, av, bv := range q.q.All() {
			if q.without.Contains(id) {
				continue
			}
			if !yield(id, av, bv) {
				return
			}
		}
	}
}

// Query3 is the intersection of three component storages.
type Query3[A, B, C any] struct {
	a View[A]
	b View[B]
	c View[C]
}

// FetchQuery3 fetches the three storages needed for a Query3.
func FetchQuery3[A, B, C any](storages *AtomicRefCell[*AllStorages], threadID uint64) (Query3[A, B, C], error) {
	va, err := FetchView[A](storages, threadID)
	if err != nil {
		return Query3[A, B, C]{}, err
	}
	vb, err := FetchView[B](storages, threadID)
	if err != nil {
		va.Release()
		return Query3[A, B, C]{}, err
	}
	vc, err := FetchView[C](storages, threadID)
	if err != nil {
		va.Release()
		vb.Release()
		return Query3[A, B, C]{}, err
	}
	return Query3[A, B, C]{a: va, b: vb, c: vc}, nil
}

// Release releases all three underlying views.
func (q Query3[A, B, C]) Release() {
	q.a.Release()
	q.b.Release()
	q.c.Release()
}

// All iterates every entity that has an A, a B, and a C, driving the walk
// from whichever of the three storages is smallest.
func (q Query3[A, B, C]) All() func(yield func(EntityID, *A, *B, *C) bool) {
	return func(yield func(EntityID, *A, *B, *C) bool) {
		smallest := q.a.Len()
		driver := 0
		if q.b.Len() < smallest {
			smallest = q.b.Len()
			driver = 1
		}
		if q.c.Len() < smallest {
			driver = 2
		}

		probe := func(id EntityID) (*A, *B, *C, bool) {
			av, ok := q.a.Get(id)
			if !ok {
				return nil, nil, nil, false
			}
			bv, ok := q.b.Get(id)
			if !ok {
				return nil, nil, nil, false
			}
			cv, ok := q.c.Get(id)
			if !ok {
				return nil, nil, nil, false
			}
			return av, bv, cv, true
		}

		switch driver {
		case 0:
			for id := range q.a.All() {
				if av, bv, cv, ok := probe(id); ok {
					if !yield(id, av, bv, cv) {
						return
					}
				}
			}
		case 1:
			for id := range q.b.All() {
				if av, bv, cv, ok := probe(id); ok {
					if !yield(id, av, bv, cv) {
						return
					}
				}
			}
		default:
			for id := range q.c.All() {
				if av, bv, cv, ok := probe(id); ok {
					if !yield(id, av, bv, cv) {
						return
					}
				}
			}
		}
	}
}

// UnionIDs returns every entity id present in either a or b — spec.md
// §4.8's union query, exposed at the id level since A and B unioned
// components aren't simultaneously available for every id.
func UnionIDs[A, B any](a View[A], b View[B]) []EntityID {
	seen := make(map[EntityID]bool, a.Len()+b.Len())
	ids := make([]EntityID, 0, a.Len()+b.Len())
	for id := range a.All() {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range b.All() {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
