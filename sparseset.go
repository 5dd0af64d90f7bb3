package hive

import (
	"iter"
	"runtime"
	"sort"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

const sparsePageSize = 1024

// noDense marks a sparse slot as unoccupied.
const noDense = ^uint32(0)

type sparseEntry struct {
	dense      uint32
	generation uint32
}

// TrackingFlags selects which of the four independent change-tracking
// bits (spec.md §4.3) a SparseSet records. They are chosen once, at
// storage creation, and are immutable afterward.
type TrackingFlags struct {
	Insertion   bool
	Modification bool
	Deletion    bool
	Removal     bool
}

// deletedEntry is one record in a SparseSet's deletion log.
type deletedEntry[T any] struct {
	id    EntityID
	value T
}

// SparseSet is the per-component storage described in spec.md §3/§4.3: a
// paged sparse index, a dense entity list, a parallel data array, and
// optional change-tracking metadata.
type SparseSet[T any] struct {
	sparse []*[sparsePageSize]sparseEntry
	dense  []EntityID
	data   []T

	tracking         TrackingFlags
	insertionData    []uint32
	modificationData []uint32
	deletionData     []deletedEntry[T]
	removalData      []EntityID
}

// NewSparseSet creates an empty storage with the given tracking bits.
func NewSparseSet[T any](tracking TrackingFlags) *SparseSet[T] {
	return &SparseSet[T]{tracking: tracking}
}

func (s *SparseSet[T]) pageAndOffset(index uint32) (int, int) {
	return int(index / sparsePageSize), int(index % sparsePageSize)
}

func (s *SparseSet[T]) slotFor(index uint32) (sparseEntry, bool) {
	page, offset := s.pageAndOffset(index)
	if page >= len(s.sparse) || s.sparse[page] == nil {
		return sparseEntry{}, false
	}
	entry := s.sparse[page][offset]
	return entry, entry.dense != noDense
}

func (s *SparseSet[T]) ensurePage(index uint32) *[sparsePageSize]sparseEntry {
	page, _ := s.pageAndOffset(index)
	for len(s.sparse) <= page {
		s.sparse = append(s.sparse, nil)
	}
	if s.sparse[page] == nil {
		p := new([sparsePageSize]sparseEntry)
		for i := range p {
			p[i].dense = noDense
		}
		s.sparse[page] = p
	}
	return s.sparse[page]
}

func (s *SparseSet[T]) setSlot(index uint32, entry sparseEntry) {
	page := s.ensurePage(index)
	_, offset := s.pageAndOffset(index)
	page[offset] = entry
}

func (s *SparseSet[T]) clearSlot(index uint32) {
	page, offset := s.pageAndOffset(index)
	if page < len(s.sparse) && s.sparse[page] != nil {
		s.sparse[page][offset].dense = noDense
	}
}

// indexOf returns the dense-array position of id, if present and live.
func (s *SparseSet[T]) indexOf(id EntityID) (uint32, bool) {
	entry, ok := s.slotFor(id.Index())
	if !ok || entry.generation != id.Generation() {
		return 0, false
	}
	return entry.dense, true
}

// Contains reports whether id currently owns a component in this storage.
func (s *SparseSet[T]) Contains(id EntityID) bool {
	_, ok := s.indexOf(id)
	return ok
}

// Len returns the number of components currently stored.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// Get returns a read-only pointer to id's component, if any.
func (s *SparseSet[T]) Get(id EntityID) (*T, bool) {
	idx, ok := s.indexOf(id)
	if !ok {
		return nil, false
	}
	return &s.data[idx], true
}

// GetMut returns a read-write pointer to id's component, bumping the
// modification timestamp if modification tracking is enabled.
func (s *SparseSet[T]) GetMut(id EntityID, currentTimestamp uint32) (*T, bool) {
	idx, ok := s.indexOf(id)
	if !ok {
		return nil, false
	}
	if s.tracking.Modification {
		s.modificationData[idx] = currentTimestamp
	}
	return &s.data[idx], true
}

// Insert adds or replaces id's component, returning the previous value (if
// any) and whether this was a fresh insertion.
func (s *SparseSet[T]) Insert(id EntityID, value T, currentTimestamp uint32) (previous *T, wasNew bool) {
	if idx, ok := s.indexOf(id); ok {
		old := s.data[idx]
		s.data[idx] = value
		if s.tracking.Modification {
			s.modificationData[idx] = currentTimestamp
		}
		return &old, false
	}

	idx := uint32(len(s.dense))
	s.dense = append(s.dense, id)
	s.data = append(s.data, value)
	s.setSlot(id.Index(), sparseEntry{dense: idx, generation: id.Generation()})

	if s.tracking.Insertion {
		s.insertionData = append(s.insertionData, currentTimestamp)
	}
	if s.tracking.Modification {
		s.modificationData = append(s.modificationData, currentTimestamp)
	}
	return nil, true
}

// swapRemove is the core algorithm from spec.md §4.3: swap the target with
// the last dense element, pop, and repair the sparse entry of whichever
// element moved into the vacated slot.
func (s *SparseSet[T]) swapRemove(id EntityID) (T, bool) {
	idx, ok := s.indexOf(id)
	if !ok {
		var zero T
		return zero, false
	}

	last := uint32(len(s.dense) - 1)
	value := s.data[idx]

	if idx != last {
		movedID := s.dense[last]
		s.dense[idx] = movedID
		s.data[idx] = s.data[last]
		s.setSlot(movedID.Index(), sparseEntry{dense: idx, generation: movedID.Generation()})

		if s.tracking.Insertion {
			s.insertionData[idx] = s.insertionData[last]
		}
		if s.tracking.Modification {
			s.modificationData[idx] = s.modificationData[last]
		}
	}

	s.dense = s.dense[:last]
	s.data = s.data[:last]
	if s.tracking.Insertion {
		s.insertionData = s.insertionData[:last]
	}
	if s.tracking.Modification {
		s.modificationData = s.modificationData[:last]
	}
	s.clearSlot(id.Index())

	return value, true
}

// Remove removes id's component and returns it, logging the id in the
// removal log when removal tracking is enabled.
func (s *SparseSet[T]) Remove(id EntityID) (T, bool) {
	value, ok := s.swapRemove(id)
	if ok && s.tracking.Removal {
		s.removalData = append(s.removalData, id)
	}
	return value, ok
}

// Delete removes id's component, recording it in the deletion log instead
// of returning it when deletion tracking is enabled.
func (s *SparseSet[T]) Delete(id EntityID) bool {
	value, ok := s.swapRemove(id)
	if ok && s.tracking.Deletion {
		s.deletionData = append(s.deletionData, deletedEntry[T]{id: id, value: value})
	}
	return ok
}

// InsertedSince reports whether id's component was inserted after
// timestamp `last` and at or before `current`, using wrap-aware interval
// arithmetic so a wrapping 32-bit counter stays correct (spec.md §4.3).
func (s *SparseSet[T]) InsertedSince(id EntityID, last, current uint32) bool {
	if !s.tracking.Insertion {
		return false
	}
	idx, ok := s.indexOf(id)
	if !ok {
		return false
	}
	return withinTrackBounds(s.insertionData[idx], last, current)
}

// ModifiedSince is InsertedSince's analogue for the modification log.
func (s *SparseSet[T]) ModifiedSince(id EntityID, last, current uint32) bool {
	if !s.tracking.Modification {
		return false
	}
	idx, ok := s.indexOf(id)
	if !ok {
		return false
	}
	return withinTrackBounds(s.modificationData[idx], last, current)
}

// DeletionLog returns the ids and values deleted since the log was last
// cleared.
func (s *SparseSet[T]) DeletionLog() []struct {
	ID    EntityID
	Value T
} {
	out := make([]struct {
		ID    EntityID
		Value T
	}, len(s.deletionData))
	for i, d := range s.deletionData {
		out[i].ID, out[i].Value = d.id, d.value
	}
	return out
}

// RemovalLog returns the ids removed since the log was last cleared.
func (s *SparseSet[T]) RemovalLog() []EntityID {
	return append([]EntityID(nil), s.removalData...)
}

// ClearDeletionLog empties the deletion log. AllStorages.ClearTrackingLogs
// calls it for every registered storage; nothing clears the log otherwise.
func (s *SparseSet[T]) ClearDeletionLog() {
	s.deletionData = s.deletionData[:0]
}

// ClearRemovalLog empties the removal log.
func (s *SparseSet[T]) ClearRemovalLog() {
	s.removalData = s.removalData[:0]
}

// All iterates (EntityID, *T) pairs in dense order.
func (s *SparseSet[T]) All() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i], &s.data[i]) {
				return
			}
		}
	}
}

// ParallelEach splits the dense range into subranges and runs fn over each
// subrange concurrently (spec.md §4.3 "parallel iteration splits the dense
// range into subranges"), joining before returning.
func (s *SparseSet[T]) ParallelEach(fn func(EntityID, *T)) error {
	n := len(s.dense)
	if n == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(s.dense[i], &s.data[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// Drain empties the storage, streaming the removed (id, value) pairs and
// updating tracking as a bulk removal.
func (s *SparseSet[T]) Drain() []struct {
	ID    EntityID
	Value T
} {
	out := make([]struct {
		ID    EntityID
		Value T
	}, len(s.dense))
	for i := range s.dense {
		out[i].ID, out[i].Value = s.dense[i], s.data[i]
	}
	if s.tracking.Removal {
		s.removalData = append(s.removalData, s.dense...)
	}
	for page := range s.sparse {
		s.sparse[page] = nil
	}
	s.dense = s.dense[:0]
	s.data = s.data[:0]
	s.insertionData = s.insertionData[:0]
	s.modificationData = s.modificationData[:0]
	return out
}

// Sort reorders dense and data in place according to less, then rewrites
// sparse from the new dense order. It is idempotent for a fixed
// comparator and never changes which ids Contains reports (spec.md §8).
func (s *SparseSet[T]) Sort(less func(a, b T) bool) {
	n := len(s.dense)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return less(s.data[perm[i]], s.data[perm[j]])
	})
	applyPermutation(perm, s.dense)
	applyPermutation(perm, s.data)
	if s.tracking.Insertion {
		applyPermutation(perm, s.insertionData)
	}
	if s.tracking.Modification {
		applyPermutation(perm, s.modificationData)
	}
	for i, id := range s.dense {
		s.setSlot(id.Index(), sparseEntry{dense: uint32(i), generation: id.Generation()})
	}
}

// applyPermutation rearranges data in place so that data[i] becomes the
// element that was at perm[i], by following the permutation's cycles —
// spec.md §4.3's prescribed in-place permutation application.
func applyPermutation[S any](perm []int, data []S) {
	perm = append([]int(nil), perm...)
	for i := range data {
		if perm[i] < 0 {
			continue
		}
		held := data[i]
		cur := i
		for {
			next := perm[cur]
			perm[cur] = -1
			if next == i {
				data[cur] = held
				break
			}
			data[cur] = data[next]
			cur = next
		}
	}
}

// MemoryUsage estimates bytes held directly by this storage's slices,
// excluding data T may itself point to — the "memory_usage" capability
// named in spec.md §9.
func (s *SparseSet[T]) MemoryUsage() uintptr {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	idSize := unsafe.Sizeof(EntityID(0))
	pageSize := unsafe.Sizeof(sparseEntry{}) * sparsePageSize

	usage := uintptr(len(s.sparse)) * pageSize
	usage += uintptr(cap(s.dense)) * idSize
	usage += uintptr(cap(s.data)) * elemSize
	usage += uintptr(cap(s.insertionData)+cap(s.modificationData)) * unsafe.Sizeof(uint32(0))
	return usage
}
