package hive

import "sync"

// ThreadAffinity marks whether a storage may be borrowed from any worker
// thread or is pinned to whichever thread first registered it — the Go
// analogue of Rust's !Send/!Sync storages (spec.md §4.4/§5).
type ThreadAffinity int

const (
	// AnyThread storages may be borrowed from any caller.
	AnyThread ThreadAffinity = iota
	// OriginThreadOnly storages may only be borrowed from the thread id
	// that registered them; the scheduler must place their systems in a
	// singleton batch pinned to that thread.
	OriginThreadOnly
)

// storageHandle is the non-generic face every typedStorage[T] presents to
// AllStorages, so the registry can hold heterogeneous component types in
// one map.
type storageHandle interface {
	deleteEntity(EntityID) bool
	memoryUsage() uintptr
	clearTrackingLogs()
	drainAll()
	affinity() ThreadAffinity
	ownerThread() uint64
}

type typedStorage[T any] struct {
	cell        *AtomicRefCell[*SparseSet[T]]
	aff         ThreadAffinity
	owner       uint64
}

func (t *typedStorage[T]) deleteEntity(id EntityID) bool {
	g, err := t.cell.TryBorrowMut()
	if err != nil {
		return false
	}
	defer g.Release()
	return g.Get().Delete(id)
}

func (t *typedStorage[T]) memoryUsage() uintptr {
	g, err := t.cell.TryBorrow()
	if err != nil {
		return 0
	}
	defer g.Release()
	return g.Get().MemoryUsage()
}

func (t *typedStorage[T]) clearTrackingLogs() {
	g, err := t.cell.TryBorrowMut()
	if err != nil {
		return
	}
	defer g.Release()
	s := g.Get()
	s.ClearDeletionLog()
	s.ClearRemovalLog()
}

func (t *typedStorage[T]) drainAll() {
	g, err := t.cell.TryBorrowMut()
	if err != nil {
		return
	}
	defer g.Release()
	g.Get().Drain()
}

func (t *typedStorage[T]) affinity() ThreadAffinity { return t.aff }
func (t *typedStorage[T]) ownerThread() uint64       { return t.owner }

// RegistryLocker is the locking primitive AllStorages uses to protect its
// registry map. sync.RWMutex satisfies it directly; WithCustomLock lets a
// World substitute a different implementation.
type RegistryLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// uniqueStorage holds a single T value under the same AtomicRefCell borrow
// discipline as a sparse set, but with no entity dimension at all — spec.md
// §3's "unique storage". Unlike typedStorage[T] it never participates in
// entity-indexed operations (DeleteEntity, Strip, Clear): a unique value has
// no owning entity to strip it from.
type uniqueStorage[T any] struct {
	cell *AtomicRefCell[T]
}

// AllStorages is the registry of every component storage in a World,
// keyed by StorageID, plus the shared entity allocator — spec.md §4.4.
// The registry map itself is protected by a RegistryLocker; the
// per-storage borrow discipline (shared/exclusive, thread affinity) is
// each storage's own AtomicRefCell.
type AllStorages struct {
	mu       RegistryLocker
	entries  map[StorageID]storageHandle
	uniques  map[StorageID]any
	entities *AtomicRefCell[*Entities]
}

// NewAllStorages creates an empty registry with no storages registered,
// using a plain sync.RWMutex to guard the registry map.
func NewAllStorages() *AllStorages {
	return NewAllStoragesWithLocker(&sync.RWMutex{})
}

// NewAllStoragesWithLocker is NewAllStorages with an injectable
// RegistryLocker, the mechanism behind WorldConfig's WithCustomLock.
func NewAllStoragesWithLocker(locker RegistryLocker) *AllStorages {
	return &AllStorages{
		mu:       locker,
		entries:  make(map[StorageID]storageHandle),
		uniques:  make(map[StorageID]any),
		entities: NewAtomicRefCell(NewEntities()),
	}
}

// BorrowEntities acquires a shared borrow of the entity allocator.
func (as *AllStorages) BorrowEntities() (SharedGuard[*Entities], error) {
	return as.entities.TryBorrow()
}

// BorrowEntitiesMut acquires an exclusive borrow of the entity allocator.
func (as *AllStorages) BorrowEntitiesMut() (ExclusiveGuard[*Entities], error) {
	return as.entities.TryBorrowMut()
}

// GetOrInsertStorage returns the AtomicRefCell backing T's SparseSet,
// creating it with the given tracking flags and thread affinity on first
// use. threadID identifies the calling thread for affinity enforcement;
// callers that don't care about thread affinity pass AnyThread and any
// threadID value.
func GetOrInsertStorage[T any](as *AllStorages, threadID uint64, affinity ThreadAffinity, tracking TrackingFlags) (*AtomicRefCell[*SparseSet[T]], error) {
	id := storageIDFor[T]()

	as.mu.RLock()
	if h, ok := as.entries[id]; ok {
		as.mu.RUnlock()
		return checkedCell[T](h, id, threadID)
	}
	as.mu.RUnlock()

	as.mu.Lock()
	defer as.mu.Unlock()
	if h, ok := as.entries[id]; ok {
		return checkedCell[T](h, id, threadID)
	}

	ts := &typedStorage[T]{
		cell:  NewAtomicRefCell(NewSparseSet[T](tracking)),
		aff:   affinity,
		owner: threadID,
	}
	as.entries[id] = ts
	return ts.cell, nil
}

func checkedCell[T any](h storageHandle, id StorageID, threadID uint64) (*AtomicRefCell[*SparseSet[T]], error) {
	ts, ok := h.(*typedStorage[T])
	if !ok {
		return nil, StorageMissingError{StorageID: id}
	}
	if ts.aff == OriginThreadOnly && ts.owner != threadID {
		return nil, WrongThreadError{StorageID: id}
	}
	return ts.cell, nil
}

// BorrowStorage acquires a shared borrow of T's storage. It fails with
// StorageMissingError if T has never been registered.
func BorrowStorage[T any](as *AllStorages, threadID uint64) (SharedGuard[*SparseSet[T]], error) {
	cell, err := existingCell[T](as, threadID)
	if err != nil {
		return SharedGuard[*SparseSet[T]]{}, err
	}
	return cell.TryBorrow()
}

// BorrowStorageMut acquires an exclusive borrow of T's storage.
func BorrowStorageMut[T any](as *AllStorages, threadID uint64) (ExclusiveGuard[*SparseSet[T]], error) {
	cell, err := existingCell[T](as, threadID)
	if err != nil {
		return ExclusiveGuard[*SparseSet[T]]{}, err
	}
	return cell.TryBorrowMut()
}

func existingCell[T any](as *AllStorages, threadID uint64) (*AtomicRefCell[*SparseSet[T]], error) {
	id := storageIDFor[T]()
	as.mu.RLock()
	h, ok := as.entries[id]
	as.mu.RUnlock()
	if !ok {
		return nil, StorageMissingError{StorageID: id}
	}
	return checkedCell[T](h, id, threadID)
}

// RemoveStorage deletes T's storage from the registry entirely, returning
// the final contents of the SparseSet it held.
func RemoveStorage[T any](as *AllStorages) (*SparseSet[T], error) {
	id := storageIDFor[T]()
	as.mu.Lock()
	defer as.mu.Unlock()

	h, ok := as.entries[id]
	if !ok {
		return nil, StorageMissingError{StorageID: id}
	}
	ts, ok := h.(*typedStorage[T])
	if !ok {
		return nil, StorageMissingError{StorageID: id}
	}
	g, err := ts.cell.TryBorrowMut()
	if err != nil {
		return nil, err
	}
	defer g.Release()
	delete(as.entries, id)
	return g.Get(), nil
}

// DeleteAny drains every component of type T, regardless of which entity
// owns it, without affecting any other storage — spec.md §9's
// "delete_any" supplemented feature. It is a no-op if T was never
// registered.
func DeleteAny[T any](as *AllStorages) {
	id := storageIDFor[T]()
	as.mu.RLock()
	h, ok := as.entries[id]
	as.mu.RUnlock()
	if !ok {
		return
	}
	ts, ok := h.(*typedStorage[T])
	if !ok {
		return
	}
	g, err := ts.cell.TryBorrowMut()
	if err != nil {
		return
	}
	defer g.Release()
	g.Get().Drain()
}

// Strip removes every component belonging to id from every registered
// storage, leaving the entity id itself alive — spec.md §9's "strip".
func (as *AllStorages) Strip(id EntityID) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, h := range as.entries {
		h.deleteEntity(id)
	}
}

// DeleteEntity strips id's components and then kills the entity id,
// recycling its index with a bumped generation.
func (as *AllStorages) DeleteEntity(id EntityID) bool {
	as.Strip(id)
	g, err := as.entities.TryBorrowMut()
	if err != nil {
		return false
	}
	defer g.Release()
	return g.Get().Kill(id)
}

// RetainEntity strips every component belonging to id except those in
// storages named by keep — spec.md §9's "retain".
func (as *AllStorages) RetainEntity(id EntityID, keep ...StorageID) {
	keepSet := make(map[StorageID]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}
	as.mu.RLock()
	defer as.mu.RUnlock()
	for sid, h := range as.entries {
		if keepSet[sid] {
			continue
		}
		h.deleteEntity(id)
	}
}

// Clear drains every registered storage, removing every entity's
// components without deallocating any entity id — spec.md §9's "clear".
func (as *AllStorages) Clear() {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, h := range as.entries {
		h.drainAll()
	}
}

// MemoryUsage sums MemoryUsage across every registered storage.
func (as *AllStorages) MemoryUsage() uintptr {
	as.mu.RLock()
	defer as.mu.RUnlock()
	var total uintptr
	for _, h := range as.entries {
		total += h.memoryUsage()
	}
	return total
}

// ClearTrackingLogs empties every storage's deletion and removal logs.
// World does not call it; the logs keep growing until a caller does.
func (as *AllStorages) ClearTrackingLogs() {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, h := range as.entries {
		h.clearTrackingLogs()
	}
}

// StorageIDs returns the ids of every currently registered storage, for
// diagnostics. The scheduler does not use it: its conflict analysis works
// from each system's declared borrows.
func (as *AllStorages) StorageIDs() []StorageID {
	as.mu.RLock()
	defer as.mu.RUnlock()
	ids := make([]StorageID, 0, len(as.entries))
	for id := range as.entries {
		ids = append(ids, id)
	}
	return ids
}

// AddUniqueStorage installs value as T's unique (singleton) storage,
// replacing any value already present — spec.md §6's "world.add_unique".
func AddUniqueStorage[T any](as *AllStorages, value T) error {
	id := uniqueStorageID[T]()

	as.mu.Lock()
	defer as.mu.Unlock()
	if h, ok := as.uniques[id]; ok {
		us := h.(*uniqueStorage[T])
		g, err := us.cell.TryBorrowMut()
		if err != nil {
			return err
		}
		defer g.Release()
		*g.Get() = value
		return nil
	}
	as.uniques[id] = &uniqueStorage[T]{cell: NewAtomicRefCell(value)}
	return nil
}

// RemoveUniqueStorage deletes T's unique storage entirely, returning its
// final value — spec.md §6's "remove_unique::<T>()". The bool result is
// false if T had no unique storage registered.
func RemoveUniqueStorage[T any](as *AllStorages) (T, bool, error) {
	id := uniqueStorageID[T]()

	as.mu.Lock()
	defer as.mu.Unlock()
	h, ok := as.uniques[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	us := h.(*uniqueStorage[T])
	g, err := us.cell.TryBorrowMut()
	if err != nil {
		var zero T
		return zero, false, err
	}
	value := *g.Get()
	g.Release()
	delete(as.uniques, id)
	return value, true, nil
}

// uniqueCell returns the AtomicRefCell backing T's unique storage, failing
// with StorageMissingError if AddUniqueStorage was never called for T.
func uniqueCell[T any](as *AllStorages) (*AtomicRefCell[T], error) {
	id := uniqueStorageID[T]()

	as.mu.RLock()
	defer as.mu.RUnlock()
	h, ok := as.uniques[id]
	if !ok {
		return nil, StorageMissingError{StorageID: id}
	}
	return h.(*uniqueStorage[T]).cell, nil
}
