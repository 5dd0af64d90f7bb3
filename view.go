package hive

import (
	"iter"
	"reflect"
)

// entitiesStorageID is the sentinel StorageID standing for the shared
// entity allocator, so EntitiesView/EntitiesViewMut participate in the
// same conflict analysis as any other storage.
var entitiesStorageID = customStorageID(reflect.TypeOf(Entities{}), "entities")

// View is read-only access to T's component storage. Fetching one takes
// a shared borrow of the World's outer AllStorages cell and a shared
// borrow of T's own storage; Release drops the inner borrow before the
// outer one, per spec.md §4.5's nested-guard rejoining.
type View[T any] struct {
	inner SharedGuard[*SparseSet[T]]
	outer borrowToken
}

// FetchView acquires a View[T] from the World's registry cell, creating
// T's storage (with default tracking, and OriginThreadOnly affinity if T
// implements ThreadAffine, AnyThread otherwise) if this is its first use — reading from a component type nothing has ever
// inserted into is simply an always-empty view, not an error.
func FetchView[T any](storages *AtomicRefCell[*AllStorages], threadID uint64) (View[T], error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return View[T]{}, err
	}
	cell, err := GetOrInsertStorage[T](outer.Get(), threadID, affinityFor[T](), TrackingFlags{})
	if err != nil {
		outer.Release()
		return View[T]{}, err
	}
	inner, err := cell.TryBorrow()
	if err != nil {
		outer.Release()
		return View[T]{}, err
	}
	_, outerToken := outer.Destructure()
	return View[T]{inner: inner, outer: outerToken}, nil
}

// Get returns a read-only pointer to id's component, if any.
func (v View[T]) Get(id EntityID) (*T, bool) { return v.inner.Get().Get(id) }

// Contains reports whether id owns a component in this storage.
func (v View[T]) Contains(id EntityID) bool { return v.inner.Get().Contains(id) }

// All iterates every (EntityID, *T) pair in the storage.
func (v View[T]) All() iter.Seq2[EntityID, *T] { return v.inner.Get().All() }

// Len returns the number of components in the storage.
func (v View[T]) Len() int { return v.inner.Get().Len() }

// Release ends both the inner and outer borrows, inner first.
func (v View[T]) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares View[T]'s static access: shared on T's storage.
func (View[T]) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: storageIDFor[T](), Mutability: Shared, Affinity: threadSafetyFor[T]()}
}

// ViewMut is read-write access to T's component storage.
type ViewMut[T any] struct {
	inner     ExclusiveGuard[*SparseSet[T]]
	outer     borrowToken
	timestamp uint32
}

// FetchViewMut acquires a ViewMut[T], creating T's storage on first use
// like FetchView. timestamp is the World's current tick, stamped onto
// components this guard modifies or inserts.
func FetchViewMut[T any](storages *AtomicRefCell[*AllStorages], threadID uint64, timestamp uint32) (ViewMut[T], error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return ViewMut[T]{}, err
	}
	cell, err := GetOrInsertStorage[T](outer.Get(), threadID, affinityFor[T](), TrackingFlags{})
	if err != nil {
		outer.Release()
		return ViewMut[T]{}, err
	}
	inner, err := cell.TryBorrowMut()
	if err != nil {
		outer.Release()
		return ViewMut[T]{}, err
	}
	_, outerToken := outer.Destructure()
	return ViewMut[T]{inner: inner, outer: outerToken, timestamp: timestamp}, nil
}

// Get returns a read-only pointer to id's component, if any, without
// marking it modified.
func (v ViewMut[T]) Get(id EntityID) (*T, bool) { return v.inner.Get().Get(id) }

// GetMut returns a read-write pointer to id's component, marking it
// modified as of this guard's timestamp.
func (v ViewMut[T]) GetMut(id EntityID) (*T, bool) { return v.inner.Get().GetMut(id, v.timestamp) }

// Insert adds or replaces id's component.
func (v ViewMut[T]) Insert(id EntityID, value T) (*T, bool) {
	return v.inner.Get().Insert(id, value, v.timestamp)
}

// Remove removes id's component and returns it.
func (v ViewMut[T]) Remove(id EntityID) (T, bool) { return v.inner.Get().Remove(id) }

// Delete removes id's component, logging it if deletion tracking is on.
func (v ViewMut[T]) Delete(id EntityID) bool { return v.inner.Get().Delete(id) }

// Contains reports whether id owns a component in this storage.
func (v ViewMut[T]) Contains(id EntityID) bool { return v.inner.Get().Contains(id) }

// All iterates every (EntityID, *T) pair in the storage.
func (v ViewMut[T]) All() iter.Seq2[EntityID, *T] { return v.inner.Get().All() }

// Sort reorders the storage's dense array according to less.
func (v ViewMut[T]) Sort(less func(a, b T) bool) { v.inner.Get().Sort(less) }

// Release ends both the inner and outer borrows, inner first.
func (v ViewMut[T]) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares ViewMut[T]'s static access: exclusive on T's
// storage.
func (ViewMut[T]) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: storageIDFor[T](), Mutability: Exclusive, Affinity: threadSafetyFor[T]()}
}

// UniqueView is read-only access to T's unique (singleton) storage — the
// same nested-guard shape as View[T], but over a single T value rather
// than a SparseSet[T], per spec.md §3/§4.5.
type UniqueView[T any] struct {
	inner SharedGuard[T]
	outer borrowToken
}

// FetchUniqueView acquires a UniqueView[T] from the World's registry cell.
// It fails with StorageMissingError if AddUnique was never called for T.
func FetchUniqueView[T any](storages *AtomicRefCell[*AllStorages]) (UniqueView[T], error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return UniqueView[T]{}, err
	}
	cell, err := uniqueCell[T](outer.Get())
	if err != nil {
		outer.Release()
		return UniqueView[T]{}, err
	}
	inner, err := cell.TryBorrow()
	if err != nil {
		outer.Release()
		return UniqueView[T]{}, err
	}
	_, outerToken := outer.Destructure()
	return UniqueView[T]{inner: inner, outer: outerToken}, nil
}

// Get returns the unique storage's current value.
func (v UniqueView[T]) Get() T { return *v.inner.Get() }

// Release ends both the inner and outer borrows, inner first.
func (v UniqueView[T]) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares UniqueView[T]'s static access: shared on T's unique
// storage.
func (UniqueView[T]) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: uniqueStorageID[T](), Mutability: Shared, Affinity: threadSafetyFor[T]()}
}

// UniqueViewMut is read-write access to T's unique storage.
type UniqueViewMut[T any] struct {
	inner ExclusiveGuard[T]
	outer borrowToken
}

// FetchUniqueViewMut acquires a UniqueViewMut[T]. It fails with
// StorageMissingError if AddUnique was never called for T.
func FetchUniqueViewMut[T any](storages *AtomicRefCell[*AllStorages]) (UniqueViewMut[T], error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return UniqueViewMut[T]{}, err
	}
	cell, err := uniqueCell[T](outer.Get())
	if err != nil {
		outer.Release()
		return UniqueViewMut[T]{}, err
	}
	inner, err := cell.TryBorrowMut()
	if err != nil {
		outer.Release()
		return UniqueViewMut[T]{}, err
	}
	_, outerToken := outer.Destructure()
	return UniqueViewMut[T]{inner: inner, outer: outerToken}, nil
}

// Get returns the unique storage's current value.
func (v UniqueViewMut[T]) Get() T { return *v.inner.Get() }

// Set replaces the unique storage's value.
func (v UniqueViewMut[T]) Set(value T) { *v.inner.Get() = value }

// Release ends both the inner and outer borrows, inner first.
func (v UniqueViewMut[T]) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares UniqueViewMut[T]'s static access: exclusive on T's
// unique storage.
func (UniqueViewMut[T]) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: uniqueStorageID[T](), Mutability: Exclusive, Affinity: threadSafetyFor[T]()}
}

// EntitiesView is read-only access to the entity allocator.
type EntitiesView struct {
	inner SharedGuard[*Entities]
	outer borrowToken
}

// FetchEntitiesView acquires an EntitiesView from the World's registry cell.
func FetchEntitiesView(storages *AtomicRefCell[*AllStorages]) (EntitiesView, error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return EntitiesView{}, err
	}
	inner, err := outer.Get().BorrowEntities()
	if err != nil {
		outer.Release()
		return EntitiesView{}, err
	}
	_, outerToken := outer.Destructure()
	return EntitiesView{inner: inner, outer: outerToken}, nil
}

// IsAlive reports whether id is currently alive.
func (v EntitiesView) IsAlive(id EntityID) bool { return v.inner.Get().IsAlive(id) }

// Len returns the number of live entities.
func (v EntitiesView) Len() int { return v.inner.Get().Len() }

// Release ends both the inner and outer borrows, inner first.
func (v EntitiesView) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares EntitiesView's static access: shared on the
// entities storage.
func (EntitiesView) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: entitiesStorageID, Mutability: Shared}
}

// EntitiesViewMut is read-write access to the entity allocator: spawning,
// killing, and bulk reservation.
type EntitiesViewMut struct {
	inner ExclusiveGuard[*Entities]
	outer borrowToken
}

// FetchEntitiesViewMut acquires an EntitiesViewMut.
func FetchEntitiesViewMut(storages *AtomicRefCell[*AllStorages]) (EntitiesViewMut, error) {
	outer, err := storages.TryBorrow()
	if err != nil {
		return EntitiesViewMut{}, err
	}
	inner, err := outer.Get().BorrowEntitiesMut()
	if err != nil {
		outer.Release()
		return EntitiesViewMut{}, err
	}
	_, outerToken := outer.Destructure()
	return EntitiesViewMut{inner: inner, outer: outerToken}, nil
}

// Spawn allocates a fresh entity id.
func (v EntitiesViewMut) Spawn() EntityID { return v.inner.Get().Spawn() }

// BulkReserve allocates n fresh entity ids at once.
func (v EntitiesViewMut) BulkReserve(n int) []EntityID { return v.inner.Get().BulkReserve(n) }

// Kill recycles id's index with a bumped generation.
func (v EntitiesViewMut) Kill(id EntityID) bool { return v.inner.Get().Kill(id) }

// IsAlive reports whether id is currently alive.
func (v EntitiesViewMut) IsAlive(id EntityID) bool { return v.inner.Get().IsAlive(id) }

// Release ends both the inner and outer borrows, inner first.
func (v EntitiesViewMut) Release() {
	v.inner.Release()
	v.outer.Release()
}

// BorrowInfo declares EntitiesViewMut's static access: exclusive on the
// entities storage.
func (EntitiesViewMut) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: entitiesStorageID, Mutability: Exclusive}
}

// AllStoragesView is read-only access to the whole registry: the set of
// registered storages and their identities, without committing to any
// one storage's contents.
type AllStoragesView struct {
	guard SharedGuard[*AllStorages]
}

// FetchAllStoragesView acquires a shared borrow of the registry itself.
func FetchAllStoragesView(storages *AtomicRefCell[*AllStorages]) (AllStoragesView, error) {
	g, err := storages.TryBorrow()
	if err != nil {
		return AllStoragesView{}, err
	}
	return AllStoragesView{guard: g}, nil
}

// Storages returns the underlying registry.
func (v AllStoragesView) Storages() *AllStorages { return v.guard.Get() }

// Release ends the borrow.
func (v AllStoragesView) Release() { v.guard.Release() }

// BorrowInfo declares AllStoragesView's static access: shared on the
// AllStorages sentinel.
func (AllStoragesView) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: allStoragesID, Mutability: Shared}
}

// AllStoragesViewMut is exclusive access to the whole registry: adding or
// removing storages, or running cross-storage operations like
// DeleteEntity/Strip. Holding it excludes every other guard in the
// World, because they all borrow the same outer cell to reach their own
// storage.
type AllStoragesViewMut struct {
	guard ExclusiveGuard[*AllStorages]
}

// FetchAllStoragesViewMut acquires an exclusive borrow of the registry.
func FetchAllStoragesViewMut(storages *AtomicRefCell[*AllStorages]) (AllStoragesViewMut, error) {
	g, err := storages.TryBorrowMut()
	if err != nil {
		return AllStoragesViewMut{}, err
	}
	return AllStoragesViewMut{guard: g}, nil
}

// Storages returns the underlying registry.
func (v AllStoragesViewMut) Storages() *AllStorages { return v.guard.Get() }

// Release ends the borrow.
func (v AllStoragesViewMut) Release() { v.guard.Release() }

// BorrowInfo declares AllStoragesViewMut's static access: exclusive on
// the AllStorages sentinel.
func (AllStoragesViewMut) BorrowInfo() BorrowInfo {
	return BorrowInfo{Storage: allStoragesID, Mutability: Exclusive}
}
