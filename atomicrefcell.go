package hive

// AtomicRefCell pairs a value with a BorrowState, giving non-blocking
// shared/exclusive access as described in spec.md §4.2.
type AtomicRefCell[T any] struct {
	state BorrowState
	value T
}

// NewAtomicRefCell wraps value for non-blocking shared/exclusive access.
func NewAtomicRefCell[T any](value T) *AtomicRefCell[T] {
	return &AtomicRefCell[T]{value: value}
}

// SharedGuard is a RAII-style read guard: call Release when done with it.
// It is movable by copying the struct but must not be released twice; Clone
// acquires an independent shared borrow over the same cell.
type SharedGuard[T any] struct {
	cell    *AtomicRefCell[T]
	release func()
}

// ExclusiveGuard is a RAII-style write guard: call Release when done.
type ExclusiveGuard[T any] struct {
	cell    *AtomicRefCell[T]
	release func()
}

// TryBorrow acquires a shared borrow, or fails with a BorrowError.
func (c *AtomicRefCell[T]) TryBorrow() (SharedGuard[T], error) {
	release, err := c.state.tryShared()
	if err != nil {
		return SharedGuard[T]{}, err
	}
	return SharedGuard[T]{cell: c, release: release}, nil
}

// TryBorrowMut acquires an exclusive borrow, or fails with a BorrowError.
func (c *AtomicRefCell[T]) TryBorrowMut() (ExclusiveGuard[T], error) {
	release, err := c.state.tryExclusive()
	if err != nil {
		return ExclusiveGuard[T]{}, err
	}
	return ExclusiveGuard[T]{cell: c, release: release}, nil
}

// Get returns a read-only reference whose validity is tied to the guard's
// lifetime; the caller must not use it after Release.
func (g SharedGuard[T]) Get() *T {
	return &g.cell.value
}

// Release ends the shared borrow.
func (g SharedGuard[T]) Release() {
	if g.release != nil {
		g.release()
	}
}

// Clone acquires an additional, independent shared borrow on the same
// cell — the only supported way to duplicate a guard (spec.md §4.1).
func (g SharedGuard[T]) Clone() (SharedGuard[T], error) {
	return g.cell.TryBorrow()
}

// Get returns a read-write reference whose validity is tied to the guard's
// lifetime.
func (g ExclusiveGuard[T]) Get() *T {
	return &g.cell.value
}

// Release ends the exclusive borrow.
func (g ExclusiveGuard[T]) Release() {
	if g.release != nil {
		g.release()
	}
}

// Reborrow derives a shared guard from this exclusive one without
// releasing it. The caller must release the derived guard before
// releasing the exclusive guard it came from.
func (g ExclusiveGuard[T]) Reborrow() SharedGuard[T] {
	return SharedGuard[T]{cell: g.cell, release: g.cell.state.sharedReborrow()}
}

// borrowToken is the owning half produced by Destructure: it knows how to
// release the borrow it represents but carries no reference to the data.
type borrowToken struct {
	release func()
}

// Release ends the borrow represented by the token.
func (t borrowToken) Release() {
	if t.release != nil {
		t.release()
	}
}

// Destructure splits a shared guard into a raw reference and the owning
// borrow token, so a nested view (outer AllStorages borrow, inner
// per-storage borrow) can rejoin the two lifetimes under a single guard
// type — spec.md §4.2.
func (g SharedGuard[T]) Destructure() (*T, borrowToken) {
	return &g.cell.value, borrowToken{release: g.release}
}

// Destructure splits an exclusive guard analogously to SharedGuard.Destructure.
func (g ExclusiveGuard[T]) Destructure() (*T, borrowToken) {
	return &g.cell.value, borrowToken{release: g.release}
}
