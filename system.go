package hive

import (
	"fmt"
	"sync/atomic"
)

// SystemID is a stable handle for a registered system, assigned in
// registration order.
type SystemID uint32

var nextSystemID atomic.Uint32

// SystemFunc is a system body. It fetches whatever guards it needs
// directly from w and must release every guard it fetches before
// returning.
type SystemFunc func(w *World) error

// System pairs a SystemFunc with the statically declared set of storages
// it touches, computed once at registration — spec.md §4.6. The
// scheduler uses Borrows to place systems into batches without ever
// running them.
type System struct {
	ID      SystemID
	Name    string
	Borrows []BorrowInfo
	Pinned  bool
	Run     SystemFunc

	access accessMask
}

// Borrows collects the BorrowInfo of a list of guard zero-values into a
// system's declared access set, e.g.
// Borrows(View[Position]{}, ViewMut[Velocity]{}).
func Borrows(guards ...borrowDeclaring) []BorrowInfo {
	out := make([]BorrowInfo, len(guards))
	for i, g := range guards {
		out[i] = g.BorrowInfo()
	}
	return out
}

// NewSystem registers a system with an explicit name, declared borrows,
// and body. It rejects borrow sets that are self-contradictory before
// the system ever runs. A system that declares a NotSendSync borrow is
// pinned automatically — the scheduler placement spec.md §4.4/§5 require
// for thread-affine storages doesn't depend on the caller remembering to
// call Pin().
func NewSystem(name string, borrows []BorrowInfo, run SystemFunc) (*System, error) {
	if err := validateSystemBorrows(borrows); err != nil {
		return nil, err
	}
	return &System{
		ID:      SystemID(nextSystemID.Add(1)),
		Name:    name,
		Borrows: borrows,
		Pinned:  hasNotSendSync(borrows),
		Run:     run,
		access:  buildAccessMask(borrows),
	}, nil
}

func hasNotSendSync(borrows []BorrowInfo) bool {
	for _, b := range borrows {
		if b.Affinity == NotSendSync {
			return true
		}
	}
	return false
}

// Pin marks a system as required to run alone, on the calling goroutine,
// never dispatched onto the worker pool — the placement forced on
// systems that touch a thread-affine (OriginThreadOnly) storage,
// spec.md §4.4/§5. It folds the pin directly into the system's accessMask
// (an AllStorages-exclusive bit, the same sentinel a NotSendSync borrow
// gets), so a pinned system conflicts with everything the scheduler
// considers and always lands in its own singleton batch, regardless of
// where it falls relative to the batches already built.
func (s *System) Pin() *System {
	s.Pinned = true
	s.access.markAllStoragesExclusive()
	return s
}

// validateSystemBorrows rejects two self-contradictions spec.md §4.6
// calls out: requesting the same storage twice with conflicting
// mutability, and combining AllStorages-exclusive access with any other
// guard (it would conflict with itself).
func validateSystemBorrows(borrows []BorrowInfo) error {
	hasAllExclusive := false
	for _, b := range borrows {
		if b.Storage.IsAllStorages() && b.Mutability == Exclusive {
			hasAllExclusive = true
		}
	}
	if hasAllExclusive && len(borrows) > 1 {
		return InvalidSystemError{Kind: InvalidSystemAllStoragesConflict}
	}

	seen := make(map[StorageID]Mutability, len(borrows))
	for _, b := range borrows {
		prev, ok := seen[b.Storage]
		if !ok {
			seen[b.Storage] = b.Mutability
			continue
		}
		if prev != b.Mutability || b.Mutability == Exclusive {
			return InvalidSystemError{Kind: InvalidSystemMultipleViews}
		}
	}
	return nil
}

// run executes the system body, converting a panic into a SystemError so
// one misbehaving system cannot take down an entire workload run —
// spec.md §9's panic-to-error conversion.
func (s *System) run(w *World) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = SystemError{SystemID: s.ID, SystemName: s.Name, Err: panicError{r}}
		}
	}()
	if runErr := s.Run(w); runErr != nil {
		return SystemError{SystemID: s.ID, SystemName: s.Name, Err: runErr}
	}
	return nil
}

// panicError adapts a recovered panic value to the error interface.
type panicError struct{ value any }

func (p panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("panic: %v", p.value)
}
