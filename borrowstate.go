package hive

import (
	"sync/atomic"
)

// borrowHighBit marks an exclusive borrow in the counter. Shared borrow counts
// live in the remaining bits, so a shared count and the exclusive bit can
// never be confused for one another.
const borrowHighBit = uint64(1) << 63

// maxFailedBorrows bounds how many failed shared-acquire attempts a single
// BorrowState tolerates while an exclusive borrow is outstanding before it
// gives up and aborts the process, matching the "irrecoverable past a
// threshold" overflow policy in spec.md §4.1.
const maxFailedBorrows = borrowHighBit + borrowHighBit>>1

// BorrowState is a single atomic word implementing the lock-free
// reader-writer discipline from spec.md §4.1: zero means unborrowed, a
// count in [1, borrowHighBit) means that many shared borrows, and the high bit
// set means one exclusive borrow.
type BorrowState struct {
	word atomic.Uint64
}

// tryShared attempts to add one shared borrow. On success it returns the
// release function to call when the borrow ends.
func (b *BorrowState) tryShared() (release func(), err error) {
	n := b.word.Add(1)
	if n&borrowHighBit != 0 {
		b.word.Add(^uint64(0)) // back out the failed increment first
		b.checkOverflow(n)
		return nil, BorrowError{Conflict: ConflictExclusive}
	}
	return func() { b.dropShared() }, nil
}

// tryExclusive attempts to move the state from unborrowed directly to
// exclusive.
func (b *BorrowState) tryExclusive() (release func(), err error) {
	old := uint64(0)
	if !b.word.CompareAndSwap(0, borrowHighBit) {
		old = b.word.Load()
		if old&borrowHighBit == 0 {
			return nil, BorrowError{Conflict: ConflictShared}
		}
		return nil, BorrowError{Conflict: ConflictExclusive}
	}
	return func() { b.dropExclusive() }, nil
}

// sharedReborrow derives a shared borrow from an exclusive one already
// held by the caller. It is unconditional: the caller is responsible for
// dropping the derived shared borrow before dropping the exclusive one.
func (b *BorrowState) sharedReborrow() func() {
	b.word.Add(1)
	return func() { b.dropShared() }
}

func (b *BorrowState) dropShared() {
	b.word.Add(^uint64(0))
}

func (b *BorrowState) dropExclusive() {
	b.word.Store(0)
}

// checkOverflow distinguishes a genuine shared-count overflow (n landed
// exactly on the high bit: every bit below it was already a shared borrow)
// from the ordinary case of colliding with an already-active exclusive
// borrow (n is somewhere above the high bit but short of the failed-borrow
// ceiling — the normal, recoverable conflict). Only the two catastrophic
// cases panic; per spec.md §9's Open Question we follow the newer
// BorrowState, which backs out the failed increment (already done by the
// caller) before aborting rather than panicking with the state still
// incremented.
func (b *BorrowState) checkOverflow(n uint64) {
	if n == borrowHighBit {
		panic("hive: too many immutable borrows")
	}
	if n >= maxFailedBorrows {
		panic("hive: too many failed borrows, aborting to avoid an unsound BorrowState")
	}
}
