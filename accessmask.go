package hive

import (
	"sync"

	"github.com/TheBitDrifter/mask"
)

// storageBits assigns every StorageID a stable bit position the first time
// it is seen, the same "lock bit per thing being tracked" idea as the
// teacher's storage.go locks (mask.Mask256) and query.go component masks
// (mask.Mask) — here the bits stand for storages instead of archetype
// columns or row locks.
var storageBits = struct {
	mu   sync.Mutex
	bits map[StorageID]uint32
	next uint32
}{bits: map[StorageID]uint32{allStoragesID: 0}, next: 1}

func bitFor(id StorageID) uint32 {
	storageBits.mu.Lock()
	defer storageBits.mu.Unlock()
	if bit, ok := storageBits.bits[id]; ok {
		return bit
	}
	bit := storageBits.next
	storageBits.bits[id] = bit
	storageBits.next++
	return bit
}

// accessMask summarizes a system's declared borrows as two bitmasks: every
// storage it touches, and the subset it touches exclusively. Two systems'
// masks let the scheduler test for a conflict with a handful of bitwise
// operations instead of a nested loop over BorrowInfo slices.
type accessMask struct {
	touch     mask.Mask
	exclusive mask.Mask
}

// buildAccessMask computes sys's accessMask from its declared borrows. A
// NotSendSync borrow is folded in as an AllStorages-exclusive bit — the
// same sentinel `original_source/src/world/scheduler/builder.rs` synthesizes
// for a `!Send + !Sync` system — so conflictsWith treats it as conflicting
// with every other system without a separate pinned flag to keep in sync.
func buildAccessMask(borrows []BorrowInfo) accessMask {
	var am accessMask
	for _, b := range borrows {
		bit := bitFor(b.Storage)
		am.touch.Mark(bit)
		if b.Mutability == Exclusive {
			am.exclusive.Mark(bit)
		}
		if b.Affinity == NotSendSync {
			am.markAllStoragesExclusive()
		}
	}
	return am
}

// markAllStoragesExclusive marks the AllStorages sentinel bit exclusive,
// making this mask conflict with every other mask — used both for an
// explicit AllStoragesViewMut borrow and for Pin()/NotSendSync systems.
func (a *accessMask) markAllStoragesExclusive() {
	bit := bitFor(allStoragesID)
	a.touch.Mark(bit)
	a.exclusive.Mark(bit)
}

// conflictsWith mirrors borrowsConflict's rule exactly:
// AllStorages held exclusively conflicts with anything, and otherwise two
// systems conflict if either holds a storage the other also touches
// exclusively.
func (a accessMask) conflictsWith(b accessMask) bool {
	allStoragesBit := bitFor(allStoragesID)
	var allStoragesOnly mask.Mask
	allStoragesOnly.Mark(allStoragesBit)

	if a.exclusive.ContainsAny(allStoragesOnly) || b.exclusive.ContainsAny(allStoragesOnly) {
		return true
	}
	return a.exclusive.ContainsAny(b.touch) || b.exclusive.ContainsAny(a.touch)
}
