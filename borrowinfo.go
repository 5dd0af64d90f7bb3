package hive

// Mutability is whether a guard's declared access to a storage is
// read-only or read-write.
type Mutability int

const (
	// Shared is read-only access.
	Shared Mutability = iota
	// Exclusive is read-write access.
	Exclusive
)

func (m Mutability) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// ThreadSafety records whether a guard's declared access is safe to run
// concurrently with any other system, mirroring the origin's `!Send`/
// `!Sync` storages (`original_source/src/borrow/non_send_sync.rs`). A
// NotSendSync access is treated exactly like an AllStorages-exclusive one:
// it conflicts with everything, so the system carrying it always lands in
// its own singleton batch (spec.md §4.7's `NotSendSync` diagnostic).
type ThreadSafety int

const (
	// SendSync is ordinary access: safe to interleave with any other
	// system that doesn't itself conflict.
	SendSync ThreadSafety = iota
	// NotSendSync marks access to a storage that may only ever be touched
	// from one goroutine at a time.
	NotSendSync
)

func (a ThreadSafety) String() string {
	if a == NotSendSync {
		return "!Send+!Sync"
	}
	return "Send+Sync"
}

// ThreadAffine is implemented by component types that must never be
// accessed from more than one goroutine concurrently — the Go analogue of
// a Rust component that isn't `Send + Sync`. threadSafetyFor reports
// NotSendSync for any T implementing it, without needing a live World to
// consult, closing the gap between a storage's thread affinity and a
// system's statically declared accesses.
type ThreadAffine interface {
	IsThreadAffine() bool
}

// threadSafetyFor reports T's static ThreadSafety, used by every guard's
// BorrowInfo() to fill in BorrowInfo.Affinity.
func threadSafetyFor[T any]() ThreadSafety {
	var zero T
	if _, ok := any(zero).(ThreadAffine); ok {
		return NotSendSync
	}
	return SendSync
}

// affinityFor maps T's static ThreadSafety onto the runtime ThreadAffinity
// GetOrInsertStorage registers the storage with, so a ThreadAffine
// component type is automatically pinned to its registering goroutine
// instead of relying on a caller to pass OriginThreadOnly explicitly.
func affinityFor[T any]() ThreadAffinity {
	if threadSafetyFor[T]() == NotSendSync {
		return OriginThreadOnly
	}
	return AnyThread
}

// BorrowInfo is the static, compile-time-knowable description of one
// guard's access to one storage — spec.md §4.6. A system's full borrow
// set is the union of its guards' BorrowInfo, computed once at
// registration without ever running the system, which is what lets the
// scheduler build batches ahead of time.
type BorrowInfo struct {
	Storage    StorageID
	Mutability Mutability
	Affinity   ThreadSafety
}

// borrowDeclaring is implemented by every guard type's zero value, so a
// system can be asked what it needs without first being run.
type borrowDeclaring interface {
	BorrowInfo() BorrowInfo
}

// borrowsConflict decides whether two declared accesses must not run
// concurrently. A NotSendSync access conflicts with everything, the same
// as an AllStorages-exclusive one. An AllStorages-exclusive access holds
// the World's outer registry cell exclusively and every other guard must
// borrow that same outer cell (shared) before reaching its own storage —
// spec.md §4.7/§8 scenario 6. Otherwise two accesses only conflict when they name the same
// storage and at least one is exclusive.
func borrowsConflict(a, b BorrowInfo) bool {
	if a.Affinity == NotSendSync || b.Affinity == NotSendSync {
		return true
	}
	if a.Storage.IsAllStorages() && a.Mutability == Exclusive {
		return true
	}
	if b.Storage.IsAllStorages() && b.Mutability == Exclusive {
		return true
	}
	if a.Storage == b.Storage {
		return a.Mutability == Exclusive || b.Mutability == Exclusive
	}
	return false
}
