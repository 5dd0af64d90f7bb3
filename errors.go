package hive

import "fmt"

// BorrowConflict describes why a borrow attempt failed.
type BorrowConflict int

const (
	// ConflictNone indicates no conflict; not a valid error value.
	ConflictNone BorrowConflict = iota
	// ConflictShared indicates shared borrows are already outstanding.
	ConflictShared
	// ConflictExclusive indicates an exclusive borrow is already held.
	ConflictExclusive
)

func (c BorrowConflict) String() string {
	switch c {
	case ConflictShared:
		return "shared"
	case ConflictExclusive:
		return "exclusive"
	default:
		return "none"
	}
}

// BorrowError is returned by AtomicRefCell and the storage registry when a
// shared or exclusive borrow cannot be granted.
type BorrowError struct {
	Conflict BorrowConflict
}

func (e BorrowError) Error() string {
	return fmt.Sprintf("borrow conflict: already %s borrowed", e.Conflict)
}

// StorageMissingError is returned when a typed storage was requested and no
// factory was supplied to create it.
type StorageMissingError struct {
	StorageID StorageID
}

func (e StorageMissingError) Error() string {
	return fmt.Sprintf("storage missing: %v has not been registered", e.StorageID)
}

// MissingComponentError is returned when an entity is accessed through a
// storage it does not have a component in.
type MissingComponentError struct {
	Entity    EntityID
	StorageID StorageID
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity %v has no component in storage %v", e.Entity, e.StorageID)
}

// WrongThreadError is returned when a thread-affine storage is accessed from
// a thread other than the one that created it.
type WrongThreadError struct {
	StorageID StorageID
}

func (e WrongThreadError) Error() string {
	return fmt.Sprintf("storage %v is thread-affine and was accessed from the wrong thread", e.StorageID)
}

// WorkloadAlreadyExistsError is returned by AddWorkload when the name is
// already registered.
type WorkloadAlreadyExistsError struct {
	Name string
}

func (e WorkloadAlreadyExistsError) Error() string {
	return fmt.Sprintf("workload %q already exists", e.Name)
}

// WorkloadMissingError is returned by RunWorkload/SetDefaultWorkload for an
// unknown name.
type WorkloadMissingError struct {
	Name string
}

func (e WorkloadMissingError) Error() string {
	return fmt.Sprintf("workload %q is not registered", e.Name)
}

// InvalidSystemKind enumerates the ways a system's declared accesses can be
// rejected at registration time.
type InvalidSystemKind int

const (
	// InvalidSystemMultipleViews: the same storage requested twice, at
	// least one exclusive.
	InvalidSystemMultipleViews InvalidSystemKind = iota
	// InvalidSystemAllStoragesConflict: AllStorages-exclusive combined with
	// any other guard.
	InvalidSystemAllStoragesConflict
)

func (k InvalidSystemKind) String() string {
	switch k {
	case InvalidSystemMultipleViews:
		return "multiple conflicting views of the same storage"
	case InvalidSystemAllStoragesConflict:
		return "AllStorages exclusive access combined with another guard"
	default:
		return "invalid system"
	}
}

// InvalidSystemError is returned when a system's declared borrow set is
// self-contradictory.
type InvalidSystemError struct {
	Kind InvalidSystemKind
}

func (e InvalidSystemError) Error() string {
	return fmt.Sprintf("invalid system: %s", e.Kind)
}

// SystemError wraps an error returned by a system while it ran inside a
// workload, tagging it with the system's identity.
type SystemError struct {
	SystemID   SystemID
	SystemName string
	Err        error
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system %q failed: %v", e.SystemName, e.Err)
}

func (e SystemError) Unwrap() error {
	return e.Err
}

// ComponentExistsError is returned when a component is added twice through a
// strict (non-overwriting) path.
type ComponentExistsError struct {
	StorageID StorageID
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists in storage %v", e.StorageID)
}
