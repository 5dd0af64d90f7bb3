package hive

import (
	"context"
	"sync/atomic"
)

const maxWorkloads = 256

// World is the top-level container spec.md §4.8 describes: an
// AtomicRefCell-guarded AllStorages, a monotonic change-tracking
// timestamp, the workload registry, and the worker pool systems
// dispatch onto.
type World struct {
	storages  *AtomicRefCell[*AllStorages]
	timestamp atomic.Uint32

	workloads *SimpleCache[*Workload]
	defaultWL string

	pool *WorkerPool
	cfg  WorldConfig
}

// NewWorld creates an empty World, applying any WorldOptions given.
func NewWorld(opts ...WorldOption) *World {
	cfg := defaultWorldConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var storages *AllStorages
	if cfg.locker != nil {
		storages = NewAllStoragesWithLocker(cfg.locker)
	} else {
		storages = NewAllStorages()
	}

	return &World{
		storages:  NewAtomicRefCell(storages),
		workloads: NewCache[*Workload](maxWorkloads),
		pool:      NewWorkerPool(cfg.workerLimit),
		cfg:       cfg,
	}
}

func (w *World) threadID() uint64 { return w.cfg.threadID() }

// CurrentTick returns the World's current change-tracking timestamp.
func (w *World) CurrentTick() uint32 { return w.timestamp.Load() }

// Storages returns the World's underlying AllStorages cell, for callers
// that want to Fetch guards directly rather than go through the
// convenience operations below.
func (w *World) Storages() *AtomicRefCell[*AllStorages] { return w.storages }

// Spawn allocates a fresh entity id.
func (w *World) Spawn() (EntityID, error) {
	eg, err := FetchEntitiesViewMut(w.storages)
	if err != nil {
		return EntityDead, err
	}
	defer eg.Release()
	return eg.Spawn(), nil
}

// BulkSpawn allocates n fresh entity ids at once.
func (w *World) BulkSpawn(n int) ([]EntityID, error) {
	eg, err := FetchEntitiesViewMut(w.storages)
	if err != nil {
		return nil, err
	}
	defer eg.Release()
	return eg.BulkReserve(n), nil
}

// AddComponent attaches a T component to id, replacing any it already
// has.
func AddComponent[T any](w *World, id EntityID, value T) error {
	vm, err := FetchViewMut[T](w.storages, w.threadID(), w.timestamp.Load())
	if err != nil {
		return err
	}
	defer vm.Release()
	vm.Insert(id, value)
	return nil
}

// AddComponentStrict attaches a T component to id, failing with
// ComponentExistsError rather than overwriting if id already has one.
func AddComponentStrict[T any](w *World, id EntityID, value T) error {
	vm, err := FetchViewMut[T](w.storages, w.threadID(), w.timestamp.Load())
	if err != nil {
		return err
	}
	defer vm.Release()
	if vm.Contains(id) {
		return ComponentExistsError{StorageID: storageIDFor[T]()}
	}
	vm.Insert(id, value)
	return nil
}

// GetComponentStrict returns id's T component, failing with
// MissingComponentError rather than a zero value if id has none.
func GetComponentStrict[T any](w *World, id EntityID) (T, error) {
	v, err := FetchView[T](w.storages, w.threadID())
	if err != nil {
		var zero T
		return zero, err
	}
	defer v.Release()
	value, ok := v.Get(id)
	if !ok {
		var zero T
		return zero, MissingComponentError{Entity: id, StorageID: storageIDFor[T]()}
	}
	return *value, nil
}

// AddUnique installs value as the World's singleton T, replacing any value
// already present — spec.md §6's "world.add_unique(value)".
func AddUnique[T any](w *World, value T) error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	return AddUniqueStorage[T](asvm.Storages(), value)
}

// RemoveUnique deletes the World's singleton T entirely, returning its
// final value — spec.md §6's "remove_unique::<T>()". The bool result is
// false if T had no unique storage registered.
func RemoveUnique[T any](w *World) (T, bool, error) {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		var zero T
		return zero, false, err
	}
	defer asvm.Release()
	return RemoveUniqueStorage[T](asvm.Storages())
}

// RemoveComponent detaches and returns id's T component, if any.
func RemoveComponent[T any](w *World, id EntityID) (T, bool, error) {
	vm, err := FetchViewMut[T](w.storages, w.threadID(), w.timestamp.Load())
	if err != nil {
		var zero T
		return zero, false, err
	}
	defer vm.Release()
	value, ok := vm.Remove(id)
	return value, ok, nil
}

// DeleteComponent removes id's T component, logging it if T's storage
// has deletion tracking enabled.
func DeleteComponent[T any](w *World, id EntityID) error {
	vm, err := FetchViewMut[T](w.storages, w.threadID(), w.timestamp.Load())
	if err != nil {
		return err
	}
	defer vm.Release()
	vm.Delete(id)
	return nil
}

// DeleteAnyComponent drains every T component regardless of owning
// entity.
func DeleteAnyComponent[T any](w *World) error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	DeleteAny[T](asvm.Storages())
	return nil
}

// DeleteEntity strips id's components from every storage and kills id.
func (w *World) DeleteEntity(id EntityID) error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	asvm.Storages().DeleteEntity(id)
	return nil
}

// Strip removes every component belonging to id, leaving id itself alive.
func (w *World) Strip(id EntityID) error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	asvm.Storages().Strip(id)
	return nil
}

// Retain removes every component belonging to id except those named by
// keep.
func (w *World) Retain(id EntityID, keep ...StorageID) error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	asvm.Storages().RetainEntity(id, keep...)
	return nil
}

// Clear drains every storage in the World without deallocating any
// entity id.
func (w *World) Clear() error {
	asvm, err := FetchAllStoragesViewMut(w.storages)
	if err != nil {
		return err
	}
	defer asvm.Release()
	asvm.Storages().Clear()
	return nil
}

// MemoryUsage sums MemoryUsage across every registered storage.
func (w *World) MemoryUsage() (uintptr, error) {
	g, err := w.storages.TryBorrow()
	if err != nil {
		return 0, err
	}
	defer g.Release()
	return g.Get().MemoryUsage(), nil
}

// Run advances the change-tracking tick and executes fn immediately,
// outside of any registered workload — the ad hoc single-system
// equivalent of RunWorkload.
func (w *World) Run(fn SystemFunc) error {
	w.timestamp.Add(1)
	return fn(w)
}

// RunWithData is Run for a system that additionally needs a caller-
// supplied payload (spec.md §9's "run_with_data").
func RunWithData[D any](w *World, data D, fn func(w *World, data D) error) error {
	w.timestamp.Add(1)
	return fn(w, data)
}

// AddWorkload registers a compiled workload under its builder's name.
// The first workload ever added becomes the default. Registering a name
// twice fails with WorkloadAlreadyExistsError.
func (w *World) AddWorkload(builder *WorkloadBuilder) error {
	if _, exists := w.workloads.GetIndex(builder.name); exists {
		return WorkloadAlreadyExistsError{Name: builder.name}
	}
	workload := builder.Build()
	if _, err := w.workloads.Register(builder.name, workload); err != nil {
		return err
	}
	if w.defaultWL == "" {
		w.defaultWL = builder.name
	}
	return nil
}

// RunWorkload advances the tick and runs the named workload's compiled
// schedule.
func (w *World) RunWorkload(name string) error {
	idx, ok := w.workloads.GetIndex(name)
	if !ok {
		return WorkloadMissingError{Name: name}
	}
	workload := *w.workloads.GetItem(idx)
	w.timestamp.Add(1)
	return workload.run(context.Background(), w)
}

// RunDefault runs the default workload (the first one added, or whatever
// SetDefaultWorkload last set).
func (w *World) RunDefault() error {
	if w.defaultWL == "" {
		return WorkloadMissingError{Name: "<default>"}
	}
	return w.RunWorkload(w.defaultWL)
}

// SetDefaultWorkload changes which workload RunDefault runs.
func (w *World) SetDefaultWorkload(name string) error {
	if _, ok := w.workloads.GetIndex(name); !ok {
		return WorkloadMissingError{Name: name}
	}
	w.defaultWL = name
	return nil
}
