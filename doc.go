/*
Package hive provides a sparse-set Entity-Component-System for building
simulations whose systems run concurrently without a manual locking
discipline.

Components live in per-type SparseSet storages inside a single
AllStorages registry. Systems declare the storages they touch and
whether they touch them exclusively; a Workload compiles a sequence of
systems into batches of non-conflicting systems that a worker pool runs
in parallel, falling back to a new batch wherever two systems' declared
borrows collide.

Core Concepts:

  - EntityID: a generation-counted identifier; a stale id from a dead
    generation is never mistaken for a live one.
  - SparseSet: the per-component-type storage, O(1) insert/remove/get,
    with change tracking for insertion, modification, deletion and
    removal.
  - View / ViewMut: a borrowed handle to one component type's storage,
    shared or exclusive.
  - System / Workload: a declared-borrows unit of work, and the
    compiled batch schedule built from a set of systems.
  - World: the container tying a registry, a worker pool and a set of
    named workloads together.

Basic usage:

	w := hive.NewWorld()
	id, _ := w.Spawn()
	hive.AddComponent(w, id, Position{X: 1, Y: 2})
	hive.AddComponent(w, id, Velocity{DX: 1, DY: 0})

	move, _ := hive.NewSystem("move", hive.Borrows(hive.ViewMut[Position]{}, hive.View[Velocity]{}),
		func(w *hive.World) error {
			positions, err := hive.FetchViewMut[Position](w.Storages(), 0, w.CurrentTick())
			if err != nil {
				return err
			}
			defer positions.Release()
			velocities, err := hive.FetchView[Velocity](w.Storages(), 0)
			if err != nil {
				return err
			}
			defer velocities.Release()
			for id, pos := range positions.All() {
				if vel, ok := velocities.Get(id); ok {
					pos.X += vel.DX
					pos.Y += vel.DY
				}
			}
			return nil
		})

	w.AddWorkload(hive.NewWorkloadBuilder("tick").WithSystem(move))
	w.RunDefault()
*/
package hive
