package hive

import "context"

// Batch is one step of a compiled workload: a set of systems known ahead
// of time to have no pairwise borrow conflicts, and so safe to run
// concurrently, or a single thread-pinned system that must run alone.
type Batch struct {
	Systems []*System
	Pinned  bool
}

// Scheduler holds a workload's systems, already compiled into batches —
// spec.md §4.7. Compilation never runs a system; it only inspects each
// System's declared Borrows.
type Scheduler struct {
	batches []Batch
}

// NewScheduler compiles systems into batches using the same algorithm as
// spec.md §4.7: for each system in turn, scan existing batches from last
// to first for the latest one it conflicts with, then place it
// immediately after that batch (joining it if possible, otherwise
// starting a new one).
func NewScheduler(systems []*System) *Scheduler {
	var batches []Batch
	for _, sys := range systems {
		lastConflict := -1
		for i := len(batches) - 1; i >= 0; i-- {
			if batchConflicts(batches[i], sys) {
				lastConflict = i
				break
			}
		}
		target := lastConflict + 1

		// A pinned (or NotSendSync) system's accessMask conflicts with
		// every other system's, so the backward scan above always drives
		// target to len(batches) for one: the join branch below can never
		// fire for it, and it always starts a fresh trailing batch.
		if target < len(batches) {
			batches[target].Systems = append(batches[target].Systems, sys)
			continue
		}
		batches = insertBatch(batches, target, Batch{Systems: []*System{sys}, Pinned: sys.Pinned})
	}
	return &Scheduler{batches: batches}
}

// batchConflicts tests sys against every system already in b using each
// system's precomputed accessMask — a handful of bitwise mask operations
// per pair instead of a nested BorrowInfo scan, the same bit-per-tracked-
// thing approach the teacher's storage.go uses for its lock bits.
func batchConflicts(b Batch, sys *System) bool {
	for _, other := range b.Systems {
		if sys.access.conflictsWith(other.access) {
			return true
		}
	}
	return false
}

func insertBatch(batches []Batch, idx int, b Batch) []Batch {
	batches = append(batches, Batch{})
	copy(batches[idx+1:], batches[idx:])
	batches[idx] = b
	return batches
}

// Batches returns the compiled batch sequence, in run order.
func (s *Scheduler) Batches() []Batch {
	return s.batches
}

// Run executes every batch in order; within a batch, systems are
// dispatched to pool and awaited together before the next batch starts.
// A pinned batch's single system always runs on the calling goroutine,
// never handed to the pool, matching spec.md §4.4/§5's thread-affinity
// rule.
func (s *Scheduler) Run(ctx context.Context, w *World, pool *WorkerPool) error {
	for _, batch := range s.batches {
		if batch.Pinned {
			if err := batch.Systems[0].run(w); err != nil {
				return err
			}
			continue
		}

		tasks := make([]func() error, len(batch.Systems))
		for i, sys := range batch.Systems {
			sys := sys
			tasks[i] = func() error { return sys.run(w) }
		}
		if err := pool.Dispatch(ctx, tasks); err != nil {
			return err
		}
	}
	return nil
}

// SystemConflictKind distinguishes an ordinary storage borrow conflict
// from one forced by a system declaring a NotSendSync access — spec.md
// §4.7's `{Borrow { type, with_system } | NotSendSync}` diagnostic.
type SystemConflictKind int

const (
	// SystemConflictBorrow is an ordinary same-storage conflict.
	SystemConflictBorrow SystemConflictKind = iota
	// SystemConflictNotSendSync is forced by a NotSendSync (or pinned)
	// system, which conflicts with everything regardless of storage.
	SystemConflictNotSendSync
)

func (k SystemConflictKind) String() string {
	if k == SystemConflictNotSendSync {
		return "NotSendSync"
	}
	return "borrow"
}

// SystemConflict names one pairwise conflict between two systems in the
// same workload, for diagnostics.
type SystemConflict struct {
	A, B    SystemID
	Storage StorageID
	Kind    SystemConflictKind
}

// FindConflicts reports every pairwise conflict among systems, useful for
// logging why a workload ended up with more batches than expected. A
// NotSendSync (or explicitly Pinned) system is reported once per peer as
// a SystemConflictNotSendSync conflict, rather than enumerated storage by
// storage.
func FindConflicts(systems []*System) []SystemConflict {
	var out []SystemConflict
	for i := 0; i < len(systems); i++ {
		for j := i + 1; j < len(systems); j++ {
			if systems[i].Pinned || systems[j].Pinned {
				out = append(out, SystemConflict{A: systems[i].ID, B: systems[j].ID, Storage: allStoragesID, Kind: SystemConflictNotSendSync})
				continue
			}
			for _, a := range systems[i].Borrows {
				for _, b := range systems[j].Borrows {
					if borrowsConflict(a, b) {
						out = append(out, SystemConflict{A: systems[i].ID, B: systems[j].ID, Storage: a.Storage, Kind: SystemConflictBorrow})
					}
				}
			}
		}
	}
	return out
}
