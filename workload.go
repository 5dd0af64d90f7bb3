package hive

import "context"

// Workload is a named, compiled sequence of systems — spec.md §4.7/§6.
// Building one never runs a system; NewScheduler only inspects declared
// borrows.
type Workload struct {
	Name      string
	systems   []*System
	scheduler *Scheduler
}

// WorkloadBuilder accumulates systems before compiling them into a
// Workload.
type WorkloadBuilder struct {
	name    string
	systems []*System
}

// NewWorkloadBuilder starts building a workload with the given name.
func NewWorkloadBuilder(name string) *WorkloadBuilder {
	return &WorkloadBuilder{name: name}
}

// WithSystem appends a system to the workload being built.
func (b *WorkloadBuilder) WithSystem(sys *System) *WorkloadBuilder {
	b.systems = append(b.systems, sys)
	return b
}

// Build compiles the accumulated systems into a Workload, logging any
// conflicts found along the way (diagnostic only; conflicts are expected
// and simply cost an extra batch, not an error).
func (b *WorkloadBuilder) Build() *Workload {
	scheduler := NewScheduler(b.systems)
	if conflicts := FindConflicts(b.systems); len(conflicts) > 0 {
		Logger.Debug().
			Str("workload", b.name).
			Int("conflicts", len(conflicts)).
			Int("batches", len(scheduler.Batches())).
			Msg("workload compiled with borrow conflicts")
	}
	return &Workload{Name: b.name, systems: b.systems, scheduler: scheduler}
}

// Batches exposes the compiled batch sequence, mostly for diagnostics and
// tests.
func (w *Workload) Batches() []Batch {
	return w.scheduler.Batches()
}

// run executes the workload's compiled schedule against world.
func (w *Workload) run(ctx context.Context, world *World) error {
	return w.scheduler.Run(ctx, world, world.pool)
}
