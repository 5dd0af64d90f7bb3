package hive

// WorldConfig holds the options a World is built with, applied via the
// functional-options pattern — spec.md §9's ambient configuration
// surface, since the teacher's own config.go is too table-specific to
// generalize and Go has no compile-time feature-flag equivalent of the
// original's cargo features.
type WorldConfig struct {
	locker       RegistryLocker
	threadID     func() uint64
	workerLimit  int
}

// WorldOption mutates a WorldConfig during NewWorld.
type WorldOption func(*WorldConfig)

func defaultWorldConfig() WorldConfig {
	return WorldConfig{
		threadID:    func() uint64 { return 0 },
		workerLimit: 0, // NewWorkerPool treats <= 0 as GOMAXPROCS
	}
}

// WithCustomLock substitutes the mutex AllStorages uses to guard its
// registry map, for deployments that want something other than
// sync.RWMutex (a spin lock under low contention, an instrumented
// wrapper, and so on).
func WithCustomLock(locker RegistryLocker) WorldOption {
	return func(c *WorldConfig) { c.locker = locker }
}

// WithCustomThreadID supplies the function a World uses to identify "the
// current thread" when enforcing thread-affine (OriginThreadOnly)
// storages. Go has no first-class thread identity the way the original
// implementation's OS threads do, so by default every caller is treated
// as thread 0; callers that genuinely pin work to specific goroutines
// (e.g. one long-lived worker per OS thread via runtime.LockOSThread)
// should supply a function that returns a stable id for that goroutine.
func WithCustomThreadID(fn func() uint64) WorldOption {
	return func(c *WorldConfig) { c.threadID = fn }
}

// WithLocalThreadPool caps the number of systems a single scheduler
// batch runs concurrently. A non-positive value (the default) uses
// GOMAXPROCS.
func WithLocalThreadPool(limit int) WorldOption {
	return func(c *WorldConfig) { c.workerLimit = limit }
}
