package hive

// withinTrackBounds reports whether ts falls in the half-open interval
// (last, current] on a 32-bit counter that wraps, per spec.md §4.3. Using
// unsigned subtraction instead of direct comparison keeps the check
// correct across a wraparound: current-last and current-ts are both
// interpreted as the (small) forward distance from one tick to another.
func withinTrackBounds(ts, last, current uint32) bool {
	span := current - last
	age := current - ts
	return age < span
}
