package hive

import "github.com/TheBitDrifter/bark"

// wrapf adds a stack trace to err the same way the teacher's entity.go
// and query.go do at their own invariant-violation boundaries. No code
// path in this package calls it.
func wrapf(err error) error {
	if err == nil {
		return nil
	}
	return bark.AddTrace(err)
}
