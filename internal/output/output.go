// Package output collects the ordered chunks a single materialize call
// emits and merges them into one final result.
//
// An Aggregator replaces the host's streaming write/finalize callback: the
// producer calls Write for each partial output and Finalize exactly once
// when done. String fields accumulate by concatenation, everything else is
// last-write-wins. The aggregator assumes a single producer and performs no
// internal locking; concurrent writers must be prevented by the caller.
package output

import "errors"

// ErrFinalized is returned by Write and Finalize after the aggregator has
// been sealed by a Finalize call.
var ErrFinalized = errors.New("aggregator already finalized")

// Chunk is one partial output emitted during a materialize call. Nil fields
// are absent and leave the accumulated value untouched.
type Chunk struct {
	Directory *string
	Filename  *string
	ObjRef    *string
	Archive   *bool
	Text      *string
}

// Result is the merged outcome of all chunks for one invocation.
type Result struct {
	Directory string `json:"directory"`
	Filename  string `json:"filename"`
	ObjRef    string `json:"objref,omitempty"`
	Archive   bool   `json:"archive"`
	Text      string `json:"text"`
}

// Aggregator merges an ordered sequence of chunks into one Result.
// The zero value is not usable; create one with New.
type Aggregator struct {
	result    Result
	finalized bool
}

// New returns an empty aggregator ready for writes.
func New() *Aggregator {
	return &Aggregator{}
}

// Write appends a chunk to the in-progress result. Text concatenates across
// chunks; the remaining fields take the latest written value. Returns
// ErrFinalized once Finalize has been called.
func (a *Aggregator) Write(c Chunk) error {
	if a.finalized {
		return ErrFinalized
	}
	if c.Directory != nil {
		a.result.Directory = *c.Directory
	}
	if c.Filename != nil {
		a.result.Filename = *c.Filename
	}
	if c.ObjRef != nil {
		a.result.ObjRef = *c.ObjRef
	}
	if c.Archive != nil {
		a.result.Archive = *c.Archive
	}
	if c.Text != nil {
		a.result.Text += *c.Text
	}
	return nil
}

// Finalize seals the aggregator and returns the merged result. Exactly one
// call per invocation is the contract; a second call returns ErrFinalized.
func (a *Aggregator) Finalize() (Result, error) {
	if a.finalized {
		return Result{}, ErrFinalized
	}
	a.finalized = true
	return a.result, nil
}

// Ptr returns a pointer to v. Convenience for building chunks.
func Ptr[T any](v T) *T {
	return &v
}
