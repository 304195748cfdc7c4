// Package filter defines the callback contract through which pipeline
// callers observe and mutate each parsed object before serialization.
package filter

import "github.com/go-gitfilter/gitfilter/internal/model"

// Callback is invoked exactly once per object, in strict stream order, on
// the pipeline coordinator's own goroutine. Returning keep=false drops the
// object: the serializer writes nothing derived from it. A non-nil error
// aborts the pipeline; it is returned unchanged to the caller after
// cooperative shutdown of the framer and parser workers. Mutations made to
// obj are observed by the serializer.
type Callback func(obj *model.StructuredObject) (keep bool, err error)

// Identity is a no-op callback that keeps every object unchanged. Useful
// for the round-trip-identity property and as a default for tooling that
// only wants re-serialization.
func Identity(*model.StructuredObject) (bool, error) {
	return true, nil
}

// Chain composes callbacks left to right: each sees the object as mutated
// by the previous one, and the object is dropped as soon as any callback
// returns keep=false or an error.
func Chain(callbacks ...Callback) Callback {
	return func(obj *model.StructuredObject) (bool, error) {
		for _, cb := range callbacks {
			keep, err := cb(obj)
			if err != nil {
				return false, err
			}

			if !keep {
				return false, nil
			}
		}

		return true, nil
	}
}
