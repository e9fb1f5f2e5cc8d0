// Package scope runs a reversible model edit for the duration of exactly one
// operation. The original service leaned on cobrapy's context-manager
// teardown for this; here the contract is explicit.
package scope

// With applies a mutation, captures an outcome with read, and reverts the
// mutation before returning. mutate returns the restore closure for its own
// edit; restore is deferred, so it runs whether read succeeds, fails or
// panics. Scopes nest as long as each restore only puts back the state its
// own mutate changed.
func With[T any](mutate func() (restore func(), err error), read func() (T, error)) (T, error) {
	var zero T

	restore, err := mutate()
	if err != nil {
		return zero, err
	}
	defer restore()

	return read()
}
