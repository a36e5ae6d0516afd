// Package errdefs defines the error classes returned by the event core.
//
// Errors are classified by behaviour rather than by concrete type: an error is
// "not found" if it, or any error in its causal chain, implements
// `NotFound() bool` and returns true. Wrapping with github.com/pkg/errors keeps
// the classification intact.
package errdefs

// causal is implemented by errors that wrap another error in a non-opaque
// way, as github.com/pkg/errors does.
type causal interface {
	Cause() error
	error
}

// classify walks the causal chain of err until test reports a decision.
func classify(err error, test func(error) (is bool, decided bool)) bool {
	for err != nil {
		if is, decided := test(err); decided {
			return is
		}
		c, ok := err.(causal)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
