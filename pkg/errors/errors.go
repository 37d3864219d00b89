// Package errors defines the sentinel error taxonomy of taxfolio and the
// constructor helpers that attach context. Callers match with errors.Is; the
// taxonomy separates configuration, input, semantic, conservation and
// internal-invariant failures.
package errors

import "errors"

// Is reports whether any error in err's chain matches target. Re-exported so
// callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target.
func As(err error, target any) bool { return errors.As(err, target) }
