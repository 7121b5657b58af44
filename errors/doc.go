// Package errors provides structured error types for the command engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Every Kind maps onto the legacy numeric taxonomy so that the public entry points can
// report a plain status code:
//
//	err := errors.New(errors.PhaseParse, errors.KindBadInteger).
//		Path("play", "from").
//		Detail("expected integer, got %q", "ten").
//		Build()
//
//	code := errors.CodeOf(err) // 270
//	msg := errors.Text(code)   // "The specified integer is invalid for this command."
//
// Driver failures travel as KindDriver errors carrying the driver's own code, which
// CodeOf returns unchanged.
//
// All errors implement the standard error interface and support errors.Is/As. A target
// with no Phase matches any phase, so the exported sentinels (ErrBadInteger, ...) can be
// used with errors.Is.
package errors
