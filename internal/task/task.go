// Package task builds exiftool argument lines and interprets the textual
// results of one invocation each. ReadTask normalizes the -json output into
// a typed record (GPS sign correction, timezone inference, per-tag temporal
// coercion); WriteTask encodes typed updates into exiftool's text-argument
// syntax; the remaining tasks are thin argument builders with status-line
// checks.
//
// Tasks perform no I/O themselves: the exiftool package (or any other
// runner) hands Args to the external tool and feeds the resulting stdout
// and accumulated stderr warnings back into Parse.
package task

import "path/filepath"

// Task is one exiftool invocation: the argument lines to send, and the
// parser for the resulting stdout. R is the task's typed result.
type Task[R any] interface {
	Args() []string

	// AddError records a non-fatal warning (typically an exiftool stderr
	// line) accumulated while the task ran.
	AddError(msg string)
	Errors() []string

	// Parse interprets the invocation's stdout. runErr is the process
	// error, if any; Parse decides whether it is fatal for this task.
	Parse(stdout string, runErr error) (R, error)
}

// base provides the argument list and warning accumulator shared by every
// task.
type base struct {
	args []string
	errs []string
}

func (b *base) Args() []string { return b.args }

func (b *base) AddError(msg string) { b.errs = append(b.errs, msg) }

func (b *base) Errors() []string { return b.errs }

// resolvePath normalizes a path the same way for request construction and
// response verification, so the source-file identity check in ReadTask
// compares like with like.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
