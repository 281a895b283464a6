// Package ferr defines Falcon's error taxonomy: sentinel values that
// other packages either return directly or attach to an underlying
// error with Storage or Config, so callers can distinguish failure
// classes with errors.Is/errors.As without depending on any single
// package's concrete error types.
package ferr

import "errors"

var (
	// ErrConfig marks a configuration problem: an unknown tokenizer
	// name, a malformed CLI invocation, or an invalid YAML overlay.
	ErrConfig = errors.New("falcon: config error")

	// ErrStorage marks any failure surfaced by the backing store: I/O,
	// constraint violations, or corruption detected while
	// deserializing a posting-list blob.
	ErrStorage = errors.New("falcon: storage error")

	// ErrNotFound is returned by a search that matches no document. It
	// is a first-class result, not a bug: zero-ngram query words and
	// queries with no matching postings both surface this value rather
	// than an empty-but-successful result.
	ErrNotFound = errors.New("falcon: not found")

	// ErrInvalidInput marks a document with an empty title, a query
	// that is entirely whitespace, or other caller-supplied input that
	// fails validation before it ever reaches the store.
	ErrInvalidInput = errors.New("falcon: invalid input")
)

// Storage wraps err as an ErrStorage failure, naming the operation that
// failed.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{op: op, sentinel: ErrStorage, err: err}
}

// Config wraps err as an ErrConfig failure, naming the operation.
func Config(op string, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{op: op, sentinel: ErrConfig, err: err}
}

type wrapped struct {
	op       string
	sentinel error
	err      error
}

func (w *wrapped) Error() string {
	return w.op + ": " + w.err.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.sentinel, w.err}
}
