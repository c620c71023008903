package domain

import (
	"errors"
	"fmt"
)

// ErrExtractionSkipped marks a detail page without the expected structure.
// The article is dropped; the run continues.
var ErrExtractionSkipped = errors.New("detail page lacks expected structure")

// ErrModelNotLoaded is returned when embedding is requested before a model load.
var ErrModelNotLoaded = errors.New("embedding model is not loaded")

// ConnectivityError wraps any network failure. It aborts the whole run.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("disconnected: %s: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ModelError reports an embedding model that could not be read or written.
type ModelError struct {
	Path string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("invalid embedding model %s: %v", e.Path, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsModel reports whether err is (or wraps) a ModelError.
func IsModel(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}
