package main

import (
	"errors"
	"fmt"
)

// Load and save failure kinds. Callers match with errors.Is.
var (
	ErrNotAnImage      = errors.New("not a recognized image")
	ErrDecodeFailed    = errors.New("decode failed")
	ErrFileUnavailable = errors.New("file unavailable")
	ErrEncodeFailed    = errors.New("encode failed")
	ErrReplaceFailed   = errors.New("replace failed")
	ErrCancelled       = errors.New("superseded by a newer load")
	ErrReadOnlySource  = errors.New("source cannot be modified")
)

// LoadError carries the failure kind together with the path and underlying cause
type LoadError struct {
	Kind error
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is the failure kind of this error
func (e *LoadError) Is(target error) bool { return e.Kind == target }

func newLoadError(kind error, path string, err error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Err: err}
}

// isSilent reports whether err is the normal outcome of fast navigation
func isSilent(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// userMessage turns a failure into the one-line text shown in the overlay
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotAnImage):
		return "Not an image file"
	case errors.Is(err, ErrFileUnavailable):
		return "File is not accessible"
	case errors.Is(err, ErrDecodeFailed):
		return "Could not decode image"
	case errors.Is(err, ErrEncodeFailed):
		return "Could not encode image"
	case errors.Is(err, ErrReplaceFailed):
		return "Could not replace original file"
	case errors.Is(err, ErrReadOnlySource):
		return "This image cannot be modified"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
