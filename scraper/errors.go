package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is yielded when records are requested before Start.
	ErrNotStarted = errors.New("scraper not started")
	// ErrAlreadyStarted is returned by Start on a scraper that holds an
	// attachment.
	ErrAlreadyStarted = errors.New("scraper already started")
	// ErrClosed is returned by Start, and yielded by Records, after Close.
	ErrClosed = errors.New("scraper closed")
	// ErrStartFailed wraps the first Start failure. A scraper whose Start
	// failed is never started again; build a new one to retry.
	ErrStartFailed = errors.New("scraper failed to start")
)

// Stage names a step of [Scraper.Start].
type Stage string

const (
	StageOpen   Stage = "open"
	StageLoad   Stage = "load"
	StageAttach Stage = "attach"
)

// LifecycleError reports which step of Start failed.
type LifecycleError struct {
	Stage Stage
	Entry string
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Entry, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// DecodeError reports a record or line that could not be decoded. The
// session continues past it.
type DecodeError struct {
	// Index is the zero-based record or line number within the session.
	Index int
	// Input is the offending line. Binary records leave it empty.
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("decode record %d %q: %v", e.Index, e.Input, e.Err)
	}
	return fmt.Sprintf("decode record %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
