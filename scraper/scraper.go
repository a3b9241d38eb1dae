package scraper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
)

// Scraper attaches one BPF iterator and decodes its output into T.
//
// The zero value is not usable; construct one with [New] or one of the
// typed constructors.
type Scraper[T any] struct {
	obj    Object
	entry  string
	decode DecodeFunc[T]
	debug  bool
	kernel kernel
	logger *slog.Logger

	coll   collection
	it     iterator
	closed bool
	failed *LifecycleError
}

// New returns a scraper for the iterator program entry in obj.
// Nothing touches the kernel until Start.
func New[T any](obj Object, entry string, decode DecodeFunc[T], opts ...Option) *Scraper[T] {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := cfg.logger.With("component", "scraper", "entry", entry)
	if cfg.kernel == nil {
		cfg.kernel = newKernel(logger)
	}

	return &Scraper[T]{
		obj:    obj,
		entry:  entry,
		decode: decode,
		debug:  cfg.debug,
		kernel: cfg.kernel,
		logger: logger,
	}
}

// Entry returns the iterator program name.
func (s *Scraper[T]) Entry() string { return s.entry }

// Start opens the object, loads it and attaches the iterator.
//
// A failure at any step returns a *[LifecycleError] and leaves nothing
// loaded. The failure is final: later calls return [ErrStartFailed]
// wrapping it without touching the kernel. Start on a started scraper
// returns [ErrAlreadyStarted].
func (s *Scraper[T]) Start() error {
	if s.closed {
		return ErrClosed
	}
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, s.failed)
	}
	if s.it != nil {
		return ErrAlreadyStarted
	}

	spec, err := s.obj.CollectionSpec()
	if err != nil {
		return s.fail(StageOpen, err)
	}

	coll, err := s.kernel.load(spec, s.debug)
	if err != nil {
		return s.fail(StageLoad, err)
	}

	it, err := coll.attach(s.entry)
	if err != nil {
		if cerr := coll.Close(); cerr != nil {
			s.logger.Warn("failed to release collection", "error", cerr)
		}
		return s.fail(StageAttach, err)
	}

	s.coll, s.it = coll, it
	s.logger.Info("started")
	return nil
}

func (s *Scraper[T]) fail(stage Stage, err error) error {
	s.failed = &LifecycleError{Stage: stage, Entry: s.entry, Err: err}
	return s.failed
}

// Stop does nothing and returns nil. The attachment stays in place until
// Close.
func (s *Scraper[T]) Stop() error {
	return nil
}

// Close detaches the iterator and unloads the collection. It is safe to
// call more than once.
func (s *Scraper[T]) Close() error {
	s.closed = true

	var errs []error
	if s.it != nil {
		errs = append(errs, s.it.Close())
		s.it = nil
	}
	if s.coll != nil {
		errs = append(errs, s.coll.Close())
		s.coll = nil
	}
	return errors.Join(errs...)
}

// Records opens a new iteration session each time it is ranged over and
// yields the decoded records until the kernel reports the end.
//
// A *[DecodeError] describes a single bad record and iteration continues
// after it. Any other error ends the session. After Close the sequence
// yields [ErrClosed]; before a successful Start it yields [ErrNotStarted].
func (s *Scraper[T]) Records(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if s.closed {
			yield(zero, ErrClosed)
			return
		}
		if s.it == nil {
			yield(zero, ErrNotStarted)
			return
		}

		rc, err := s.it.Open()
		if err != nil {
			yield(zero, fmt.Errorf("open %s session: %w", s.entry, err))
			return
		}
		defer rc.Close()

		for rec, err := range s.decode(rc) {
			if ctx.Err() != nil {
				yield(zero, ctx.Err())
				return
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Collect drains one session. Malformed records are logged and skipped;
// any other error is returned along with the records read so far.
func (s *Scraper[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for rec, err := range s.Records(ctx) {
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				s.logger.Warn("skipping malformed record", "index", de.Index, "error", de.Err)
				continue
			}
			return out, err
		}
		out = append(out, rec)
	}
	s.logger.Debug("collected records", "count", len(out))
	return out, nil
}
