package scraper

import "log/slog"

type config struct {
	debug  bool
	logger *slog.Logger
	kernel kernel
}

// Option configures a [Scraper].
type Option func(*config)

// WithDebug requests verifier logs when loading, logged at debug level.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func withKernel(k kernel) Option {
	return func(c *config) {
		c.kernel = k
	}
}
