package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar holds the level spec when no flag sets one.
const EnvVar = "KHOST_LOG"

// Format is the log output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses "text" (the default for an empty string) or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// Options configures [New].
type Options struct {
	// Spec comes from the command line and wins over EnvSpec.
	Spec string
	// EnvSpec usually holds $KHOST_LOG.
	EnvSpec string
	Format  Format
	// Output defaults to os.Stderr so that records never mix with command
	// output on stdout.
	Output io.Writer
}

// New returns a logger filtered by the first non-empty spec.
func New(opts Options) (*slog.Logger, error) {
	raw := opts.Spec
	if raw == "" {
		raw = opts.EnvSpec
	}
	spec, err := ParseSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid log spec: %w", err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: LevelTrace.Slog()}

	var h slog.Handler
	if opts.Format == FormatJSON {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(NewHandler(h, &spec)), nil
}

// FromEnv returns a text logger configured from $KHOST_LOG.
func FromEnv() (*slog.Logger, error) {
	return New(Options{EnvSpec: os.Getenv(EnvVar)})
}
