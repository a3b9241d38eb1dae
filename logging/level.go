// Package logging builds log/slog loggers whose level is set per component.
//
// Components tag their loggers with a "component" attribute (hostinfo,
// scraper); a [Spec] such as "warn,scraper=debug" then decides what each
// one emits.
package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is a log level. Debug through error share slog's values; trace sits
// below debug for verifier output.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

var levelNames = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLevel accepts trace, debug, info, warn (or warning) and error,
// case-insensitively.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Slog returns the equivalent slog.Level.
func (l Level) Slog() slog.Level {
	return slog.Level(l)
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Level(%d)", int(l))
}
