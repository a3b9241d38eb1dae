package logging

import (
	"fmt"
	"slices"
	"strings"
)

// Spec is a base level plus per-component overrides, written
// "<level>[,<component>=<level>]...". The empty string means info.
type Spec struct {
	Base       Level
	Components map[string]Level
}

// ParseSpec parses a level spec. A bare level is only allowed first.
func ParseSpec(s string) (Spec, error) {
	spec := Spec{Base: LevelInfo, Components: map[string]Level{}}

	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		component, value, ok := strings.Cut(part, "=")
		if !ok {
			if i != 0 {
				return spec, fmt.Errorf("base level %q must come first", part)
			}
			level, err := ParseLevel(part)
			if err != nil {
				return spec, err
			}
			spec.Base = level
			continue
		}

		component = strings.TrimSpace(component)
		if component == "" {
			return spec, fmt.Errorf("missing component name in %q", part)
		}
		level, err := ParseLevel(value)
		if err != nil {
			return spec, fmt.Errorf("component %s: %w", component, err)
		}
		spec.Components[component] = level
	}
	return spec, nil
}

// LevelFor returns the level for component, falling back to the base level.
func (s *Spec) LevelFor(component string) Level {
	if l, ok := s.Components[component]; ok {
		return l
	}
	return s.Base
}

// String formats the spec so that ParseSpec reads it back. Components are
// sorted by name.
func (s *Spec) String() string {
	parts := []string{s.Base.String()}
	names := make([]string, 0, len(s.Components))
	for name := range s.Components {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		parts = append(parts, name+"="+s.Components[name].String())
	}
	return strings.Join(parts, ",")
}
