package khost

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cilium/ebpf"
)

// RequirementsFromObject derives the requirements of a compiled scraper
// object: every program type and map type it declares.
//
// The result is deduplicated, stably ordered and directly consumable by
// [HostInfo.Check]. Unknown or unspecified kinds fail closed.
func RequirementsFromObject(path string) (FeatureGroup, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("requirements from object: empty path")
	}

	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, fmt.Errorf("requirements from object %q: %w", path, err)
	}

	reqs, err := requirementsFromCollectionSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("requirements from object %q: %w", path, err)
	}
	return reqs, nil
}

func requirementsFromCollectionSpec(spec *ebpf.CollectionSpec) (FeatureGroup, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil collection spec")
	}

	var programTypes []ebpf.ProgramType
	for name, prog := range spec.Programs {
		if prog == nil {
			return nil, fmt.Errorf("program %q: nil program spec", name)
		}
		if prog.Type == ebpf.UnspecifiedProgram || strings.HasPrefix(prog.Type.String(), "ProgramType(") {
			return nil, fmt.Errorf("program %q: unknown program type %d", name, prog.Type)
		}
		programTypes = append(programTypes, prog.Type)
	}

	var mapTypes []ebpf.MapType
	for name, m := range spec.Maps {
		if m == nil {
			return nil, fmt.Errorf("map %q: nil map spec", name)
		}
		if m.Type == ebpf.UnspecifiedMap || strings.HasPrefix(m.Type.String(), "MapType(") {
			return nil, fmt.Errorf("map %q: unknown map type %d", name, m.Type)
		}
		mapTypes = append(mapTypes, m.Type)
	}

	slices.Sort(programTypes)
	slices.Sort(mapTypes)
	programTypes = slices.Compact(programTypes)
	mapTypes = slices.Compact(mapTypes)

	reqs := make(FeatureGroup, 0, len(programTypes)+len(mapTypes))
	for _, pt := range programTypes {
		reqs = append(reqs, RequireProgramType(pt))
	}
	for _, mt := range mapTypes {
		reqs = append(reqs, RequireMapType(mt))
	}
	return reqs, nil
}
