package khost

import (
	"fmt"
	"strings"

	"github.com/cilium/ebpf"
)

// Requirement describes a gate condition consumable by [HostInfo.Check].
//
// Implementations are [Feature], [FeatureGroup], [ProgramTypeRequirement]
// and [MapTypeRequirement].
type Requirement interface {
	isRequirement()
}

// FeatureGroup is a reusable set of [Requirement] items.
type FeatureGroup []Requirement

// ProgramTypeRequirement requires support for a BPF program type.
type ProgramTypeRequirement struct {
	Type ebpf.ProgramType
}

// MapTypeRequirement requires support for a BPF map type.
type MapTypeRequirement struct {
	Type ebpf.MapType
}

func (r ProgramTypeRequirement) String() string {
	return fmt.Sprintf("program type %s", r.Type)
}

func (r MapTypeRequirement) String() string {
	return fmt.Sprintf("map type %s", r.Type)
}

// String lists the group's items, comma separated.
func (g FeatureGroup) String() string {
	names := make([]string, 0, len(g))
	for _, r := range g {
		names = append(names, fmt.Sprint(r))
	}
	return strings.Join(names, ", ")
}

// RequireProgramType creates a requirement for a program type.
func RequireProgramType(pt ebpf.ProgramType) ProgramTypeRequirement {
	return ProgramTypeRequirement{Type: pt}
}

// RequireMapType creates a requirement for a map type.
func RequireMapType(mt ebpf.MapType) MapTypeRequirement {
	return MapTypeRequirement{Type: mt}
}

func (Feature) isRequirement()                {}
func (FeatureGroup) isRequirement()           {}
func (ProgramTypeRequirement) isRequirement() {}
func (MapTypeRequirement) isRequirement()     {}

// ScrapingRequirements are needed by every iterator-based scraper.
var ScrapingRequirements = FeatureGroup{
	FeatureEBPF,
	FeatureBTF,
	FeatureBPFTracing,
}

// requirementSet is a flattened, deduplicated list of requirements in
// first-seen order.
type requirementSet struct {
	items []Requirement
	seen  map[Requirement]struct{}
}

func normalizeRequirements(required []Requirement) requirementSet {
	rs := requirementSet{seen: map[Requirement]struct{}{}}
	for _, req := range required {
		rs.add(req)
	}
	return rs
}

func (rs *requirementSet) add(req Requirement) {
	switch r := req.(type) {
	case nil:
		return
	case FeatureGroup:
		for _, nested := range r {
			rs.add(nested)
		}
	default:
		if _, ok := rs.seen[r]; ok {
			return
		}
		rs.seen[r] = struct{}{}
		rs.items = append(rs.items, r)
	}
}
