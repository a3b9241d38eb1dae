package khost

import (
	"fmt"
	"log/slog"
)

// CollectionMethod selects how kernel events are collected.
type CollectionMethod string

const (
	// CollectionCoreBPF uses CO-RE BPF programs with ring buffers and BTF.
	CollectionCoreBPF CollectionMethod = "core-bpf"
	// CollectionEBPF uses BPF programs compiled for the running kernel.
	CollectionEBPF CollectionMethod = "ebpf"
	// CollectionNone disables kernel-level collection.
	CollectionNone CollectionMethod = "none"
)

// ParseCollectionMethod parses a collection method name.
func ParseCollectionMethod(s string) (CollectionMethod, error) {
	switch m := CollectionMethod(s); m {
	case CollectionCoreBPF, CollectionEBPF, CollectionNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown collection method %q", s)
	}
}

// heuristic adjusts the requested collection method for a host. An error
// means nothing can be collected on this host.
type heuristic func(h *HostInfo, m CollectionMethod, logger *slog.Logger) (CollectionMethod, error)

var heuristics = []heuristic{
	dockerDesktopHeuristic,
	cosHeuristic,
	ebpfHeuristic,
	coreBPFHeuristic,
}

// SelectCollection applies the host heuristics to the requested method and
// returns the method to use.
func (h *HostInfo) SelectCollection(requested CollectionMethod) (CollectionMethod, error) {
	m := requested
	for _, apply := range heuristics {
		if m == CollectionNone {
			return m, nil
		}
		var err error
		if m, err = apply(h, m, h.logger); err != nil {
			return CollectionNone, err
		}
	}
	return m, nil
}

// Docker Desktop VMs cannot run the agent's BPF programs.
func dockerDesktopHeuristic(h *HostInfo, m CollectionMethod, logger *slog.Logger) (CollectionMethod, error) {
	if !h.IsDockerDesktop() {
		return m, nil
	}
	logger.Warn("BPF collection is not supported, disabling", "distro", h.distro)
	return CollectionNone, nil
}

// COS does not allow third party kernel modules, so without eBPF there is
// nothing left to fall back to.
func cosHeuristic(h *HostInfo, m CollectionMethod, _ *slog.Logger) (CollectionMethod, error) {
	if !h.IsCOS() || h.HasEbpfSupport() {
		return m, nil
	}
	return CollectionNone, &FeatureError{
		Feature: FeatureEBPF.String(),
		Reason:  fmt.Sprintf("%s does not support third-party kernel modules or the required eBPF features", h.distro),
	}
}

func ebpfHeuristic(h *HostInfo, m CollectionMethod, logger *slog.Logger) (CollectionMethod, error) {
	if h.HasEbpfSupport() {
		return m, nil
	}
	logger.Error("kernel does not support eBPF based collection", "distro", h.distro, "release", h.kernel.Release)
	return CollectionNone, nil
}

// CO-RE programs need BTF, ring buffers and tracing programs; without them
// fall back to plain eBPF.
func coreBPFHeuristic(h *HostInfo, m CollectionMethod, logger *slog.Logger) (CollectionMethod, error) {
	if m != CollectionCoreBPF {
		return m, nil
	}
	missing := ""
	switch {
	case !h.HasBTFSymbols():
		missing = FeatureBTF.String()
	case !h.HasBPFRingbufSupport():
		missing = FeatureRingbuf.String()
	case !h.HasBPFTracingSupport():
		missing = FeatureBPFTracing.String()
	default:
		return m, nil
	}
	logger.Warn("switching to eBPF based collection", "requested", m, "missing", missing)
	return CollectionEBPF, nil
}
