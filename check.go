package khost

import "fmt"

// Check validates the requirements and returns a *[FeatureError] for the
// first unmet one, or nil if all are met.
//
// BPF tracing and ring buffer probes fail open: a failed probe counts as
// supported and is only logged.
func (h *HostInfo) Check(required ...Requirement) error {
	rs := normalizeRequirements(required)

	for _, req := range rs.items {
		switch r := req.(type) {
		case Feature:
			result, known := h.Result(r)
			if !known {
				return &FeatureError{Feature: r.String(), Reason: "unknown feature"}
			}
			if !result.Supported {
				return &FeatureError{
					Feature: r.String(),
					Reason:  h.Diagnose(r),
					Err:     result.Error,
				}
			}
		case ProgramTypeRequirement:
			result := h.prober.ProgramType(r.Type)
			if result.Supported {
				continue
			}
			reason := fmt.Sprintf("program type %s not supported by running kernel", r.Type)
			if result.Error != nil {
				reason = fmt.Sprintf("failed to probe program type %s", r.Type)
			}
			return &FeatureError{
				Feature: r.String(),
				Reason:  reason,
				Err:     result.Error,
			}
		case MapTypeRequirement:
			result := h.prober.MapType(r.Type)
			if result.Supported {
				continue
			}
			reason := fmt.Sprintf("map type %s not supported by running kernel", r.Type)
			if result.Error != nil {
				reason = fmt.Sprintf("failed to probe map type %s", r.Type)
			}
			return &FeatureError{
				Feature: r.String(),
				Reason:  reason,
				Err:     result.Error,
			}
		}
	}
	return nil
}

// Result maps a [Feature] to its current [ProbeResult].
// Returns false as the second value if the feature is unknown.
func (h *HostInfo) Result(f Feature) (ProbeResult, bool) {
	switch f {
	case FeatureEBPF:
		return ProbeResult{Supported: h.HasEbpfSupport()}, true
	case FeatureBTF:
		return ProbeResult{Supported: h.HasBTFSymbols()}, true
	case FeatureBPFTracing:
		return ProbeResult{Supported: h.HasBPFTracingSupport()}, true
	case FeatureRingbuf:
		return ProbeResult{Supported: h.HasBPFRingbufSupport()}, true
	case FeatureCapBPF:
		return h.prober.Capability(CapBPF), true
	case FeatureCapSysAdmin:
		return h.prober.Capability(CapSysAdmin), true
	case FeatureCapPerfmon:
		return h.prober.Capability(CapPerfmon), true
	default:
		return ProbeResult{}, false
	}
}

// Diagnose explains why a feature is unavailable and how to fix it.
func (h *HostInfo) Diagnose(f Feature) string {
	switch f {
	case FeatureEBPF:
		if h.IsCOS() {
			return fmt.Sprintf("%s %s does not support the required eBPF features", h.distro, h.kernel.Release)
		}
		return fmt.Sprintf("kernel %s is older than 4.14 and has no known eBPF backport", h.kernel.ShortRelease())
	case FeatureBTF:
		if kc, err := h.KernelConfig(); err == nil && !kc.BTF.IsEnabled() {
			return "CONFIG_DEBUG_INFO_BTF not set; rebuild kernel with CONFIG_DEBUG_INFO_BTF=y or install vmlinux debug symbols"
		}
		return "no vmlinux BTF found in /sys/kernel/btf, /boot, /lib/modules or the host debug directories"
	case FeatureBPFTracing:
		return "BPF tracing programs not supported by running kernel; requires kernel 5.5+ or a backport"
	case FeatureRingbuf:
		return "BPF ring buffer maps not supported by running kernel; requires kernel 5.8+ or a backport"
	case FeatureCapBPF:
		return "missing CAP_BPF; run with CAP_BPF or as root"
	case FeatureCapSysAdmin:
		return "missing CAP_SYS_ADMIN; run as root or add CAP_SYS_ADMIN"
	case FeatureCapPerfmon:
		return "missing CAP_PERFMON; run with CAP_PERFMON or as root"
	}

	result, known := h.Result(f)
	if known && result.Error != nil {
		return result.Error.Error()
	}
	return "not supported"
}
