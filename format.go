package khost

import (
	"fmt"
	"strings"
)

// Report is a plain snapshot of a [HostInfo], safe to serialise and hand
// to another process.
type Report struct {
	OSID     string `json:"os_id"`
	BuildID  string `json:"build_id"`
	Distro   string `json:"distro"`
	Hostname string `json:"hostname"`

	Kernel KernelReport `json:"kernel"`

	IsCOS           bool `json:"is_cos"`
	IsCoreOS        bool `json:"is_coreos"`
	IsDockerDesktop bool `json:"is_docker_desktop"`
	IsUbuntu        bool `json:"is_ubuntu"`
	IsGarden        bool `json:"is_garden"`
	IsRHEL76        bool `json:"is_rhel76"`
	IsRHEL86        bool `json:"is_rhel86"`

	HasEbpfSupport       bool   `json:"has_ebpf_support"`
	HasBTFSymbols        bool   `json:"has_btf_symbols"`
	HasBPFTracingSupport bool   `json:"has_bpf_tracing_support"`
	HasBPFRingbufSupport bool   `json:"has_bpf_ringbuf_support"`
	IsUEFI               bool   `json:"is_uefi"`
	SecureBoot           string `json:"secure_boot"`
	NumPossibleCPU       int    `json:"num_possible_cpu"`
}

// KernelReport is the serialisable form of a [KernelVersion].
type KernelReport struct {
	Kernel             uint64 `json:"kernel"`
	Major              uint64 `json:"major"`
	Minor              uint64 `json:"minor"`
	BuildID            uint64 `json:"build_id"`
	Release            string `json:"release"`
	Version            string `json:"version"`
	Machine            string `json:"machine"`
	ShortRelease       string `json:"short_release"`
	HasEbpfSupport     bool   `json:"has_ebpf_support"`
	HasSecureBootParam bool   `json:"has_secure_boot_param"`
}

// Report evaluates every query and returns the results as plain data.
// NumPossibleCPU is -1 when it cannot be determined.
func (h *HostInfo) Report() Report {
	cpus, err := h.NumPossibleCPU()
	if err != nil {
		h.logger.Debug("unable to count possible CPUs", "error", err)
		cpus = -1
	}
	k := h.kernel

	return Report{
		OSID:     h.os,
		BuildID:  h.build,
		Distro:   h.distro,
		Hostname: h.hostname,
		Kernel: KernelReport{
			Kernel:             k.Kernel,
			Major:              k.Major,
			Minor:              k.Minor,
			BuildID:            k.BuildID,
			Release:            k.Release,
			Version:            k.Version,
			Machine:            k.Machine,
			ShortRelease:       k.ShortRelease(),
			HasEbpfSupport:     k.HasEbpfSupport(),
			HasSecureBootParam: k.HasSecureBootParam(),
		},
		IsCOS:                h.IsCOS(),
		IsCoreOS:             h.IsCoreOS(),
		IsDockerDesktop:      h.IsDockerDesktop(),
		IsUbuntu:             h.IsUbuntu(),
		IsGarden:             h.IsGarden(),
		IsRHEL76:             h.IsRHEL76(),
		IsRHEL86:             h.IsRHEL86(),
		HasEbpfSupport:       h.HasEbpfSupport(),
		HasBTFSymbols:        h.HasBTFSymbols(),
		HasBPFTracingSupport: h.HasBPFTracingSupport(),
		HasBPFRingbufSupport: h.HasBPFRingbufSupport(),
		IsUEFI:               h.IsUEFI(),
		SecureBoot:           h.SecureBootStatus().String(),
		NumPossibleCPU:       cpus,
	}
}

// String returns a human-readable summary of the report.
func (r Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hostname: %s\n", r.Hostname)
	fmt.Fprintf(&b, "Distro: %s (id=%s, build=%s)\n", valueOr(r.Distro, "unknown"), r.OSID, r.BuildID)
	fmt.Fprintf(&b, "Kernel: %s (%s, build %d)\n", r.Kernel.Release, r.Kernel.ShortRelease, r.Kernel.BuildID)
	if r.Kernel.Machine != "" {
		fmt.Fprintf(&b, "Machine: %s\n", r.Kernel.Machine)
	}
	b.WriteString("\n")

	b.WriteString("Distribution:\n")
	writeBool(&b, "  COS", r.IsCOS)
	writeBool(&b, "  CoreOS", r.IsCoreOS)
	writeBool(&b, "  Docker Desktop", r.IsDockerDesktop)
	writeBool(&b, "  Ubuntu", r.IsUbuntu)
	writeBool(&b, "  Garden Linux", r.IsGarden)
	writeBool(&b, "  RHEL 7.6", r.IsRHEL76)
	writeBool(&b, "  RHEL 8.6", r.IsRHEL86)
	b.WriteString("\n")

	b.WriteString("Capabilities:\n")
	writeBool(&b, "  eBPF", r.HasEbpfSupport)
	writeBool(&b, "  BTF symbols", r.HasBTFSymbols)
	writeBool(&b, "  BPF tracing", r.HasBPFTracingSupport)
	writeBool(&b, "  BPF ring buffer", r.HasBPFRingbufSupport)
	writeBool(&b, "  Secure Boot param", r.Kernel.HasSecureBootParam)
	b.WriteString("\n")

	b.WriteString("Firmware:\n")
	writeBool(&b, "  UEFI", r.IsUEFI)
	fmt.Fprintf(&b, "  Secure Boot: %s\n", r.SecureBoot)
	if r.NumPossibleCPU >= 0 {
		fmt.Fprintf(&b, "\nPossible CPUs: %d\n", r.NumPossibleCPU)
	}

	return b.String()
}

func writeBool(b *strings.Builder, name string, v bool) {
	status := "no"
	if v {
		status = "yes"
	}
	fmt.Fprintf(b, "%s: %s\n", name, status)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
