package khost

import "github.com/cilium/ebpf"

// Prober actively queries the running kernel.
//
// [KernelProber] is the live implementation; tests substitute their own.
type Prober interface {
	// ProgramType probes support for a BPF program type.
	ProgramType(pt ebpf.ProgramType) ProbeResult
	// MapType probes support for a BPF map type.
	MapType(mt ebpf.MapType) ProbeResult
	// PossibleCPU returns the number of possible CPUs.
	PossibleCPU() (int, error)
	// Capability reports whether the process holds a Linux capability.
	Capability(c Capability) ProbeResult
}

// Capability is a Linux capability number as in <linux/capability.h>.
type Capability uintptr

// Linux capabilities needed to load and attach BPF programs.
const (
	CapSysAdmin Capability = 21 // CAP_SYS_ADMIN
	CapPerfmon  Capability = 38 // CAP_PERFMON (kernel 5.8+)
	CapBPF      Capability = 39 // CAP_BPF (kernel 5.8+)
)
