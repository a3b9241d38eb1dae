//go:build linux

package khost

import (
	"errors"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/features"
)

type kernelProber struct{}

// KernelProber returns a [Prober] backed by cilium/ebpf feature probes.
// The features package caches results, so repeated probes are cheap.
func KernelProber() Prober {
	return kernelProber{}
}

// ProgramType checks if a BPF program type is supported.
func (kernelProber) ProgramType(pt ebpf.ProgramType) ProbeResult {
	return probeResult(features.HaveProgramType(pt))
}

// MapType checks if a BPF map type is supported.
func (kernelProber) MapType(mt ebpf.MapType) ProbeResult {
	return probeResult(features.HaveMapType(mt))
}

func (kernelProber) PossibleCPU() (int, error) {
	return ebpf.PossibleCPU()
}

func (kernelProber) Capability(c Capability) ProbeResult {
	return probeCapability(c)
}

// probeResult separates "not supported" from a failed probe.
func probeResult(err error) ProbeResult {
	if err == nil {
		return ProbeResult{Supported: true}
	}
	if errors.Is(err, ebpf.ErrNotSupported) {
		return ProbeResult{Supported: false}
	}
	return ProbeResult{Supported: false, Error: err}
}
