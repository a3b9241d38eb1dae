//go:build !linux

package khost

import "github.com/cilium/ebpf"

type kernelProber struct{}

// KernelProber returns a [Prober] whose probes all fail with [ErrUnsupportedPlatform].
func KernelProber() Prober {
	return kernelProber{}
}

func (kernelProber) ProgramType(_ ebpf.ProgramType) ProbeResult {
	return ProbeResult{Error: ErrUnsupportedPlatform}
}

func (kernelProber) MapType(_ ebpf.MapType) ProbeResult {
	return ProbeResult{Error: ErrUnsupportedPlatform}
}

func (kernelProber) PossibleCPU() (int, error) {
	return 0, ErrUnsupportedPlatform
}

func (kernelProber) Capability(_ Capability) ProbeResult {
	return ProbeResult{Error: ErrUnsupportedPlatform}
}
