//go:build linux

package khost

import (
	"errors"

	"golang.org/x/sys/unix"
)

// probeCapability checks the capability bounding set with prctl(PR_CAPBSET_READ).
// Kernels that predate a capability reject it with EINVAL.
func probeCapability(c Capability) ProbeResult {
	ret, err := unix.PrctlRetInt(unix.PR_CAPBSET_READ, uintptr(c), 0, 0, 0)
	if errors.Is(err, unix.EINVAL) {
		return ProbeResult{Supported: false}
	}
	if err != nil {
		return ProbeResult{Supported: false, Error: err}
	}
	return ProbeResult{Supported: ret == 1}
}
