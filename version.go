package khost

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// KernelVersionEnv names the variable holding a fallback release string, used
// when the running kernel cannot be identified (sandboxed builds and tests).
const KernelVersionEnv = "KERNEL_VERSION"

// releasePattern captures kernel.major.minor and an optional -buildid.
var releasePattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-(\d+))?`)

// KernelVersion is a kernel release parsed into a comparable tuple.
//
// For "3.10.0-957.10.1.el7.x86_64" Kernel is 3, Major 10, Minor 0 and
// BuildID 957.
type KernelVersion struct {
	Kernel  uint64
	Major   uint64
	Minor   uint64
	BuildID uint64

	// Release is the raw release string (uname -r).
	Release string
	// Version is the raw version string (uname -v).
	Version string
	// Machine is the hardware identifier (uname -m).
	Machine string
}

// ParseKernelVersion parses a kernel release string.
//
// Parsing never fails: a release that does not start with a numeric
// triple yields zero numeric fields, and the raw strings are kept as given.
func ParseKernelVersion(release, version, machine string) KernelVersion {
	kv := KernelVersion{
		Release: release,
		Version: version,
		Machine: machine,
	}

	m := releasePattern.FindStringSubmatch(release)
	if m == nil {
		return kv
	}

	kv.Kernel = parseComponent(m[1])
	kv.Major = parseComponent(m[2])
	kv.Minor = parseComponent(m[3])
	kv.BuildID = parseComponent(m[4])
	return kv
}

// parseComponent returns 0 for empty or out-of-range digit groups.
func parseComponent(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// KernelVersionFromHost identifies the running kernel.
//
// When uname is unavailable the release falls back to $KERNEL_VERSION,
// with empty version and machine strings.
func KernelVersionFromHost() KernelVersion {
	return kernelVersionFrom(uname, os.Getenv)
}

func kernelVersionFrom(un func() (release, version, machine string, err error), getenv func(string) string) KernelVersion {
	release, version, machine, err := un()
	if err != nil {
		return ParseKernelVersion(getenv(KernelVersionEnv), "", "")
	}
	return ParseKernelVersion(release, version, machine)
}

// HasEbpfSupport reports whether the kernel is at least 4.14.
func (kv KernelVersion) HasEbpfSupport() bool {
	return !(kv.Kernel < 4 || (kv.Kernel == 4 && kv.Major < 14))
}

// HasSecureBootParam reports whether the kernel is at least 4.11, the first
// release exposing the Secure Boot state in boot_params.
func (kv KernelVersion) HasSecureBootParam() bool {
	return !(kv.Kernel < 4 || (kv.Kernel == 4 && kv.Major < 11))
}

// ShortRelease returns "kernel.major.minor".
func (kv KernelVersion) ShortRelease() string {
	return fmt.Sprintf("%d.%d.%d", kv.Kernel, kv.Major, kv.Minor)
}

func (kv KernelVersion) String() string {
	return kv.Release
}
