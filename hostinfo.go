package khost

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cilium/ebpf"
)

// minRHEL76BuildID is the first RHEL 7.6 kernel build (3.10.0-957) with the
// eBPF backport.
const minRHEL76BuildID = 957

// secureBootEfivar holds the Secure Boot state in the EFI global variable namespace.
const secureBootEfivar = "/sys/firmware/efi/efivars/SecureBoot-8be4df61-93ca-11d2-aa0d-00e098032b8c"

// HostInfo describes the host the agent runs on.
//
// It is built once by [NewHostInfo] and is read-only afterwards. Missing
// sources leave the corresponding fields empty; absence is never an error.
type HostInfo struct {
	os       string
	build    string
	distro   string
	hostname string
	kernel   KernelVersion

	hostRoot string
	sysRoot  string
	prober   Prober
	logger   *slog.Logger
}

// NewHostInfo reads os-release, the hostname and the kernel identification.
func NewHostInfo(opts ...Option) *HostInfo {
	cfg := &hostConfig{
		hostRoot: DefaultHostRoot,
		sysRoot:  "/",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.prober == nil {
		cfg.prober = KernelProber()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	h := &HostInfo{
		hostRoot: cfg.hostRoot,
		sysRoot:  cfg.sysRoot,
		prober:   cfg.prober,
		logger:   cfg.logger.With("component", "hostinfo"),
	}

	release := h.readOSRelease()
	h.os = release["ID"]
	h.build = release["BUILD_ID"]
	h.distro = release["PRETTY_NAME"]
	h.hostname = h.readHostname()

	if cfg.kernel != nil {
		h.kernel = *cfg.kernel
	} else {
		h.kernel = KernelVersionFromHost()
	}
	return h
}

// OSID returns the os-release ID (e.g. "ubuntu").
func (h *HostInfo) OSID() string { return h.os }

// BuildID returns the os-release BUILD_ID.
func (h *HostInfo) BuildID() string { return h.build }

// Distro returns the os-release PRETTY_NAME.
func (h *HostInfo) Distro() string { return h.distro }

// Hostname returns the host's hostname.
func (h *HostInfo) Hostname() string { return h.hostname }

// KernelVersion returns the running kernel version.
func (h *HostInfo) KernelVersion() KernelVersion { return h.kernel }

// HostRoot returns the directory the host filesystem is mounted on.
func (h *HostInfo) HostRoot() string { return h.hostRoot }

// hostPath resolves p against the host root.
func (h *HostInfo) hostPath(p string) string {
	return filepath.Join(h.hostRoot, p)
}

// sysPath resolves p in the agent's own mount namespace.
func (h *HostInfo) sysPath(p string) string {
	if h.sysRoot == "" {
		return p
	}
	return filepath.Join(h.sysRoot, p)
}

var osReleaseKeys = []string{"ID", "BUILD_ID", "PRETTY_NAME"}

// readOSRelease scans os-release in file order. Later lines overwrite
// earlier ones for the same key.
func (h *HostInfo) readOSRelease() map[string]string {
	values := make(map[string]string, len(osReleaseKeys))

	f, err := os.Open(h.sysPath("/etc/os-release"))
	if err != nil {
		f, err = os.Open(h.sysPath("/usr/lib/os-release"))
		if err != nil {
			return values
		}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		for _, key := range osReleaseKeys {
			if value, ok := strings.CutPrefix(line, key+"="); ok {
				values[key] = strings.Trim(value, `"'`)
			}
		}
	}
	return values
}

func (h *HostInfo) readHostname() string {
	for _, p := range []string{"/etc/hostname", "/proc/sys/kernel/hostname"} {
		data, err := os.ReadFile(h.hostPath(p))
		if err != nil {
			continue
		}
		return strings.TrimSpace(string(data))
	}
	return ""
}

// IsCOS reports whether the host runs Container-Optimized OS.
func (h *HostInfo) IsCOS() bool {
	return h.os == "cos" && h.build != ""
}

// IsCoreOS reports whether the host runs CoreOS.
func (h *HostInfo) IsCoreOS() bool {
	return h.os == "coreos"
}

// IsDockerDesktop reports whether the host is a Docker Desktop VM.
func (h *HostInfo) IsDockerDesktop() bool {
	return h.os == "Docker Desktop"
}

// IsUbuntu reports whether the host runs Ubuntu.
func (h *HostInfo) IsUbuntu() bool {
	return h.os == "ubuntu"
}

// IsGarden reports whether the host runs Garden Linux.
func (h *HostInfo) IsGarden() bool {
	return strings.Contains(h.distro, "Garden Linux")
}

// IsRHEL76 reports whether the host runs a RHEL 7.6 kernel carrying the eBPF
// backport.
//
// Any "rhel" host qualifies regardless of the release suffix; only CentOS
// must show ".el7." in the release.
func (h *HostInfo) IsRHEL76() bool {
	k := h.kernel
	distro := h.os == "rhel" || (h.os == "centos" && strings.Contains(k.Release, ".el7."))
	return distro && k.Kernel == 3 && k.Major == 10 && k.BuildID >= minRHEL76BuildID
}

// IsRHEL86 reports whether the host runs RHEL 8.6, or RHCOS on an 8.6 kernel.
// As with IsRHEL76, any "rhel" host qualifies.
func (h *HostInfo) IsRHEL86() bool {
	return h.os == "rhel" || (h.os == "rhcos" && strings.Contains(h.kernel.Release, ".el8_6"))
}

// HasEbpfSupport reports whether eBPF collection can run, accounting for
// the RHEL 7.6 backport.
func (h *HostInfo) HasEbpfSupport() bool {
	if h.IsRHEL76() {
		return true
	}
	return h.kernel.HasEbpfSupport()
}

// btfCandidates returns the vmlinux locations checked by HasBTFSymbols, in order.
func (h *HostInfo) btfCandidates() []string {
	r := h.kernel.Release
	return []string{
		h.sysPath("/sys/kernel/btf/vmlinux"),
		h.sysPath("/boot/vmlinux-" + r),
		h.sysPath("/lib/modules/" + r + "/vmlinux-" + r),
		h.sysPath("/lib/modules/" + r + "/build/vmlinux"),
		h.hostPath("/usr/lib/modules/" + r + "/kernel/vmlinux"),
		h.hostPath("/usr/lib/debug/boot/vmlinux-" + r),
		h.hostPath("/usr/lib/debug/boot/vmlinux-" + r + ".debug"),
		h.hostPath("/usr/lib/debug/lib/modules/" + r + "/vmlinux"),
	}
}

// HasBTFSymbols reports whether kernel BTF is available in any known location.
func (h *HostInfo) HasBTFSymbols() bool {
	for _, p := range h.btfCandidates() {
		if _, err := os.Stat(p); err == nil {
			h.logger.Debug("found BTF symbols", "path", p)
			return true
		}
	}
	return false
}

// IsUEFI reports whether the host booted through UEFI.
func (h *HostInfo) IsUEFI() bool {
	fi, err := os.Stat(h.hostPath("/sys/firmware/efi"))
	if err != nil {
		return false
	}
	return fi.IsDir()
}

// SecureBootStatus reads the Secure Boot state from the host's efivars.
func (h *HostInfo) SecureBootStatus() SecureBootStatus {
	if !h.IsUEFI() {
		return SecureBootNotDetermined
	}
	// efivarfs prepends 4 bytes of attributes to the one-byte value.
	data, err := os.ReadFile(h.hostPath(secureBootEfivar))
	if err != nil || len(data) < 5 {
		return SecureBootNotDetermined
	}
	switch data[len(data)-1] {
	case 1:
		return SecureBootEnabled
	case 0:
		return SecureBootDisabled
	default:
		return SecureBootNotDetermined
	}
}

// NumPossibleCPU returns the number of CPUs the kernel sizes per-CPU BPF maps for.
func (h *HostInfo) NumPossibleCPU() (int, error) {
	return h.prober.PossibleCPU()
}

// HasBPFTracingSupport probes for the BPF tracing program type.
//
// A failed probe is logged and reported as supported, so callers must
// tolerate false positives.
func (h *HostInfo) HasBPFTracingSupport() bool {
	return h.failOpen("BPF tracing programs", h.prober.ProgramType(ebpf.Tracing))
}

// HasBPFRingbufSupport probes for the BPF ring buffer map type.
//
// A failed probe is logged and reported as supported, so callers must
// tolerate false positives.
func (h *HostInfo) HasBPFRingbufSupport() bool {
	return h.failOpen("BPF ring buffers", h.prober.MapType(ebpf.RingBuf))
}

func (h *HostInfo) failOpen(what string, r ProbeResult) bool {
	if r.Error != nil {
		h.logger.Warn("unable to probe kernel support, assuming available", "feature", what, "error", r.Error)
		return true
	}
	if !r.Supported {
		h.logger.Info("not supported by the running kernel", "feature", what)
	}
	return r.Supported
}
