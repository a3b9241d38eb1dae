package khost

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedPlatform is returned by kernel facilities that only exist on Linux.
var ErrUnsupportedPlatform = errors.New("unsupported platform (requires Linux)")

// ProbeResult represents the outcome of an active kernel probe.
//
// It is tri-state: supported, not supported, or probe failed (Error != nil).
type ProbeResult struct {
	// Supported indicates whether the feature is available.
	Supported bool
	// Error is non-nil if the probe itself failed (not just unsupported).
	Error error
}

// FeatureError represents an error when a required host feature is unavailable.
type FeatureError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *FeatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feature %s: %s: %v", e.Feature, e.Reason, e.Err)
	}
	return fmt.Sprintf("feature %s: %s", e.Feature, e.Reason)
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// SecureBootStatus mirrors efi_secureboot_mode in include/linux/efi.h.
type SecureBootStatus int

const (
	// SecureBootUnset means no detection has been performed.
	SecureBootUnset SecureBootStatus = 0
	// SecureBootNotDetermined means Secure Boot looks disabled, but the boot
	// loader did not tell the kernel enough to be sure.
	SecureBootNotDetermined SecureBootStatus = 1
	// SecureBootDisabled means Secure Boot is off.
	SecureBootDisabled SecureBootStatus = 2
	// SecureBootEnabled means Secure Boot is on.
	SecureBootEnabled SecureBootStatus = 3
)

func (s SecureBootStatus) String() string {
	switch s {
	case SecureBootUnset:
		return "unset"
	case SecureBootNotDetermined:
		return "not determined"
	case SecureBootDisabled:
		return "disabled"
	case SecureBootEnabled:
		return "enabled"
	default:
		return fmt.Sprintf("SecureBootStatus(%d)", s)
	}
}

// ConfigValue represents a kernel configuration option's state.
type ConfigValue int

const (
	// ConfigNotSet means the option is not set or not found.
	ConfigNotSet ConfigValue = iota
	// ConfigModule means the option is set to =m (module).
	ConfigModule
	// ConfigBuiltin means the option is set to =y (built-in).
	ConfigBuiltin
)

// IsEnabled returns true if the config option is set (either =m or =y).
func (v ConfigValue) IsEnabled() bool {
	return v == ConfigModule || v == ConfigBuiltin
}

func (v ConfigValue) String() string {
	switch v {
	case ConfigNotSet:
		return "not set"
	case ConfigModule:
		return "m"
	case ConfigBuiltin:
		return "y"
	default:
		return fmt.Sprintf("ConfigValue(%d)", v)
	}
}

// KernelConfig holds the kernel build options relevant to BPF scraping.
type KernelConfig struct {
	raw map[string]ConfigValue

	BPF        ConfigValue // CONFIG_BPF
	BPFSyscall ConfigValue // CONFIG_BPF_SYSCALL
	BTF        ConfigValue // CONFIG_DEBUG_INFO_BTF
	Ftrace     ConfigValue // CONFIG_FTRACE (BPF tracing programs)
}

// Get returns the ConfigValue for a kernel config key without the CONFIG_ prefix.
func (kc *KernelConfig) Get(key string) ConfigValue {
	if kc == nil || kc.raw == nil {
		return ConfigNotSet
	}
	return kc.raw[key]
}

// NewKernelConfig creates a KernelConfig from a raw config map.
// The map is copied.
func NewKernelConfig(raw map[string]ConfigValue) *KernelConfig {
	copied := make(map[string]ConfigValue, len(raw))
	for k, v := range raw {
		copied[k] = v
	}
	return &KernelConfig{
		raw:        copied,
		BPF:        copied["BPF"],
		BPFSyscall: copied["BPF_SYSCALL"],
		BTF:        copied["DEBUG_INFO_BTF"],
		Ftrace:     copied["FTRACE"],
	}
}

// Feature represents a host capability that can be checked via [HostInfo.Check].
type Feature int

const (
	// FeatureEBPF requires eBPF support, either by kernel version or by a distro backport.
	FeatureEBPF Feature = iota
	// FeatureBTF requires kernel BTF type information somewhere on the host.
	FeatureBTF
	// FeatureBPFTracing requires the BPF tracing program type (iterators, fentry).
	FeatureBPFTracing
	// FeatureRingbuf requires the BPF ring buffer map type.
	FeatureRingbuf
	// FeatureCapBPF requires the CAP_BPF capability (kernel 5.8+).
	FeatureCapBPF
	// FeatureCapSysAdmin requires the CAP_SYS_ADMIN capability.
	FeatureCapSysAdmin
	// FeatureCapPerfmon requires the CAP_PERFMON capability.
	FeatureCapPerfmon
)

var featureNames = map[Feature]string{
	FeatureEBPF:        "ebpf",
	FeatureBTF:         "btf",
	FeatureBPFTracing:  "bpf-tracing",
	FeatureRingbuf:     "ringbuf",
	FeatureCapBPF:      "cap-bpf",
	FeatureCapSysAdmin: "cap-sys-admin",
	FeatureCapPerfmon:  "cap-perfmon",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Feature(%d)", f)
}

// FeatureValues returns every known Feature in declaration order.
func FeatureValues() []Feature {
	values := make([]Feature, 0, len(featureNames))
	for f := range featureNames {
		values = append(values, f)
	}
	slices.Sort(values)
	return values
}

// FeatureNames returns the names of every known Feature in declaration order.
func FeatureNames() []string {
	values := FeatureValues()
	names := make([]string, len(values))
	for i, f := range values {
		names[i] = f.String()
	}
	return names
}
