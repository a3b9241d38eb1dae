package khost

import (
	"log/slog"
	"os"
)

const (
	// HostRootEnv names the variable holding the host filesystem mount point.
	HostRootEnv = "COLLECTOR_HOST_PATH"
	// DefaultHostRoot is where the host filesystem is bind-mounted when the
	// agent runs in a container.
	DefaultHostRoot = "/host"
)

// HostRootFromEnv returns $COLLECTOR_HOST_PATH, or [DefaultHostRoot] when unset.
func HostRootFromEnv() string {
	if root := os.Getenv(HostRootEnv); root != "" {
		return root
	}
	return DefaultHostRoot
}

// hostConfig holds the configuration for building a [HostInfo].
type hostConfig struct {
	hostRoot string
	// sysRoot prefixes paths that are read from the agent's own mount
	// namespace. Only tests change it.
	sysRoot string
	kernel  *KernelVersion
	prober  Prober
	logger  *slog.Logger
}

// Option configures [NewHostInfo].
type Option func(*hostConfig)

// WithHostRoot sets the directory where the host filesystem is mounted.
func WithHostRoot(path string) Option {
	return func(c *hostConfig) {
		c.hostRoot = path
	}
}

// WithKernelVersion uses kv instead of identifying the running kernel.
func WithKernelVersion(kv KernelVersion) Option {
	return func(c *hostConfig) {
		c.kernel = &kv
	}
}

// WithProber replaces the live kernel prober.
func WithProber(p Prober) Option {
	return func(c *hostConfig) {
		c.prober = p
	}
}

// WithLogger sets the logger for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

func withSysRoot(path string) Option {
	return func(c *hostConfig) {
		c.sysRoot = path
	}
}
