package khost

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoKernelConfig is returned when no kernel config source is available.
var ErrNoKernelConfig = errors.New("no kernel config found")

// configSource describes a kernel config file location.
type configSource struct {
	path       string
	compressed bool
}

// KernelConfig reads the host kernel's build configuration.
// Sources are tried in order, all under the host root:
//  1. /proc/config.gz (requires CONFIG_IKCONFIG_PROC=y)
//  2. /boot/config-<release>
//  3. /lib/modules/<release>/config
func (h *HostInfo) KernelConfig() (*KernelConfig, error) {
	release := h.kernel.Release
	if release == "" {
		return nil, fmt.Errorf("%w: unknown kernel release", ErrNoKernelConfig)
	}

	sources := []configSource{
		{path: h.hostPath("/proc/config.gz"), compressed: true},
		{path: h.hostPath("/boot/config-" + release)},
		{path: h.hostPath("/lib/modules/" + release + "/config")},
	}

	var lastErr error
	for _, src := range sources {
		kc, err := parseConfigFrom(src)
		if err == nil {
			return kc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrNoKernelConfig, lastErr)
}

func parseConfigFrom(src configSource) (*KernelConfig, error) {
	f, err := os.Open(src.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if src.compressed {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	}
	return parseConfig(r)
}

// parseConfig keeps CONFIG_* entries set to y or m; other values are ignored.
func parseConfig(r io.Reader) (*KernelConfig, error) {
	raw := make(map[string]ConfigValue)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, "CONFIG_")
		if !ok {
			continue
		}
		key, value, ok := strings.Cut(rest, "=")
		if !ok {
			continue
		}
		switch value {
		case "y":
			raw[key] = ConfigBuiltin
		case "m":
			raw[key] = ConfigModule
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewKernelConfig(raw), nil
}
