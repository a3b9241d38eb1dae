// Package khost detects which kernel monitoring facilities a host supports.
//
// A runtime monitoring agent consults it at startup to decide whether
// kernel-level scraping can be enabled. It parses the kernel release into
// a comparable version, reads distribution metadata, applies the distro
// exceptions that silently gate eBPF (RHEL 7.6 backports, COS, Docker
// Desktop) and actively probes the running kernel through
// github.com/cilium/ebpf/features.
//
// # Host root
//
// The agent usually runs in a container with the host filesystem mounted
// elsewhere. Host-rooted probes resolve against [WithHostRoot] (default
// /host). The CLI injects $COLLECTOR_HOST_PATH via [HostRootFromEnv]; the
// library itself never reads it.
//
// Which paths are host-rooted is deliberate: os-release, the sysfs BTF
// export and the /boot and /lib/modules vmlinux images are read from the
// agent's own view, while the hostname, the /usr/lib debug images, kernel
// config and EFI firmware state are read under the host root.
//
// # Quick Check
//
//	host := khost.NewHostInfo(khost.WithHostRoot(khost.HostRootFromEnv()))
//	if err := host.Check(khost.ScrapingRequirements); err != nil {
//	    var fe *khost.FeatureError
//	    if errors.As(err, &fe) {
//	        log.Printf("kernel scraping disabled: %s: %s", fe.Feature, fe.Reason)
//	    }
//	}
//
// # Absence and failure
//
// Most queries cannot fail. Unreadable files and missing keys become empty
// strings or false, and an unparseable release becomes a zero version.
// The only deliberate exception is [HostInfo.HasBPFTracingSupport] and
// [HostInfo.HasBPFRingbufSupport]: when the probe itself fails they log a
// warning and report true, so callers must tolerate false positives.
//
// Scrapers that attach BPF iterators and decode their output live in the
// scraper subpackage.
package khost
