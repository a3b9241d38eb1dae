package khost

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	sys, host := testRoots(t)
	writeFile(t, sys, "etc/os-release", "ID=rhel\nPRETTY_NAME=\"Red Hat Enterprise Linux Server 7.6 (Maipo)\"\n")
	writeFile(t, host, "etc/hostname", "worker-1\n")
	writeFile(t, sys, "sys/kernel/btf/vmlinux", "btf")

	h := newTestHost(t, sys, host,
		WithKernelVersion(ParseKernelVersion("3.10.0-957.10.1.el7.x86_64", "#1 SMP", "x86_64")),
	)
	r := h.Report()

	if r.Hostname != "worker-1" || r.OSID != "rhel" {
		t.Errorf("identity = %q/%q", r.Hostname, r.OSID)
	}
	if !r.IsRHEL76 || !r.HasEbpfSupport || r.Kernel.HasEbpfSupport {
		t.Errorf("RHEL 7.6 backport not reflected: rhel76=%v host=%v kernel=%v", r.IsRHEL76, r.HasEbpfSupport, r.Kernel.HasEbpfSupport)
	}
	if r.Kernel.BuildID != 957 || r.Kernel.ShortRelease != "3.10.0" {
		t.Errorf("kernel = %+v", r.Kernel)
	}
	if !r.HasBTFSymbols {
		t.Error("HasBTFSymbols = false")
	}
	if r.SecureBoot != "not determined" {
		t.Errorf("SecureBoot = %q", r.SecureBoot)
	}
	if r.NumPossibleCPU != 8 {
		t.Errorf("NumPossibleCPU = %d, want 8", r.NumPossibleCPU)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	for _, key := range []string{`"os_id":"rhel"`, `"is_rhel76":true`, `"short_release":"3.10.0"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON missing %s: %s", key, data)
		}
	}

	out := r.String()
	for _, line := range []string{"Hostname: worker-1", "  RHEL 7.6: yes", "  UEFI: no", "Possible CPUs: 8", "Machine: x86_64"} {
		if !strings.Contains(out, line) {
			t.Errorf("String() missing %q:\n%s", line, out)
		}
	}
}

func TestReport_UnknownCPUs(t *testing.T) {
	sys, host := testRoots(t)
	p := supportingProber()
	p.cpuErr = errors.New("no such file")
	r := newTestHost(t, sys, host, WithProber(p)).Report()

	if r.NumPossibleCPU != -1 {
		t.Errorf("NumPossibleCPU = %d, want -1", r.NumPossibleCPU)
	}
	if strings.Contains(r.String(), "Possible CPUs") {
		t.Error("String() reports possible CPUs although unknown")
	}
	if !strings.Contains(r.String(), "Distro: unknown") {
		t.Errorf("String() = %s", r.String())
	}
}
