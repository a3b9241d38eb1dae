package khost

import (
	"errors"
	"testing"
)

func TestParseKernelVersion(t *testing.T) {
	tests := []struct {
		release string
		want    KernelVersion
	}{
		{
			release: "3.10.0-957.10.1.el7.x86_64",
			want:    KernelVersion{Kernel: 3, Major: 10, Minor: 0, BuildID: 957},
		},
		{
			release: "5.15.0-1053-gcp",
			want:    KernelVersion{Kernel: 5, Major: 15, Minor: 0, BuildID: 1053},
		},
		{
			release: "6.1.0",
			want:    KernelVersion{Kernel: 6, Major: 1, Minor: 0},
		},
		{
			release: "6.8.12+deb13-amd64",
			want:    KernelVersion{Kernel: 6, Major: 8, Minor: 12},
		},
		{
			release: "4.11.0-rc1",
			want:    KernelVersion{Kernel: 4, Major: 11, Minor: 0},
		},
		{
			release: "not.a.version-invalid.10.1.el7.x86_64",
			want:    KernelVersion{},
		},
		{
			release: "5.15",
			want:    KernelVersion{},
		},
		{
			release: "",
			want:    KernelVersion{},
		},
		{
			// overflowing groups degrade to zero individually
			release: "99999999999999999999999.1.2-3",
			want:    KernelVersion{Kernel: 0, Major: 1, Minor: 2, BuildID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			got := ParseKernelVersion(tt.release, "#1 SMP", "x86_64")
			tt.want.Release = tt.release
			tt.want.Version = "#1 SMP"
			tt.want.Machine = "x86_64"
			if got != tt.want {
				t.Errorf("ParseKernelVersion(%q) = %+v, want %+v", tt.release, got, tt.want)
			}
		})
	}
}

func TestKernelVersion_HasEbpfSupport(t *testing.T) {
	tests := []struct {
		kernel, major uint64
		want          bool
	}{
		{3, 13, false},
		{3, 99, false},
		{4, 10, false},
		{4, 13, false},
		{4, 14, true},
		{4, 19, true},
		{5, 0, true},
	}
	for _, tt := range tests {
		kv := KernelVersion{Kernel: tt.kernel, Major: tt.major}
		if got := kv.HasEbpfSupport(); got != tt.want {
			t.Errorf("KernelVersion{%d.%d}.HasEbpfSupport() = %v, want %v", tt.kernel, tt.major, got, tt.want)
		}
	}
}

func TestKernelVersion_HasSecureBootParam(t *testing.T) {
	tests := []struct {
		kernel, major uint64
		want          bool
	}{
		{3, 10, false},
		{4, 10, false},
		{4, 11, true},
		{5, 0, true},
	}
	for _, tt := range tests {
		kv := KernelVersion{Kernel: tt.kernel, Major: tt.major}
		if got := kv.HasSecureBootParam(); got != tt.want {
			t.Errorf("KernelVersion{%d.%d}.HasSecureBootParam() = %v, want %v", tt.kernel, tt.major, got, tt.want)
		}
	}
}

func TestKernelVersion_ShortRelease(t *testing.T) {
	kv := KernelVersion{Kernel: 9, Major: 10, Minor: 11, BuildID: 12, Release: "9.10.11-12-generic"}
	if got, want := kv.ShortRelease(), "9.10.11"; got != want {
		t.Errorf("ShortRelease() = %q, want %q", got, want)
	}
	if got, want := kv.String(), "9.10.11-12-generic"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestKernelVersionFrom(t *testing.T) {
	getenv := func(key string) string {
		if key == KernelVersionEnv {
			return "4.18.0-372.9.1.el8.x86_64"
		}
		return ""
	}

	t.Run("uname available", func(t *testing.T) {
		un := func() (string, string, string, error) {
			return "6.5.0-1020-aws", "#20-Ubuntu SMP", "aarch64", nil
		}
		got := kernelVersionFrom(un, getenv)
		want := ParseKernelVersion("6.5.0-1020-aws", "#20-Ubuntu SMP", "aarch64")
		if got != want {
			t.Errorf("kernelVersionFrom() = %+v, want %+v", got, want)
		}
	})

	t.Run("falls back to KERNEL_VERSION", func(t *testing.T) {
		un := func() (string, string, string, error) {
			return "", "", "", errors.New("uname: operation not permitted")
		}
		got := kernelVersionFrom(un, getenv)
		if got.Release != "4.18.0-372.9.1.el8.x86_64" {
			t.Errorf("Release = %q", got.Release)
		}
		if got.Kernel != 4 || got.Major != 18 || got.BuildID != 372 {
			t.Errorf("got %+v, want 4.18.0-372", got)
		}
		if got.Version != "" || got.Machine != "" {
			t.Errorf("Version/Machine = %q/%q, want empty", got.Version, got.Machine)
		}
	})

	t.Run("no identification at all", func(t *testing.T) {
		un := func() (string, string, string, error) {
			return "", "", "", ErrUnsupportedPlatform
		}
		got := kernelVersionFrom(un, func(string) string { return "" })
		if got != (KernelVersion{}) {
			t.Errorf("kernelVersionFrom() = %+v, want zero", got)
		}
	})
}
