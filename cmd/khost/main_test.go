package main

import (
	"bytes"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leodido/khost"
	"github.com/leodido/khost/scraper"
	"github.com/spf13/cobra"
)

func TestParseFeatureRequirements_CaseInsensitive(t *testing.T) {
	got, err := parseFeatureRequirements(" EBPF, btf, Cap-BPF ")
	if err != nil {
		t.Fatalf("parseFeatureRequirements() error = %v", err)
	}

	want := featureRequirements{khost.FeatureEBPF, khost.FeatureBTF, khost.FeatureCapBPF}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseFeatureRequirements_UnknownFeature(t *testing.T) {
	_, err := parseFeatureRequirements("ciao")
	if err == nil {
		t.Fatal("parseFeatureRequirements(ciao) expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `unknown feature: "ciao"`) {
		t.Fatalf("error %q missing unknown feature context", msg)
	}
	if !strings.Contains(msg, "available:") {
		t.Fatalf("error %q missing available features", msg)
	}
}

func TestFeatureRequirements_SetAndString(t *testing.T) {
	var r featureRequirements
	if err := r.Set("ringbuf,btf"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("BTF,cap-perfmon"); err != nil {
		t.Fatal(err)
	}
	if got, want := r.String(), "ringbuf,btf,cap-perfmon"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if r.Type() != "feature" {
		t.Fatalf("Type() = %q", r.Type())
	}
}

func TestCheckLongDescription_UsesEnumNames(t *testing.T) {
	desc := checkLongDescription()
	if !strings.Contains(desc, "Available features:") {
		t.Fatalf("checkLongDescription() missing header: %q", desc)
	}
	if !strings.Contains(desc, "(ebpf, btf, bpf-tracing)") {
		t.Fatalf("checkLongDescription() missing scraping baseline: %q", desc)
	}
	for _, name := range khost.FeatureNames() {
		if !strings.Contains(desc, name) {
			t.Fatalf("checkLongDescription() missing feature %q", name)
		}
	}
}

func TestFormatWrappedList(t *testing.T) {
	got := formatWrappedList([]string{"aaaa", "bbbb", "cccc"}, "  ", 14)
	want := "  aaaa, bbbb,\n  cccc"
	if got != want {
		t.Fatalf("formatWrappedList() = %q, want %q", got, want)
	}
	if got := formatWrappedList(nil, "  ", 80); got != "  (none)" {
		t.Fatalf("formatWrappedList(nil) = %q", got)
	}
}

func TestCheckOptionsCompleteRequire(t *testing.T) {
	opts := &CheckOptions{}

	t.Run("empty input returns feature candidates", func(t *testing.T) {
		got, directive := opts.CompleteRequire(nil, nil, "")
		if len(got) != len(khost.FeatureNames()) {
			t.Fatalf("got %d candidates, want %d", len(got), len(khost.FeatureNames()))
		}
		if got[0] != khost.FeatureNames()[0] {
			t.Fatalf("first candidate = %q, want %q", got[0], khost.FeatureNames()[0])
		}
		if directive != cobra.ShellCompDirectiveNoFileComp|cobra.ShellCompDirectiveNoSpace {
			t.Fatalf("directive = %v", directive)
		}
	})

	t.Run("prefix filter is case-insensitive", func(t *testing.T) {
		got, _ := opts.CompleteRequire(nil, nil, "CAP-")
		if len(got) != 3 {
			t.Fatalf("candidates = %v, want the three capabilities", got)
		}
		for _, c := range got {
			if !strings.HasPrefix(c, "cap-") {
				t.Fatalf("candidate %q does not match expected prefix", c)
			}
		}
	})

	t.Run("comma-separated completion avoids duplicates", func(t *testing.T) {
		got, _ := opts.CompleteRequire(nil, nil, "BTF,b")
		if len(got) != 1 || got[0] != "BTF,bpf-tracing" {
			t.Fatalf("candidates = %v, want [BTF,bpf-tracing]", got)
		}
	})
}

func TestCheckOptions_Requirements(t *testing.T) {
	t.Run("baseline", func(t *testing.T) {
		reqs, err := (&CheckOptions{}).requirements()
		if err != nil {
			t.Fatal(err)
		}
		if len(reqs) != 1 || reqs[0].(khost.FeatureGroup).String() != khost.ScrapingRequirements.String() {
			t.Fatalf("requirements() = %v", reqs)
		}
	})

	t.Run("explicit features", func(t *testing.T) {
		reqs, err := (&CheckOptions{Require: featureRequirements{khost.FeatureRingbuf}}).requirements()
		if err != nil {
			t.Fatal(err)
		}
		if len(reqs) != 1 || reqs[0] != khost.FeatureRingbuf {
			t.Fatalf("requirements() = %v", reqs)
		}
	})

	t.Run("bad object", func(t *testing.T) {
		_, err := (&CheckOptions{Object: filepath.Join(t.TempDir(), "missing.o")}).requirements()
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestParseScrapeTarget(t *testing.T) {
	tests := []struct {
		in   string
		want scrapeTarget
	}{
		{"progs", targetPrograms},
		{"Programs", targetPrograms},
		{"process", targetTasks},
		{"tasks", targetTasks},
		{"NETWORK", targetNetwork},
		{"tcp4", targetNetwork},
	}
	for _, tt := range tests {
		got, err := parseScrapeTarget(tt.in)
		if err != nil {
			t.Fatalf("parseScrapeTarget(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseScrapeTarget(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseScrapeTarget("files"); err == nil || !strings.Contains(err.Error(), `unknown scrape target "files"`) {
		t.Fatalf("parseScrapeTarget(files) error = %v", err)
	}
}

func TestPrinters(t *testing.T) {
	var buf bytes.Buffer

	err := printConnections(&buf, []scraper.Connection{{
		Local:      netip.MustParseAddr("1.0.0.127"),
		LocalPort:  631,
		Remote:     netip.MustParseAddr("::1"),
		RemotePort: 80,
		State:      scraper.TCPListen,
	}})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"LOCAL", "1.0.0.127:631", "[::1]:80", "LISTEN"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("printConnections() output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := printTasks(&buf, []scraper.Task{{Comm: "kworker/0:1", Tgid: 15, Pid: 15, FileOps: 0xff}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "-  ") || !strings.Contains(buf.String(), "0xff") {
		t.Errorf("printTasks() output:\n%s", buf.String())
	}

	buf.Reset()
	if err := printPrograms(&buf, []scraper.BPFProgram{{ID: 42, Name: "handle_exec", Attached: "sched_process_exec"}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "42") || !strings.Contains(buf.String(), "sched_process_exec") {
		t.Errorf("printPrograms() output:\n%s", buf.String())
	}
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalOptions_Setup(t *testing.T) {
	unsetEnv(t, khost.HostRootEnv)
	unsetEnv(t, "KHOST_LOG")

	path := filepath.Join(t.TempDir(), "khost.env")
	content := "COLLECTOR_HOST_PATH=/mnt/host\nKHOST_LOG=debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g := &globalOptions{envFile: path, logFormat: "text"}
	if err := g.setup(io.Discard); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if g.hostRoot != "/mnt/host" {
		t.Errorf("hostRoot = %q, want /mnt/host", g.hostRoot)
	}
	if g.logger == nil || !g.logger.Enabled(t.Context(), -4) {
		t.Error("logger not configured from KHOST_LOG in env file")
	}

	t.Run("flag wins", func(t *testing.T) {
		g := &globalOptions{envFile: path, hostRoot: "/custom", logFormat: "json"}
		if err := g.setup(io.Discard); err != nil {
			t.Fatal(err)
		}
		if g.hostRoot != "/custom" {
			t.Errorf("hostRoot = %q, want /custom", g.hostRoot)
		}
	})

	t.Run("missing env file", func(t *testing.T) {
		g := &globalOptions{envFile: filepath.Join(t.TempDir(), "nope.env")}
		if err := g.setup(io.Discard); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad log format", func(t *testing.T) {
		g := &globalOptions{logFormat: "xml"}
		if err := g.setup(io.Discard); err == nil {
			t.Fatal("expected error")
		}
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "version")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "khost (dev)") || !strings.Contains(out, "Kernel:") {
			t.Fatalf("version output = %q", out)
		}
	})

	t.Run("scrape needs a target", func(t *testing.T) {
		if _, err := execute(t, "scrape", "--object", "x.o"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("scrape rejects unknown targets", func(t *testing.T) {
		_, err := execute(t, "scrape", "files", "--object", "x.o")
		if err == nil || !strings.Contains(err.Error(), "unknown scrape target") {
			t.Fatalf("error = %v", err)
		}
	})

	t.Run("collection rejects unknown methods", func(t *testing.T) {
		_, err := execute(t, "collection", "--method", "kmod")
		if err == nil || !strings.Contains(err.Error(), "unknown collection method") {
			t.Fatalf("error = %v", err)
		}
	})
}
