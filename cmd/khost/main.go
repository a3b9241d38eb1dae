package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/leodido/khost"
	"github.com/leodido/khost/logging"
	"github.com/spf13/cobra"
)

// Build metadata injected via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// errCheckFailed is returned after a failed requirement has been reported.
var errCheckFailed = errors.New("requirements not met")

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	envFile   string
	hostRoot  string
	logSpec   string
	logFormat string

	logger *slog.Logger
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "khost",
		Short: "Host capability detection and BPF iterator scraping",
		Long: `khost inspects the host a monitoring agent runs on.

It identifies the kernel and distribution, decides whether eBPF based
collection can work (BTF, tracing programs, ring buffers, capabilities and
distro exceptions) and scrapes kernel state through BPF iterators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return g.setup(c.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.envFile, "env-file", "", "Load environment variables (COLLECTOR_HOST_PATH, KERNEL_VERSION, KHOST_LOG) from a file")
	pf.StringVar(&g.hostRoot, "host-root", "", "Host filesystem mount point (default $COLLECTOR_HOST_PATH or /host)")
	pf.StringVar(&g.logSpec, "log", "", `Log level spec, e.g. "warn,scraper=debug" (default $KHOST_LOG or info)`)
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(infoCmd(g))
	root.AddCommand(checkCmd(g))
	root.AddCommand(collectionCmd(g))
	root.AddCommand(configCmd(g))
	root.AddCommand(scrapeCmd(g))
	root.AddCommand(versionCmd())
	return root
}

// setup loads the env file before anything reads the environment, then
// builds the logger.
func (g *globalOptions) setup(stderr io.Writer) error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	if g.hostRoot == "" {
		g.hostRoot = khost.HostRootFromEnv()
	}

	format, err := logging.ParseFormat(g.logFormat)
	if err != nil {
		return err
	}
	g.logger, err = logging.New(logging.Options{
		Spec:    g.logSpec,
		EnvSpec: os.Getenv(logging.EnvVar),
		Format:  format,
		Output:  stderr,
	})
	return err
}

func (g *globalOptions) newHost() *khost.HostInfo {
	return khost.NewHostInfo(
		khost.WithHostRoot(g.hostRoot),
		khost.WithLogger(g.logger),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
