package main

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/leodido/khost"
	"github.com/leodido/khost/scraper"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
)

type scrapeTarget int

const (
	targetPrograms scrapeTarget = iota
	targetTasks
	targetNetwork
)

var scrapeTargetIDs = map[scrapeTarget][]string{
	targetPrograms: {"progs", "programs"},
	targetTasks:    {"process", "tasks"},
	targetNetwork:  {"network", "tcp4"},
}

func parseScrapeTarget(s string) (scrapeTarget, error) {
	var t scrapeTarget
	v := enumflag.New(&t, "target", scrapeTargetIDs, enumflag.EnumCaseInsensitive)
	if err := v.Set(s); err != nil {
		return 0, fmt.Errorf("unknown scrape target %q (available: progs, process, network)", s)
	}
	return t, nil
}

// ScrapeOptions defines flags for the scrape subcommand.
type ScrapeOptions struct {
	Object    string        `flag:"object" flagshort:"o" flagdescr:"Compiled BPF object containing the iterator program" flagrequired:"true"`
	Debug     bool          `flag:"debug" flagdescr:"Log verifier output while loading"`
	JSON      bool          `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	Interval  time.Duration `flag:"interval" flagshort:"i" flagdescr:"Scrape repeatedly at this interval until interrupted"`
	Count     int           `flag:"count" flagshort:"n" flagdescr:"Stop after this many scrapes (0 means no limit)"`
	SkipCheck bool          `flag:"skip-check" flagdescr:"Do not verify the scraping requirements before loading"`
}

func (o *ScrapeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func scrapeCmd(g *globalOptions) *cobra.Command {
	opts := &ScrapeOptions{}

	cmd := &cobra.Command{
		Use:       "scrape <progs|process|network>",
		Short:     "Read kernel state through a BPF iterator",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"progs", "process", "network"},
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			target, err := parseScrapeTarget(args[0])
			if err != nil {
				return err
			}

			if !opts.SkipCheck {
				if err := g.newHost().Check(khost.ScrapingRequirements); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			obj := scraper.FromFile(opts.Object)
			sopts := []scraper.Option{scraper.WithDebug(opts.Debug), scraper.WithLogger(g.logger)}
			w := c.OutOrStdout()

			switch target {
			case targetPrograms:
				return runScraper(ctx, scraper.NewProgramScraper(obj, sopts...), opts, w, printPrograms)
			case targetTasks:
				return runScraper(ctx, scraper.NewTaskScraper(obj, sopts...), opts, w, printTasks)
			default:
				return runScraper(ctx, scraper.NewNetworkScraper(obj, sopts...), opts, w, printConnections)
			}
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// runScraper starts s and collects once, or every opts.Interval until ctx
// is cancelled or opts.Count rounds have run.
func runScraper[T any](ctx context.Context, s *scraper.Scraper[T], opts *ScrapeOptions, w io.Writer, show func(io.Writer, []T) error) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Close()

	for round := 1; ; round++ {
		records, err := s.Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if opts.JSON {
			if err := printJSON(w, records); err != nil {
				return err
			}
		} else if err := show(w, records); err != nil {
			return err
		}

		if opts.Interval <= 0 || (opts.Count > 0 && round >= opts.Count) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.Interval):
		}
	}
}

func printPrograms(w io.Writer, progs []scraper.BPFProgram) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tATTACHED")
	for _, p := range progs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, valueOrDash(p.Attached))
	}
	return tw.Flush()
}

func printTasks(w io.Writer, tasks []scraper.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXE\tCOMM\tTGID\tPID\tFD\tFILE OPS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%#x\n", valueOrDash(t.Exe), t.Comm, t.Tgid, t.Pid, t.FD, t.FileOps)
	}
	return tw.Flush()
}

func printConnections(w io.Writer, conns []scraper.Connection) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCAL\tREMOTE\tSTATE")
	for _, c := range conns {
		local := netip.AddrPortFrom(c.Local, c.LocalPort)
		remote := netip.AddrPortFrom(c.Remote, c.RemotePort)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", local, remote, c.State)
	}
	return tw.Flush()
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
