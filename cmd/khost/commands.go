package main

import (
	"errors"
	"fmt"

	"github.com/leodido/khost"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
)

// InfoOptions defines flags for the info subcommand.
type InfoOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *InfoOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func infoCmd(g *globalOptions) *cobra.Command {
	opts := &InfoOptions{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the host, its kernel and its BPF support",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			report := g.newHost().Report()
			if opts.JSON {
				return printJSON(c.OutOrStdout(), report)
			}
			fmt.Fprint(c.OutOrStdout(), report)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// CollectionOptions defines flags for the collection subcommand.
type CollectionOptions struct {
	Method string `flag:"method" flagshort:"m" flagdescr:"Requested collection method: core-bpf, ebpf or none"`
	JSON   bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *CollectionOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func collectionCmd(g *globalOptions) *cobra.Command {
	opts := &CollectionOptions{Method: string(khost.CollectionCoreBPF)}

	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Select the collection method this host can run",
		Long: `Apply the host heuristics to a requested collection method.

Docker Desktop and kernels without eBPF support fall back to none, CO-RE
collection falls back to ebpf when BTF, ring buffers or tracing programs are
missing, and COS without eBPF support is an error.`,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			requested, err := khost.ParseCollectionMethod(opts.Method)
			if err != nil {
				return err
			}

			selected, err := g.newHost().SelectCollection(requested)
			if opts.JSON {
				out := map[string]any{"requested": requested, "selected": selected}
				if err != nil {
					out["error"] = err.Error()
				}
				if perr := printJSON(c.OutOrStdout(), out); perr != nil {
					return perr
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s\n", selected)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// ConfigOptions defines flags for the config subcommand.
type ConfigOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ConfigOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func configCmd(g *globalOptions) *cobra.Command {
	opts := &ConfigOptions{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the BPF related kernel build options",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			kc, err := g.newHost().KernelConfig()
			if err != nil {
				if errors.Is(err, khost.ErrNoKernelConfig) {
					return fmt.Errorf("kernel config not available: %w", err)
				}
				return err
			}

			if opts.JSON {
				return printJSON(c.OutOrStdout(), map[string]string{
					"CONFIG_BPF":            kc.BPF.String(),
					"CONFIG_BPF_SYSCALL":    kc.BPFSyscall.String(),
					"CONFIG_DEBUG_INFO_BTF": kc.BTF.String(),
					"CONFIG_FTRACE":         kc.Ftrace.String(),
				})
			}

			w := c.OutOrStdout()
			fmt.Fprintf(w, "CONFIG_BPF:            %s\n", kc.BPF)
			fmt.Fprintf(w, "CONFIG_BPF_SYSCALL:    %s\n", kc.BPFSyscall)
			fmt.Fprintf(w, "CONFIG_DEBUG_INFO_BTF: %s\n", kc.BTF)
			fmt.Fprintf(w, "CONFIG_FTRACE:         %s\n", kc.Ftrace)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show kernel and tool version",
		RunE: func(c *cobra.Command, args []string) error {
			w := c.OutOrStdout()
			if version != "" {
				fmt.Fprintf(w, "khost %s", version)
				if commit != "" {
					fmt.Fprintf(w, " (%s)", commit)
				}
				if date != "" {
					fmt.Fprintf(w, " built %s", date)
				}
				fmt.Fprintln(w)
			} else {
				fmt.Fprintln(w, "khost (dev)")
			}

			fmt.Fprintf(w, "Kernel: %s\n", khost.KernelVersionFromHost())
			return nil
		},
	}
}
