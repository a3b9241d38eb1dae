package main

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/leodido/khost"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Require featureRequirements `flag:"require" flagshort:"r" flagdescr:"Required features (see available features above)" flagcustom:"true"`
	Object  string              `flag:"object" flagshort:"o" flagdescr:"Also require every program and map type used by this BPF object"`
	JSON    bool                `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineRequire(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*featureRequirements)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *CheckOptions) DecodeRequire(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	return parseFeatureRequirements(s)
}

// CompleteRequire completes comma-separated feature names, skipping the
// ones already typed.
func (o *CheckOptions) CompleteRequire(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}

	selected := map[string]bool{}
	for _, part := range strings.Split(prefix, ",") {
		selected[strings.ToLower(strings.TrimSpace(part))] = true
	}

	var candidates []string
	for _, name := range khost.FeatureNames() {
		if selected[name] {
			continue
		}
		if strings.HasPrefix(name, strings.ToLower(current)) {
			candidates = append(candidates, prefix+name)
		}
	}
	return candidates, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// requirements combines the requested features with those derived from the
// object. Without either, the scraping baseline is checked.
func (o *CheckOptions) requirements() ([]khost.Requirement, error) {
	var reqs []khost.Requirement
	for _, f := range o.Require {
		reqs = append(reqs, f)
	}
	if o.Object != "" {
		fromObject, err := khost.RequirementsFromObject(o.Object)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, fromObject)
	}
	if len(reqs) == 0 {
		reqs = append(reqs, khost.ScrapingRequirements)
	}
	return reqs, nil
}

func checkCmd(g *globalOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check host feature requirements",
		Long:  checkLongDescription(),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			reqs, err := opts.requirements()
			if err != nil {
				return err
			}

			err = g.newHost().Check(reqs...)
			var fe *khost.FeatureError
			if errors.As(err, &fe) {
				if opts.JSON {
					if perr := printJSON(c.OutOrStdout(), map[string]any{
						"ok":      false,
						"feature": fe.Feature,
						"reason":  fe.Reason,
					}); perr != nil {
						return perr
					}
					return errCheckFailed
				}
				fmt.Fprintf(c.ErrOrStderr(), "FAIL: %s: %s\n", fe.Feature, fe.Reason)
				return errCheckFailed
			}
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(c.OutOrStdout(), map[string]any{"ok": true})
			}
			fmt.Fprintln(c.OutOrStdout(), "OK: all requirements satisfied")
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func availableFeatures() string {
	return strings.Join(khost.FeatureNames(), ", ")
}

func checkLongDescription() string {
	return fmt.Sprintf(`Check that the host supports all required features.
Exits with code 0 if all requirements are met, 1 if any are missing.
Without --require or --object the scraping baseline (%s) is checked.

Available features:
%s`, khost.ScrapingRequirements.String(), formatWrappedList(khost.FeatureNames(), "  ", 80))
}

func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	lines := make([]string, 0, len(items))
	line := indent
	for i, item := range items {
		token := item
		if i < len(items)-1 {
			token += ", "
		}
		if len(line)+len(token) > maxWidth && line != indent {
			lines = append(lines, strings.TrimRight(line, " "))
			line = indent + token
			continue
		}
		line += token
	}

	lines = append(lines, strings.TrimRight(line, " "))
	return strings.Join(lines, "\n")
}

type featureRequirements []khost.Feature

var featureIdentifierMap = func() map[khost.Feature][]string {
	ids := make(map[khost.Feature][]string, len(khost.FeatureValues()))
	for _, f := range khost.FeatureValues() {
		ids[f] = []string{f.String()}
	}
	return ids
}()

func (r *featureRequirements) String() string {
	names := make([]string, 0, len(*r))
	for _, f := range *r {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

func (r *featureRequirements) Set(input string) error {
	features, err := parseFeatureRequirements(input)
	if err != nil {
		return err
	}
	for _, f := range features {
		if !slices.Contains(*r, f) {
			*r = append(*r, f)
		}
	}
	return nil
}

func (r *featureRequirements) Type() string {
	return "feature"
}

func parseFeatureRequirements(input string) (featureRequirements, error) {
	if strings.TrimSpace(input) == "" {
		return featureRequirements{}, nil
	}

	parts := strings.Split(input, ",")
	features := make(featureRequirements, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var feature khost.Feature
		enumValue := enumflag.New(&feature, "khost.Feature", featureIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := enumValue.Set(name); err != nil {
			return nil, fmt.Errorf("unknown feature: %q (available: %s)", name, availableFeatures())
		}
		features = append(features, feature)
	}
	return features, nil
}
