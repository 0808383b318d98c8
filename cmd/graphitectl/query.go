package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
	"github.com/nicktill/tinygraphite/pkg/query"
)

func newTokenizeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <target>",
		Short: "Print the tokens of a target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := query.Tokenize(targetArg(args))
			if g.jsonOutput {
				if tokens == nil {
					tokens = []query.Token{}
				}
				return printJSON(cmd.OutOrStdout(), tokens)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POS\tTYPE\tVALUE")
			for _, tok := range tokens {
				value := tok.Literal
				if tok.Malformed {
					value += "  " + warnStyle.Sprint("(malformed)")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", tok.Pos, tok.Type, value)
			}
			return tw.Flush()
		},
	}
}

func newParseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <target>",
		Short: "Print the syntax tree of a target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := targetArg(args)
			node := query.Parse(target)

			if perr, ok := node.(*query.Error); ok {
				if g.jsonOutput {
					if err := printJSON(cmd.OutOrStdout(), node); err != nil {
						return err
					}
				} else {
					printParseError(cmd.ErrOrStderr(), target, perr)
				}
				return errFailed
			}
			if node == nil {
				return fmt.Errorf("target %q holds no query", target)
			}
			return printJSON(cmd.OutOrStdout(), node)
		},
	}
}

type renderOptions struct {
	refID    string
	siblings []string
	vars     []string
}

func newRenderCmd(g *globals) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <target>",
		Short: "Normalise a target and resolve its #X references",
		Long: `Render parses the target into the query model and writes it back,
quoting parameters by their signature. References to sibling targets given
with --sibling are resolved into the full target.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, opts, targetArg(args))
		},
	}

	cmd.Flags().StringVar(&opts.refID, "ref", "A", "ref id of the target")
	cmd.Flags().StringArrayVar(&opts.siblings, "sibling", nil, "sibling target as REF=TARGET (repeatable)")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "dashboard variable as NAME=VALUE (repeatable)")
	return cmd
}

func runRender(cmd *cobra.Command, g *globals, opts *renderOptions, text string) error {
	registry, err := g.registry()
	if err != nil {
		return err
	}

	siblings, err := parseSiblings(opts.siblings)
	if err != nil {
		return err
	}
	vars, err := parsePairs(opts.vars)
	if err != nil {
		return err
	}

	m := model.New(model.Target{RefID: opts.refID, Target: text}, registry,
		model.WithLogger(g.logger),
		model.WithInterpolator(functions.Variables(vars)))
	reconcileErr := m.Reconcile()

	// the target itself takes part in resolution under its own ref id
	all := append([]model.Target{{RefID: opts.refID, Target: text}}, siblings...)
	committed := m.Commit(all)

	if g.jsonOutput {
		snap := m.Snapshot()
		if reconcileErr != nil {
			snap.Reconciliation = reconcileErr.Error()
		}
		return printJSON(cmd.OutOrStdout(), snap)
	}

	if m.Err != nil {
		printParseError(cmd.ErrOrStderr(), text, m.Err)
		return errFailed
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, labelStyle.Sprint("target:      ")+committed.Target)
	if committed.TargetFull != "" {
		fmt.Fprintln(out, labelStyle.Sprint("target full: ")+committed.TargetFull)
	}
	if reconcileErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Sprint("warning: ")+reconcileErr.Error())
	}
	return nil
}

// parseSiblings reads REF=TARGET pairs. The target may itself contain '='.
func parseSiblings(values []string) ([]model.Target, error) {
	targets := make([]model.Target, 0, len(values))
	for _, v := range values {
		ref, target, ok := strings.Cut(v, "=")
		if !ok || ref == "" {
			return nil, fmt.Errorf("invalid sibling %q, want REF=TARGET", v)
		}
		targets = append(targets, model.Target{RefID: ref, Target: target})
	}
	return targets, nil
}

func parsePairs(values []string) (map[string]string, error) {
	pairs := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want NAME=VALUE", v)
		}
		pairs[name] = value
	}
	return pairs, nil
}
