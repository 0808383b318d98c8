package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicktill/tinygraphite/pkg/functions"
)

func newFunctionsCmd(g *globals) *cobra.Command {
	var versionFloor string

	cmd := &cobra.Command{
		Use:   "functions [name]",
		Short: "List known functions or show one signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := g.registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				def, ok := registry.Lookup(args[0])
				if !ok {
					msg := fmt.Sprintf("unknown function %q", args[0])
					if near := registry.Suggest(args[0], 3); len(near) > 0 {
						msg += ", did you mean " + strings.Join(near, ", ") + "?"
					}
					return errors.New(msg)
				}
				if g.jsonOutput {
					return printJSON(out, def)
				}
				fmt.Fprintln(out, signature(def))
				if def.Description != "" {
					fmt.Fprintln(out, def.Description)
				}
				return nil
			}

			defs := registry.All(versionFloor)
			if g.jsonOutput {
				return printJSON(out, defs)
			}

			names := make([]string, 0, len(defs))
			for name := range defs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(out, signature(defs[name]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFloor, "version", "", "only functions available in this Graphite version")
	return cmd
}

// signature renders a def as name(param: type, ...) with optional params in
// brackets and repeatable ones marked with "...".
func signature(def *functions.FuncDef) string {
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		s := p.Name
		if p.Type != functions.TypeUntyped {
			s += ": " + string(p.Type)
		}
		if p.Multiple {
			s += "..."
		}
		if p.Optional {
			s = "[" + s + "]"
		}
		params[i] = s
	}
	return labelStyle.Sprint(def.Name) + "(" + strings.Join(params, ", ") + ")"
}
