package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
)

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|->",
		Short: "Check that every target in a file parses and rebuilds unchanged",
		Long: `Check reads one target per line. Blank lines and lines starting with
'#' followed by a space are skipped. A target fails when it does not parse
or when the query builder would write it back as a different query.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := g.registry()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			failed, total, err := checkTargets(cmd.OutOrStdout(), in, registry)
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d targets, %d failed", total, failed)
			if failed > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Sprint(summary))
				return errFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Sprint(summary))
			return nil
		},
	}
}

func checkTargets(out io.Writer, in io.Reader, registry *functions.Registry) (failed, total int, err error) {
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "# ") {
			continue
		}
		total++

		m := model.New(model.Target{RefID: "A", Target: text}, registry)
		switch {
		case m.Err != nil:
			failed++
			fmt.Fprintf(out, "%s %d: %s\n", errorStyle.Sprint("FAIL"), line, m.Err.Error())
		default:
			if rerr := m.Reconcile(); rerr != nil {
				failed++
				fmt.Fprintf(out, "%s %d: %s\n", errorStyle.Sprint("FAIL"), line, rerr.Error())
				continue
			}
			fmt.Fprintf(out, "%s %d: %s\n", okStyle.Sprint("ok"), line, m.Render())
		}
	}
	return failed, total, scanner.Err()
}
