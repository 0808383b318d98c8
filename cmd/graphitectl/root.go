package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/logging"
)

// errFailed is returned after a command has already reported its problem,
// so main only needs to set the exit code.
var errFailed = errors.New("failed")

// globals shared by every subcommand
type globals struct {
	functionsFile string
	verbose       bool
	jsonOutput    bool

	logger *zap.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	g := &globals{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "graphitectl",
		Short:         "graphitectl - inspect, render and check Graphite targets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if g.verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{Level: level, Development: true})
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&g.functionsFile, "functions", "", "function description document (Graphite /functions output)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug output")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(
		newTokenizeCmd(g),
		newParseCmd(g),
		newRenderCmd(g),
		newFunctionsCmd(g),
		newCheckCmd(g),
	)
	return root
}

// registry loads the function table named by --functions, or the built-in
// one. A document that fails to decode is an error.
func (g *globals) registry() (*functions.Registry, error) {
	loader := functions.NewLoader(g.functionsFile, g.logger)
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader.Registry(), nil
}

// targetArg joins the positional args so unquoted targets with spaces work
func targetArg(args []string) string {
	return strings.Join(args, " ")
}
