package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stateful/markedit/internal/log"
)

var (
	fConfigPath string
	fVerbose    bool
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "markedit",
		Short:         "Canonicalize, render and convert markdown documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fConfigPath, "config", "", "Path to a markedit.yaml file. By default, markedit.yaml files are looked up from the working directory.")
	pflags.BoolVarP(&fVerbose, "verbose", "v", false, "Log debug messages to stderr.")

	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(renderCmd())
	cmd.AddCommand(convertCmd())
	cmd.AddCommand(classifyCmd())

	return &cmd
}
