package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/renderer/cmark"
)

func convertCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "convert [file]",
		Short: "Convert rich markup (HTML) into markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newBuilder(name).Invoke(func(logger *zap.Logger) error {
				data, err := readSource(cmd.Context(), cmd, name)
				if err != nil {
					return err
				}

				result, err := cmark.RenderString(string(data), cmark.WithLogger(logger))
				if err != nil {
					return err
				}
				return writeString(cmd, withTrailingNewline(result))
			})
		},
	}
	return &cmd
}
