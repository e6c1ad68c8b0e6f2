package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/stateful/markedit/internal/renderer/highlight"
	"github.com/stateful/markedit/pkg/document/editor"
)

func renderCmd() *cobra.Command {
	var standalone bool

	cmd := cobra.Command{
		Use:   "render [file]",
		Short: "Render a markdown file into presentation HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newBuilder(name).Invoke(func(opts []editor.Option, h *highlight.Highlighter) (err error) {
				data, err := readSource(cmd.Context(), cmd, name)
				if err != nil {
					return err
				}

				e := editor.New(opts...)
				defer func() { err = multierr.Append(err, e.Close()) }()

				if err := e.Load(string(data)); err != nil {
					return errors.Wrap(err, "failed to load source")
				}

				body := e.RenderedOutput()
				if !standalone {
					return writeString(cmd, body)
				}

				page, err := standalonePage(body, h)
				if err != nil {
					return err
				}
				return writeString(cmd, page)
			})
		},
	}

	cmd.Flags().BoolVar(&standalone, "standalone", false, "Wrap the output in an HTML page including the highlighting stylesheet.")

	return &cmd
}

func standalonePage(body string, h *highlight.Highlighter) (string, error) {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	if err := h.WriteCSS(&sb); err != nil {
		return "", err
	}
	sb.WriteString("</style>\n</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")

	return sb.String(), nil
}
