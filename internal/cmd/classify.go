package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/stateful/markedit/pkg/document"
	"github.com/stateful/markedit/pkg/document/editor"
)

type classifiedBlock struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

func classifyCmd() *cobra.Command {
	var formatJSON bool

	cmd := cobra.Command{
		Use:   "classify [file]",
		Short: "Print the blocks of a markdown file with their kinds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newBuilder(name).Invoke(func(opts []editor.Option) (err error) {
				data, err := readSource(cmd.Context(), cmd, name)
				if err != nil {
					return err
				}

				e := editor.New(opts...)
				defer func() { err = multierr.Append(err, e.Close()) }()

				if err := e.Load(string(data)); err != nil {
					return errors.Wrap(err, "failed to load source")
				}

				blocks := classifyBlocks(e.Blocks())
				if formatJSON {
					return printClassifiedJSON(cmd, blocks)
				}
				return printClassifiedTable(cmd, blocks)
			})
		},
	}

	cmd.Flags().BoolVar(&formatJSON, "json", false, "Print the result as JSON.")

	return &cmd
}

func classifyBlocks(states []editor.BlockState) []classifiedBlock {
	result := make([]classifiedBlock, 0, len(states))
	for i, s := range states {
		block := classifiedBlock{
			Index: i + 1,
			Text:  s.Text,
		}
		if s.Kind == document.CodeBlockKind {
			block.Kind = "Code"
			block.Language = s.Language
		} else {
			block.Kind = s.LineKind.String()
		}
		result = append(result, block)
	}
	return result
}

func printClassifiedJSON(cmd *cobra.Command, blocks []classifiedBlock) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(blocks), "failed to encode blocks")
}

func printClassifiedTable(cmd *cobra.Command, blocks []classifiedBlock) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "#\tKIND\tTEXT")
	for _, b := range blocks {
		text := b.Text
		if b.Kind == "Code" {
			text = b.Language
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", b.Index, b.Kind, firstLine(text))
	}

	return errors.Wrap(w.Flush(), "failed to write table")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
