package cmd

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/markedit/pkg/document/editor"
)

func fmtCmd() *cobra.Command {
	var write bool

	cmd := cobra.Command{
		Use:   "fmt [file ...]",
		Short: "Format markdown files into canonical format",
		Long: `Format markdown files into canonical format.

Use "-" to read from stdin. Arguments starting with https:// are downloaded.
Rich markup (HTML) input is converted to markdown first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]string, len(args))
			errs := make([]error, len(args))

			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))

			for i, name := range args {
				i, name := i, name
				g.Go(func() error {
					err := newBuilder(name).Invoke(func(opts []editor.Option, logger *zap.Logger) error {
						data, err := readSource(cmd.Context(), cmd, name)
						if err != nil {
							return err
						}

						formatted, err := canonicalize(string(data), opts)
						if err != nil {
							return err
						}

						if write && isLocalFile(name) {
							logger.Debug("writing formatted file", zap.String("path", name))
							return errors.Wrapf(
								os.WriteFile(name, []byte(formatted), 0o600),
								"failed to write file %q", name,
							)
						}
						results[i] = formatted
						return nil
					})
					if err != nil {
						errs[i] = errors.WithMessage(err, name)
					}
					return nil
				})
			}
			_ = g.Wait()

			for _, result := range results {
				if result == "" {
					continue
				}
				if err := writeString(cmd, result); err != nil {
					return err
				}
			}

			return multierr.Combine(errs...)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the source file instead of stdout.")

	return &cmd
}

// canonicalize loads source into a session and returns its canonical
// text terminated with a line break.
func canonicalize(source string, opts []editor.Option) (_ string, err error) {
	e := editor.New(opts...)
	defer func() { err = multierr.Append(err, e.Close()) }()

	if err := e.Load(source); err != nil {
		return "", errors.Wrap(err, "failed to load source")
	}
	return withTrailingNewline(e.CanonicalText()), nil
}

func withTrailingNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
