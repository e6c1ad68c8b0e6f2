package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/markedit/internal/config/autoconfig"
)

const stdinName = "-"

var httpClient = &http.Client{
	Timeout: time.Second * 10,
}

// readSource reads a document from stdin ("-"), an https URL or a file.
// Binary content is rejected.
func readSource(ctx context.Context, cmd *cobra.Command, name string) ([]byte, error) {
	data, err := readRaw(ctx, cmd, name)
	if err != nil {
		return nil, err
	}
	if err := ensureText(data); err != nil {
		return nil, err
	}
	return data, nil
}

func ensureText(data []byte) error {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return errors.Errorf("unsupported content type %s", detected.String())
}

func readRaw(ctx context.Context, cmd *cobra.Command, name string) ([]byte, error) {
	switch {
	case name == stdinName:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read from stdin")
		}
		return data, nil
	case strings.HasPrefix(name, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create a request for %q", name)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", name)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("failed to get a file %q: %s", name, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read body")
		}
		return data, nil
	default:
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read from file %q", name)
		}
		return data, nil
	}
}

func isLocalFile(name string) bool {
	return name != stdinName && !strings.HasPrefix(name, "https://")
}

// newBuilder returns a builder whose configuration applies to the
// document. Nested markedit.yaml files are only considered for local
// files below the working directory.
func newBuilder(name string) *autoconfig.Builder {
	flags := autoconfig.Flags{
		ConfigPath: fConfigPath,
		Verbose:    fVerbose,
	}
	if isLocalFile(name) {
		flags.Document = relativeToCwd(name)
	}
	return autoconfig.NewBuilder(flags)
}

func relativeToCwd(name string) string {
	if !filepath.IsAbs(name) {
		return name
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(cwd, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return rel
}

func writeString(cmd *cobra.Command, s string) error {
	_, err := io.WriteString(cmd.OutOrStdout(), s)
	return errors.Wrap(err, "failed to write result")
}
