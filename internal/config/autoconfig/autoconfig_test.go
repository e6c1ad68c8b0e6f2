package autoconfig

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/markedit/internal/config"
	"github.com/stateful/markedit/internal/log"
	"github.com/stateful/markedit/internal/renderer/preview"
	"github.com/stateful/markedit/pkg/document/editor"
)

func TestInvoke_Config(t *testing.T) {
	builder := NewBuilder(Flags{Document: "docs/README.md"})
	configRootFS := fstest.MapFS{
		"markedit.yaml": {
			Data: []byte("version: v1\neditor:\n  tab_width: 4\n"),
		},
		"docs/markedit.yaml": {
			Data: []byte("version: v1\nrender:\n  sanitize: false\n"),
		},
		"docs/README.md": {Data: []byte("# Docs")},
	}
	err := builder.Decorate(
		func(*config.Loader) *config.Loader {
			return config.NewLoader(configName, configType, configRootFS)
		},
	)
	require.NoError(t, err)

	err = builder.Invoke(func(cfg *config.Config) error {
		assert.Equal(t, 4, cfg.Editor.TabWidth)
		assert.False(t, cfg.Render.Sanitize)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_ConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\neditor:\n  history_limit: 7\n"), 0o644))

	builder := NewBuilder(Flags{ConfigPath: path, Verbose: true})
	t.Cleanup(func() { log.Set(nil) })

	err := builder.Invoke(func(cfg *config.Config) error {
		assert.Equal(t, 7, cfg.Editor.HistoryLimit)
		assert.True(t, cfg.Log.Enabled)
		assert.True(t, cfg.Log.Verbose)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_MissingConfigPath(t *testing.T) {
	builder := NewBuilder(Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})

	err := builder.Invoke(func(*config.Config) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestInvoke_EditorOptions(t *testing.T) {
	builder := NewBuilder(Flags{})
	err := builder.Decorate(
		func(*config.Loader) *config.Loader {
			return config.NewLoader(configName, configType, fstest.MapFS{})
		},
	)
	require.NoError(t, err)

	err = builder.Invoke(func(opts []editor.Option, r *preview.Renderer) error {
		e := editor.New(opts...)
		defer func() { _ = e.Close() }()

		require.NoError(t, e.Load("**x**"))
		assert.Contains(t, e.RenderedOutput(), "<strong>x</strong>")
		assert.Equal(t, r.Render("**x**"), e.RenderedOutput())
		return nil
	})
	require.NoError(t, err)
}
