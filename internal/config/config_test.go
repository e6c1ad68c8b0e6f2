package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/log"
	"github.com/stateful/markedit/internal/renderer/highlight"
	"github.com/stateful/markedit/internal/renderer/preview"
	"github.com/stateful/markedit/pkg/document/editor"
)

func TestDefault(t *testing.T) {
	expected := &Config{
		Version: "v1",
		Editor: ConfigEditor{
			CanonicalizeDelay: 30 * time.Millisecond,
			AutosaveDelay:     2 * time.Second,
			HistoryLimit:      150,
			TabWidth:          2,
		},
		Render: ConfigRender{
			Sanitize:       true,
			HighlightStyle: "github",
			HighlightCache: 128,
		},
	}

	got := Default()
	require.True(t, cmp.Equal(expected, got), "%s", cmp.Diff(expected, got))

	// Default returns a copy.
	got.Editor.TabWidth = 8
	assert.Equal(t, 2, Default().Editor.TabWidth)
}

func TestParseYAML(t *testing.T) {
	testCases := []struct {
		name           string
		rawConfig      string
		modify         func(*Config)
		errorSubstring string
	}{
		{
			name:      "only version",
			rawConfig: "version: v1\n",
			modify:    func(*Config) {},
		},
		{
			name: "editor overrides",
			rawConfig: `version: v1
editor:
  canonicalize_delay: 50ms
  history_limit: 10
`,
			modify: func(c *Config) {
				c.Editor.CanonicalizeDelay = 50 * time.Millisecond
				c.Editor.HistoryLimit = 10
			},
		},
		{
			name: "render and log",
			rawConfig: `version: v1
render:
  sanitize: false
  highlight_style: monokai
log:
  enabled: true
  path: /tmp/markedit.log
`,
			modify: func(c *Config) {
				c.Render.Sanitize = false
				c.Render.HighlightStyle = "monokai"
				c.Log.Enabled = true
				c.Log.Path = "/tmp/markedit.log"
			},
		},
		{
			name:           "unknown version",
			rawConfig:      "version: v0\n",
			errorSubstring: "unknown version: v0",
		},
		{
			name: "history limit out of range",
			rawConfig: `version: v1
editor:
  history_limit: 0
`,
			errorSubstring: "failed to validate v1 config",
		},
		{
			name: "negative delay",
			rawConfig: `version: v1
editor:
  autosave_delay: -1s
`,
			errorSubstring: "AutosaveDelay",
		},
		{
			name:           "invalid yaml",
			rawConfig:      "version: [",
			errorSubstring: "failed to unmarshal version",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseYAML([]byte(tc.rawConfig))

			if tc.errorSubstring != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorSubstring)
				return
			}

			require.NoError(t, err)
			expected := Default()
			tc.modify(expected)
			require.True(t, cmp.Equal(expected, cfg), "%s", cmp.Diff(expected, cfg))
		})
	}
}

func TestParseYAMLChain(t *testing.T) {
	cfg, err := ParseYAMLChain(
		[]byte("version: v1\neditor:\n  tab_width: 4\n  history_limit: 20\n"),
		[]byte("version: v1\neditor:\n  tab_width: 8\n"),
	)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Editor.TabWidth)
	assert.Equal(t, 20, cfg.Editor.HistoryLimit)
}

func TestConfig_EditorOptions(t *testing.T) {
	cfg := Default()
	cfg.Editor.TabWidth = 3

	e := editor.New(cfg.EditorOptions(zap.NewNop(), nil)...)
	defer func() { _ = e.Close() }()

	require.NoError(t, e.Load("```\nab\n```"))
	sel, err := e.CodeTab(e.Blocks()[0].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, sel.Offset)
}

func TestConfig_RenderOptions(t *testing.T) {
	cfg := Default()
	cfg.Render.Sanitize = false

	h := highlight.New(cfg.HighlightOptions(zap.NewNop())...)
	r := preview.New(cfg.PreviewOptions(zap.NewNop(), h)...)
	assert.Equal(t, "<p>x</p>\n", r.Render("x"))
}

func TestConfig_LogOptions(t *testing.T) {
	cfg := Default()
	cfg.Log.Verbose = true
	cfg.Log.Path = "/tmp/x.log"
	assert.Equal(t, log.Options{Verbose: true, Path: "/tmp/x.log"}, cfg.LogOptions())
}
