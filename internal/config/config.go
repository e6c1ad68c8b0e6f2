package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stateful/markedit/internal/log"
	"github.com/stateful/markedit/internal/renderer/highlight"
	"github.com/stateful/markedit/internal/renderer/preview"
	"github.com/stateful/markedit/pkg/document/editor"
)

const currentVersion = "v1"

// Config is the configuration of markedit sessions and tools.
type Config struct {
	Version string       `yaml:"version" validate:"required,eq=v1"`
	Editor  ConfigEditor `yaml:"editor"`
	Render  ConfigRender `yaml:"render"`
	Log     ConfigLog    `yaml:"log"`
}

type ConfigEditor struct {
	// CanonicalizeDelay is the quiescence window after a keystroke
	// before the document is synchronized.
	CanonicalizeDelay time.Duration `yaml:"canonicalize_delay" validate:"min=0s"`
	// AutosaveDelay is the quiescence window after a change before the
	// autosave notification fires.
	AutosaveDelay time.Duration `yaml:"autosave_delay" validate:"min=0s"`
	HistoryLimit  int           `yaml:"history_limit" validate:"min=1,max=10000"`
	// TabWidth is the number of spaces Tab inserts in code blocks.
	TabWidth int `yaml:"tab_width" validate:"min=1,max=16"`
}

type ConfigRender struct {
	Sanitize       bool   `yaml:"sanitize"`
	HighlightStyle string `yaml:"highlight_style" validate:"required"`
	HighlightCache int    `yaml:"highlight_cache" validate:"min=0,max=100000"`
}

type ConfigLog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseYAML parses a configuration on top of the defaults.
func ParseYAML(data []byte) (*Config, error) {
	return parseYAMLOnto(Default(), data)
}

// ParseYAMLChain parses configurations in order, each one overriding
// the fields set by the previous ones.
func ParseYAMLChain(chain ...[]byte) (*Config, error) {
	cfg := Default()
	for _, data := range chain {
		var err error
		if cfg, err = parseYAMLOnto(cfg, data); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func parseYAMLOnto(base *Config, data []byte) (*Config, error) {
	version, err := parseVersionFromYAML(data)
	if err != nil {
		return nil, err
	}
	if version != currentVersion {
		return nil, errors.Errorf("unknown version: %s", version)
	}

	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to validate %s config", version)
	}
	return &cfg, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// EditorOptions maps the editor section to editor session options.
func (c *Config) EditorOptions(logger *zap.Logger, presenter editor.Presenter) []editor.Option {
	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithCanonicalizeDelay(c.Editor.CanonicalizeDelay),
		editor.WithAutosaveDelay(c.Editor.AutosaveDelay),
		editor.WithHistoryLimit(c.Editor.HistoryLimit),
		editor.WithTabWidth(c.Editor.TabWidth),
	}
	if presenter != nil {
		opts = append(opts, editor.WithPresenter(presenter))
	}
	return opts
}

func (c *Config) HighlightOptions(logger *zap.Logger) []highlight.Option {
	return []highlight.Option{
		highlight.WithLogger(logger),
		highlight.WithStyle(c.Render.HighlightStyle),
		highlight.WithCacheSize(c.Render.HighlightCache),
	}
}

func (c *Config) PreviewOptions(logger *zap.Logger, h *highlight.Highlighter) []preview.Option {
	return []preview.Option{
		preview.WithLogger(logger),
		preview.WithHighlighter(h),
		preview.WithSanitize(c.Render.Sanitize),
	}
}

// LogOptions maps the log section to logger options.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Enabled: c.Log.Enabled,
		Verbose: c.Log.Verbose,
		Path:    c.Log.Path,
	}
}
