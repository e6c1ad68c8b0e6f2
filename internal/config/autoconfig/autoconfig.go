// autoconfig provides a way to create various instances from the [config.Config] like
// [preview.Renderer], [highlight.Highlighter], [zap.Logger] or editor options.
//
// For example, to instantiate [preview.Renderer], you can write:
//
//	autoconfig.NewBuilder(flags).Invoke(func(r *preview.Renderer) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/config"
	"github.com/stateful/markedit/internal/log"
	"github.com/stateful/markedit/internal/renderer/highlight"
	"github.com/stateful/markedit/internal/renderer/preview"
	"github.com/stateful/markedit/pkg/document/editor"
)

const (
	configName = "markedit"
	configType = "yaml"
)

// Flags are command line overrides of the configuration.
type Flags struct {
	// ConfigPath points at an explicit configuration file. When empty,
	// the configuration is looked up from the working directory.
	ConfigPath string
	// Document is the path of the processed document, relative to the
	// working directory. Nested configuration files on its way apply.
	Document string
	Verbose  bool
}

type Builder struct {
	container *dig.Container
}

func NewBuilder(flags Flags) *Builder {
	c := dig.New()

	mustProvide(c.Provide(func() Flags { return flags }))
	mustProvide(c.Provide(getLoader))
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getHighlighter))
	mustProvide(c.Provide(getPresenter))
	mustProvide(c.Provide(getEditorOptions))

	return &Builder{container: c}
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

// Decorate replaces a provided value, for example the config loader in
// tests.
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return dig.RootCause(b.container.Decorate(decorator, opts...))
}

// Invoke is used to invoke the function with the given dependencies.
// The builder will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	return dig.RootCause(b.container.Invoke(function, opts...))
}

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(configName, configType, os.DirFS(cwd)), nil
}

func getConfig(flags Flags, loader *config.Loader) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if flags.ConfigPath != "" {
		data, readErr := os.ReadFile(flags.ConfigPath)
		if readErr != nil {
			return nil, errors.Wrapf(readErr, "failed to read config %s", flags.ConfigPath)
		}
		cfg, err = config.ParseYAML(data)
	} else {
		cfg, err = loader.Load(flags.Document)
	}
	if err != nil {
		return nil, err
	}

	if flags.Verbose {
		cfg.Log.Enabled = true
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

func getLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := log.New(cfg.LogOptions())
	if err != nil {
		return nil, err
	}
	log.Set(logger)
	return logger, nil
}

func getHighlighter(cfg *config.Config, logger *zap.Logger) *highlight.Highlighter {
	return highlight.New(cfg.HighlightOptions(logger)...)
}

func getPresenter(cfg *config.Config, logger *zap.Logger, h *highlight.Highlighter) *preview.Renderer {
	return preview.New(cfg.PreviewOptions(logger, h)...)
}

func getEditorOptions(cfg *config.Config, logger *zap.Logger, presenter *preview.Renderer) []editor.Option {
	return cfg.EditorOptions(logger, presenter)
}
