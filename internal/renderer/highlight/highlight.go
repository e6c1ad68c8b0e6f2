// Package highlight turns code into class-annotated HTML fragments.
// It never fails: unknown languages and lexer failures degrade to
// escaped plain text.
package highlight

import (
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/lru"
)

const (
	DefaultStyle     = "github"
	DefaultCacheSize = 128
)

type cacheKey struct {
	language string
	code     string
}

type Highlighter struct {
	logger    *zap.Logger
	style     *chroma.Style
	formatter *chromahtml.Formatter
	cache     *lru.Cache[cacheKey, string]
}

type Option func(*options)

type options struct {
	logger    *zap.Logger
	style     string
	cacheSize int
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStyle selects the chroma style used by WriteCSS. Unknown names
// fall back to the chroma default.
func WithStyle(name string) Option {
	return func(o *options) {
		o.style = name
	}
}

// WithCacheSize bounds the number of cached fragments. Zero disables
// caching.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

func New(opts ...Option) *Highlighter {
	o := options{
		style:     DefaultStyle,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Highlighter{
		logger: o.logger,
		style:  styles.Get(o.style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		cache: lru.NewCache[cacheKey, string](o.cacheSize),
	}
}

// Highlight returns code as an HTML fragment annotated with chroma
// classes. The fragment is not wrapped in a pre element.
func (h *Highlighter) Highlight(language, code string) string {
	key := cacheKey{
		language: strings.ToLower(strings.TrimSpace(language)),
		code:     code,
	}
	result, _ := h.cache.GetOrAdd(key, func() (string, error) {
		return h.highlight(key.language, code), nil
	})
	return result
}

// Known reports whether language names a lexer.
func (h *Highlighter) Known(language string) bool {
	language = strings.TrimSpace(language)
	return language != "" && lexers.Get(language) != nil
}

func (h *Highlighter) highlight(language, code string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("highlighter panicked; falling back to plain text", zap.String("language", language), zap.Any("panic", r))
			result = html.EscapeString(code)
		}
	}()

	if language == "" {
		return html.EscapeString(code)
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		h.logger.Debug("no lexer for language", zap.String("language", language))
		return html.EscapeString(code)
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		h.logger.Warn("failed to tokenise code", zap.String("language", language), zap.Error(err))
		return html.EscapeString(code)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		h.logger.Warn("failed to format code", zap.String("language", language), zap.Error(err))
		return html.EscapeString(code)
	}
	return sb.String()
}

// WriteCSS writes the stylesheet for the classes emitted by Highlight.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return errors.WithStack(h.formatter.WriteCSS(w, h.style))
}
