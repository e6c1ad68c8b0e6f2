// Package preview renders canonical markup to presentation HTML for
// read-only display and export.
package preview

import (
	"bytes"
	stdhtml "html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/renderer/highlight"
)

type Renderer struct {
	logger   *zap.Logger
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	sanitize bool
}

type Option func(*options)

type options struct {
	logger      *zap.Logger
	highlighter *highlight.Highlighter
	sanitize    bool
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithHighlighter(h *highlight.Highlighter) Option {
	return func(o *options) {
		o.highlighter = h
	}
}

// WithSanitize toggles the HTML sanitizer. It is on by default.
func WithSanitize(enabled bool) Option {
	return func(o *options) {
		o.sanitize = enabled
	}
}

func New(opts ...Option) *Renderer {
	o := options{sanitize: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.highlighter == nil {
		o.highlighter = highlight.New(highlight.WithLogger(o.logger))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeRenderer{highlighter: o.highlighter}, 100),
			),
		),
	)

	return &Renderer{
		logger:   o.logger,
		md:       md,
		policy:   newPolicy(),
		sanitize: o.sanitize,
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "pre", "code", "div")
	p.AllowAttrs("class").OnElements("span", "pre", "code", "div")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	return p
}

// Render converts canonical markup to HTML. Conversion failures, panics
// included, degrade to the escaped source in a pre element.
func (r *Renderer) Render(source string) (result string) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Warn("preview renderer panicked; falling back to plain text", zap.Any("panic", v))
			result = fallback(source)
		}
	}()

	out, err := r.convert(source)
	if err != nil {
		r.logger.Warn("failed to render preview; falling back to plain text", zap.Error(err))
		return fallback(source)
	}
	return out
}

func (r *Renderer) convert(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", errors.Wrap(err, "failed to convert markup")
	}
	if !r.sanitize {
		return buf.String(), nil
	}
	return r.policy.Sanitize(buf.String()), nil
}

func fallback(source string) string {
	return "<pre>" + stdhtml.EscapeString(source) + "</pre>"
}

// codeRenderer presents fenced code through the highlighter.
type codeRenderer struct {
	highlighter *highlight.Highlighter
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.FencedCodeBlock)
	language := string(n.Language(source))

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = code.Write(line.Value(source))
	}

	_, _ = w.WriteString(`<pre class="chroma"><code`)
	if language != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(language)))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	_, _ = w.WriteString(r.highlighter.Highlight(language, code.String()))
	_, _ = w.WriteString("</code></pre>\n")

	return ast.WalkSkipChildren, nil
}
