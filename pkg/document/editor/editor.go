// Package editor implements an editing session over a document: it owns
// the document, its undo history and the debounced canonicalization and
// autosave tasks, and notifies observers whenever the canonical text
// changes.
package editor

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/markedit/internal/debounce"
	"github.com/stateful/markedit/internal/renderer/cmark"
	"github.com/stateful/markedit/internal/renderer/preview"
	"github.com/stateful/markedit/pkg/document"
	"github.com/stateful/markedit/pkg/document/history"
	"github.com/stateful/markedit/pkg/document/inline"
)

const (
	DefaultCanonicalizeDelay = 30 * time.Millisecond
	DefaultAutosaveDelay     = 2 * time.Second
	DefaultTabWidth          = 2
)

const (
	canonicalizeKey debounce.Key = "canonicalize"
	autosaveKey     debounce.Key = "autosave"
)

var (
	ErrClosed       = errors.New("editor is closed")
	ErrNoFocus      = errors.New("no line is being edited")
	ErrUnknownBlock = errors.New("unknown block")
)

// Notification receives the presentation HTML and the canonical text.
type Notification func(html, canonical string)

type notification struct {
	fn        Notification
	canonical string
}

// Presenter renders canonical text to presentation HTML.
type Presenter interface {
	Render(source string) string
}

// Editor is a single editing session. All methods are safe for
// concurrent use; debounced tasks run on timer goroutines. Callbacks
// are invoked without the editor's lock held, one at a time and in the
// order the changes were committed.
type Editor struct {
	mu sync.Mutex

	// notifyMu guards the notification queue. It is acquired after mu.
	notifyMu   sync.Mutex
	pending    []notification
	delivering bool

	logger    *zap.Logger
	doc       *document.Document
	history   *history.History
	scheduler *debounce.Scheduler
	presenter Presenter
	clipboard Clipboard

	onChange   Notification
	onSave     Notification
	onAutosave Notification

	canonicalizeDelay time.Duration
	autosaveDelay     time.Duration
	tabWidth          int

	// canonical is the last synchronized canonical text.
	canonical string
	closed    bool
}

type Option func(*config)

type config struct {
	logger            *zap.Logger
	clock             debounce.Clock
	presenter         Presenter
	clipboard         Clipboard
	onChange          Notification
	onSave            Notification
	onAutosave        Notification
	canonicalizeDelay time.Duration
	autosaveDelay     time.Duration
	historyLimit      int
	tabWidth          int
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock replaces the clock driving the debounced tasks.
func WithClock(clock debounce.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

func WithPresenter(p Presenter) Option {
	return func(c *config) {
		c.presenter = p
	}
}

func WithClipboard(cb Clipboard) Option {
	return func(c *config) {
		c.clipboard = cb
	}
}

func WithOnChange(fn Notification) Option {
	return func(c *config) {
		c.onChange = fn
	}
}

func WithOnSave(fn Notification) Option {
	return func(c *config) {
		c.onSave = fn
	}
}

func WithOnAutosave(fn Notification) Option {
	return func(c *config) {
		c.onAutosave = fn
	}
}

func WithCanonicalizeDelay(d time.Duration) Option {
	return func(c *config) {
		c.canonicalizeDelay = d
	}
}

func WithAutosaveDelay(d time.Duration) Option {
	return func(c *config) {
		c.autosaveDelay = d
	}
}

func WithHistoryLimit(limit int) Option {
	return func(c *config) {
		c.historyLimit = limit
	}
}

// WithTabWidth sets the number of spaces inserted by Tab in code.
func WithTabWidth(width int) Option {
	return func(c *config) {
		c.tabWidth = width
	}
}

// New returns an editor holding an empty document.
func New(opts ...Option) *Editor {
	c := config{
		canonicalizeDelay: DefaultCanonicalizeDelay,
		autosaveDelay:     DefaultAutosaveDelay,
		historyLimit:      history.DefaultLimit,
		tabWidth:          DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.clock == nil {
		c.clock = debounce.RealClock
	}
	if c.presenter == nil {
		c.presenter = preview.New(preview.WithLogger(c.logger))
	}
	if c.clipboard == nil {
		c.clipboard = SystemClipboard{}
	}

	e := &Editor{
		logger:            c.logger,
		history:           history.New(c.historyLimit),
		scheduler:         debounce.New(debounce.WithClock(c.clock), debounce.WithLogger(c.logger)),
		presenter:         c.presenter,
		clipboard:         c.clipboard,
		onChange:          c.onChange,
		onSave:            c.onSave,
		onAutosave:        c.onAutosave,
		canonicalizeDelay: c.canonicalizeDelay,
		autosaveDelay:     c.autosaveDelay,
		tabWidth:          c.tabWidth,
	}
	e.doc = e.parse("")
	return e
}

func (e *Editor) parse(source string) *document.Document {
	return document.Parse(source, document.WithLineRenderer(inline.RenderLine))
}

// Load replaces the document with content, which may be structured
// markup or rich markup. Rich markup is converted first. History is
// cleared.
func (e *Editor) Load(content string) error {
	content = document.NormalizeLineBreaks(content)

	if cmark.IsRichMarkup(content) {
		converted, err := cmark.RenderString(content, cmark.WithLogger(e.logger))
		if err != nil {
			e.logger.Warn("failed to convert rich markup; loading as is", zap.Error(err))
		} else {
			e.logger.Debug("converted rich markup on load")
			content = converted
		}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	canonical, changed := e.resetLocked(content)
	e.logger.Info("loaded document", zap.Int("blocks", e.doc.Len()))
	if changed {
		e.enqueueLocked(e.onChange, canonical)
	}
	e.mu.Unlock()

	e.deliver()
	return nil
}

// Clear resets the document to a single empty line and clears history.
func (e *Editor) Clear() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	canonical, changed := e.resetLocked("")
	if changed {
		e.enqueueLocked(e.onChange, canonical)
	}
	e.mu.Unlock()

	e.deliver()
	return nil
}

// CanonicalText returns the canonical text including any edit in
// progress.
func (e *Editor) CanonicalText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return document.Canonicalize(e.doc)
}

// RenderedOutput returns the presentation HTML of the canonical text.
func (e *Editor) RenderedOutput() string {
	return e.presenter.Render(e.CanonicalText())
}

// Save synchronizes pending edits and notifies the save observer.
func (e *Editor) Save() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.scheduler.Cancel(canonicalizeKey)
	canonical, changed := e.syncLocked()
	if changed {
		e.enqueueLocked(e.onChange, canonical)
	}
	e.logger.Info("saving document", zap.Int("length", len(canonical)))
	e.enqueueLocked(e.onSave, canonical)
	e.mu.Unlock()

	e.deliver()
	return nil
}

// Close cancels pending tasks and releases the session. Later calls
// return ErrClosed.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.closed = true
	e.scheduler.Close()
	e.logger.Debug("editor closed")
	return nil
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// Undo restores the previous snapshot. Pending edits are synchronized
// first so they can be redone.
func (e *Editor) Undo() error {
	return e.restore(e.history.Undo)
}

func (e *Editor) Redo() error {
	return e.restore(e.history.Redo)
}

func (e *Editor) restore(pop func(current string) (string, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	e.scheduler.Cancel(canonicalizeKey)
	e.syncLocked()

	snapshot, err := pop(e.canonical)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.doc = e.parse(snapshot)
	e.canonical = document.Canonicalize(e.doc)
	e.scheduler.Schedule(autosaveKey, e.autosaveDelay, e.autosave)
	canonical := e.canonical
	e.logger.Debug("restored snapshot", zap.Int("undo", len(e.history.UndoSnapshots())), zap.Int("redo", len(e.history.RedoSnapshots())))
	e.enqueueLocked(e.onChange, canonical)
	e.mu.Unlock()

	e.deliver()
	return nil
}

// update runs fn under the lock and synchronizes the document right
// after it. fn must not mutate anything when it returns an error.
func (e *Editor) update(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.scheduler.Cancel(canonicalizeKey)
	if canonical, changed := e.syncLocked(); changed {
		e.enqueueLocked(e.onChange, canonical)
	}
	e.mu.Unlock()

	e.deliver()
	return nil
}

// touch runs fn under the lock and defers synchronization to the
// canonicalization task.
func (e *Editor) touch(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := fn(); err != nil {
		return err
	}
	e.scheduler.Schedule(canonicalizeKey, e.canonicalizeDelay, e.canonicalize)
	return nil
}

func (e *Editor) canonicalize() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if canonical, changed := e.syncLocked(); changed {
		e.enqueueLocked(e.onChange, canonical)
	}
	e.mu.Unlock()

	e.deliver()
}

func (e *Editor) autosave() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.logger.Info("autosaving document", zap.Int("length", len(e.canonical)))
	e.enqueueLocked(e.onAutosave, e.canonical)
	e.mu.Unlock()

	e.deliver()
}

// syncLocked canonicalizes the document and, when the result differs
// from the last synchronized text, records the previous text in history
// and schedules an autosave.
func (e *Editor) syncLocked() (string, bool) {
	canonical := document.Canonicalize(e.doc)
	if canonical == e.canonical {
		return canonical, false
	}

	e.history.Push(e.canonical)
	e.canonical = canonical
	e.scheduler.Schedule(autosaveKey, e.autosaveDelay, e.autosave)
	e.logger.Debug("document changed", zap.Int("blocks", e.doc.Len()), zap.Bool("canUndo", e.history.CanUndo()))
	return canonical, true
}

func (e *Editor) resetLocked(source string) (string, bool) {
	e.scheduler.Cancel(canonicalizeKey)
	e.doc = e.parse(source)
	e.history.Clear()

	canonical := document.Canonicalize(e.doc)
	changed := canonical != e.canonical
	e.canonical = canonical
	if changed {
		e.scheduler.Schedule(autosaveKey, e.autosaveDelay, e.autosave)
	}
	return canonical, changed
}

// enqueueLocked queues a notification. Queueing under mu keeps the
// queue in commit order.
func (e *Editor) enqueueLocked(fn Notification, canonical string) {
	if fn == nil {
		return
	}
	e.notifyMu.Lock()
	e.pending = append(e.pending, notification{fn: fn, canonical: canonical})
	e.notifyMu.Unlock()
}

// deliver runs queued notifications unless another goroutine is already
// draining the queue, in which case that goroutine delivers them. A
// callback mutating the editor therefore never deadlocks.
func (e *Editor) deliver() {
	e.notifyMu.Lock()
	if e.delivering {
		e.notifyMu.Unlock()
		return
	}
	e.delivering = true
	e.notifyMu.Unlock()

	drained := false
	defer func() {
		// A panicking callback must not leave the queue blocked.
		if !drained {
			e.notifyMu.Lock()
			e.delivering = false
			e.notifyMu.Unlock()
		}
	}()

	for {
		e.notifyMu.Lock()
		if len(e.pending) == 0 {
			e.delivering = false
			drained = true
			e.notifyMu.Unlock()
			return
		}
		n := e.pending[0]
		e.pending = e.pending[1:]
		e.notifyMu.Unlock()

		n.fn(e.presenter.Render(n.canonical), n.canonical)
	}
}
