package editor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/command"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/history"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/placement"
	"github.com/roach88/mailblocks/internal/render"
	"github.com/roach88/mailblocks/internal/schema"
)

// ChangeKind says how the current document changed.
type ChangeKind string

const (
	ChangeCommit ChangeKind = "commit"
	ChangeUndo   ChangeKind = "undo"
	ChangeRedo   ChangeKind = "redo"
	ChangeLoad   ChangeKind = "load"
)

// Change is delivered to subscribers after the current document changes.
type Change struct {
	Kind     ChangeKind
	Op       string // command name for commits
	BlockID  string // block the command addressed or created
	Document *document.Document
	Cursor   int
}

// Engine owns one document and its undo history.
type Engine struct {
	mu       sync.RWMutex
	registry *schema.Registry
	commands *command.Commander
	previews *command.Commander
	history  *history.History
	logger   *slog.Logger

	ids          document.IDGenerator
	historyLimit int
	initial      *document.Document

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the block id allocator. Default: UUIDv7.
func WithIDGenerator(ids document.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithHistoryLimit caps the number of retained snapshots.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithInitial starts the engine from doc instead of an empty EmailLayout.
func WithInitial(doc *document.Document) Option {
	return func(e *Engine) {
		e.initial = doc
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. The initial document must satisfy every tree
// invariant under registry, and its registered blocks must carry valid
// payloads.
func New(registry *schema.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry,
		ids:      document.UUIDv7Generator{},
		logger:   slog.Default(),
		subs:     make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.initial == nil {
		e.initial = document.New(schema.RootType, nil, nil)
	}
	if err := document.Verify(e.initial, registry); err != nil {
		return nil, fmt.Errorf("initial document: %w", err)
	}

	e.commands = command.New(registry, e.ids)
	e.previews = command.New(registry, document.UUIDv7Generator{})
	e.history = history.New(e.initial, e.historyOptions()...)
	return e, nil
}

func (e *Engine) historyOptions() []history.Option {
	if e.historyLimit > 0 {
		return []history.Option{history.WithLimit(e.historyLimit)}
	}
	return nil
}

// Registry returns the engine's block-type registry.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Current returns the document at the history cursor.
func (e *Engine) Current() *document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Current()
}

func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// Cursor returns the history cursor and the number of retained snapshots.
func (e *Engine) Cursor() (cursor, size int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Cursor(), e.history.Len()
}

// Insert creates a block under parentID at index (command.AppendIndex to
// append) and returns its id.
func (e *Engine) Insert(parentID, typ string, style, props payload.Object, index int) (string, error) {
	return e.apply("insert", func(doc *document.Document) (*document.Document, string, error) {
		return e.commands.CreateAndInsert(doc, parentID, typ, style, props, index)
	})
}

// Remove deletes a block and its descendants.
func (e *Engine) Remove(id string) error {
	_, err := e.apply("remove", func(doc *document.Document) (*document.Document, string, error) {
		next, err := e.commands.Remove(doc, id)
		return next, id, err
	})
	return err
}

// Reorder moves a child within parentID.
func (e *Engine) Reorder(parentID string, from, to int) error {
	_, err := e.apply("reorder", func(doc *document.Document) (*document.Document, string, error) {
		next, err := e.commands.Reorder(doc, parentID, from, to)
		return next, parentID, err
	})
	return err
}

// UpdateProps replaces a block's props.
func (e *Engine) UpdateProps(id string, props payload.Object) error {
	_, err := e.apply("update_props", func(doc *document.Document) (*document.Document, string, error) {
		next, err := e.commands.UpdateProps(doc, id, props)
		return next, id, err
	})
	return err
}

// UpdateStyle replaces a block's style.
func (e *Engine) UpdateStyle(id string, style payload.Object) error {
	_, err := e.apply("update_style", func(doc *document.Document) (*document.Document, string, error) {
		next, err := e.commands.UpdateStyle(doc, id, style)
		return next, id, err
	})
	return err
}

// Move re-parents a block in one step.
func (e *Engine) Move(id, parentID string, index int) error {
	_, err := e.apply("move", func(doc *document.Document) (*document.Document, string, error) {
		next, err := e.commands.Move(doc, id, parentID, index)
		return next, id, err
	})
	return err
}

// Duplicate copies a block's subtree next to it and returns the copy's id.
func (e *Engine) Duplicate(id string) (string, error) {
	return e.apply("duplicate", func(doc *document.Document) (*document.Document, string, error) {
		return e.commands.Duplicate(doc, id)
	})
}

// Drop resolves a drop intent and commits the matching command. It returns
// the id of the created or moved block.
func (e *Engine) Drop(in placement.Intent) (string, error) {
	return e.apply("drop", func(doc *document.Document) (*document.Document, string, error) {
		return e.drop(e.commands, doc, in)
	})
}

// PreviewDrop returns the document a drop would produce without committing it.
// A created block gets a throwaway UUIDv7 id, not the id a committed Drop
// would allocate.
func (e *Engine) PreviewDrop(in placement.Intent) (*document.Document, string, error) {
	return e.drop(e.previews, e.Current(), in)
}

func (e *Engine) drop(c *command.Commander, doc *document.Document, in placement.Intent) (*document.Document, string, error) {
	at, err := placement.Resolve(doc, e.registry, in)
	if err != nil {
		return nil, "", err
	}
	if in.IsMove() {
		next, err := c.Move(doc, in.BlockID, at.Container, at.Index)
		return next, in.BlockID, err
	}
	return c.CreateAndInsert(doc, at.Container, in.NewType, nil, nil, at.Index)
}

// Preview runs fn against the current document without touching history.
// Use it for transient edits such as live property previews. The Commander
// passed to fn allocates throwaway UUIDv7 ids, so previews never advance the
// engine's id generator.
func (e *Engine) Preview(fn func(c *command.Commander, doc *document.Document) (*document.Document, error)) (*document.Document, error) {
	return fn(e.previews, e.Current())
}

// Undo steps back one snapshot.
func (e *Engine) Undo() (*document.Document, error) {
	return e.step(ChangeUndo, e.history.Undo)
}

// Redo steps forward one snapshot.
func (e *Engine) Redo() (*document.Document, error) {
	return e.step(ChangeRedo, e.history.Redo)
}

func (e *Engine) step(kind ChangeKind, move func() (*document.Document, error)) (*document.Document, error) {
	e.mu.Lock()
	doc, err := move()
	if err != nil {
		e.mu.Unlock()
		e.logger.Debug("history step rejected", "kind", string(kind), "code", string(blockerr.CodeOf(err)))
		return nil, err
	}
	change := Change{Kind: kind, Document: doc, Cursor: e.history.Cursor()}
	e.mu.Unlock()

	e.logger.Debug("history step", "kind", string(kind), "cursor", change.Cursor)
	e.notify(change)
	return doc, nil
}

// Load replaces the document and clears history. The document is checked
// against every tree invariant and every registered block's payload schema
// first; a failure leaves the engine as it was.
func (e *Engine) Load(doc *document.Document) error {
	if err := document.Verify(doc, e.registry); err != nil {
		e.logger.Error("load rejected", "error", err)
		return err
	}

	e.mu.Lock()
	e.history.Reset(doc)
	change := Change{Kind: ChangeLoad, Document: doc}
	e.mu.Unlock()

	e.logger.Info("document loaded", "blocks", doc.Len())
	e.notify(change)
	return nil
}

// Markup renders the current document.
func (e *Engine) Markup() (string, error) {
	return render.ToMarkup(e.Current(), document.RootID, e.registry)
}

// JSON serializes the current document in canonical form.
func (e *Engine) JSON() ([]byte, error) {
	return render.ToCanonicalJSON(e.Current(), document.RootID)
}

// Subscribe registers fn for Change notifications and returns a function
// that unregisters it.
func (e *Engine) Subscribe(fn func(Change)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			delete(e.subs, id)
		})
	}
}

// apply runs one command against the current document and commits the
// result. fn returns the id of the block it addressed or created.
func (e *Engine) apply(op string, fn func(*document.Document) (*document.Document, string, error)) (string, error) {
	e.mu.Lock()
	next, blockID, err := fn(e.history.Current())
	if err != nil {
		e.mu.Unlock()
		e.logger.Debug("command rejected",
			"op", op,
			"code", string(blockerr.CodeOf(err)),
			"error", err)
		return "", err
	}
	e.history.Commit(next)
	change := Change{Kind: ChangeCommit, Op: op, BlockID: blockID, Document: next, Cursor: e.history.Cursor()}
	e.mu.Unlock()

	e.logger.Debug("command applied",
		"op", op,
		"block", blockID,
		"cursor", change.Cursor,
		"blocks", next.Len())
	e.notify(change)
	return blockID, nil
}

// notify calls subscribers in registration order.
func (e *Engine) notify(change Change) {
	e.subMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Change), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
