// Package crud drives the list, search, edit and delete cycle of one REST
// resource. A Controller holds the last fetched list, the search query and
// at most one open form; the network work is delegated to Operations.
package crud

import (
	"context"
	"fmt"
	"sync"

	"github.com/sistemabuses/busadmin/pkg/logger"
)

// Operations is the network collaborator of a Controller.
type Operations[R any, ID comparable] interface {
	FetchAll(ctx context.Context) ([]R, error)
	Create(ctx context.Context, data R) (R, error)
	Update(ctx context.Context, id ID, data R) (R, error)
	Remove(ctx context.Context, id ID) error
}

// ModalMode tells whether an open form creates or edits a record.
type ModalMode int

const (
	ModeCreate ModalMode = iota + 1
	ModeEdit
)

func (m ModalMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "closed"
	}
}

// Modal is an open form session. ID is only meaningful in ModeEdit.
type Modal[R any, ID comparable] struct {
	Mode       ModalMode
	ID         ID
	Values     R
	Submitting bool
	// LastError is the message of the last failed submit of this session.
	LastError string
}

// Snapshot is a consistent copy of the controller state.
type Snapshot[R any, ID comparable] struct {
	Items    []R
	Filtered []R
	Query    string
	Loading  bool
	Loaded   bool
	Modal    *Modal[R, ID]
}

// DoubleOpenPolicy decides what opening a form over an open one does.
type DoubleOpenPolicy int

const (
	// RejectDoubleOpen fails the second open with ErrAlreadyOpen.
	RejectDoubleOpen DoubleOpenPolicy = iota
	// ReplaceDoubleOpen discards the pending form.
	ReplaceDoubleOpen
)

// ParseDoubleOpenPolicy accepts "reject" and "replace".
func ParseDoubleOpenPolicy(s string) (DoubleOpenPolicy, error) {
	switch s {
	case "", "reject":
		return RejectDoubleOpen, nil
	case "replace":
		return ReplaceDoubleOpen, nil
	default:
		return RejectDoubleOpen, fmt.Errorf("unknown double-open policy %q", s)
	}
}

type settings struct {
	name       string
	doubleOpen DoubleOpenPolicy
	log        logger.Logger
}

// Option configures a Controller.
type Option func(*settings)

// WithName labels log entries and generic error messages.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithDoubleOpen sets what opening a form does while another one is open.
// The default is RejectDoubleOpen.
func WithDoubleOpen(p DoubleOpenPolicy) Option {
	return func(s *settings) { s.doubleOpen = p }
}

// WithLogger sets the logger for load and save diagnostics. Defaults to
// logger.GetDefault().
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// Controller is safe for concurrent use. Network calls run without holding
// the lock, so a load may be in flight while a form is open.
type Controller[R any, ID comparable] struct {
	ops   Operations[R, ID]
	idOf  func(R) ID
	match Matcher[R]
	cfg   settings

	mu         sync.Mutex
	items      []R
	loaded     bool
	query      string
	pending    int
	issuedSeq  uint64
	appliedSeq uint64
	modal      *Modal[R, ID]
	modalSeq   uint64
}

// New builds a controller. A nil matcher falls back to a substring match
// over the record's printed form.
func New[R any, ID comparable](
	ops Operations[R, ID],
	idOf func(R) ID,
	match Matcher[R],
	opts ...Option,
) *Controller[R, ID] {
	cfg := settings{name: "records", doubleOpen: RejectDoubleOpen}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.GetDefault()
	}
	if match == nil {
		match = defaultMatcher[R]
	}
	return &Controller[R, ID]{
		ops:   ops,
		idOf:  idOf,
		match: match,
		cfg:   cfg,
	}
}

func (c *Controller[R, ID]) Name() string {
	return c.cfg.name
}

// Load fetches the full list. On failure the previous list is kept. A
// completion older than the last applied one is discarded.
func (c *Controller[R, ID]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.issuedSeq++
	seq := c.issuedSeq
	c.pending++
	c.mu.Unlock()

	items, err := c.ops.FetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if err != nil {
		c.cfg.log.Warn("failed to load records", "resource", c.cfg.name, "seq", seq, "error", err)
		return newError(OpLoad, ErrLoadFailed, err, "Error al cargar "+c.cfg.name)
	}
	if seq < c.appliedSeq {
		c.cfg.log.Debug("discarding stale load", "resource", c.cfg.name, "seq", seq, "applied", c.appliedSeq)
		return nil
	}
	if items == nil {
		items = []R{}
	}
	c.items = items
	c.appliedSeq = seq
	c.loaded = true
	c.cfg.log.Debug("records loaded", "resource", c.cfg.name, "count", len(items), "seq", seq)
	return nil
}

// SetQuery replaces the search text.
func (c *Controller[R, ID]) SetQuery(text string) {
	c.mu.Lock()
	c.query = text
	c.mu.Unlock()
}

func (c *Controller[R, ID]) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Items returns a copy of the full list in backend order.
func (c *Controller[R, ID]) Items() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]R(nil), c.items...)
}

// Filtered returns the records matching the current query.
func (c *Controller[R, ID]) Filtered() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.items, c.query, c.match)
}

func (c *Controller[R, ID]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Find looks a record up in the full list.
func (c *Controller[R, ID]) Find(id ID) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(id)
}

func (c *Controller[R, ID]) findLocked(id ID) (R, bool) {
	for _, item := range c.items {
		if c.idOf(item) == id {
			return item, true
		}
	}
	var zero R
	return zero, false
}

// Modal returns a copy of the open form, if any.
func (c *Controller[R, ID]) Modal() (Modal[R, ID], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return Modal[R, ID]{}, false
	}
	return *c.modal, true
}

func (c *Controller[R, ID]) Snapshot() Snapshot[R, ID] {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot[R, ID]{
		Items:    append([]R(nil), c.items...),
		Filtered: Filter(c.items, c.query, c.match),
		Query:    c.query,
		Loading:  c.pending > 0,
		Loaded:   c.loaded,
	}
	if c.modal != nil {
		m := *c.modal
		snap.Modal = &m
	}
	return snap
}

// OpenCreate opens a create form pre-filled with defaults.
func (c *Controller[R, ID]) OpenCreate(defaults R) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(OpOpenCreate); err != nil {
		return err
	}
	c.openLocked(&Modal[R, ID]{Mode: ModeCreate, Values: defaults})
	return nil
}

// OpenEdit opens an edit form with the current values of record id. An
// open form is checked first: under the reject policy it stays open and
// ErrAlreadyOpen is returned, under replace it is discarded even when id
// turns out to be unknown.
func (c *Controller[R, ID]) OpenEdit(id ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(OpOpenEdit); err != nil {
		return err
	}
	record, ok := c.findLocked(id)
	if !ok {
		if c.modal != nil {
			c.modalSeq++
			c.modal = nil
		}
		return &Error{
			Op:      OpOpenEdit,
			Kind:    ErrNotFound,
			Message: fmt.Sprintf("El registro %v ya no existe", id),
		}
	}
	c.openLocked(&Modal[R, ID]{Mode: ModeEdit, ID: id, Values: record})
	return nil
}

func (c *Controller[R, ID]) checkOpenLocked(op Op) error {
	if c.modal == nil {
		return nil
	}
	if c.cfg.doubleOpen == ReplaceDoubleOpen && !c.modal.Submitting {
		c.cfg.log.Debug("replacing open form", "resource", c.cfg.name, "mode", c.modal.Mode)
		return nil
	}
	return &Error{Op: op, Kind: ErrAlreadyOpen, Message: "Ya hay un formulario abierto"}
}

func (c *Controller[R, ID]) openLocked(m *Modal[R, ID]) {
	c.modalSeq++
	c.modal = m
}

// CloseModal discards the open form. Closing with no form open is a no-op.
func (c *Controller[R, ID]) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != nil {
		c.modalSeq++
		c.modal = nil
	}
}

// Submit persists values through Create or Update depending on the open
// form. On success the form closes and the list is reloaded; a reload
// failure is returned as ErrLoadFailed together with the saved record. On
// failure the form stays open holding values.
func (c *Controller[R, ID]) Submit(ctx context.Context, values R) (R, error) {
	var zero R
	c.mu.Lock()
	if c.modal == nil {
		c.mu.Unlock()
		return zero, &Error{Op: OpSubmit, Kind: ErrNoModal, Message: "No hay un formulario abierto"}
	}
	if c.modal.Submitting {
		c.mu.Unlock()
		return zero, &Error{Op: OpSubmit, Kind: ErrBusy, Message: "Guardando, espere un momento"}
	}
	session := c.modalSeq
	mode, id := c.modal.Mode, c.modal.ID
	c.modal.Values = values
	c.modal.Submitting = true
	c.mu.Unlock()

	var (
		saved R
		err   error
	)
	if mode == ModeCreate {
		saved, err = c.ops.Create(ctx, values)
	} else {
		saved, err = c.ops.Update(ctx, id, values)
	}

	c.mu.Lock()
	sameSession := c.modal != nil && c.modalSeq == session
	if err != nil {
		failure := newError(OpSubmit, ErrSubmitFailed, err, "Error al guardar")
		if sameSession {
			c.modal.Submitting = false
			c.modal.LastError = failure.Message
		}
		c.mu.Unlock()
		c.cfg.log.Warn("failed to save record", "resource", c.cfg.name, "mode", mode, "error", err)
		return zero, failure
	}
	if sameSession {
		c.modalSeq++
		c.modal = nil
	}
	c.mu.Unlock()
	c.cfg.log.Debug("record saved", "resource", c.cfg.name, "mode", mode)

	if err := c.Load(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// DeleteRecord removes id and reloads. Confirmation is the caller's job.
// On failure nothing is reloaded and the list is left as is.
func (c *Controller[R, ID]) DeleteRecord(ctx context.Context, id ID) error {
	if err := c.ops.Remove(ctx, id); err != nil {
		c.cfg.log.Warn("failed to delete record", "resource", c.cfg.name, "id", id, "error", err)
		return newError(OpDelete, ErrDeleteFailed, err, "Error al eliminar")
	}
	c.cfg.log.Debug("record deleted", "resource", c.cfg.name, "id", id)
	return c.Load(ctx)
}
