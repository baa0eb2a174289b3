package comparison

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/repository/memory"
	"github.com/mamadbah2/pricecheck/internal/service/export"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
)

const (
	defaultUndoWindow         = 6 * time.Second
	defaultMaxAttachmentBytes = 5 << 20
)

// State is the edit state of a session.
type State string

const (
	StateIdle    State = "idle"
	StateEditing State = "editing"
)

type action int

const (
	actionSubmit action = iota
	actionEdit
	actionDelete
	actionClearAll
	actionExport
	actionSort
	actionUndo
)

// Actions that touch the whole list, or could remove the entry being edited,
// wait until the edit is saved or cancelled.
var suspendedWhileEditing = map[action]bool{
	actionDelete:   true,
	actionClearAll: true,
	actionExport:   true,
}

// Options tunes a session. Zero values select the defaults.
type Options struct {
	UndoWindow         time.Duration
	MaxAttachmentBytes int64
	Clock              Clock
	Logger             *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.UndoWindow <= 0 {
		o.UndoWindow = defaultUndoWindow
	}
	if o.MaxAttachmentBytes <= 0 {
		o.MaxAttachmentBytes = defaultMaxAttachmentBytes
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Draft is the content of the entry form.
type Draft struct {
	Name   string `json:"name"`
	Volume string `json:"volume"`
	Price  string `json:"price"`
	Image  string `json:"image,omitempty"`
}

// View is the rendered state of a session.
type View struct {
	SessionID     string                `json:"session_id"`
	State         State                 `json:"state"`
	EditingID     int64                 `json:"editing_id,omitempty"`
	SortKey       ranking.SortKey       `json:"sort_key"`
	Entries       []ranking.RankedEntry `json:"entries"`
	ConfirmDelete *models.Entry         `json:"confirm_delete,omitempty"`
	UndoEntry     *models.Entry         `json:"undo_entry,omitempty"`
	HasAttachment bool                  `json:"has_attachment"`
}

type pendingDelete struct {
	entry models.Entry
	token uint64
	timer Timer
}

// Session is one user's comparison list together with its form state.
// Every exported method runs under the session lock, so events are applied
// one at a time.
type Session struct {
	mu         sync.Mutex
	id         string
	store      memory.EntryStore
	engine     *ranking.Engine
	clock      Clock
	undoWindow time.Duration
	logger     *zap.Logger

	state      State
	editingID  int64
	sortKey    ranking.SortKey
	confirmID  *int64
	pending    *pendingDelete
	undoTokens uint64
	attachment *AttachmentSlot
	lastActive time.Time
}

// NewSession wires a session around store.
func NewSession(id string, store memory.EntryStore, engine *ranking.Engine, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:         id,
		store:      store,
		engine:     engine,
		clock:      opts.Clock,
		undoWindow: opts.UndoWindow,
		logger:     opts.Logger.With(zap.String("session_id", id)),
		state:      StateIdle,
		sortKey:    ranking.DefaultSortKey,
		attachment: NewAttachmentSlot(opts.MaxAttachmentBytes),
		lastActive: opts.Clock.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current edit state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns the time of the last user event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) allow(a action) error {
	if s.state == StateEditing && suspendedWhileEditing[a] {
		return models.ErrEditInProgress
	}
	return nil
}

func (s *Session) touch() {
	s.lastActive = s.clock.Now()
}

// logFailure records rejected operations; a missing id is a caller defect.
func (s *Session) logFailure(op string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Error("operation referenced a missing entry", zap.String("op", op), zap.Error(err))
		return
	}
	s.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
}

// Submit adds a new entry when idle, or saves the entry being edited.
// When draft.Image is empty the attachment slot supplies the image.
// On success the form is reset; on failure nothing changes.
func (s *Session) Submit(draft Draft) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.submit(draft)
}

// Add stores draft as a new entry. It fails with ErrEditInProgress instead of
// saving over the entry being edited.
func (s *Session) Add(draft Draft) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateEditing {
		return models.Entry{}, models.ErrEditInProgress
	}
	return s.submit(draft)
}

// Save stores draft over the entry being edited, or fails with ErrNotEditing.
func (s *Session) Save(draft Draft) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateEditing {
		return models.Entry{}, models.ErrNotEditing
	}
	return s.submit(draft)
}

// submit runs under s.mu.
func (s *Session) submit(draft Draft) (models.Entry, error) {
	if err := s.allow(actionSubmit); err != nil {
		return models.Entry{}, err
	}

	image := draft.Image
	if image == "" {
		image = s.attachment.Current()
	}

	var (
		entry models.Entry
		err   error
	)
	if s.state == StateEditing {
		entry, err = s.store.Update(s.editingID, draft.Name, draft.Volume, draft.Price, image)
		if err != nil {
			s.logFailure("update", err)
			return models.Entry{}, err
		}
		s.state = StateIdle
		s.editingID = 0
		s.logger.Debug("entry updated", zap.Int64("entry_id", entry.ID))
	} else {
		entry, err = s.store.Add(draft.Name, draft.Volume, draft.Price, image)
		if err != nil {
			s.logFailure("add", err)
			return models.Entry{}, err
		}
		s.logger.Debug("entry added", zap.Int64("entry_id", entry.ID))
	}

	s.attachment.Clear()
	return entry, nil
}

// BeginEdit binds the form to the entry and returns its values.
// Calling it while already editing rebinds the form to the new entry.
func (s *Session) BeginEdit(id int64) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionEdit); err != nil {
		return Draft{}, err
	}

	entry, err := s.store.Get(id)
	if err != nil {
		s.logFailure("edit", err)
		return Draft{}, err
	}

	s.state = StateEditing
	s.editingID = id
	s.attachment.Set(entry.Image)

	return Draft{
		Name:   entry.Name,
		Volume: models.FormatQuantity(entry.Volume),
		Price:  models.FormatQuantity(entry.Price),
		Image:  entry.Image,
	}, nil
}

// CancelEdit discards the form without saving.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateEditing {
		return models.ErrNotEditing
	}
	s.state = StateIdle
	s.editingID = 0
	s.attachment.Clear()
	return nil
}

// RequestDelete asks for confirmation before removing id. It returns the entry
// so the surface can name it in the prompt. A new request replaces an older one.
func (s *Session) RequestDelete(id int64) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionDelete); err != nil {
		return models.Entry{}, err
	}

	entry, err := s.store.Get(id)
	if err != nil {
		s.logFailure("request delete", err)
		return models.Entry{}, err
	}
	s.confirmID = &id
	return entry, nil
}

// ConfirmDelete removes the entry awaiting confirmation and opens the undo
// window. Any earlier undo window is closed without restoring.
func (s *Session) ConfirmDelete() (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionDelete); err != nil {
		return models.Entry{}, err
	}
	if s.confirmID == nil {
		return models.Entry{}, models.ErrNoPendingDelete
	}

	id := *s.confirmID
	s.confirmID = nil

	entry, err := s.store.Remove(id)
	if err != nil {
		s.logFailure("confirm delete", err)
		return models.Entry{}, err
	}

	s.openUndoWindow(entry)
	s.logger.Debug("entry removed", zap.Int64("entry_id", entry.ID), zap.Duration("undo_window", s.undoWindow))
	return entry, nil
}

// CancelDelete drops the pending confirmation without touching the list.
func (s *Session) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.confirmID == nil {
		return models.ErrNoPendingDelete
	}
	s.confirmID = nil
	return nil
}

func (s *Session) openUndoWindow(entry models.Entry) {
	s.closeUndoWindow()

	s.undoTokens++
	token := s.undoTokens
	p := &pendingDelete{entry: entry, token: token}
	p.timer = s.clock.AfterFunc(s.undoWindow, func() { s.expireUndo(token) })
	s.pending = p
}

func (s *Session) closeUndoWindow() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
}

func (s *Session) expireUndo(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer deletion or an undo may have replaced the buffer already.
	if s.pending == nil || s.pending.token != token {
		return
	}
	s.logger.Debug("undo window elapsed", zap.Int64("entry_id", s.pending.entry.ID))
	s.pending = nil
}

// Undo puts the most recently removed entry back at the end of the list.
func (s *Session) Undo() (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionUndo); err != nil {
		return models.Entry{}, err
	}
	if s.pending == nil {
		return models.Entry{}, models.ErrNothingToUndo
	}

	entry := s.pending.entry
	s.closeUndoWindow()
	s.store.Restore(entry)
	s.logger.Debug("entry restored", zap.Int64("entry_id", entry.ID))
	return entry, nil
}

// ClearAll empties the list. Confirmation is the caller's responsibility.
// A running undo window is kept, so the last single deletion can still be undone.
func (s *Session) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionClearAll); err != nil {
		return err
	}
	s.store.Clear()
	s.confirmID = nil
	s.logger.Debug("list cleared")
	return nil
}

// SetSortKey changes the presentation order.
func (s *Session) SetSortKey(raw string) (ranking.SortKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.allow(actionSort); err != nil {
		return "", err
	}
	key, err := ranking.ParseSortKey(raw)
	if err != nil {
		return "", err
	}
	s.sortKey = key
	return key, nil
}

// Attach starts loading an image into the form. See AttachmentSlot.Load.
func (s *Session) Attach(r io.Reader) <-chan error {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return s.attachment.Load(r)
}

// Detach removes the image from the form.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.attachment.Clear()
}

// View renders the list in the selected order with rank tiers.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		SessionID:     s.id,
		State:         s.state,
		SortKey:       s.sortKey,
		Entries:       s.engine.Rank(s.store.List(), s.sortKey),
		HasAttachment: s.attachment.Current() != "",
	}
	if s.state == StateEditing {
		view.EditingID = s.editingID
	}
	if s.confirmID != nil {
		if entry, err := s.store.Get(*s.confirmID); err == nil {
			view.ConfirmDelete = &entry
		}
	}
	if s.pending != nil {
		entry := s.pending.entry
		view.UndoEntry = &entry
	}
	return view
}

// Export renders the sorted list and hands it to sink. A nil sink is the
// clipboard case: the caller only needs the returned text.
func (s *Session) Export(ctx context.Context, sink export.Sink) (models.ExportSnapshot, error) {
	s.mu.Lock()
	s.touch()
	if err := s.allow(actionExport); err != nil {
		s.mu.Unlock()
		return models.ExportSnapshot{}, err
	}
	snapshot := export.BuildSnapshot(s.id, s.sortKey, s.engine.Rank(s.store.List(), s.sortKey), s.clock.Now())
	s.mu.Unlock()

	if sink == nil {
		return snapshot, nil
	}
	if err := sink.Send(ctx, snapshot); err != nil {
		s.logger.Warn("export sink failed", zap.Error(err))
		return models.ExportSnapshot{}, fmt.Errorf("%w: %w", models.ErrExport, err)
	}
	return snapshot, nil
}

// Close cancels the undo timer and any attachment load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeUndoWindow()
	s.attachment.Clear()
}
