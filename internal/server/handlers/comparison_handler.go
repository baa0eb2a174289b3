package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/export"
)

const (
	clipboardSink         = "clipboard"
	defaultMaxUploadBytes = 5 << 20
)

// Sessions is the registry surface used by the HTTP layer.
type Sessions interface {
	Create() *comparison.Session
	Get(id string) (*comparison.Session, error)
	Delete(id string) error
}

// ComparisonHandler exposes comparison sessions over JSON.
type ComparisonHandler struct {
	sessions       Sessions
	sinks          map[string]export.Sink
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewComparisonHandler constructs the HTTP handler adapter. Uploads larger
// than maxUploadBytes are rejected while they are read.
func NewComparisonHandler(sessions Sessions, sinks map[string]export.Sink, maxUploadBytes int64, logger *zap.Logger) *ComparisonHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ComparisonHandler{sessions: sessions, sinks: sinks, maxUploadBytes: maxUploadBytes, logger: logger}
}

// formValue accepts both JSON strings and numbers so the raw text reaches validation.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		s, err := strconv.Unquote(string(trimmed))
		if err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	*v = formValue(trimmed)
	return nil
}

type entryRequest struct {
	Name   formValue `json:"name"`
	Volume formValue `json:"volume"`
	Price  formValue `json:"price"`
	Image  string    `json:"image"`
}

type sortRequest struct {
	Key string `json:"key" binding:"required"`
}

// CreateSession starts a new empty session.
func (h *ComparisonHandler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"id": session.ID()})
}

// DeleteSession drops a session and its pending timers.
func (h *ComparisonHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession renders the ranked list.
func (h *ComparisonHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// SetSort changes the sort key.
func (h *ComparisonHandler) SetSort(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := session.SetSortKey(req.Key); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// Submit adds an entry, or saves the one being edited.
func (h *ComparisonHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	editing := session.State() == comparison.StateEditing
	entry, err := session.Submit(comparison.Draft{
		Name:   string(req.Name),
		Volume: string(req.Volume),
		Price:  string(req.Price),
		Image:  req.Image,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"entry": entry, "view": session.View()})
}

// BeginEdit loads an entry into the form.
func (h *ComparisonHandler) BeginEdit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	draft, err := session.BeginEdit(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft, "view": session.View()})
}

// CancelEdit discards the form.
func (h *ComparisonHandler) CancelEdit(c *gin.Context) {
	h.apply(c, func(s *comparison.Session) error { return s.CancelEdit() })
}

// RequestDelete asks for confirmation before removing an entry.
func (h *ComparisonHandler) RequestDelete(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	if _, err := session.RequestDelete(id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// ConfirmDelete removes the entry awaiting confirmation.
func (h *ComparisonHandler) ConfirmDelete(c *gin.Context) {
	h.apply(c, func(s *comparison.Session) error {
		_, err := s.ConfirmDelete()
		return err
	})
}

// CancelDelete keeps the entry awaiting confirmation.
func (h *ComparisonHandler) CancelDelete(c *gin.Context) {
	h.apply(c, func(s *comparison.Session) error { return s.CancelDelete() })
}

// Undo restores the last deleted entry while the window is open.
func (h *ComparisonHandler) Undo(c *gin.Context) {
	h.apply(c, func(s *comparison.Session) error {
		_, err := s.Undo()
		return err
	})
}

// ClearAll empties the list once the caller confirms with ?confirm=true.
func (h *ComparisonHandler) ClearAll(c *gin.Context) {
	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "clearing the list requires confirm=true"})
		return
	}
	h.apply(c, func(s *comparison.Session) error { return s.ClearAll() })
}

// Attach reads the uploaded image and encodes it in the background.
func (h *ComparisonHandler) Attach(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	f, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	// Multipart temp files are removed when the request ends.
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.respondError(c, fmt.Errorf("%w: larger than %d bytes", models.ErrInvalidAttachment, h.maxUploadBytes))
		return
	}

	done := session.Attach(bytes.NewReader(data))
	logger := h.logger.With(zap.String("session_id", session.ID()), zap.String("filename", header.Filename))
	go func() {
		if err := <-done; err != nil {
			if errors.Is(err, comparison.ErrAttachmentSuperseded) {
				logger.Debug("attachment superseded")
				return
			}
			logger.Warn("attachment rejected", zap.Error(err))
			return
		}
		logger.Debug("attachment stored")
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
}

// Detach removes the image from the form.
func (h *ComparisonHandler) Detach(c *gin.Context) {
	h.apply(c, func(s *comparison.Session) error {
		s.Detach()
		return nil
	})
}

// Export renders the list as text and optionally forwards it to a sink.
func (h *ComparisonHandler) Export(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	name := strings.ToLower(c.DefaultQuery("sink", clipboardSink))
	var sink export.Sink
	if name != clipboardSink {
		if sink, ok = h.sinks[name]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "export sink not configured", "sink": name})
			return
		}
	}

	snapshot, err := session.Export(c.Request.Context(), sink)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.String(http.StatusOK, snapshot.Text)
}

func (h *ComparisonHandler) apply(c *gin.Context, fn func(*comparison.Session) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := fn(session); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

func (h *ComparisonHandler) session(c *gin.Context) (*comparison.Session, bool) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return session, true
}

func (h *ComparisonHandler) entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("entryID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return 0, false
	}
	return id, true
}

func (h *ComparisonHandler) respondError(c *gin.Context, err error) {
	code := models.CodeOf(err)
	body := gin.H{"error": err.Error(), "code": code}

	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		body["problems"] = vErr.Problems
	}

	switch code {
	case models.CodeValidation:
		c.JSON(http.StatusBadRequest, body)
	case models.CodeNotFound:
		c.JSON(http.StatusNotFound, body)
	case models.CodeConflict:
		c.JSON(http.StatusConflict, body)
	case models.CodeExport:
		c.JSON(http.StatusBadGateway, body)
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": code})
	}
}
