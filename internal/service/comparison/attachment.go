package comparison

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

// ErrAttachmentSuperseded is delivered to a load whose result was discarded
// because a newer selection replaced it.
var ErrAttachmentSuperseded = errors.New("attachment superseded by a newer selection")

// AttachmentSlot holds the image bound to the entry form. Only the result of
// the most recent selection is kept.
type AttachmentSlot struct {
	mu         sync.Mutex
	generation uint64
	current    string
	maxBytes   int64
}

// NewAttachmentSlot returns an empty slot accepting images up to maxBytes.
func NewAttachmentSlot(maxBytes int64) *AttachmentSlot {
	return &AttachmentSlot{maxBytes: maxBytes}
}

// Load encodes r as a data URL in the background. The returned channel yields
// the outcome once: nil when stored, ErrAttachmentSuperseded when a later
// Load, Set or Clear happened first, or the encoding error.
func (a *AttachmentSlot) Load(r io.Reader) <-chan error {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	a.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)

		dataURL, err := encodeDataURL(r, a.maxBytes)

		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.generation {
			done <- ErrAttachmentSuperseded
			return
		}
		if err != nil {
			done <- err
			return
		}
		a.current = dataURL
		done <- nil
	}()
	return done
}

// Set replaces the slot content and discards any load in flight.
func (a *AttachmentSlot) Set(dataURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.current = dataURL
}

// Clear empties the slot and discards any load in flight.
func (a *AttachmentSlot) Clear() {
	a.Set("")
}

// Current returns the stored data URL, or "".
func (a *AttachmentSlot) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func encodeDataURL(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", models.ErrInvalidAttachment)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", models.ErrInvalidAttachment, maxBytes)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s is not an image", models.ErrInvalidAttachment, mime.String())
	}

	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
