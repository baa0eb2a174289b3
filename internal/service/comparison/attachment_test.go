package comparison

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func waitLoad(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("attachment load did not finish")
		return nil
	}
}

func TestAttachmentLoadEncodesDataURL(t *testing.T) {
	slot := NewAttachmentSlot(1024)

	require.NoError(t, waitLoad(t, slot.Load(bytes.NewReader(pngHeader))))
	assert.True(t, strings.HasPrefix(slot.Current(), "data:image/png;base64,"))
}

func TestAttachmentRejectsNonImagesAndLargeFiles(t *testing.T) {
	slot := NewAttachmentSlot(16)

	err := waitLoad(t, slot.Load(strings.NewReader("just some text")))
	assert.ErrorIs(t, err, models.ErrInvalidAttachment)

	err = waitLoad(t, slot.Load(bytes.NewReader(pngHeader)))
	assert.ErrorIs(t, err, models.ErrInvalidAttachment)

	err = waitLoad(t, slot.Load(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, models.ErrInvalidAttachment)

	assert.Empty(t, slot.Current())
}

func TestAttachmentNewerSelectionWins(t *testing.T) {
	slot := NewAttachmentSlot(1024)

	pr, pw := io.Pipe()
	first := slot.Load(pr)

	second := slot.Load(bytes.NewReader(pngHeader))
	require.NoError(t, waitLoad(t, second))
	want := slot.Current()
	require.NotEmpty(t, want)

	// The first selection completes late; its result must be dropped.
	go func() {
		_, _ = pw.Write([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))
		_ = pw.Close()
	}()
	assert.ErrorIs(t, waitLoad(t, first), ErrAttachmentSuperseded)
	assert.Equal(t, want, slot.Current())
}

func TestAttachmentClearDiscardsInFlightLoad(t *testing.T) {
	slot := NewAttachmentSlot(1024)

	pr, pw := io.Pipe()
	done := slot.Load(pr)
	slot.Clear()

	go func() {
		_, _ = pw.Write(pngHeader)
		_ = pw.Close()
	}()
	assert.ErrorIs(t, waitLoad(t, done), ErrAttachmentSuperseded)
	assert.Empty(t, slot.Current())
}
