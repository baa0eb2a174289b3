package export

import (
	"context"
	"strings"
	"time"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
)

const (
	// Header opens every exported block.
	Header = "Price comparison"
	// Underline is printed below the header.
	Underline = "====================="
	// Delimiter separates two records.
	Delimiter = "-------------------"
)

// Sink receives an exported list. Clipboard export needs no sink: the caller
// hands snapshot.Text to the platform clipboard itself.
type Sink interface {
	Send(ctx context.Context, snapshot models.ExportSnapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snapshot models.ExportSnapshot) error

func (f SinkFunc) Send(ctx context.Context, snapshot models.ExportSnapshot) error {
	return f(ctx, snapshot)
}

// BuildSnapshot converts an already ranked list into the export payload.
func BuildSnapshot(sessionID string, key ranking.SortKey, ranked []ranking.RankedEntry, now time.Time) models.ExportSnapshot {
	rows := make([]models.ExportRow, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, models.ExportRow{
			EntryID:       r.ID,
			Brand:         r.Name,
			Volume:        r.Volume,
			Price:         r.Price,
			UnitPrice:     r.UnitPrice,
			VolumeText:    r.VolumeText,
			PriceText:     r.PriceText,
			UnitPriceText: r.UnitPriceText,
			Tier:          string(r.Tier),
		})
	}

	return models.ExportSnapshot{
		SessionID: sessionID,
		SortKey:   string(key),
		Text:      Text(rows),
		Rows:      rows,
		CreatedAt: now,
	}
}

// Text renders rows as the plain-text block copied to the clipboard.
func Text(rows []models.ExportRow) string {
	var b strings.Builder
	b.WriteString(Header + "\n" + Underline + "\n\n")

	for i, row := range rows {
		if i > 0 {
			b.WriteString(Delimiter + "\n")
		}
		b.WriteString("Brand: " + row.Brand + "\n")
		b.WriteString("Volume: " + row.VolumeText + "\n")
		b.WriteString("Price: " + row.PriceText + "\n")
		b.WriteString("Unit price: " + row.UnitPriceText + "\n")
	}
	return b.String()
}
