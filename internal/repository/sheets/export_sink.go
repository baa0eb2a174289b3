package sheets

import (
	"context"
	"time"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

// ExportSink writes one sheet row per exported entry.
type ExportSink struct {
	repo       Repository
	sheetRange string
}

// NewExportSink builds a sink appending to sheetRange.
func NewExportSink(repo Repository, sheetRange string) *ExportSink {
	return &ExportSink{repo: repo, sheetRange: sheetRange}
}

// Send implements export.Sink.
func (s *ExportSink) Send(ctx context.Context, snapshot models.ExportSnapshot) error {
	return s.repo.AppendRows(ctx, s.sheetRange, SnapshotRows(snapshot))
}

// SnapshotRows lays the snapshot out as
// exported at | session | sort key | rank | brand | volume ml | price | unit price.
func SnapshotRows(snapshot models.ExportSnapshot) [][]interface{} {
	exportedAt := snapshot.CreatedAt.Format(time.RFC3339)
	rows := make([][]interface{}, 0, len(snapshot.Rows))
	for i, row := range snapshot.Rows {
		rows = append(rows, []interface{}{
			exportedAt,
			snapshot.SessionID,
			snapshot.SortKey,
			i + 1,
			row.Brand,
			row.Volume,
			row.Price,
			row.UnitPrice,
		})
	}
	return rows
}
