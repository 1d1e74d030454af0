package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/nfrund/profitbridge/internal/domain"
)

var csvHeader = []string{"id", "user_email", "amount", "roi", "created_at"}

// EncodeCSV renders rows as CSV with a header line. Amounts and ROI keep
// their exact decimal form.
func EncodeCSV(rows []domain.ViewRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.UserEmail,
			r.Amount.String(),
			r.ROI.String(),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportCSV writes rows to path on s.
func ExportCSV(ctx context.Context, s Store, path string, rows []domain.ViewRow) (int64, error) {
	data, err := EncodeCSV(rows)
	if err != nil {
		return 0, fmt.Errorf("encoding csv: %w", err)
	}
	n, err := s.Save(ctx, path, bytes.NewReader(data))
	if err != nil {
		return n, fmt.Errorf("saving %s: %w", path, err)
	}
	return n, nil
}
