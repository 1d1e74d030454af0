package investments

import (
	"strings"

	"github.com/nfrund/profitbridge/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter keeps the rows whose UserEmail contains term, ignoring case. The
// relative order of kept rows is unchanged and an empty term keeps every row.
// The result never aliases rows.
func Filter(rows []domain.ViewRow, term string) []domain.ViewRow {
	out := make([]domain.ViewRow, 0, len(rows))
	if term == "" {
		return append(out, rows...)
	}

	// cases.Caser is stateful, so each call gets its own.
	lower := cases.Lower(language.Und)
	needle := lower.String(term)
	for _, row := range rows {
		if strings.Contains(lower.String(row.UserEmail), needle) {
			out = append(out, row)
		}
	}
	return out
}
