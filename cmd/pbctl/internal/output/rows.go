// Package output formats investments rows and topics for the terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/investments"
)

var rowHeader = []string{"User Email", "Amount", "ROI", "Created At"}

func rowCells(r domain.ViewRow) []string {
	return []string{
		r.UserEmail,
		investments.FormatAmount(r.Amount),
		investments.FormatROI(r.ROI),
		investments.FormatCreatedAt(r.CreatedAt),
	}
}

// Markdown renders rows as a GitHub-flavored markdown table.
func Markdown(rows []domain.ViewRow) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(rowHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(rowHeader)) + "\n")
	for _, r := range rows {
		cells := rowCells(r)
		// Emails go out as code spans so renderers don't autolink them.
		cells[0] = codeSpan(cells[0])
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	fmt.Fprintf(&b, "\n_%d investment(s)_\n", len(rows))
	return b.String()
}

func codeSpan(s string) string {
	if s == "" {
		return s
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// Plain writes rows as aligned columns.
func Plain(w io.Writer, rows []domain.ViewRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(rowHeader, "\t")))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(rowCells(r), "\t"))
	}
	return tw.Flush()
}

// Styled renders the markdown table through glamour. Width 0 disables word
// wrapping.
func Styled(w io.Writer, rows []domain.ViewRow, width int) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(Markdown(rows))
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Rows writes rows plain or styled.
func Rows(w io.Writer, rows []domain.ViewRow, plain bool) error {
	if plain {
		return Plain(w, rows)
	}
	return Styled(w, rows, 0)
}
