package view_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cmp "maragu.dev/gomponents"
)

func render(t *testing.T, n cmp.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, n.Render(&buf))
	return buf.String()
}

func sampleRows() []domain.ViewRow {
	return []domain.ViewRow{
		{
			ID:        "i1",
			UserEmail: "alice@x.com",
			Amount:    decimal.RequireFromString("1500.5"),
			ROI:       decimal.RequireFromString("7.5"),
			CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "i2",
			UserEmail: domain.EmailUnavailable,
			Amount:    decimal.NewFromInt(100),
			ROI:       decimal.NewFromInt(5),
			CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestInvestmentsPageNode(t *testing.T) {
	html := render(t, view.InvestmentsPageNode(context.Background(), view.InvestmentsPage{
		Term:    "ali",
		Rows:    sampleRows(),
		LiveURL: "/ws/html",
		Flash:   view.FlashData{Error: []string{investments.LoadFailedMessage}},
	}))

	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, "<title>Investments</title>")
	assert.Contains(t, html, `placeholder="Search user email"`)
	assert.Contains(t, html, `value="ali"`)
	for _, header := range []string{"User Email", "Amount", "ROI", "Created At"} {
		assert.Contains(t, html, "<th>"+header+"</th>")
	}
	assert.Contains(t, html, "<td>alice@x.com</td>")
	assert.Contains(t, html, "<td>$1,500.50</td>")
	assert.Contains(t, html, "<td>7.5%</td>")
	assert.Contains(t, html, "<td>N/A</td>")
	assert.Contains(t, html, `ws-connect="/ws/html"`)
	assert.Contains(t, html, `hx-ext="ws"`)
	assert.Contains(t, html, `role="alert">Failed to load investments</div>`)
}

func TestInvestmentsPageNode_StaticWithoutLiveURL(t *testing.T) {
	html := render(t, view.InvestmentsPageNode(context.Background(), view.InvestmentsPage{}))

	assert.NotContains(t, html, "ws-connect")
	assert.NotContains(t, html, "ws-send")
	assert.Contains(t, html, `action="/admin/investments"`)
	assert.Contains(t, html, `<tbody id="investments-rows"></tbody>`)
}

func TestRowsFragment(t *testing.T) {
	html := render(t, view.RowsFragment(sampleRows()))

	assert.Contains(t, html, `<tbody id="investments-rows" hx-swap-oob="true">`)
	assert.Less(t, bytes.Index([]byte(html), []byte("alice@x.com")), bytes.Index([]byte(html), []byte("N/A")), "order is preserved")
}

func TestNoticeFragment_EscapesMessage(t *testing.T) {
	html := render(t, view.NoticeFragment(context.Background(), investments.Notice{
		Level:   investments.LevelError,
		Message: "<b>boom</b>",
	}))

	assert.Contains(t, html, `hx-swap-oob="beforeend:#toasts"`)
	assert.Contains(t, html, `class="toast toast-error"`)
	assert.Contains(t, html, "&lt;b&gt;boom&lt;/b&gt;")
	assert.NotContains(t, html, "<b>boom</b>")
}
