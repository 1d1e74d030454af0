package investments

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the currency investment amounts are shown in.
const DisplayCurrency = money.USD

// FormatAmount renders an amount as currency, e.g. "$1,500.25".
func FormatAmount(amount decimal.Decimal) string {
	cur := money.GetCurrency(DisplayCurrency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), DisplayCurrency).Display()
}

// FormatROI renders a return on investment percentage, e.g. "7.5%".
func FormatROI(roi decimal.Decimal) string {
	return roi.String() + "%"
}

// FormatCreatedAt renders a creation time in UTC.
func FormatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
