package handlers

import (
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/investments"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InvestmentsResponse is the body of GET /api/investments.
type InvestmentsResponse struct {
	Search string           `json:"search"`
	Count  int              `json:"count"`
	Rows   []domain.ViewRow `json:"rows"`
}

// NewInvestmentsResponse wraps rows for the API. Rows is never null.
func NewInvestmentsResponse(search string, rows []domain.ViewRow) InvestmentsResponse {
	if rows == nil {
		rows = []domain.ViewRow{}
	}
	return InvestmentsResponse{Search: search, Count: len(rows), Rows: rows}
}

// LoadFailedResponse is returned when a join run aborts.
func LoadFailedResponse() ErrorResponse {
	return ErrorResponse{Code: "load_failed", Message: investments.LoadFailedMessage}
}
