package investments

import (
	"testing"

	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	rows := []domain.ViewRow{
		{ID: "1", UserEmail: "Alice@Example.com"},
		{ID: "2", UserEmail: "bob@example.org"},
		{ID: "3", UserEmail: domain.EmailUnavailable},
		{ID: "4", UserEmail: "alicia@example.com"},
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"empty term keeps all", "", []string{"1", "2", "3", "4"}},
		{"case-insensitive substring", "ALI", []string{"1", "4"}},
		{"domain match", "example.com", []string{"1", "4"}},
		{"sentinel is searchable", "n/a", []string{"3"}},
		{"no match", "zed", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(rows, tt.term)))
		})
	}
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	rows := []domain.ViewRow{{ID: "1", UserEmail: "a@x.com"}}

	out := Filter(rows, "")
	out[0].UserEmail = "changed"

	assert.Equal(t, "a@x.com", rows[0].UserEmail)
}

func TestFilter_NilInput(t *testing.T) {
	out := Filter(nil, "x")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFilter_Idempotent(t *testing.T) {
	rows := []domain.ViewRow{
		{ID: "1", UserEmail: "ann@x.com"},
		{ID: "2", UserEmail: "bo@y.com"},
	}
	once := Filter(rows, "X.C")
	assert.Equal(t, once, Filter(once, "X.C"))
}
