package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nfrund/profitbridge/internal/database"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// SurrealStore is the live Client backed by SurrealDB.
type SurrealStore struct {
	conn database.DBConnection
	live database.LiveQueryService
}

var _ Client = (*SurrealStore)(nil)

func NewSurrealStore(conn database.DBConnection, live database.LiveQueryService) *SurrealStore {
	return &SurrealStore{conn: conn, live: live}
}

// Monetary fields are cast to strings server side so that they decode
// losslessly into decimal.Decimal.
type investmentRecord struct {
	ID        *models.RecordID       `json:"id,omitempty" surrealdb:"id,omitempty"`
	UserID    string                 `json:"user_id" surrealdb:"user_id"`
	Amount    string                 `json:"amount" surrealdb:"amount"`
	ROI       string                 `json:"roi" surrealdb:"roi"`
	CreatedAt *models.CustomDateTime `json:"created_at,omitempty" surrealdb:"created_at,omitempty"`
}

type profileRecord struct {
	ID    *models.RecordID `json:"id,omitempty" surrealdb:"id,omitempty"`
	Email string           `json:"email" surrealdb:"email"`
}

func (s *SurrealStore) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	query, params, err := From(InvestmentsTable).
		Select("id", "user_id", "<string> amount AS amount", "<string> roi AS roi", "created_at").
		OrderBy("created_at", Desc).
		Build()
	if err != nil {
		return nil, err
	}

	records, err := database.Fetch[investmentRecord](ctx, s.conn, query, params)
	if err != nil {
		return nil, database.WrapError(err, "failed to list investments")
	}

	out := make([]domain.Investment, 0, len(records))
	for _, r := range records {
		inv, err := r.toDomain()
		if err != nil {
			return nil, database.NewDBError(err, "failed to decode investment").WithQuery(query)
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *SurrealStore) ListProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	recordIDs := make([]any, 0, len(ids))
	for _, id := range ids {
		recordIDs = append(recordIDs, models.NewRecordID(ProfilesTable, id))
	}

	query, params, err := From(ProfilesTable).
		Select("id", "email").
		WhereIn("id", recordIDs).
		Build()
	if err != nil {
		return nil, err
	}

	records, err := database.Fetch[profileRecord](ctx, s.conn, query, params)
	if err != nil {
		return nil, database.WrapError(err, "failed to list profiles")
	}

	out := make([]domain.Profile, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Profile{ID: recordKey(r.ID), Email: r.Email})
	}
	return out, nil
}

func (s *SurrealStore) Watch(ctx context.Context, table string, onChange func()) (*Subscription, error) {
	if onChange == nil {
		return nil, database.NewDBError(database.ErrInvalidInput, "onChange cannot be nil")
	}

	sub, err := s.live.Subscribe(ctx, table, nil, func(ctx context.Context, action database.LiveQueryAction, _ any) {
		if action == database.ActionClose {
			slog.ErrorContext(ctx, "Change subscription closed by the server", "event", "store_watch_closed", "table", table)
			return
		}
		onChange()
	})
	if err != nil {
		return nil, err
	}
	return &Subscription{ID: sub.ID, Table: sub.Table}, nil
}

func (s *SurrealStore) Unwatch(sub *Subscription) error {
	if sub == nil {
		return nil
	}
	return s.live.Unsubscribe(sub.ID)
}

func (s *SurrealStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		_, err := db.Version(ctx)
		return err
	})
}

func (s *SurrealStore) Mode() Mode { return ModeLive }

func (s *SurrealStore) Close(ctx context.Context) error {
	_ = s.live.Close()
	return s.conn.Close(ctx)
}

func (r investmentRecord) toDomain() (domain.Investment, error) {
	amount, err := parseDecimal(r.Amount)
	if err != nil {
		return domain.Investment{}, fmt.Errorf("amount: %w", err)
	}
	roi, err := parseDecimal(r.ROI)
	if err != nil {
		return domain.Investment{}, fmt.Errorf("roi: %w", err)
	}

	inv := domain.Investment{
		ID:     recordKey(r.ID),
		UserID: r.UserID,
		Amount: amount,
		ROI:    roi,
	}
	if r.CreatedAt != nil {
		inv.CreatedAt = r.CreatedAt.Time
	}
	return inv, nil
}

// parseDecimal reads a number cast with <string>. SurrealDB keeps the
// type suffix on floats ("5.5f") and decimals ("5.5dec").
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" || s == "NONE" || s == "NULL" {
		return decimal.Zero, nil
	}
	for _, suffix := range []string{"dec", "f"} {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			s = trimmed
			break
		}
	}
	return decimal.NewFromString(s)
}

// recordKey strips the table part of a record id.
func recordKey(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id.ID)
}
