package investments

import (
	"context"
	"fmt"

	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Joiner materializes the admin view from the investments and profiles
// collections.
type Joiner struct {
	store  store.Client
	tracer trace.Tracer
}

func NewJoiner(s store.Client, tracer trace.Tracer) *Joiner {
	return &Joiner{store: s, tracer: tracer}
}

// Run joins both collections and filters the result by term. Any fetch
// failure aborts the whole run; there is no partial result.
func (j *Joiner) Run(ctx context.Context, term string) ([]domain.ViewRow, error) {
	rows, err := j.Join(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(rows, term), nil
}

// Join returns every investment, newest first, with its owner's email or
// domain.EmailUnavailable when the owner has no profile or a blank email.
func (j *Joiner) Join(ctx context.Context) ([]domain.ViewRow, error) {
	ctx, span := j.tracer.Start(ctx, "investments.join")
	defer span.End()

	invs, err := j.store.ListInvestments(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "investments fetch failed")
		return nil, fmt.Errorf("%w: investments: %w", domain.ErrFetchFailed, err)
	}

	ids := distinctUserIDs(invs)
	emails := make(map[string]string, len(ids))
	if len(ids) > 0 {
		profiles, err := j.store.ListProfiles(ctx, ids)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "profiles fetch failed")
			return nil, fmt.Errorf("%w: profiles: %w", domain.ErrFetchFailed, err)
		}
		for _, p := range profiles {
			emails[p.ID] = p.Email
		}
	}

	rows := make([]domain.ViewRow, 0, len(invs))
	for _, inv := range invs {
		email, ok := emails[inv.UserID]
		if !ok || email == "" {
			email = domain.EmailUnavailable
		}
		rows = append(rows, domain.ViewRow{
			ID:        inv.ID,
			UserEmail: email,
			Amount:    inv.Amount,
			ROI:       inv.ROI,
			CreatedAt: inv.CreatedAt,
		})
	}

	span.SetAttributes(
		attribute.Int("investments.count", len(invs)),
		attribute.Int("profiles.requested", len(ids)),
		attribute.Int("profiles.resolved", len(emails)),
	)
	return rows, nil
}

// distinctUserIDs returns the non-empty owner ids in order of first appearance.
func distinctUserIDs(invs []domain.Investment) []string {
	seen := make(map[string]struct{}, len(invs))
	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		if inv.UserID == "" {
			continue
		}
		if _, ok := seen[inv.UserID]; ok {
			continue
		}
		seen[inv.UserID] = struct{}{}
		ids = append(ids, inv.UserID)
	}
	return ids
}
