package store

import (
	"context"

	"github.com/nfrund/profitbridge/internal/domain"
)

// Unconfigured is a Client whose every call fails with
// domain.ErrStoreNotConfigured.
type Unconfigured struct{}

var _ Client = Unconfigured{}

func NewUnconfigured() Unconfigured { return Unconfigured{} }

func (Unconfigured) ListInvestments(context.Context) ([]domain.Investment, error) {
	return nil, domain.ErrStoreNotConfigured
}

func (Unconfigured) ListProfiles(context.Context, []string) ([]domain.Profile, error) {
	return nil, domain.ErrStoreNotConfigured
}

func (Unconfigured) Watch(context.Context, string, func()) (*Subscription, error) {
	return nil, domain.ErrStoreNotConfigured
}

func (Unconfigured) Unwatch(*Subscription) error { return nil }

func (Unconfigured) Ping(context.Context) error { return domain.ErrStoreNotConfigured }

func (Unconfigured) Mode() Mode { return ModeUnconfigured }

func (Unconfigured) Close(context.Context) error { return nil }
