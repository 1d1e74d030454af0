package investments

import (
	"context"
	"sync"
	"time"

	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/testutils"
	"github.com/nfrund/profitbridge/internal/tracing"
)

type recordingSink struct {
	mu      sync.Mutex
	renders [][]domain.ViewRow
}

func (s *recordingSink) Render(_ context.Context, rows []domain.ViewRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, append([]domain.ViewRow(nil), rows...))
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.renders)
}

func (s *recordingSink) last() []domain.ViewRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.renders) == 0 {
		return nil
	}
	return s.renders[len(s.renders)-1]
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

var (
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// scenarioStore seeds the two-investment, two-profile dataset used across tests.
func scenarioStore(withBob bool) *testutils.MemStore {
	s := testutils.NewMemStore()
	s.PutInvestment(testutils.Investment("1", "u1", "100", "5", jan2))
	s.PutInvestment(testutils.Investment("2", "u2", "200", "3", jan1))
	s.AddProfile(domain.Profile{ID: "u1", Email: "a@x.com"})
	if withBob {
		s.AddProfile(domain.Profile{ID: "u2", Email: "b@x.com"})
	}
	return s
}

func newTestJoiner(s *testutils.MemStore) *Joiner {
	return NewJoiner(s, tracing.Noop())
}

func ids(rows []domain.ViewRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
