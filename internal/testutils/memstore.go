package testutils

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/store"
)

// MemStore is an in-memory store.Client. Mutations fire the registered
// watchers synchronously, and failures can be injected per operation.
type MemStore struct {
	mu          sync.Mutex
	investments map[string]domain.Investment
	profiles    map[string]domain.Profile
	watchers    map[string]memWatcher

	investmentsErr error
	profilesErr    error
	watchErr       error

	investmentCalls int
	profileRequests [][]string
	watchCalls      int
	unwatchCalls    int

	beforeList func(call int)
}

type memWatcher struct {
	table    string
	onChange func()
}

var _ store.Client = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		investments: map[string]domain.Investment{},
		profiles:    map[string]domain.Profile{},
		watchers:    map[string]memWatcher{},
	}
}

// AddProfile inserts or replaces a profile. Profiles are not watched.
func (m *MemStore) AddProfile(p domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// PutInvestment inserts or replaces an investment and notifies watchers.
func (m *MemStore) PutInvestment(inv domain.Investment) {
	m.mu.Lock()
	m.investments[inv.ID] = inv
	m.mu.Unlock()
	m.fire(store.InvestmentsTable)
}

// DeleteInvestment removes an investment and notifies watchers.
func (m *MemStore) DeleteInvestment(id string) {
	m.mu.Lock()
	delete(m.investments, id)
	m.mu.Unlock()
	m.fire(store.InvestmentsTable)
}

// Touch notifies watchers of table without changing any data.
func (m *MemStore) Touch(table string) {
	m.fire(table)
}

// BeforeListInvestments installs a hook that runs at the start of every
// ListInvestments call with the 1-based call number. Tests use it to block a
// fetch and force runs to complete out of order. nil removes the hook.
func (m *MemStore) BeforeListInvestments(fn func(call int)) { m.set(func() { m.beforeList = fn }) }

func (m *MemStore) FailInvestments(err error) { m.set(func() { m.investmentsErr = err }) }
func (m *MemStore) FailProfiles(err error)    { m.set(func() { m.profilesErr = err }) }
func (m *MemStore) FailWatch(err error)       { m.set(func() { m.watchErr = err }) }

// ActiveWatchers returns the number of live subscriptions on table.
func (m *MemStore) ActiveWatchers(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.watchers {
		if w.table == table {
			n++
		}
	}
	return n
}

func (m *MemStore) InvestmentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.investmentCalls
}

// ProfileRequests returns the id sets passed to ListProfiles, in call order.
func (m *MemStore) ProfileRequests() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.profileRequests))
	copy(out, m.profileRequests)
	return out
}

func (m *MemStore) WatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchCalls
}

func (m *MemStore) UnwatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unwatchCalls
}

func (m *MemStore) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	m.mu.Lock()
	m.investmentCalls++
	call := m.investmentCalls
	hook := m.beforeList
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.investmentsErr != nil {
		return nil, m.investmentsErr
	}

	out := make([]domain.Investment, 0, len(m.investments))
	for _, inv := range m.investments {
		out = append(out, inv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) ListProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profileRequests = append(m.profileRequests, append([]string(nil), ids...))
	if m.profilesErr != nil {
		return nil, m.profilesErr
	}

	var out []domain.Profile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemStore) Watch(ctx context.Context, table string, onChange func()) (*store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watchCalls++
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	id := uuid.NewString()
	m.watchers[id] = memWatcher{table: table, onChange: onChange}
	return &store.Subscription{ID: id, Table: table}, nil
}

func (m *MemStore) Unwatch(sub *store.Subscription) error {
	if sub == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unwatchCalls++
	delete(m.watchers, sub.ID)
	return nil
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) Mode() store.Mode { return store.ModeLive }

func (m *MemStore) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = map[string]memWatcher{}
	return nil
}

func (m *MemStore) set(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *MemStore) fire(table string) {
	m.mu.Lock()
	var fns []func()
	for _, w := range m.watchers {
		if w.table == table {
			fns = append(fns, w.onChange)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
