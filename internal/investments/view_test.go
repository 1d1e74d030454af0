package investments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/nfrund/profitbridge/internal/testutils"
	"github.com/nfrund/profitbridge/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ViewSuite struct {
	suite.Suite
	store    *testutils.MemStore
	sink     *recordingSink
	notifier *recordingNotifier
	ctx      context.Context
}

func TestViewSuite(t *testing.T) {
	suite.Run(t, new(ViewSuite))
}

func (s *ViewSuite) SetupTest() {
	s.store = scenarioStore(true)
	s.sink = &recordingSink{}
	s.notifier = &recordingNotifier{}
	s.ctx = context.Background()
}

func (s *ViewSuite) newView(opts ...ViewOption) *View {
	return NewView(newTestJoiner(s.store), NewChangeListener(s.store), s.sink, s.notifier, opts...)
}

func (s *ViewSuite) TestAttachLoadsAndSubscribes() {
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.True(v.Attached())
	s.True(v.Subscribed())
	s.Equal(1, s.store.ActiveWatchers(store.InvestmentsTable))
	s.Equal([]string{"1", "2"}, ids(v.Snapshot()))
	s.Equal(1, s.sink.count())
	s.Empty(s.notifier.all())
}

func (s *ViewSuite) TestChangeEventReloads() {
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.store.PutInvestment(testutils.Investment("3", "u2", "50", "1", jan2.Add(time.Hour)))

	s.Equal([]string{"3", "1", "2"}, ids(v.Snapshot()))
	s.Equal("b@x.com", v.Snapshot()[0].UserEmail)

	s.store.DeleteInvestment("1")
	s.Equal([]string{"3", "2"}, ids(v.Snapshot()))
	s.Equal(1, s.store.WatchCalls(), "change events never touch the subscription")
}

func (s *ViewSuite) TestFetchFailureKeepsStateAndNotifiesOnce() {
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()
	before := v.Snapshot()
	renders := s.sink.count()

	s.store.FailInvestments(errors.New("network down"))
	s.store.Touch(store.InvestmentsTable)

	s.Equal(before, v.Snapshot())
	s.Equal(renders, s.sink.count(), "nothing is rendered from a failed run")
	s.Require().Len(s.notifier.all(), 1)
	s.Equal(Notice{Level: LevelError, Message: LoadFailedMessage}, s.notifier.all()[0])
	s.True(v.Subscribed(), "a failed run leaves the subscription in place")

	s.store.FailInvestments(nil)
	s.store.Touch(store.InvestmentsTable)
	s.Len(s.notifier.all(), 1)
	s.Equal(renders+1, s.sink.count(), "the next change event recovers")
}

func (s *ViewSuite) TestProfileFailureNotifiesOnce() {
	s.store.FailProfiles(errors.New("timeout"))
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.Empty(v.Snapshot())
	s.Len(s.notifier.all(), 1)
	s.Zero(s.sink.count())
}

func (s *ViewSuite) TestDetachReleasesEverything() {
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	renders := s.sink.count()

	s.Require().NoError(v.Detach())

	s.False(v.Attached())
	s.False(v.Subscribed())
	s.Empty(v.Snapshot())
	s.Zero(s.store.ActiveWatchers(store.InvestmentsTable))

	s.store.Touch(store.InvestmentsTable)
	v.Refresh()
	v.SetSearch("a@")
	s.Equal(renders, s.sink.count(), "a detached view never renders")
	s.NoError(v.Detach(), "detach is idempotent")
}

func (s *ViewSuite) TestReattachReplacesSubscription() {
	v := s.newView()
	s.Require().NoError(v.Attach(s.ctx))
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.Equal(1, s.store.ActiveWatchers(store.InvestmentsTable))
	s.Equal(2, s.store.WatchCalls())
	s.Equal(1, s.store.UnwatchCalls())
}

func (s *ViewSuite) TestSubscribeFailureStillLoads() {
	s.store.FailWatch(errors.New("realtime unavailable"))
	v := s.newView()

	err := v.Attach(s.ctx)
	s.Error(err)
	s.True(v.Attached())
	s.False(v.Subscribed())
	s.Equal([]string{"1", "2"}, ids(v.Snapshot()))
	s.Empty(s.notifier.all(), "subscription errors are logged, not notified")

	v.SetSearch("b@")
	s.Equal([]string{"2"}, ids(v.Snapshot()), "search still recovers the view")
	s.NoError(v.Detach())
}

func (s *ViewSuite) TestSearchRefetchMode() {
	v := s.newView(WithSearchMode(config.SearchModeRefetch))
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()
	calls := s.store.InvestmentCalls()

	v.SetSearch("A@X")

	s.Equal([]string{"1"}, ids(v.Snapshot()))
	s.Equal("A@X", v.Term())
	s.Equal(calls+1, s.store.InvestmentCalls())
	s.Equal(1, s.store.WatchCalls(), "one subscription per view lifetime")
}

func (s *ViewSuite) TestSearchLocalMode() {
	v := s.newView(WithSearchMode(config.SearchModeLocal))
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()
	calls := s.store.InvestmentCalls()

	v.SetSearch("b@X")
	s.Equal([]string{"2"}, ids(v.Snapshot()))
	v.SetSearch("")
	s.Equal([]string{"1", "2"}, ids(v.Snapshot()))
	s.Equal(calls, s.store.InvestmentCalls(), "local search never hits the store")

	v.SetSearch("a@")
	s.store.PutInvestment(testutils.Investment("3", "u1", "1", "1", jan2.Add(time.Hour)))
	s.Equal([]string{"3", "1"}, ids(v.Snapshot()), "change events apply the current term")
}

func (s *ViewSuite) TestSearchLocalModeFallsBackWithoutData() {
	s.store.FailInvestments(errors.New("down"))
	v := s.newView(WithSearchMode(config.SearchModeLocal))
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.store.FailInvestments(nil)
	v.SetSearch("a@")
	s.Equal([]string{"1"}, ids(v.Snapshot()))
}

func (s *ViewSuite) TestInitialSearchTerm() {
	v := s.newView(WithSearchTerm("b@x"))
	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()

	s.Equal([]string{"2"}, ids(v.Snapshot()))
}

func (s *ViewSuite) TestSearchBeforeAttachIsRemembered() {
	v := s.newView()
	v.SetSearch("a@x")
	s.Zero(s.store.InvestmentCalls())
	s.Zero(s.sink.count())

	s.Require().NoError(v.Attach(s.ctx))
	defer v.Detach()
	s.Equal([]string{"1"}, ids(v.Snapshot()))
}

// watchHookStore runs a hook inside Watch, before the subscription is handed back.
type watchHookStore struct {
	*testutils.MemStore
	onWatch func()
}

func (w *watchHookStore) Watch(ctx context.Context, table string, onChange func()) (*store.Subscription, error) {
	sub, err := w.MemStore.Watch(ctx, table, onChange)
	if w.onWatch != nil {
		w.onWatch()
	}
	return sub, err
}

func TestView_DetachDuringAttachReleasesSubscription(t *testing.T) {
	mem := scenarioStore(true)
	hooked := &watchHookStore{MemStore: mem}
	v := NewView(NewJoiner(hooked, tracing.Noop()), NewChangeListener(hooked), &recordingSink{}, &recordingNotifier{})
	hooked.onWatch = func() { _ = v.Detach() }

	err := v.Attach(context.Background())

	assert.ErrorIs(t, err, ErrDetached)
	assert.Zero(t, mem.ActiveWatchers(store.InvestmentsTable))
	assert.False(t, v.Attached())
	assert.Empty(t, v.Snapshot())
}

func TestView_StaleRunIsDiscarded(t *testing.T) {
	mem := scenarioStore(true)
	sink := &recordingSink{}
	v := NewView(newTestJoiner(mem), NewChangeListener(mem), sink, &recordingNotifier{})

	started := make(chan struct{})
	release := make(chan struct{})
	mem.BeforeListInvestments(func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	})

	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()
	require.Equal(t, 1, sink.count())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Refresh()
	}()
	<-started

	mem.BeforeListInvestments(nil)
	mem.PutInvestment(testutils.Investment("3", "u2", "75", "2", jan2.Add(time.Hour)))
	require.Equal(t, 2, sink.count())
	close(release)
	wg.Wait()

	assert.Equal(t, 2, sink.count(), "the slower, older run is discarded")
	assert.Equal(t, []string{"3", "1", "2"}, ids(v.Snapshot()))
	assert.Equal(t, sink.last(), v.Snapshot())
}

func TestView_ConcurrentTriggers(t *testing.T) {
	mem := scenarioStore(true)
	v := NewView(newTestJoiner(mem), NewChangeListener(mem), &recordingSink{}, &recordingNotifier{},
		WithSearchMode(config.SearchModeLocal))
	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			mem.Touch(store.InvestmentsTable)
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				v.SetSearch("x.com")
			} else {
				v.SetSearch("")
			}
		}(i)
	}
	wg.Wait()
	v.Refresh()

	rows := v.Snapshot()
	seen := map[string]bool{}
	for _, r := range rows {
		assert.False(t, seen[r.ID], "duplicate row %s", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, Filter(rows, v.Term()), rows)
	assert.Len(t, rows, 2)
}

func TestView_NoticeIsNotSentForDetachedRuns(t *testing.T) {
	mem := scenarioStore(true)
	notifier := &recordingNotifier{}
	v := NewView(newTestJoiner(mem), NewChangeListener(mem), &recordingSink{}, notifier)

	require.NoError(t, v.Attach(context.Background()))
	started := make(chan struct{})
	release := make(chan struct{})
	mem.BeforeListInvestments(func(int) {
		close(started)
		<-release
	})
	mem.FailInvestments(errors.New("late failure"))

	done := make(chan struct{})
	go func() {
		v.Refresh()
		close(done)
	}()
	<-started
	require.NoError(t, v.Detach())
	close(release)
	<-done

	assert.Empty(t, notifier.all())
}
