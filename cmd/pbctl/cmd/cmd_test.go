package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/profitbridge/internal/app"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/server"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/nfrund/profitbridge/internal/testutils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore() *testutils.MemStore {
	mem := testutils.NewMemStore()
	mem.PutInvestment(testutils.Investment("1", "u1", "1500", "7.5", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	mem.PutInvestment(testutils.Investment("2", "u2", "200", "3", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	mem.PutInvestment(testutils.Investment("3", "ghost", "50", "1", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	mem.AddProfile(domain.Profile{ID: "u1", Email: "Alice@X.com"})
	mem.AddProfile(domain.Profile{ID: "u2", Email: "bob@x.com"})
	return mem
}

func testRuntime(s store.Client) *runtime {
	return &runtime{
		loadConfig: func() (config.Provider, error) {
			return &config.Config{SearchMode: config.SearchModeRefetch}, nil
		},
		openStore: func(context.Context, config.Provider) (store.Client, error) { return s, nil },
		fs:        afero.NewMemMapFs(),
	}
}

func execute(t *testing.T, rt *runtime, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(rt)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCmd_Plain(t *testing.T) {
	out, err := execute(t, testRuntime(seededStore()), "list", "--plain")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "Alice@X.com")
	assert.Contains(t, lines[1], "$1,500.00")
	assert.Contains(t, lines[2], "bob@x.com")
	assert.Contains(t, lines[3], "N/A")
}

func TestListCmd_Search(t *testing.T) {
	out, err := execute(t, testRuntime(seededStore()), "list", "--plain", "--search", "ALICE")
	require.NoError(t, err)

	assert.Contains(t, out, "Alice@X.com")
	assert.NotContains(t, out, "bob@x.com")
	assert.NotContains(t, out, "N/A", "N/A never matches a non-empty term")
}

func TestListCmd_WhitespaceSearchIsLiteral(t *testing.T) {
	out, err := execute(t, testRuntime(seededStore()), "list", "--plain", "--search", " ")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1, "only the header: no email contains a space")
}

func TestListCmd_LoadFailure(t *testing.T) {
	mem := seededStore()
	mem.FailProfiles(errors.New("boom"))

	_, err := execute(t, testRuntime(mem), "list", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load investments")
}

func TestListCmd_UnconfiguredStore(t *testing.T) {
	_, err := execute(t, testRuntime(store.NewUnconfigured()), "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreNotConfigured)
}

func TestListCmd_SearchTooLong(t *testing.T) {
	_, err := execute(t, testRuntime(seededStore()), "list", "--search", strings.Repeat("a", 201))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 200")
}

func TestExportCmd(t *testing.T) {
	rt := testRuntime(seededStore())

	out, err := execute(t, rt, "export", "--out", "reports/all.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 investment(s) to reports/all.csv")

	data, err := afero.ReadFile(rt.fs, "reports/all.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,user_email,amount,roi,created_at", lines[0])
	assert.Equal(t, "1,Alice@X.com,1500,7.5,2024-01-02T00:00:00Z", lines[1])
	assert.Equal(t, "3,N/A,50,1,2023-12-31T00:00:00Z", lines[3])
}

func TestExportCmd_RequiresOut(t *testing.T) {
	_, err := execute(t, testRuntime(seededStore()), "export")
	require.Error(t, err)
}

func TestTopicsCmds(t *testing.T) {
	rt := testRuntime(seededStore())

	out, err := execute(t, rt, "topics", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ws.client.message")

	out, err = execute(t, rt, "topics", "list", "--scope", "module")
	require.NoError(t, err)
	assert.Contains(t, out, "No topics found")

	out, err = execute(t, rt, "topics", "get", "ws.data.direct", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "ws.data.direct"`)

	out, err = execute(t, rt, "topics", "validate", "ws.client.ready")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = execute(t, rt, "topics", "validate", "Bad.Name")
	assert.Error(t, err)

	_, err = execute(t, rt, "topics", "get", "nope.topic")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, testRuntime(nil), "version")
	require.NoError(t, err)
	assert.Equal(t, "pbctl v"+version+"\n", out)
}

// lockedBuffer is a bytes.Buffer safe for one writer and one reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmd_FollowsServer(t *testing.T) {
	mem := seededStore()
	cfg := &config.Config{SearchMode: config.SearchModeRefetch, SessionSecret: "watch-test-secret-watch-test"}
	s, err := server.New(app.NewContainer(context.Background(), cfg, app.Options{Store: mem}), app.NewModules())
	require.NoError(t, err)
	require.NoError(t, s.Boot(context.Background()))
	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})

	root := newRootCmd(testRuntime(mem))
	var out lockedBuffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"watch", "--server", ts.URL, "--search", "bob", "--plain"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 investment(s)")
	}, 5*time.Second, 20*time.Millisecond)

	mem.PutInvestment(testutils.Investment("4", "u2", "75", "2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "2 investment(s)")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
