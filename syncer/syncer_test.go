package syncer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nmcp-sl/supervise/config"
	"github.com/nmcp-sl/supervise/model"
	"github.com/nmcp-sl/supervise/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// fakeGateway counts deliveries and fails on demand.
type fakeGateway struct {
	mu           sync.Mutex
	unconfigured bool
	failing      bool
	failFor      map[string]bool // submissions failed by facility_name
	delivered    []model.Submission
	onDeliver    func(rec model.Submission)
}

func (g *fakeGateway) Configured() bool {
	return !g.unconfigured
}

func (g *fakeGateway) Deliver(ctx context.Context, rec model.Submission) error {
	g.mu.Lock()
	failing := g.failing || g.failFor[rec.Fields["facility_name"]]
	onDeliver := g.onDeliver
	g.mu.Unlock()

	if onDeliver != nil {
		onDeliver(rec)
	}
	if failing {
		return context.DeadlineExceeded
	}

	g.mu.Lock()
	g.delivered = append(g.delivered, rec)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) setFailing(failing bool) {
	g.mu.Lock()
	g.failing = failing
	g.mu.Unlock()
}

func (g *fakeGateway) deliveredCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.delivered)
}

type fixture struct {
	store   *store.Store
	gateway *fakeGateway
	monitor *Monitor
	drafts  *Drafts
	engine  *Engine
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()

	st := openTestStore(t)
	gw := &fakeGateway{}
	notices := NewLogNotifier()
	monitor := NewMonitor(online, notices)
	drafts := NewDrafts(st, notices)
	engine := NewEngine(st, gw, monitor, drafts, notices, time.Second, 0)

	return &fixture{store: st, gateway: gw, monitor: monitor, drafts: drafts, engine: engine}
}

func record(facility string) model.Submission {
	return model.NewSubmission(map[string][]string{
		"facility_name": {facility},
		"region":        {"Northern"},
	}, "jkamara", time.Now())
}
