package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmcp-sl/supervise/model"
)

func TestSubmitOfflineQueuesAndArchives(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	delivered, err := f.engine.Submit(ctx, record("Makeni CHC"), "")
	require.NoError(t, err)
	assert.False(t, delivered)

	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 1)
	assert.Equal(t, "Makeni CHC", archive[0].Fields["facility_name"])

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEmpty(t, pending[0].ID)
	assert.Equal(t, "Makeni CHC", pending[0].Record.Fields["facility_name"])
}

func TestReconnectSweepsQueue(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, record("Makeni CHC"), "")
	require.NoError(t, err)

	// the offline-to-online transition triggers exactly one sweep
	f.monitor.Set(true)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 1, f.gateway.deliveredCount())

	// the archive is never pruned by delivery
	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	assert.Len(t, archive, 1)
}

func TestSubmitOnlineFailureDegradesToQueue(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.setFailing(true)
	ctx := context.Background()

	delivered, err := f.engine.Submit(ctx, record("Binkolo CHP"), "")
	require.NoError(t, err)
	assert.False(t, delivered)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	assert.Len(t, archive, 1)
}

func TestEverySubmissionArchivedExactlyOnce(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// online ok, online failing, offline
	_, err := f.engine.Submit(ctx, record("A"), "")
	require.NoError(t, err)

	f.gateway.setFailing(true)
	_, err = f.engine.Submit(ctx, record("B"), "")
	require.NoError(t, err)

	f.monitor.Set(false)
	_, err = f.engine.Submit(ctx, record("C"), "")
	require.NoError(t, err)

	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 3)
	names := []string{}
	for _, rec := range archive {
		names = append(names, rec.Fields["facility_name"])
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestSweepRemovesOnlyDeliveredPreservingOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := f.engine.Submit(ctx, record(name), "")
		require.NoError(t, err)
	}

	f.gateway.mu.Lock()
	f.gateway.failFor = map[string]bool{"B": true}
	f.gateway.mu.Unlock()

	synced, err := f.engine.RetrySweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "B", pending[0].Record.Fields["facility_name"])

	// failed entries stay queued indefinitely; the next sweep picks them up
	f.gateway.mu.Lock()
	f.gateway.failFor = nil
	f.gateway.mu.Unlock()

	synced, err = f.engine.RetrySweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	pending, err = f.engine.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSweepNeverGrowsQueue(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, record("A"), "")
	require.NoError(t, err)

	f.gateway.setFailing(true)
	for i := 0; i < 3; i++ {
		synced, err := f.engine.RetrySweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, synced)

		pending, err := f.engine.Pending(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	}
}

func TestSweepUnconfiguredGatewayShortCircuits(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, record("A"), "")
	require.NoError(t, err)

	f.gateway.unconfigured = true
	synced, err := f.engine.RetrySweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSubmitUnconfiguredGatewayOnlineCountsAsDelivered(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.unconfigured = true
	ctx := context.Background()

	delivered, err := f.engine.Submit(ctx, record("A"), "")
	require.NoError(t, err)
	assert.True(t, delivered)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSweepKeepsEntriesEnqueuedMidSweep(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, record("A"), "")
	require.NoError(t, err)

	// a submit lands in the queue while the sweep is delivering: the sweep
	// must compute its removal against entry identity, not positions
	raced := false
	f.gateway.onDeliver = func(model.Submission) {
		if raced {
			return
		}
		raced = true
		_, err := f.engine.Submit(ctx, record("LATE"), "")
		require.NoError(t, err)
	}

	synced, err := f.engine.RetrySweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	pending, err := f.engine.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "LATE", pending[0].Record.Fields["facility_name"])
}

func TestSubmitPromotesDraft(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	draft, err := f.drafts.Save(ctx, model.Fields{"facility_name": "Makeni CHC"}, 2)
	require.NoError(t, err)

	loaded, err := f.drafts.Load(ctx, draft.DraftID)
	require.NoError(t, err)

	rec := record(loaded.Fields["facility_name"])
	delivered, err := f.engine.Submit(ctx, rec, loaded.DraftID)
	require.NoError(t, err)
	assert.True(t, delivered)

	drafts, err := f.drafts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	assert.Len(t, archive, 1)
}

func TestOfflineSubmitAlsoPromotesDraft(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	draft, err := f.drafts.Save(ctx, model.Fields{"facility_name": "Makeni CHC"}, 1)
	require.NoError(t, err)

	_, err = f.engine.Submit(ctx, record("Makeni CHC"), draft.DraftID)
	require.NoError(t, err)

	drafts, err := f.drafts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestArchiveLimitPrunesOldest(t *testing.T) {
	f := newFixture(t, false)
	f.engine.archiveLimit = 2
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := f.engine.Submit(ctx, record(name), "")
		require.NoError(t, err)
	}

	archive, err := f.engine.Archive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 2)
	assert.Equal(t, "B", archive[0].Fields["facility_name"])
	assert.Equal(t, "C", archive[1].Fields["facility_name"])
}
