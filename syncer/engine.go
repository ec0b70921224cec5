package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmcp-sl/supervise/log"
	"github.com/nmcp-sl/supervise/model"
	"github.com/nmcp-sl/supervise/store"
)

// Gateway is the slice of the remote endpoint the engine needs. Deliver
// succeeding only means the request completed without a transport error;
// the endpoint gives no application-level acknowledgement.
type Gateway interface {
	Configured() bool
	Deliver(ctx context.Context, rec model.Submission) error
}

// Engine routes completed submissions to immediate delivery or offline
// queuing, and reconciles the pending queue on reconnect. It is the single
// writer of the Pending and Submissions namespaces.
type Engine struct {
	sweepMu sync.Mutex // serializes retry sweeps
	queueMu sync.Mutex // guards queue + archive reads-modify-writes

	store           *store.Store
	gateway         Gateway
	monitor         *Monitor
	drafts          *Drafts
	notify          Notifier
	deliveryTimeout time.Duration
	archiveLimit    int
}

func NewEngine(st *store.Store, gw Gateway, monitor *Monitor, drafts *Drafts, notify Notifier,
	deliveryTimeout time.Duration, archiveLimit int) *Engine {

	e := &Engine{
		store:           st,
		gateway:         gw,
		monitor:         monitor,
		drafts:          drafts,
		notify:          notify,
		deliveryTimeout: deliveryTimeout,
		archiveLimit:    archiveLimit,
	}
	monitor.OnOnline(func() {
		_, err := e.RetrySweep(context.Background())
		if err != nil {
			log.Errorf("sync.sweep: %s", err)
		}
	})
	return e
}

// Submit persists rec to the archive unconditionally, then either delivers
// it immediately (online) or appends it to the pending queue. A delivery
// failure while online degrades to the offline path instead of surfacing an
// error. Returns whether the record was delivered (or assumed delivered).
//
// Once either path completes, the originating draft, if any, is removed.
func (e *Engine) Submit(ctx context.Context, rec model.Submission, draftID string) (delivered bool, err error) {
	err = e.archive(ctx, rec)
	if err != nil {
		return false, err
	}

	if e.monitor.Online() {
		// an unconfigured gateway skips the call but still counts as the
		// online path, matching the remote-less trial setup
		if !e.gateway.Configured() {
			delivered = true
		} else {
			err := e.deliver(ctx, rec)
			if err != nil {
				log.Debugf("sync.submit.deliver: %s", err)
			}
			delivered = err == nil
		}
	}

	if !delivered {
		err = e.enqueue(ctx, rec)
		if err != nil {
			return false, err
		}
	}

	if draftID != "" {
		err = e.drafts.Remove(ctx, draftID)
		if err != nil {
			return delivered, err
		}
	}

	if delivered {
		e.notify.Notify("success", "Submission successful!")
	} else {
		e.notify.Notify("warning", "Saved offline - Will sync when online")
	}
	return delivered, nil
}

// RetrySweep attempts delivery of every currently queued entry, then removes
// exactly the delivered ones. Entries are identified by their queue id, and
// the reduced queue is recomputed against a fresh read of the stored queue,
// so a Submit racing the sweep can only ever add entries, never lose them.
func (e *Engine) RetrySweep(ctx context.Context) (int, error) {
	e.sweepMu.Lock()
	defer e.sweepMu.Unlock()

	if !e.gateway.Configured() {
		return 0, nil
	}

	snapshot, err := e.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(snapshot) == 0 {
		return 0, nil
	}

	// attempt every entry; one failure does not abort the rest
	deliveredIDs := map[string]bool{}
	for _, entry := range snapshot {
		err := e.deliver(ctx, entry.Record)
		if err != nil {
			log.Debugf("sync.sweep.deliver %s: %s", entry.ID, err)
			continue
		}
		deliveredIDs[entry.ID] = true
	}
	if len(deliveredIDs) == 0 {
		return 0, nil
	}

	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	queue := []model.PendingEntry{}
	err = e.store.Get(ctx, store.Pending, &queue)
	if err != nil {
		return 0, err
	}

	kept := queue[:0]
	for _, entry := range queue {
		if !deliveredIDs[entry.ID] {
			kept = append(kept, entry)
		}
	}
	err = e.store.Put(ctx, store.Pending, kept)
	if err != nil {
		return 0, err
	}

	e.notify.Notify("success", fmt.Sprintf("Synced %d submission(s)", len(deliveredIDs)))
	return len(deliveredIDs), nil
}

func (e *Engine) deliver(ctx context.Context, rec model.Submission) error {
	ctx, cancel := context.WithTimeout(ctx, e.deliveryTimeout)
	defer cancel()
	return e.gateway.Deliver(ctx, rec)
}

func (e *Engine) archive(ctx context.Context, rec model.Submission) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	archive := []model.Submission{}
	err := e.store.Get(ctx, store.Submissions, &archive)
	if err != nil {
		return err
	}

	archive = append(archive, rec)
	if e.archiveLimit > 0 && len(archive) > e.archiveLimit {
		archive = archive[len(archive)-e.archiveLimit:]
	}
	return e.store.Put(ctx, store.Submissions, archive)
}

func (e *Engine) enqueue(ctx context.Context, rec model.Submission) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	queue := []model.PendingEntry{}
	err := e.store.Get(ctx, store.Pending, &queue)
	if err != nil {
		return err
	}

	queue = append(queue, model.PendingEntry{ID: uuid.NewString(), Record: rec})
	return e.store.Put(ctx, store.Pending, queue)
}

// Archive returns the local submission history, the source of truth for
// local reporting when the gateway is unreachable.
func (e *Engine) Archive(ctx context.Context) ([]model.Submission, error) {
	archive := []model.Submission{}
	err := e.store.Get(ctx, store.Submissions, &archive)
	if err != nil {
		return nil, err
	}
	return archive, nil
}

func (e *Engine) Pending(ctx context.Context) ([]model.PendingEntry, error) {
	queue := []model.PendingEntry{}
	err := e.store.Get(ctx, store.Pending, &queue)
	if err != nil {
		return nil, err
	}
	return queue, nil
}
