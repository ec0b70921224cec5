package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nmcp-sl/supervise/model"
	"github.com/nmcp-sl/supervise/store"
)

var ErrDraftNotFound = errors.New("draft not found")

// Drafts manages the persisted collection of in-progress forms, keyed by
// draftId, plus the association to the currently edited form instance. The
// manager is the single writer of the Drafts namespace.
type Drafts struct {
	mu     sync.Mutex
	store  *store.Store
	notify Notifier
	active string
	now    func() time.Time
}

func NewDrafts(st *store.Store, notify Notifier) *Drafts {
	return &Drafts{store: st, notify: notify, now: time.Now}
}

// Save upserts the active draft. The first save of an editing session mints
// a stable draftId; every later save replaces the stored entry in place and
// refreshes savedAt and currentSection.
func (d *Drafts) Save(ctx context.Context, fields model.Fields, currentSection int) (model.Draft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft := model.Draft{
		DraftID:        d.active,
		SavedAt:        d.now().UTC().Format(time.RFC3339),
		CurrentSection: currentSection,
		Fields:         fields,
	}
	if draft.DraftID == "" {
		draft.DraftID = model.MintDraftID(d.now())
	}

	var drafts []model.Draft
	err := d.store.Get(ctx, store.Drafts, &drafts)
	if err != nil {
		return model.Draft{}, err
	}

	replaced := false
	for i := range drafts {
		if drafts[i].DraftID == draft.DraftID {
			drafts[i] = draft
			replaced = true
			break
		}
	}
	if !replaced {
		drafts = append(drafts, draft)
	}

	err = d.store.Put(ctx, store.Drafts, drafts)
	if err != nil {
		return model.Draft{}, err
	}

	d.active = draft.DraftID
	d.notify.Notify("success", "Draft saved!")
	return draft, nil
}

// Load returns the stored draft and makes it the active editing session, so
// the next Save replaces it instead of minting a new id.
func (d *Drafts) Load(ctx context.Context, draftID string) (model.Draft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var drafts []model.Draft
	err := d.store.Get(ctx, store.Drafts, &drafts)
	if err != nil {
		return model.Draft{}, err
	}

	for _, draft := range drafts {
		if draft.DraftID == draftID {
			d.active = draftID
			d.notify.Notify("success", "Draft loaded")
			return draft, nil
		}
	}
	return model.Draft{}, ErrDraftNotFound
}

// Delete removes the draft. A missing id is a no-op. When the active editing
// session matches, the association is cleared so further saves mint a fresh
// id. Confirmation is a caller concern.
func (d *Drafts) Delete(ctx context.Context, draftID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteLocked(ctx, draftID, true)
}

// deleteLocked is shared with the engine's draft promotion, which must not
// emit a draft notice of its own.
func (d *Drafts) deleteLocked(ctx context.Context, draftID string, notice bool) error {
	var drafts []model.Draft
	err := d.store.Get(ctx, store.Drafts, &drafts)
	if err != nil {
		return err
	}

	kept := drafts[:0]
	for _, draft := range drafts {
		if draft.DraftID != draftID {
			kept = append(kept, draft)
		}
	}
	if len(kept) == len(drafts) {
		return nil
	}

	err = d.store.Put(ctx, store.Drafts, kept)
	if err != nil {
		return err
	}

	if d.active == draftID {
		d.active = ""
	}
	if notice {
		d.notify.Notify("info", "Draft deleted")
	}
	return nil
}

// Remove is the promotion path: called by the sync engine once the form a
// draft represents has been submitted (delivered or queued).
func (d *Drafts) Remove(ctx context.Context, draftID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteLocked(ctx, draftID, false)
}

func (d *Drafts) List(ctx context.Context) ([]model.Draft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	drafts := []model.Draft{}
	err := d.store.Get(ctx, store.Drafts, &drafts)
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func (d *Drafts) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// ClearActive detaches the editing session without touching storage, the
// equivalent of resetting the form.
func (d *Drafts) ClearActive() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = ""
}
