package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/nmcp-sl/supervise/app"
	"github.com/nmcp-sl/supervise/httpx"
	"github.com/nmcp-sl/supervise/log"
	"github.com/nmcp-sl/supervise/model"
	"github.com/nmcp-sl/supervise/syncer"
)

// SaveDraft upserts the draft of the active editing session. The payload is
// the flat field mapping plus the reserved currentSection key; the first
// save mints the draftId, later saves replace in place.
func SaveDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft model.Draft
		err := render.DecodeJSON(r.Body, &draft)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		saved, err := app.Drafts.Save(r.Context(), draft.Fields, draft.CurrentSection)
		if err != nil {
			httpx.LogInternalError(w, "store.save_draft", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

func ListDrafts(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drafts, err := app.Drafts.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.get_drafts", err)
			return
		}
		render.JSON(w, r, drafts)
	}
}

func LoadDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID := chi.URLParam(r, "id")

		draft, err := app.Drafts.Load(r.Context(), draftID)
		if errors.Is(err, syncer.ErrDraftNotFound) {
			httpx.LogNotFound(w, "get_draft", draftID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "store.get_draft", err)
			return
		}

		render.JSON(w, r, draft)
	}
}

func DeleteDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID := chi.URLParam(r, "id")

		err := app.Drafts.Delete(r.Context(), draftID)
		if err != nil {
			httpx.LogInternalError(w, "store.delete_draft", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
