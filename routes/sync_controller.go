package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/nmcp-sl/supervise/app"
	"github.com/nmcp-sl/supervise/httpx"
	"github.com/nmcp-sl/supervise/log"
	"github.com/nmcp-sl/supervise/model"
	"github.com/nmcp-sl/supervise/routes/middlewares"
)

// SetConnectivity is the environment's connectivity signal relay: the
// frontend forwards the browser's online/offline events here.
func SetConnectivity(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Online bool `json:"online"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		app.Monitor.Set(body.Online)
		render.JSON(w, r, map[string]any{
			"online": app.Monitor.Online(),
		})
	}
}

func GetStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drafts, err := app.Drafts.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.get_drafts", err)
			return
		}
		pending, err := app.Engine.Pending(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.get_pending", err)
			return
		}
		archive, err := app.Engine.Archive(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"online":      app.Monitor.Online(),
			"drafts":      len(drafts),
			"pending":     len(pending),
			"submissions": len(archive),
			"notices":     app.Notices.Recent(),
		})
	}
}

// SubmitForm finalizes a form. The payload is the flat field mapping, values
// either strings or arrays of strings (multi-selects get comma-joined). The
// optional draftId marks the draft this submission was promoted from.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := map[string]any{}
		err := render.DecodeJSON(r.Body, &raw)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		draftID, _ := raw["draftId"].(string)
		delete(raw, "draftId")
		if draftID == "" {
			draftID = app.Drafts.Active()
		}

		values := map[string][]string{}
		for name, value := range raw {
			switch v := value.(type) {
			case []any:
				for _, item := range v {
					values[name] = append(values[name], toString(item))
				}
			default:
				values[name] = []string{toString(v)}
			}
		}

		rec := model.NewSubmission(values, middlewares.Username(r), time.Now())

		delivered, err := app.Engine.Submit(r.Context(), rec, draftID)
		if err != nil {
			httpx.LogInternalError(w, "sync.submit", err)
			return
		}
		app.Drafts.ClearActive()

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"delivered": delivered,
			"queued":    !delivered,
		})
	}
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		archive, err := app.Engine.Archive(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "store.get_submissions", err)
			return
		}
		render.JSON(w, r, archive)
	}
}

// TriggerSync runs one retry sweep of the pending queue, the same sweep a
// reconnect triggers.
func TriggerSync(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		synced, err := app.Engine.RetrySweep(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "sync.sweep", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"synced": synced,
		})
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	// numbers and booleans from the form come through as JSON scalars
	return fmt.Sprint(v)
}
