package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/nmcp-sl/supervise/app"
	"github.com/nmcp-sl/supervise/httpx"
	"github.com/nmcp-sl/supervise/log"
	"github.com/nmcp-sl/supervise/report"
)

func GetDashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := app.Reports.Stats(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "report.stats", err)
			return
		}
		render.JSON(w, r, stats)
	}
}

func GenerateReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type    string         `json:"type"`
			Filters report.Filters `json:"filters"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		text, err := app.Reports.Generate(r.Context(), body.Type, body.Filters)
		if errors.Is(err, report.ErrNoData) {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "report.generate", "no supervision data available")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "report.generate", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"report": text,
		})
	}
}
