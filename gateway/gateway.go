// Package gateway talks to the spreadsheet web-app endpoint that stores
// submissions centrally, and to the text-completion endpoint behind the
// narrative reports.
//
// The submission endpoint is append-only and fire-and-forget: it gives no
// application-level acknowledgement, so "delivered" only ever means "the
// request completed without a transport error". Callers wanting a stronger
// guarantee can turn on ConfirmDelivery, which at least requires a 2xx
// status before an entry is considered delivered.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/nmcp-sl/supervise/config"
	"github.com/nmcp-sl/supervise/model"
)

type Client struct {
	url             string
	reportURL       string
	reportKey       string
	confirmDelivery bool
	http            *http.Client
}

func New(cfg config.Config) *Client {
	url := cfg.GatewayURL
	if !cfg.GatewayConfigured() {
		url = ""
	}
	return &Client{
		url:             url,
		reportURL:       cfg.ReportURL,
		reportKey:       cfg.ReportAPIKey,
		confirmDelivery: cfg.ConfirmDelivery,
		http:            &http.Client{},
	}
}

// NewWithURLs is the test seam: it skips the placeholder check.
func NewWithURLs(gatewayURL, reportURL, reportKey string, confirmDelivery bool) *Client {
	return &Client{
		url:             gatewayURL,
		reportURL:       reportURL,
		reportKey:       reportKey,
		confirmDelivery: confirmDelivery,
		http:            &http.Client{},
	}
}

// Configured reports whether the submission endpoint is usable. An
// unconfigured endpoint short-circuits sync with no action and no error.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Deliver posts one submission. Timeout and cancellation come from ctx.
func (c *Client) Deliver(ctx context.Context, rec model.Submission) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if c.confirmDelivery && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return fmt.Errorf("gateway.deliver: status %d", resp.StatusCode)
	}
	return nil
}

// Row is one spreadsheet row as returned by the query endpoint: column
// headers lower-cased and underscore-joined, all values stringly.
type Row map[string]string

// FetchRows reads every stored submission back through ?action=getData.
func (c *Client) FetchRows(ctx context.Context) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?action=getData", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway.fetch_rows: status %d", resp.StatusCode)
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	err = render.DecodeJSON(resp.Body, &payload)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(payload.Data))
	for i, raw := range payload.Data {
		row := Row{}
		for key, value := range raw {
			if value == nil {
				row[model.SheetKey(key)] = ""
				continue
			}
			row[model.SheetKey(key)] = fmt.Sprint(value)
		}
		rows[i] = row
	}
	return rows, nil
}
