package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

const reportModel = "claude-sonnet-4-20250514"

// Complete sends one free-text prompt to the completion endpoint and returns
// the generated text. No retry, no backoff: report generation is an
// interactive, user-triggered call.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.reportKey == "" {
		return "", errors.New("report API key not configured")
	}

	body, err := json.Marshal(map[string]any{
		"model":      reportModel,
		"max_tokens": 4096,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.reportURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.reportKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		render.DecodeJSON(resp.Body, &apiErr)
		if apiErr.Error.Message != "" {
			return "", errors.New(apiErr.Error.Message)
		}
		return "", fmt.Errorf("gateway.complete: status %d", resp.StatusCode)
	}

	var payload struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	err = render.DecodeJSON(resp.Body, &payload)
	if err != nil {
		return "", err
	}
	if len(payload.Content) == 0 {
		return "", errors.New("gateway.complete: empty completion")
	}
	return payload.Content[0].Text, nil
}
