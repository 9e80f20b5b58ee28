// Package meshgateway implements the Mesh Gateway (§4.C): fire-and-track
// submission of a single 3D mesh-generation job per object. It never polls
// for completion and never returns a Go error to the caller — any failure is
// folded into a sentinel tracking id so the pipeline can proceed with
// partial results.
package meshgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const meshyAPIURL = "https://api.meshy.ai/v2/text-to-3d"

// Client is the Mesh Gateway. Callers select the key for each call via
// keyIndex; Pipeline passes each object's ordinal among submitted mesh jobs
// so N rotating keys are used round-robin within a job.
type Client struct {
	httpClient *http.Client
	apiURL     string
	keys       []string
	logger     *slog.Logger
}

// New constructs a Client. keys is the ordered list of MESHY_KEY_n values;
// at least one must be non-empty for SubmitModel to ever succeed.
func New(keys []string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     meshyAPIURL,
		keys:       keys,
		logger:     logger.With("component", "meshgateway"),
	}
}

// SetAPIURL overrides the provider endpoint, e.g. in tests, to an
// httptest server.
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

// keyAt returns the key selected by keyIndex mod N, or "" if none configured.
func (c *Client) keyAt(keyIndex int) string {
	if len(c.keys) == 0 {
		return ""
	}
	i := keyIndex % len(c.keys)
	if i < 0 {
		i += len(c.keys)
	}
	return c.keys[i]
}

// sentinel builds a tracking id of the shape error-<kind>-<uuid>, used in
// place of a real resource_id whenever submission could not be completed.
func sentinel(kind string) string {
	return fmt.Sprintf("error-%s-%s", kind, uuid.NewString())
}

// SubmitModel submits one preview-mode text-to-3d job for objectName,
// authenticated with the key at keyIndex mod N, and returns a tracking id
// immediately. It never returns a Go error: on any failure (no key
// configured, network error, non-2xx status, unparsable body, empty
// resource_id) it logs the cause and returns a sentinel id.
func (c *Client) SubmitModel(ctx context.Context, prompt, objectName string, keyIndex int) string {
	key := c.keyAt(keyIndex)
	if key == "" {
		c.logger.Error("no mesh provider key configured", "object", objectName)
		return sentinel("local")
	}

	reqBody := map[string]any{
		"prompt":          prompt,
		"negative_prompt": "low quality, low resolution, low poly, ugly",
		"mode":            "preview",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.Error("marshal mesh request", "object", objectName, "error", err)
		return sentinel("local")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		c.logger.Error("create mesh request", "object", objectName, "error", err)
		return sentinel("local")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("mesh provider request failed", "object", objectName, "error", err)
		return sentinel("preview")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("read mesh response", "object", objectName, "error", err)
		return sentinel("preview")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("mesh provider error", "object", objectName, "status", resp.StatusCode, "body", string(body))
		return sentinel("local")
	}

	var parsed struct {
		ResourceID string `json:"resource_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("parse mesh response", "object", objectName, "error", err)
		return sentinel("preview")
	}
	if parsed.ResourceID == "" {
		c.logger.Error("mesh response missing resource id", "object", objectName)
		return sentinel("no-id")
	}

	return parsed.ResourceID
}
