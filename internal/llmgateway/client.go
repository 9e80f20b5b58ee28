// Package llmgateway implements the LLM Gateway (§4.B): a single round-trip
// call to the Anthropic-format chat-completion endpoint, plus extraction of
// a JSON object or a set of named code blocks from the free-form response.
package llmgateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/eroom-api/internal/models"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"
const anthropicVersion = "2023-06-01"

// CallParams are the per-role parameters the Pipeline draws from
// configuration for one round-trip (§4.B).
type CallParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client is the LLM Gateway. Its HTTP client is constructed once and reused
// across calls; construction is idempotent and safe under concurrent first use.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	logger     *slog.Logger
}

// New constructs a Client. apiKey is ANTHROPIC_KEY; timeout is the 30s
// connect/read/write bound from §5.
func New(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     anthropicAPIURL,
		apiKey:     apiKey,
		logger:     logger.With("component", "llmgateway"),
	}
}

// SetAPIURL overrides the provider endpoint, e.g. to point at an
// Anthropic-compatible gateway or, in tests, an httptest server.
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

// GenerateScenario calls the provider with the scenario system prompt and
// request data, then extracts and parses the JSON scenario document.
// Any failure (network, empty response, malformed JSON) is fatal to the job.
func (c *Client) GenerateScenario(ctx context.Context, systemPrompt string, requestData any, params CallParams) (*models.Scenario, error) {
	userContent, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("marshal scenario request data: %w", err)
	}

	text, err := c.call(ctx, systemPrompt, string(userContent), params)
	if err != nil {
		return nil, fmt.Errorf("scenario generation: %w", err)
	}

	jsonBody := extractJSONBlock(text)

	var scenario models.Scenario
	if err := json.Unmarshal([]byte(jsonBody), &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario JSON: %w", err)
	}

	return &scenario, nil
}

// GenerateScripts calls the provider with the scripts system prompt and
// request data, then extracts all fenced code blocks into a ScriptBundle.
// An empty resulting bundle is fatal to the job.
func (c *Client) GenerateScripts(ctx context.Context, systemPrompt string, requestData any, params CallParams) (models.ScriptBundle, error) {
	userContent, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("marshal scripts request data: %w", err)
	}

	text, err := c.call(ctx, systemPrompt, string(userContent), params)
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}

	bundle := extractScriptBundle(text, c.logger)
	if len(bundle) == 0 {
		return nil, fmt.Errorf("no script classes extracted from LLM response")
	}

	return bundle, nil
}

// call performs one round-trip to the Anthropic messages endpoint.
func (c *Client) call(ctx context.Context, systemPrompt, userContent string, params CallParams) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("no ANTHROPIC_KEY configured")
	}

	reqBody := map[string]any{
		"model":       params.Model,
		"max_tokens":  params.MaxTokens,
		"temperature": params.Temperature,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": userContent},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	c.logger.Debug("calling LLM provider", "model", params.Model, "max_tokens", params.MaxTokens, "temperature", params.Temperature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM provider error (status %d): %s", resp.StatusCode, string(body))
	}

	return parseAnthropicFormat(body)
}

// parseAnthropicFormat extracts the free-form text from an Anthropic-shaped
// chat-completion response.
func parseAnthropicFormat(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse LLM response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}
	return resp.Content[0].Text, nil
}

var fencedBlockPattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_-]*)\\r?\\n(.*?)\\r?\\n?```")

// extractJSONBlock implements §4.B's scenario extraction: the first fenced
// block whose language tag is empty or "json" (case-insensitive), else the
// entire response.
func extractJSONBlock(text string) string {
	matches := fencedBlockPattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		if lang == "" || lang == "json" {
			return strings.TrimSpace(m[2])
		}
	}
	return strings.TrimSpace(text)
}

var classDeclPattern = regexp.MustCompile(`public\s+(?:partial\s+)?class\s+(\w+)\s*[:{]`)

// extractScriptBundle implements §4.B's script extraction: find all fenced
// blocks, resolve a class name from each, apply the trailing-C rule, resolve
// collisions, and Base64-encode the original body.
func extractScriptBundle(text string, logger *slog.Logger) models.ScriptBundle {
	bundle := make(models.ScriptBundle)
	seen := make(map[string]int)

	matches := fencedBlockPattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		body := m[2]
		if strings.TrimSpace(body) == "" {
			continue
		}

		nameMatch := classDeclPattern.FindStringSubmatch(body)
		if nameMatch == nil {
			if logger != nil {
				logger.Warn("dropping fenced block with no class declaration")
			}
			continue
		}

		name := nameMatch[1]
		if strings.HasSuffix(name, "C") && name != "C" {
			name = strings.TrimSuffix(name, "C")
		}

		resolved := name
		if n, exists := seen[name]; exists {
			n++
			seen[name] = n
			resolved = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 0
		}

		bundle[resolved] = base64.StdEncoding.EncodeToString([]byte(body))
	}

	return bundle
}
