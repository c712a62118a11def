package airia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dreampulse/logger"
	"dreampulse/types"
)

// Client calls an Airia pipeline execution endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a Client for one pipeline URL
func New(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "airia"),
	}
}

// ExecuteOptions are the optional request fields
type ExecuteOptions struct {
	AsyncOutput bool
	UserID      string
	// Extra is merged into the payload last.
	Extra map[string]any
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airia: HTTP %d: %s", e.Code, truncate(e.Body, 200))
}

// Execute runs the pipeline with userInput. Non-string input is sent as
// JSON text. The response is always normalized to an object.
func (c *Client) Execute(ctx context.Context, userInput any, opts ExecuteOptions) (*types.Object, error) {
	input, err := serializeInput(userInput)
	if err != nil {
		c.log.Warn("falling back to string serialization for user input", "type", fmt.Sprintf("%T", userInput), "error", err)
		input = fmt.Sprint(userInput)
	}

	payload := map[string]any{
		"userInput":   input,
		"asyncOutput": opts.AsyncOutput,
	}
	if opts.UserID != "" {
		payload["userId"] = opts.UserID
	}
	for k, v := range opts.Extra {
		payload[k] = v
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("sending payload to airia pipeline", "url", c.baseURL, "input_len", len(input))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airia request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read airia response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBytes)}
	}

	data, err := types.DecodeValue(respBytes)
	if err != nil {
		c.log.Error("could not decode airia response", "error", err)
		return nil, fmt.Errorf("parse airia response: %w", err)
	}
	return c.normalize(data), nil
}

// normalize unwraps a top-level "result" and coerces the payload into an
// object. A string result holding a JSON object is decoded so its keys
// can be searched.
func (c *Client) normalize(data any) *types.Object {
	normalized := data
	if obj, ok := data.(*types.Object); ok {
		if r, has := obj.Get("result"); has {
			normalized = r
		}
	}

	switch v := normalized.(type) {
	case *types.Object:
		return v
	case string:
		if embedded := parseEmbedded(v); embedded != nil {
			return embedded
		}
		return wrapResult(v)
	}

	c.log.Warn("unexpected airia payload", "type", fmt.Sprintf("%T", normalized))
	return wrapResult(normalized)
}

func parseEmbedded(s string) *types.Object {
	trimmed := cleanJSON(s)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	obj, err := types.ParseObject([]byte(trimmed))
	if err != nil {
		return nil
	}
	return obj
}

func wrapResult(v any) *types.Object {
	obj := types.NewObject()
	obj.Set("result", v)
	return obj
}

func serializeInput(userInput any) (string, error) {
	if s, ok := userInput.(string); ok {
		return s, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(userInput); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// cleanJSON strips markdown fences that LLM-backed pipelines like to add
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
