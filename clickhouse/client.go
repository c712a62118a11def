package clickhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dreampulse/logger"
)

// Client talks to the ClickHouse HTTP interface
type Client struct {
	baseURL    string
	username   string
	password   string
	database   string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a Client. An empty database selects "default".
func New(baseURL, username, password, database string, timeout time.Duration, log *logger.Logger) *Client {
	if database == "" {
		database = "default"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		database:   database,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "clickhouse"),
	}
}

// StatusError carries the server's exception text for non-2xx replies
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clickhouse: HTTP %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Execute runs query with an optional request body
func (c *Client) Execute(ctx context.Context, query string, body []byte) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse clickhouse url: %w", err)
	}
	params := u.Query()
	params.Set("database", c.database)
	params.Set("query", query)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)

	c.log.Debug("executing clickhouse query", "query", query)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(msg)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateTableIfNotExists creates the dream record table
func (c *Client) CreateTableIfNotExists(ctx context.Context, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id UUID,
    dream_text String,
    analysis_json String,
    prompt String,
    prompt_source String,
    prompt_pipeline_json String,
    freepik_video_url String,
    freepik_task_json String,
    created_at DateTime
)
ENGINE = MergeTree
ORDER BY (created_at, id)`, c.qualify(table))
	return c.Execute(ctx, ddl, nil)
}

// InsertJSONRows inserts rows using the JSONEachRow format. No rows is a no-op.
func (c *Client) InsertJSONRows(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	query := fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", c.qualify(table))
	return c.Execute(ctx, query, bytes.TrimRight(buf.Bytes(), "\n"))
}

func (c *Client) qualify(table string) string {
	if strings.Contains(table, ".") {
		return table
	}
	return c.database + "." + table
}
