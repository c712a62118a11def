package freepik

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dreampulse/logger"
	"dreampulse/types"
)

const (
	DefaultBaseURL = "https://api.freepik.com/v1/ai"
	DefaultModel   = "minimax-hailuo-02-768p"

	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// ErrTimeout is returned when a task does not finish within Client.Timeout
var ErrTimeout = errors.New("timed out waiting for freepik video generation")

// TaskError reports a task that finished without producing a video
type TaskError struct {
	TaskID string
	Status string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("freepik task %s finished with status %s", e.TaskID, e.Status)
}

// Client submits text-to-video jobs and waits for them
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	PollInterval time.Duration
	Timeout      time.Duration
	log          *logger.Logger
	sleep        func(context.Context, time.Duration) error
}

// New creates a Client. An empty baseURL selects the public API.
func New(apiKey, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		PollInterval: 3 * time.Second,
		Timeout:      600 * time.Second,
		log:          log.With("component", "freepik"),
		sleep:        sleepCtx,
	}
}

// Options tune one generation request
type Options struct {
	Model           string
	Duration        int
	PromptOptimizer bool
	// DownloadPath, when set, receives the generated video.
	DownloadPath string
	Extra        map[string]any
}

type taskEnvelope struct {
	Data struct {
		TaskID    string   `json:"task_id"`
		Status    string   `json:"status"`
		Generated []string `json:"generated"`
	} `json:"data"`
}

// Generate submits prompt, polls until the task is terminal and optionally
// downloads the first generated video.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (*types.VideoTask, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Duration == 0 {
		opts.Duration = 6
	}
	endpoint := fmt.Sprintf("%s/image-to-video/%s", c.baseURL, opts.Model)

	payload := map[string]any{
		"prompt":           prompt,
		"duration":         strconv.Itoa(opts.Duration),
		"prompt_optimizer": opts.PromptOptimizer,
	}
	for k, v := range opts.Extra {
		payload[k] = v
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.log.Debug("submitting video generation", "endpoint", endpoint)
	task, err := c.do(ctx, http.MethodPost, endpoint, bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("submit task: %w", err)
	}
	taskID := task.Data.TaskID
	if taskID == "" {
		return nil, fmt.Errorf("freepik response did not include a task id")
	}

	statusEndpoint := endpoint + "/" + taskID
	start := time.Now()
	status := task.Data.Status
	if status == "" {
		status = "PENDING"
	}
	for status != StatusCompleted && status != StatusFailed {
		if time.Since(start) > c.Timeout {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrTimeout)
		}
		if err := c.sleep(ctx, c.PollInterval); err != nil {
			return nil, err
		}
		task, err = c.do(ctx, http.MethodGet, statusEndpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("poll task %s: %w", taskID, err)
		}
		status = task.Data.Status
		if status == "" {
			status = "PENDING"
		}
		c.log.Debug("task status", "task_id", taskID, "status", status)
	}

	if status != StatusCompleted {
		return nil, &TaskError{TaskID: taskID, Status: status}
	}
	if len(task.Data.Generated) == 0 {
		return nil, fmt.Errorf("freepik response did not include generated video URLs")
	}

	result := &types.VideoTask{
		TaskID:   taskID,
		Status:   status,
		VideoURL: task.Data.Generated[0],
	}
	if opts.DownloadPath != "" {
		path, err := c.Download(ctx, result.VideoURL, opts.DownloadPath)
		if err != nil {
			return nil, err
		}
		result.FilePath = path
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*taskEnvelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-freepik-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from freepik: %s", resp.StatusCode, truncate(string(respBytes), 200))
	}

	var env taskEnvelope
	if err := json.Unmarshal(respBytes, &env); err != nil {
		return nil, fmt.Errorf("parse freepik response: %w", err)
	}
	return &env, nil
}

// Download saves videoURL to filePath, creating parent directories.
// It retries up to 3 times since CDN links are occasionally slow to appear.
func (c *Client) Download(ctx context.Context, videoURL, filePath string) (string, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		err = c.downloadOnce(ctx, videoURL, filePath)
		if err == nil {
			c.log.Info("downloaded video", "path", filePath)
			return filePath, nil
		}
		c.log.Warn("download attempt failed", "attempt", attempt, "error", err)
		if attempt < 3 {
			if serr := c.sleep(ctx, time.Duration(attempt)*time.Second); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("download video after 3 attempts: %w", err)
}

func (c *Client) downloadOnce(ctx context.Context, videoURL, filePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d downloading video", resp.StatusCode)
	}

	tmp := filePath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filePath)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
