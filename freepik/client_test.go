package freepik

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

type fakeAPI struct {
	t         *testing.T
	statuses  []string
	polls     atomic.Int32
	generated []string
	submitted map[string]any
	videoHits atomic.Int32
	videoFail int32
}

func (f *fakeAPI) server() *httptest.Server {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/image-to-video/test-model", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.Equal(f.t, "fp-key", r.Header.Get("x-freepik-api-key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(f.t, json.Unmarshal(raw, &f.submitted))
		fmt.Fprint(w, `{"data": {"task_id": "task-1", "status": "CREATED"}}`)
	})
	mux.HandleFunc("/image-to-video/test-model/task-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodGet, r.Method)
		assert.Equal(f.t, "fp-key", r.Header.Get("x-freepik-api-key"))
		n := int(f.polls.Add(1)) - 1
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}
		status := f.statuses[n]
		gen := []string{}
		if status == StatusCompleted {
			for _, g := range f.generated {
				gen = append(gen, srv.URL+g)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"task_id": "task-1", "status": status, "generated": gen},
		})
	})
	mux.HandleFunc("/files/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		if f.videoHits.Add(1) <= f.videoFail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "fake-mp4-bytes")
	})
	srv = httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	c := New("fp-key", srv.URL, nil)
	c.sleep = noSleep
	return c
}

func TestGeneratePollsUntilCompleted(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"IN_PROGRESS", "IN_PROGRESS", StatusCompleted}, generated: []string{"/files/video.mp4"}}
	srv := api.server()

	task, err := newTestClient(srv).Generate(context.Background(), "a surreal forest", Options{
		Model:           "test-model",
		Duration:        10,
		PromptOptimizer: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "task-1", task.TaskID)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, srv.URL+"/files/video.mp4", task.VideoURL)
	assert.Empty(t, task.FilePath)
	assert.EqualValues(t, 3, api.polls.Load())

	assert.Equal(t, "a surreal forest", api.submitted["prompt"])
	assert.Equal(t, "10", api.submitted["duration"])
	assert.Equal(t, true, api.submitted["prompt_optimizer"])
}

func TestGenerateFailedTask(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{StatusFailed}}
	srv := api.server()

	_, err := newTestClient(srv).Generate(context.Background(), "p", Options{Model: "test-model"})
	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusFailed, te.Status)
}

func TestGenerateNoGeneratedURLs(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{StatusCompleted}}
	srv := api.server()

	_, err := newTestClient(srv).Generate(context.Background(), "p", Options{Model: "test-model"})
	assert.ErrorContains(t, err, "did not include generated video URLs")
}

func TestGenerateTimeout(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"IN_PROGRESS"}}
	srv := api.server()

	c := newTestClient(srv)
	c.Timeout = -1
	_, err := c.Generate(context.Background(), "p", Options{Model: "test-model"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerateContextCancelled(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"IN_PROGRESS"}}
	srv := api.server()

	c := New("fp-key", srv.URL, nil)
	c.PollInterval = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "p", Options{Model: "test-model"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateDownloadsWithRetry(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{StatusCompleted}, generated: []string{"/files/video.mp4"}, videoFail: 1}
	srv := api.server()

	dest := filepath.Join(t.TempDir(), "nested", "dir", "dream.mp4")
	task, err := newTestClient(srv).Generate(context.Background(), "p", Options{Model: "test-model", DownloadPath: dest})
	require.NoError(t, err)

	assert.Equal(t, dest, task.FilePath)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4-bytes", string(data))
	assert.EqualValues(t, 2, api.videoHits.Load())
}

func TestDownloadGivesUp(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{StatusCompleted}, videoFail: 10}
	srv := api.server()

	_, err := newTestClient(srv).Download(context.Background(), srv.URL+"/files/video.mp4", filepath.Join(t.TempDir(), "v.mp4"))
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.EqualValues(t, 3, api.videoHits.Load())
}

func TestSubmitHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "invalid key"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Generate(context.Background(), "p", Options{})
	assert.ErrorContains(t, err, "HTTP 401")
}
