package types

// Analysis is whatever the analysis pipeline returned: an *Object for keyed
// payloads, or a bare string when the upstream service answered in prose.
type Analysis = any

// VideoTask holds the terminal state of one video generation job
type VideoTask struct {
	TaskID      string  `json:"task_id"`
	Status      string  `json:"status"`
	VideoURL    string  `json:"video_url"`
	FilePath    string  `json:"file_path,omitempty"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// YouTubeUpload records where a generated video was published
type YouTubeUpload struct {
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
}

// PipelineResult is assembled once per run and not modified afterwards
type PipelineResult struct {
	Analysis         Analysis   `json:"analysis"`
	Prompt           string     `json:"prompt"`
	PromptSource     string     `json:"prompt_source"`
	PipelineResponse *Object    `json:"prompt_pipeline_response,omitempty"`
	Video            *VideoTask `json:"video"`
}

// RunState tracks one CLI invocation and is written next to its outputs
type RunState struct {
	RunID       string          `json:"run_id"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at"`
	Dream       string          `json:"dream"`
	Result      *PipelineResult `json:"result,omitempty"`
	YouTube     *YouTubeUpload  `json:"youtube,omitempty"`
	RecordID    string          `json:"clickhouse_record_id,omitempty"`
	Error       string          `json:"error,omitempty"`
}
