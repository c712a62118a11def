package clickhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dreampulse/types"
)

const timeLayout = "2006-01-02 15:04:05"

// Record is one flattened pipeline run
type Record struct {
	ID                 string `json:"id"`
	DreamText          string `json:"dream_text"`
	AnalysisJSON       string `json:"analysis_json"`
	Prompt             string `json:"prompt"`
	PromptSource       string `json:"prompt_source"`
	PromptPipelineJSON string `json:"prompt_pipeline_json"`
	FreepikVideoURL    string `json:"freepik_video_url"`
	FreepikTaskJSON    string `json:"freepik_task_json"`
	CreatedAt          string `json:"created_at"`
}

// BuildRecord flattens result into a Record stamped with now (UTC)
func BuildRecord(dreamText string, result *types.PipelineResult, now time.Time) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		DreamText: dreamText,
		CreatedAt: now.UTC().Format(timeLayout),
	}
	if result == nil {
		return rec, nil
	}
	rec.Prompt = result.Prompt
	rec.PromptSource = result.PromptSource

	var err error
	if rec.AnalysisJSON, err = marshalString(result.Analysis); err != nil {
		return rec, fmt.Errorf("marshal analysis: %w", err)
	}
	if result.PipelineResponse != nil && result.PipelineResponse.Len() > 0 {
		if rec.PromptPipelineJSON, err = marshalString(result.PipelineResponse); err != nil {
			return rec, fmt.Errorf("marshal prompt pipeline response: %w", err)
		}
	}
	rec.FreepikTaskJSON = "{}"
	if result.Video != nil {
		rec.FreepikVideoURL = result.Video.VideoURL
		if rec.FreepikTaskJSON, err = marshalString(result.Video); err != nil {
			return rec, fmt.Errorf("marshal video task: %w", err)
		}
	}
	return rec, nil
}

// Persist builds a record for result and inserts it into table
func Persist(ctx context.Context, c *Client, table, dreamText string, result *types.PipelineResult) (Record, error) {
	rec, err := BuildRecord(dreamText, result, time.Now())
	if err != nil {
		return rec, err
	}
	if err := c.InsertJSONRows(ctx, table, []any{rec}); err != nil {
		return rec, fmt.Errorf("insert record: %w", err)
	}
	c.log.Info("stored pipeline record", "table", c.qualify(table), "id", rec.ID)
	return rec, nil
}

// marshalString encodes v compactly and leaves &, < and > unescaped
func marshalString(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
