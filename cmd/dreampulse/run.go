package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dreampulse/airia"
	"dreampulse/clickhouse"
	"dreampulse/config"
	"dreampulse/freepik"
	"dreampulse/logger"
	"dreampulse/media"
	"dreampulse/pipeline"
	"dreampulse/prompt"
	"dreampulse/types"
	"dreampulse/youtube"
)

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("duration") {
		cfg.Freepik.Duration = opts.duration
	}
	if opts.model != "" {
		cfg.Freepik.Model = opts.model
	}
	if opts.promptURL != "" {
		cfg.Airia.PromptPipelineURL = opts.promptURL
	}
	if opts.promptUserID != "" {
		cfg.Airia.UserID = opts.promptUserID
	}
	if opts.clickhouseTable != "" {
		cfg.ClickHouse.Table = opts.clickhouseTable
	}
	if opts.outputDir != "" {
		cfg.Paths.Output = opts.outputDir
	}
	if err := cfg.Validate(opts.storeClickHouse, opts.uploadYouTube); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, dream string, opts *options) (err error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode, opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	log = log.With("run_id", runID)
	log.Info("dreampulse starting", "output_dir", runDir)

	state := &types.RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Dream:     dream,
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		if err != nil {
			state.Error = err.Error()
		}
		saveJSON(log, filepath.Join(runDir, "pipeline_state.json"), state)
	}()

	analyzer := airia.New(cfg.Airia.PipelineURL, cfg.Airia.APIKey, cfg.Airia.Timeout, log)
	var lookup prompt.Lookup
	if cfg.Airia.PromptPipelineURL != "" {
		promptClient := airia.New(cfg.Airia.PromptPipelineURL, cfg.Airia.APIKey, cfg.Airia.PromptTimeout, log)
		lookup = promptClient.PromptLookup(cfg.Airia.UserID)
	}
	resolver := prompt.NewResolver(lookup, log.With("component", "prompt"))
	resolver.LookupTimeout = cfg.Airia.PromptTimeout

	videoClient := freepik.New(cfg.Freepik.APIKey, cfg.Freepik.BaseURL, log)
	videoClient.PollInterval = cfg.Freepik.PollInterval
	videoClient.Timeout = cfg.Freepik.Timeout

	p := pipeline.New(analyzer, resolver, pipeline.WithProbe(videoClient, media.Prober{}, log), log)
	result, err := p.Run(ctx, dream, freepik.Options{
		Model:           cfg.Freepik.Model,
		Duration:        cfg.Freepik.Duration,
		PromptOptimizer: cfg.Freepik.PromptOptimizer,
		DownloadPath:    opts.downloadPath,
	})
	if err != nil {
		return err
	}
	state.Result = result

	log.Info("dream analysis", "analysis", result.Analysis)
	log.Info("prompt source", "source", result.PromptSource)
	log.Info("video prompt", "prompt", result.Prompt)
	log.Info("freepik video task", "task_id", result.Video.TaskID, "status", result.Video.Status,
		"video_url", result.Video.VideoURL, "file_path", result.Video.FilePath, "duration_sec", result.Video.DurationSec)

	if opts.uploadYouTube {
		uploader := youtube.New(cfg.YouTube, log)
		upload, uerr := uploader.Upload(ctx, result.Video.FilePath, youtube.BuildMetadata(dream, result))
		if uerr != nil {
			log.Warn("youtube upload failed; continuing", "error", uerr)
		} else {
			state.YouTube = upload
		}
	}

	if opts.storeClickHouse {
		ch := clickhouse.New(cfg.ClickHouse.URL, cfg.ClickHouse.User, cfg.ClickHouse.Password,
			cfg.ClickHouse.Database, cfg.ClickHouse.Timeout, log)
		if err := ch.CreateTableIfNotExists(ctx, cfg.ClickHouse.Table); err != nil {
			return fmt.Errorf("create clickhouse table: %w", err)
		}
		record, err := clickhouse.Persist(ctx, ch, cfg.ClickHouse.Table, dream, result)
		if err != nil {
			return err
		}
		state.RecordID = record.ID
		log.Info("clickhouse record stored", "id", record.ID)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Video.VideoURL)
	return nil
}

func saveJSON(log *logger.Logger, path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn("could not marshal state", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn("could not save state", "path", path, "error", err)
	}
}
