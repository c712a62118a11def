package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	configPath      string
	duration        int
	downloadPath    string
	model           string
	promptURL       string
	promptUserID    string
	storeClickHouse bool
	clickhouseTable string
	uploadYouTube   bool
	outputDir       string
	verbose         bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "dreampulse <dream>",
		Short: "Generate a dream analysis video with Freepik",
		Long: `dreampulse sends a dream description to an Airia analysis pipeline,
derives a short visual prompt from the analysis, and renders it into a
video with a Freepik text-to-video model.

The prompt comes from the Airia prompt pipeline when one is configured,
otherwise from well-known fields of the analysis, otherwise from the dream
text itself.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("duration") && opts.duration != 6 && opts.duration != 10 {
				return fmt.Errorf("--duration must be 6 or 10, got %d", opts.duration)
			}
			if opts.uploadYouTube && opts.downloadPath == "" {
				return fmt.Errorf("--upload-youtube requires --download")
			}
			return run(cmd.Context(), cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "config.yaml", "Optional YAML config file")
	f.IntVar(&opts.duration, "duration", 6, "Video duration in seconds (6 or 10)")
	f.StringVar(&opts.downloadPath, "download", "", "Optional path to save the generated video")
	f.StringVar(&opts.model, "model", "", "Freepik text-to-video model identifier (default minimax-hailuo-02-768p)")
	f.StringVar(&opts.promptURL, "prompt-url", "", "Override the Airia prompt pipeline URL (defaults to AIRIA_PROMPT_PIPELINE_URL)")
	f.StringVar(&opts.promptUserID, "prompt-user-id", "", "User identifier forwarded to the prompt pipeline")
	f.BoolVar(&opts.storeClickHouse, "store-clickhouse", false, "Persist the result into ClickHouse if credentials are configured")
	f.StringVar(&opts.clickhouseTable, "clickhouse-table", "", "ClickHouse table name override (defaults to CLICKHOUSE_TABLE)")
	f.BoolVar(&opts.uploadYouTube, "upload-youtube", false, "Publish the downloaded video to YouTube")
	f.StringVar(&opts.outputDir, "output", "", "Directory for run state (default from config, \"output\")")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func main() {
	// Local dev only; CI provides real environment variables.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
