package youtube

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"dreampulse/config"
	"dreampulse/logger"
	"dreampulse/types"
)

const titleMaxChars = 70

// Uploader publishes generated dream videos via the YouTube Data API v3
type Uploader struct {
	cfg config.YouTubeConfig
	log *logger.Logger
	// endpoint overrides the API base URL in tests.
	endpoint   string
	httpClient *http.Client
}

// New creates a new Uploader
func New(cfg config.YouTubeConfig, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Nop()
	}
	return &Uploader{cfg: cfg, log: log.With("component", "youtube")}
}

// Metadata is what the video will be published with
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// BuildMetadata derives publish metadata from the dream and its prompt.
// A nil result is treated as an empty one, so the dream text becomes the title.
func BuildMetadata(dreamText string, result *types.PipelineResult) Metadata {
	if result == nil {
		result = &types.PipelineResult{}
	}
	title := strings.TrimSpace(result.Prompt)
	if title == "" {
		title = strings.TrimSpace(dreamText)
	}
	title = strings.Join(strings.Fields(title), " ")
	if len([]rune(title)) > titleMaxChars {
		title = string([]rune(title)[:titleMaxChars-3]) + "..."
	}

	var sb strings.Builder
	sb.WriteString("Dream:\n")
	sb.WriteString(strings.TrimSpace(dreamText))
	sb.WriteString("\n\nVisual prompt:\n")
	sb.WriteString(result.Prompt)
	if result.Video != nil && result.Video.TaskID != "" {
		sb.WriteString(fmt.Sprintf("\n\nGeneration task: %s", result.Video.TaskID))
	}

	return Metadata{
		Title:       title,
		Description: sb.String(),
		Tags:        []string{"dream", "dream analysis", "ai video"},
	}
}

// Upload publishes videoFile and returns its id and watch URL
func (u *Uploader) Upload(ctx context.Context, videoFile string, meta Metadata) (*types.YouTubeUpload, error) {
	u.log.Info("authenticating with youtube api")

	opts := []option.ClientOption{}
	if u.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(u.httpClient))
	} else {
		client, err := u.oauthClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("youtube auth: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(client))
	}
	if u.endpoint != "" {
		opts = append(opts, option.WithEndpoint(u.endpoint))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  u.cfg.CategoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           u.cfg.Visibility,
			SelfDeclaredMadeForKids: u.cfg.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		u.log.Info("uploading video", "title", meta.Title, "size_mb", float64(fi.Size())/1024/1024)
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload: %w", err)
	}

	res := &types.YouTubeUpload{
		VideoID:  uploaded.Id,
		VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
	}
	u.log.Info("uploaded video", "video_id", res.VideoID, "url", res.VideoURL)
	return res, nil
}

// oauthClient exchanges the configured refresh token for an HTTP client
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	if u.cfg.ClientID == "" || u.cfg.ClientSecret == "" || u.cfg.RefreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     u.cfg.ClientID,
		ClientSecret: u.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: u.cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
