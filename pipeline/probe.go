package pipeline

import (
	"context"

	"dreampulse/freepik"
	"dreampulse/logger"
	"dreampulse/types"
)

// DurationProber measures a local media file
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type probingGenerator struct {
	next   VideoGenerator
	prober DurationProber
	log    *logger.Logger
}

// WithProbe measures downloaded videos after next returns them. Probe
// failures are logged and leave DurationSec at zero.
func WithProbe(next VideoGenerator, prober DurationProber, log *logger.Logger) VideoGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &probingGenerator{next: next, prober: prober, log: log}
}

func (g *probingGenerator) Generate(ctx context.Context, prompt string, opts freepik.Options) (*types.VideoTask, error) {
	task, err := g.next.Generate(ctx, prompt, opts)
	if err != nil || task == nil || task.FilePath == "" {
		return task, err
	}
	dur, perr := g.prober.Duration(ctx, task.FilePath)
	if perr != nil {
		g.log.Warn("could not measure downloaded video", "path", task.FilePath, "error", perr)
		return task, nil
	}
	task.DurationSec = dur
	return task, nil
}
