package pipeline

import (
	"context"
	"errors"
	"fmt"

	"dreampulse/freepik"
	"dreampulse/logger"
	"dreampulse/prompt"
	"dreampulse/types"
)

// Analyzer turns raw dream text into an analysis
type Analyzer interface {
	Analyze(ctx context.Context, text string) (types.Analysis, error)
}

// VideoGenerator renders a prompt into a finished video task
type VideoGenerator interface {
	Generate(ctx context.Context, prompt string, opts freepik.Options) (*types.VideoTask, error)
}

// Pipeline runs analysis, prompt resolution and video generation in order
type Pipeline struct {
	analyzer  Analyzer
	resolver  *prompt.Resolver
	generator VideoGenerator
	log       *logger.Logger
}

// New wires a Pipeline. A nil resolver uses the heuristic tiers only.
func New(analyzer Analyzer, resolver *prompt.Resolver, generator VideoGenerator, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	if resolver == nil {
		resolver = prompt.NewResolver(nil, log)
	}
	return &Pipeline{analyzer: analyzer, resolver: resolver, generator: generator, log: log}
}

// Run generates a video for dreamText. Analysis, an empty prompt and
// video generation are fatal; the prompt pipeline is best effort.
func (p *Pipeline) Run(ctx context.Context, dreamText string, opts freepik.Options) (*types.PipelineResult, error) {
	p.log.Info("analyzing dream", "chars", len(dreamText))
	analysis, err := p.analyzer.Analyze(ctx, dreamText)
	if err != nil {
		return nil, fmt.Errorf("analyze dream: %w", err)
	}

	res, err := p.resolver.Resolve(ctx, analysis, dreamText)
	if err != nil {
		if errors.Is(err, prompt.ErrEmptyPrompt) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve prompt: %w", err)
	}
	p.log.Info("resolved video prompt", "source", res.Source, "prompt", res.Prompt)

	video, err := p.generator.Generate(ctx, res.Prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("generate video: %w", err)
	}

	return &types.PipelineResult{
		Analysis:         analysis,
		Prompt:           res.Prompt,
		PromptSource:     string(res.Source),
		PipelineResponse: res.PipelineResponse,
		Video:            video,
	}, nil
}
