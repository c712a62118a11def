package prompt

import (
	"context"
	"errors"
	"strings"
	"time"

	"dreampulse/logger"
	"dreampulse/types"
)

// Source records which tier produced a prompt.
type Source string

const (
	SourceRemotePipeline Source = "airia_prompt_pipeline"
	SourceHeuristic      Source = "fallback_builder"
)

// ErrEmptyPrompt is returned when every tier, the fallback text included,
// came up blank. Nothing below it can recover.
var ErrEmptyPrompt = errors.New("video prompt cannot be empty")

// Lookup asks a secondary pipeline to turn an analysis into a prompt payload.
type Lookup func(ctx context.Context, analysis any) (*types.Object, error)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Prompt string
	Source Source
	// PipelineResponse is the raw Lookup output, nil when Lookup was not
	// called or failed.
	PipelineResponse *types.Object
}

// Resolver turns an analysis into a video prompt: the remote pipeline
// first, then the analysis itself, then the caller's fallback text.
type Resolver struct {
	AnalysisKeys []string
	PipelineKeys []string
	// Lookup is optional.
	Lookup Lookup
	// LookupTimeout bounds a single Lookup call when positive.
	LookupTimeout time.Duration
	Log           *logger.Logger
}

// NewResolver returns a Resolver using the default key lists.
func NewResolver(lookup Lookup, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		AnalysisKeys: DefaultAnalysisKeys,
		PipelineKeys: DefaultPipelineKeys,
		Lookup:       lookup,
		Log:          log,
	}
}

// Resolve never fails because of the remote tier; its errors are logged
// and resolution moves on. The only error is ErrEmptyPrompt.
func (r *Resolver) Resolve(ctx context.Context, analysis any, fallback string) (Resolution, error) {
	log := r.Log
	if log == nil {
		log = logger.Nop()
	}
	var res Resolution

	if r.Lookup != nil && IsStructure(analysis) {
		resp, err := r.lookup(ctx, analysis)
		if err != nil {
			log.Warn("prompt pipeline failed; falling back to heuristic builder", "error", err)
		} else if resp != nil {
			res.PipelineResponse = resp
			if p := Extract(resp, r.PipelineKeys); p != "" {
				res.Prompt = p
				res.Source = SourceRemotePipeline
				return res, nil
			}
			log.Debug("prompt pipeline response held no prompt", "keys", resp.Keys())
		}
	}

	res.Source = SourceHeuristic
	res.Prompt = Extract(analysis, r.AnalysisKeys)
	if res.Prompt == "" {
		res.Prompt = fallback
	}
	if strings.TrimSpace(res.Prompt) == "" {
		return res, ErrEmptyPrompt
	}
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, analysis any) (*types.Object, error) {
	if r.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.LookupTimeout)
		defer cancel()
	}
	return r.Lookup(ctx, analysis)
}

// ResolvePrompt resolves with a single key list shared by both tiers.
func ResolvePrompt(ctx context.Context, analysis any, fallback string, keys []string, lookup Lookup) (string, Source, error) {
	r := &Resolver{AnalysisKeys: keys, PipelineKeys: keys, Lookup: lookup}
	res, err := r.Resolve(ctx, analysis, fallback)
	if err != nil {
		return "", res.Source, err
	}
	return res.Prompt, res.Source, nil
}
