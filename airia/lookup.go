package airia

import (
	"context"

	"dreampulse/prompt"
	"dreampulse/types"
)

// PromptLookup forwards an analysis to this client's pipeline, for use as
// the resolver's remote tier.
func (c *Client) PromptLookup(userID string) prompt.Lookup {
	return func(ctx context.Context, analysis any) (*types.Object, error) {
		return c.Execute(ctx, analysis, ExecuteOptions{UserID: userID})
	}
}

// Analyze runs the analysis pipeline on raw dream text
func (c *Client) Analyze(ctx context.Context, text string) (types.Analysis, error) {
	return c.Execute(ctx, text, ExecuteOptions{})
}
