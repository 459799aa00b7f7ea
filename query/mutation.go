package query

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mutation is a write that invalidates dependent reads when it succeeds.
type Mutation[In, Out any] struct {
	Name string
	Fn   func(ctx context.Context, in In) (Out, error)
	// Invalidates lists the keys to drop after a successful run.
	Invalidates func(in In, out Out) []Key
}

// Execute runs the mutation exactly once. On success the declared keys are
// invalidated before returning; a failed broadcast is logged and does not
// turn the mutation into a failure.
func (m Mutation[In, Out]) Execute(ctx context.Context, c *Client, in In) (Out, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := c.Logger().With("mutation", m.Name, "run_id", runID)

	out, err := m.Fn(ctx, in)
	if err != nil {
		log.DebugContext(ctx, "mutation failed", "error", err, "elapsed", time.Since(start))
		return out, err
	}

	if m.Invalidates != nil {
		keys := m.Invalidates(in, out)
		_ = c.Invalidate(ctx, keys...)
		log.DebugContext(ctx, "mutation succeeded", "invalidated", len(keys), "elapsed", time.Since(start))
	}
	return out, nil
}
