package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agendaviva/ingest/internal/model"
)

// BatchOptions tunes a batch classification run.
type BatchOptions struct {
	// StopOnError aborts the run at the first failed input. Remaining
	// inputs get no Result.
	StopOnError bool

	// RequestDelay is an extra pause between inputs, on top of whatever
	// rate limiting the client applies.
	RequestDelay time.Duration

	// OnProgress, when set, is called after each input with its index,
	// the total count and the result.
	OnProgress func(index, total int, result Result)
}

// ClassifyBatch classifies inputs sequentially, preserving input order in
// the returned slice. Individual failures do not stop the run unless
// StopOnError is set; context cancellation always does.
func (c *Classifier) ClassifyBatch(ctx context.Context, inputs []model.ClassificationInput, opts BatchOptions) []Result {
	results := make([]Result, 0, len(inputs))

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("classify: batch canceled",
				zap.Int("processed", i),
				zap.Int("total", len(inputs)))
			return results
		}

		res := c.Classify(ctx, input)
		results = append(results, res)

		if opts.OnProgress != nil {
			opts.OnProgress(i, len(inputs), res)
		}

		if !res.Success {
			zap.L().Warn("classify: input failed",
				zap.Int("index", i),
				zap.String("error", res.Err))
			if opts.StopOnError {
				return results
			}
		}

		if opts.RequestDelay > 0 && i < len(inputs)-1 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(opts.RequestDelay):
			}
		}
	}

	return results
}
