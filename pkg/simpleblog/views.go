package simpleblog

import (
	"context"
	"log/slog"
)

// ViewCounter records post reads. Increment is best effort: a failed
// increment is logged and never reported to the caller.
type ViewCounter struct {
	repository Repository
	logger     *slog.Logger
}

// NewViewCounter creates a view counter over repo
func NewViewCounter(repo Repository, logger *slog.Logger) *ViewCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewCounter{repository: repo, logger: logger}
}

// Increment adds one view to postID
func (v *ViewCounter) Increment(ctx context.Context, postID string) {
	if err := v.repository.IncrementViews(ctx, postID); err != nil {
		v.logger.WarnContext(ctx, "Failed to increment post views", "post_id", postID, "error", err)
	}
}
