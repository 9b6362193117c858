package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fitleague/fitleague/internal/entries"
	jobmetrics "github.com/fitleague/fitleague/internal/jobs"
)

// SweepService is the slice of the entries service the sweep job needs.
type SweepService interface {
	SweepAutoApprove(ctx context.Context, cutoffHours int) (entries.SweepResult, error)
}

// NewEntriesSweepHandler builds the Asynq handler that auto-approves stale
// pending entries.
func NewEntriesSweepHandler(svc SweepService, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload EntriesAutoApprovePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		tracker := metrics.Track("entries_sweep")
		result, err := svc.SweepAutoApprove(ctx, payload.CutoffHours)
		if err != nil {
			logger.Error("entries sweep", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddSweepApprovals(result.ApprovedCount)
		logger.Info("entries sweep complete",
			slog.Int("approved", result.ApprovedCount),
			slog.Int("cutoff_hours", payload.CutoffHours))
		return tracker.End(nil)
	}
}
