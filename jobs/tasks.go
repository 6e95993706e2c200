package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vatdesk/vatdesk/internal/vies"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeViesRefresh re-validates cached VIES verdicts before they expire.
	TaskTypeViesRefresh = "vies:refresh"
)

// ViesRefreshPayload controls a VIES cache refresh run.
type ViesRefreshPayload struct {
	Concurrency int `json:"concurrency"`
}

// NewViesRefreshTask constructs an Asynq task.
func NewViesRefreshTask(payload ViesRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeViesRefresh, data), nil
}

// NewViesRefreshHandler processes TaskTypeViesRefresh tasks.
func NewViesRefreshHandler(client *vies.Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ViesRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		refreshed, err := client.RefreshCached(ctx, payload.Concurrency)
		if err != nil {
			logger.Error("vies refresh", slog.Any("error", err))
			return err
		}
		logger.Info("vies refresh complete", slog.Int("refreshed", refreshed))
		return nil
	}
}
