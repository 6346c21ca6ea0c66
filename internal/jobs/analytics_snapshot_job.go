package job

import (
	"context"
	"log/slog"
)

// AnalyticsSyncer is the analytics collaborator; snapshotting and external
// sync live entirely on its side.
type AnalyticsSyncer interface {
	Snapshot(ctx context.Context) error
}

type AnalyticsSnapshotJob struct {
	syncer AnalyticsSyncer
}

func NewAnalyticsSnapshotJob(syncer AnalyticsSyncer) *AnalyticsSnapshotJob {
	return &AnalyticsSnapshotJob{syncer: syncer}
}

func (j *AnalyticsSnapshotJob) Run() {
	if j.syncer == nil {
		return
	}
	if err := j.syncer.Snapshot(context.Background()); err != nil {
		slog.Error("analytics snapshot failed", "error", err)
	}
}
