package store

import (
	"context"
	"time"
)

// Store archives run reports. Archived runs are never read back by the
// pipelines themselves.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns run summaries (without items), newest first. An empty
	// stage matches every stage.
	ListRuns(ctx context.Context, stage string, limit int) ([]Run, error)
}

// Run is one archived pipeline run
type Run struct {
	ID         string
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Skipped    int
	Failed     int
	Items      []Item
	Unmatched  []string
}

// Item is the recorded outcome for one document
type Item struct {
	Path    string
	Outcome string // succeeded, skipped, failed
	Reason  string
	Error   string
}
