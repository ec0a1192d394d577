// Package jobstore implements the Job Store (C10): job state keyed by
// job id, mutated only by the orchestrator and read atomically by
// everyone else.
package jobstore

import (
	"context"
	"errors"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// ErrNotFound is returned by Get when no job exists for the given id.
var ErrNotFound = errors.New("jobstore: job not found")

// JobStore is the interface consulted by the HTTP layer (reads) and
// mutated exclusively by the orchestrator (writes), per §4.10.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	UpdateProgress(ctx context.Context, jobID string, progress models.Progress) error
	SetResult(ctx context.Context, jobID string, result *models.Report, dataSource models.DataSource) error
	SetError(ctx context.Context, jobID string, errMsg string) error
	Get(ctx context.Context, jobID string) (*models.Job, error)
}
