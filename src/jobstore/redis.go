package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// RedisStore is the Redis-backed dialect of the Job Store, used when
// the service runs with more than one process polling the same job
// set. Grounded on order_service's cacheOrder/getCachedOrder pattern
// (`order:%s` key convention adapted to `job:%s`).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a redis client as a JobStore. ttl is set as the
// key's expiry on every save, whatever the job's status; zero means no
// expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func jobKey(jobID string) string { return fmt.Sprintf("job:%s", jobID) }

func (r *RedisStore) Create(ctx context.Context, job *models.Job) error {
	return r.save(ctx, job)
}

func (r *RedisStore) UpdateProgress(ctx context.Context, jobID string, progress models.Progress) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = models.JobRunning
	job.Progress = progress
	return r.save(ctx, job)
}

func (r *RedisStore) SetResult(ctx context.Context, jobID string, result *models.Report, dataSource models.DataSource) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	result.DataSource = dataSource
	job.Result = result
	job.Status = models.JobCompleted
	job.Progress = models.Progress{Stage: models.StageFinalizing, Percent: 100, Message: "completed"}
	job.Error = ""
	return r.save(ctx, job)
}

func (r *RedisStore) SetError(ctx context.Context, jobID string, errMsg string) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = models.JobFailed
	job.Error = errMsg
	job.Result = nil
	return r.save(ctx, job)
}

func (r *RedisStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	data, err := r.client.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("jobstore: get %s: %w", jobID, err)
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("jobstore: decode %s: %w", jobID, err)
	}
	return &job, nil
}

func (r *RedisStore) save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: encode %s: %w", job.ID, err)
	}
	return r.client.Set(ctx, jobKey(job.ID), data, r.ttl).Err()
}

var _ JobStore = (*RedisStore)(nil)
