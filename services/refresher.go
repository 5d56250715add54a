package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/types"
)

// RefreshJob writes one batch into a content cache.
type RefreshJob struct {
	Type types.ContentType
	Run  func(ctx context.Context) error
}

// CacheRefresher populates content caches off the request path. It is a
// suture service; jobs enqueued while it is down wait in the buffer.
type CacheRefresher struct {
	jobs       chan RefreshJob
	jobTimeout time.Duration
}

func NewCacheRefresher(queueSize int, jobTimeout time.Duration) *CacheRefresher {
	if queueSize <= 0 {
		queueSize = 32
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &CacheRefresher{jobs: make(chan RefreshJob, queueSize), jobTimeout: jobTimeout}
}

// Enqueue never blocks. A full queue drops the job and reports false.
func (r *CacheRefresher) Enqueue(job RefreshJob) bool {
	select {
	case r.jobs <- job:
		metrics.CacheRefreshQueueDepth.Set(float64(len(r.jobs)))
		return true
	default:
		metrics.CacheRefreshJobs.WithLabelValues(string(job.Type), "dropped").Inc()
		log.Warn().Str("type", string(job.Type)).Msg("cache refresh queue full, dropping job")
		return false
	}
}

// Serve implements suture.Service.
func (r *CacheRefresher) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-r.jobs:
			metrics.CacheRefreshQueueDepth.Set(float64(len(r.jobs)))
			r.run(ctx, job)
		}
	}
}

func (r *CacheRefresher) run(ctx context.Context, job RefreshJob) {
	ctx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		metrics.CacheRefreshJobs.WithLabelValues(string(job.Type), "failure").Inc()
		log.Error().Err(err).Str("type", string(job.Type)).Msg("cache refresh failed")
		return
	}
	metrics.CacheRefreshJobs.WithLabelValues(string(job.Type), "success").Inc()
	log.Debug().Str("type", string(job.Type)).Dur("duration", time.Since(start)).Msg("cache refreshed")
}

func (r *CacheRefresher) String() string {
	return "cache-refresher"
}
