package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/metrics"
)

const defaultDraftTTL = 10 * time.Minute

// draftReader scans for stale drafts.
type draftReader interface {
	FindExpiredDrafts(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

// draftExpirer performs the guarded draft→expired transition for one order.
// It reports false when the order progressed between scan and sweep.
type draftExpirer interface {
	Expire(ctx context.Context, orderID int64) (bool, error)
}

// ExpireDraftsJobParams configure the draft sweep.
type ExpireDraftsJobParams struct {
	Logger  *logger.Logger
	Drafts  draftReader
	Expirer draftExpirer
	Metrics *metrics.CronJobMetrics
	TTL     time.Duration
	Now     func() time.Time
}

// NewExpireDraftsJob builds the job that cancels drafts abandoned longer than
// the TTL.
func NewExpireDraftsJob(params ExpireDraftsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft reader required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("draft expirer required")
	}
	if params.TTL <= 0 {
		params.TTL = defaultDraftTTL
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &expireDraftsJob{
		logg:    params.Logger,
		drafts:  params.Drafts,
		expirer: params.Expirer,
		metrics: params.Metrics,
		ttl:     params.TTL,
		now:     params.Now,
	}, nil
}

type expireDraftsJob struct {
	logg    *logger.Logger
	drafts  draftReader
	expirer draftExpirer
	metrics *metrics.CronJobMetrics
	ttl     time.Duration
	now     func() time.Time
}

func (j *expireDraftsJob) Name() string { return "expire-drafts" }

// Run expires each stale draft independently; one failed order does not stop
// the sweep, errors are combined at the end.
func (j *expireDraftsJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	drafts, err := j.drafts.FindExpiredDrafts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale drafts: %w", err)
	}
	if len(drafts) == 0 {
		j.logg.Debug(ctx, "no stale drafts found")
		return nil
	}

	expired := 0
	var errs []error
	for _, draft := range drafts {
		ok, expireErr := j.expirer.Expire(ctx, draft.ID)
		if expireErr != nil {
			errs = append(errs, fmt.Errorf("expire order %d: %w", draft.ID, expireErr))
			continue
		}
		if ok {
			expired++
		}
	}

	j.metrics.AddExpired(j.Name(), expired)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": len(drafts),
		"expired": expired,
	})
	j.logg.Info(logCtx, "draft sweep complete")
	return multierr.Combine(errs...)
}
