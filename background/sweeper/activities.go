package sweeper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/cadence/activity"
	"go.uber.org/zap"

	"github.com/helpme-app/helpme-api/consts"
	"github.com/helpme-app/helpme-api/dispatch"
)

var now = time.Now

// ListStaleRequestsActivity returns the ids of stored requests that stayed
// active longer than consts.StaleRequestAge
func (s *SweepWorker) ListStaleRequestsActivity(ctx context.Context) ([]string, error) {
	logger := activity.GetLogger(ctx)

	requests, err := s.store.ListStaleRequests(now().Add(-consts.StaleRequestAge))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}

	logger.Info("Found stale requests.", zap.Int("count", len(ids)))
	return ids, nil
}

// CancelStaleRequestActivity cancels a request on behalf of its requester.
// Stored snapshots may lag behind the dispatcher, which cancels the request
// only if it is still active and old enough.
func (s *SweepWorker) CancelStaleRequestActivity(ctx context.Context, requestID string) (bool, error) {
	logger := activity.GetLogger(ctx)

	cancelled, err := s.canceller.CancelStale(requestID, now().Add(-consts.StaleRequestAge))

	var notFound *dispatch.NotFoundError
	switch {
	case errors.As(err, &notFound):
		logger.Info("Skip unknown request.", zap.String("request", requestID))
		return false, nil
	case err != nil:
		return false, err
	}

	logger.Info("Stale request checked.", zap.String("request", requestID), zap.Bool("cancelled", cancelled))
	return cancelled, nil
}
