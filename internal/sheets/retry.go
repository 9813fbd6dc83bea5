package sheets

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetrySource retries failed fetches with exponential backoff (1s, 2s, 4s
// for the default three attempts). A missing worksheet is returned
// immediately; retrying cannot make it appear.
type RetrySource struct {
	next     Source
	attempts int
	logger   *zap.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrySource wraps next with retry behavior.
func NewRetrySource(next Source, attempts int, logger *zap.Logger) *RetrySource {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySource{
		next:     next,
		attempts: attempts,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

func (s *RetrySource) Records(ctx context.Context, worksheet string) ([]Reading, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= s.attempts; attempt++ {
		readings, err := s.next.Records(ctx, worksheet)
		if err == nil {
			return readings, nil
		}
		if errors.Is(err, ErrWorksheetNotFound) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		if attempt < s.attempts {
			s.logger.Warn("worksheet fetch failed, retrying",
				zap.String("worksheet", worksheet),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.attempts),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			if err := s.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}
	}
	s.logger.Error("worksheet fetch failed after retries",
		zap.String("worksheet", worksheet),
		zap.Int("attempts", s.attempts),
		zap.Error(lastErr))
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
