package upload

import (
	"context"
	"diningsync/lib/food"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryPolicy struct {
	// MaxAttempts includes the first attempt, values below 2 disable
	// retrying.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	// the attempt count bounds retries, not the elapsed time
	exp.MaxElapsedTime = 0

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// RetrySink retries temporary submission errors of the inner sink with
// exponential backoff. Permanent rejections and session errors are
// returned right away.
type RetrySink struct {
	Inner  Sink
	Policy RetryPolicy
}

func (s RetrySink) Submit(ctx context.Context, record food.Record) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.Inner.Submit(ctx, record)
		if err == nil {
			return nil
		}
		var submissionErr *SubmissionError
		if errors.As(err, &submissionErr) && submissionErr.Temporary {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		slog.WarnContext(
			ctx, "retrying submission",
			"food", record.Name,
			"attempt", attempt,
			"wait", wait,
			"err", err,
		)
	}
	return backoff.RetryNotify(operation, s.Policy.backoff(ctx), notify)
}
