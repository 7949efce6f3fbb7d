// Package command contains write operations (CQRS - Commands).
// Every handler validates its command, checks that referenced entities exist and
// only then calls into the domain. Idempotent commands are retried while the store
// reports itself unavailable.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/pkg/retry"
)

const domainName = "command"

// NewStoreRetrier returns the retrier used by idempotent commands.
// Retries are logged at warn level.
func NewStoreRetrier(logger *slog.Logger) *retry.Retrier {
	return retry.StoreRetrier(shared.IsRetryable).With(
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("store unavailable, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		}),
	)
}

func requirePositive(op, field string, id int64) error {
	if id <= 0 {
		return shared.InvalidArgumentf(domainName, op, "%s must be positive, got %d", field, id)
	}
	return nil
}

func requireUser(ctx context.Context, users catalog.UserRepository, op string, id shared.UserID) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return shared.StoreError(domainName, op, err)
	}
	if !ok {
		return shared.NotFoundf(domainName, op, "user %d not found", id)
	}
	return nil
}

func requireFilm(ctx context.Context, films catalog.FilmRepository, op string, id shared.FilmID) error {
	ok, err := films.Exists(ctx, id)
	if err != nil {
		return shared.StoreError(domainName, op, err)
	}
	if !ok {
		return shared.NotFoundf(domainName, op, "film %d not found", id)
	}
	return nil
}

func requireReview(ctx context.Context, reviews catalog.ReviewRepository, op string, id shared.ReviewID) error {
	ok, err := reviews.Exists(ctx, id)
	if err != nil {
		return shared.StoreError(domainName, op, err)
	}
	if !ok {
		return shared.NotFoundf(domainName, op, "review %d not found", id)
	}
	return nil
}
