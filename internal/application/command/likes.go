package command

import (
	"context"
	"log/slog"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIKE COMMANDS
// Likes are a set: adding twice and removing an absent like are both no-ops.
// ══════════════════════════════════════════════════════════════════════════════

// LikeCommand identifies a like.
type LikeCommand struct {
	FilmID int64
	UserID int64
}

// Validate validates the command.
func (c LikeCommand) Validate() error {
	if err := requirePositive("Like", "film id", c.FilmID); err != nil {
		return err
	}
	return requirePositive("Like", "user id", c.UserID)
}

// LikeResult tells whether the like set changed.
type LikeResult struct {
	Changed bool
}

// LikeHandler handles adding and removing likes.
type LikeHandler struct {
	films   catalog.FilmRepository
	users   catalog.UserRepository
	likes   relation.LikeRepository
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewLikeHandler creates a new LikeHandler.
func NewLikeHandler(
	films catalog.FilmRepository,
	users catalog.UserRepository,
	likes relation.LikeRepository,
	retrier *retry.Retrier,
	logger *slog.Logger,
) *LikeHandler {
	return &LikeHandler{films: films, users: users, likes: likes, retrier: retrier, logger: logger}
}

// Add records that the user likes the film.
func (h *LikeHandler) Add(ctx context.Context, cmd LikeCommand) (*LikeResult, error) {
	return h.apply(ctx, "AddLike", cmd, h.likes.Add)
}

// Remove deletes the like if present.
func (h *LikeHandler) Remove(ctx context.Context, cmd LikeCommand) (*LikeResult, error) {
	return h.apply(ctx, "RemoveLike", cmd, h.likes.Remove)
}

func (h *LikeHandler) apply(
	ctx context.Context,
	op string,
	cmd LikeCommand,
	write func(context.Context, relation.Like) (int64, error),
) (*LikeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	like := relation.Like{FilmID: shared.FilmID(cmd.FilmID), UserID: shared.UserID(cmd.UserID)}
	if err := requireFilm(ctx, h.films, op, like.FilmID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, h.users, op, like.UserID); err != nil {
		return nil, err
	}

	n, err := retry.Value(ctx, h.retrier, func(ctx context.Context) (int64, error) {
		n, err := write(ctx, like)
		return n, shared.StoreError(domainName, op, err)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("like updated",
		slog.String("op", op),
		slog.Int64("film_id", cmd.FilmID),
		slog.Int64("user_id", cmd.UserID),
		slog.Int64("rows", n),
	)
	return &LikeResult{Changed: n == 1}, nil
}
