package command

import (
	"context"
	"log/slog"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/feedback"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY FEEDBACK COMMAND
// Marks a review useful/useless for a user or clears that mark. Every action is
// idempotent, so the command is retried while the store is unavailable.
// ══════════════════════════════════════════════════════════════════════════════

// FeedbackAction selects the engine operation.
type FeedbackAction string

const (
	ActionMarkUseful   FeedbackAction = "mark_useful"
	ActionMarkUseless  FeedbackAction = "mark_useless"
	ActionClearUseful  FeedbackAction = "clear_useful"
	ActionClearUseless FeedbackAction = "clear_useless"
)

// IsValid checks if the action is known.
func (a FeedbackAction) IsValid() bool {
	switch a {
	case ActionMarkUseful, ActionMarkUseless, ActionClearUseful, ActionClearUseless:
		return true
	}
	return false
}

// ApplyFeedbackCommand contains the data to apply a feedback action.
type ApplyFeedbackCommand struct {
	ReviewID int64
	UserID   int64
	Action   FeedbackAction
}

// Validate validates the command.
func (c ApplyFeedbackCommand) Validate() error {
	if err := requirePositive("ApplyFeedback", "review id", c.ReviewID); err != nil {
		return err
	}
	if err := requirePositive("ApplyFeedback", "user id", c.UserID); err != nil {
		return err
	}
	if !c.Action.IsValid() {
		return shared.InvalidArgumentf(domainName, "ApplyFeedback", "unknown feedback action %q", c.Action)
	}
	return nil
}

// ApplyFeedbackHandler handles ApplyFeedbackCommand.
type ApplyFeedbackHandler struct {
	reviews catalog.ReviewRepository
	users   catalog.UserRepository
	engine  *feedback.Engine
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewApplyFeedbackHandler creates a new ApplyFeedbackHandler.
func NewApplyFeedbackHandler(
	reviews catalog.ReviewRepository,
	users catalog.UserRepository,
	engine *feedback.Engine,
	retrier *retry.Retrier,
	logger *slog.Logger,
) *ApplyFeedbackHandler {
	return &ApplyFeedbackHandler{reviews: reviews, users: users, engine: engine, retrier: retrier, logger: logger}
}

// Handle executes the feedback command and returns the transition that was applied.
func (h *ApplyFeedbackHandler) Handle(ctx context.Context, cmd ApplyFeedbackCommand) (feedback.Transition, error) {
	if err := cmd.Validate(); err != nil {
		return feedback.Transition{}, err
	}
	reviewID, userID := shared.ReviewID(cmd.ReviewID), shared.UserID(cmd.UserID)
	if err := requireReview(ctx, h.reviews, "ApplyFeedback", reviewID); err != nil {
		return feedback.Transition{}, err
	}
	if err := requireUser(ctx, h.users, "ApplyFeedback", userID); err != nil {
		return feedback.Transition{}, err
	}

	var op func(context.Context, shared.ReviewID, shared.UserID) (feedback.Transition, error)
	switch cmd.Action {
	case ActionMarkUseful:
		op = h.engine.MarkUseful
	case ActionMarkUseless:
		op = h.engine.MarkUseless
	case ActionClearUseful:
		op = h.engine.ClearUseful
	default:
		op = h.engine.ClearUseless
	}

	tr, err := retry.Value(ctx, h.retrier, func(ctx context.Context) (feedback.Transition, error) {
		return op(ctx, reviewID, userID)
	})
	if err != nil {
		return feedback.Transition{}, err
	}

	h.logger.Debug("review feedback applied",
		slog.Int64("review_id", cmd.ReviewID),
		slog.Int64("user_id", cmd.UserID),
		slog.String("action", string(cmd.Action)),
		slog.String("transition", tr.String()),
	)
	return tr, nil
}
