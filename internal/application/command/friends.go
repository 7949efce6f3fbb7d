package command

import (
	"context"
	"log/slog"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/domain/social"
	"github.com/filmhub/filmhub-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD FRIEND COMMAND
// Records the directed edge UserID -> FriendID. Repeating it changes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// AddFriendCommand contains the data to add a friend.
type AddFriendCommand struct {
	UserID   int64
	FriendID int64
}

// Validate validates the command.
func (c AddFriendCommand) Validate() error {
	if err := requirePositive("AddFriend", "user id", c.UserID); err != nil {
		return err
	}
	if err := requirePositive("AddFriend", "friend id", c.FriendID); err != nil {
		return err
	}
	if c.UserID == c.FriendID {
		return shared.InvalidArgumentf(domainName, "AddFriend", "user %d cannot befriend themselves", c.UserID)
	}
	return nil
}

// AddFriendResult tells whether a new edge was written.
type AddFriendResult struct {
	Added bool
}

// AddFriendHandler handles AddFriendCommand.
type AddFriendHandler struct {
	users   catalog.UserRepository
	graph   *social.Graph
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewAddFriendHandler creates a new AddFriendHandler.
func NewAddFriendHandler(users catalog.UserRepository, graph *social.Graph, retrier *retry.Retrier, logger *slog.Logger) *AddFriendHandler {
	return &AddFriendHandler{users: users, graph: graph, retrier: retrier, logger: logger}
}

// Handle executes the add friend command.
func (h *AddFriendHandler) Handle(ctx context.Context, cmd AddFriendCommand) (*AddFriendResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	userID, friendID := shared.UserID(cmd.UserID), shared.UserID(cmd.FriendID)
	if err := requireUser(ctx, h.users, "AddFriend", userID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, h.users, "AddFriend", friendID); err != nil {
		return nil, err
	}

	added, err := retry.Value(ctx, h.retrier, func(ctx context.Context) (bool, error) {
		return h.graph.AddFriend(ctx, userID, friendID)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("friend added",
		slog.Int64("user_id", cmd.UserID),
		slog.Int64("friend_id", cmd.FriendID),
		slog.Bool("new_edge", added),
	)
	return &AddFriendResult{Added: added}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE FRIEND COMMAND
// Removing an edge that does not exist fails with NotFound. The command is not
// retried: a repeat after an ambiguous failure could report NotFound for an edge
// the first attempt already removed.
// ══════════════════════════════════════════════════════════════════════════════

// RemoveFriendCommand contains the data to remove a friend.
type RemoveFriendCommand struct {
	UserID   int64
	FriendID int64
}

// Validate validates the command.
func (c RemoveFriendCommand) Validate() error {
	if err := requirePositive("RemoveFriend", "user id", c.UserID); err != nil {
		return err
	}
	return requirePositive("RemoveFriend", "friend id", c.FriendID)
}

// RemoveFriendHandler handles RemoveFriendCommand.
type RemoveFriendHandler struct {
	users  catalog.UserRepository
	graph  *social.Graph
	logger *slog.Logger
}

// NewRemoveFriendHandler creates a new RemoveFriendHandler.
func NewRemoveFriendHandler(users catalog.UserRepository, graph *social.Graph, logger *slog.Logger) *RemoveFriendHandler {
	return &RemoveFriendHandler{users: users, graph: graph, logger: logger}
}

// Handle executes the remove friend command.
func (h *RemoveFriendHandler) Handle(ctx context.Context, cmd RemoveFriendCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	userID, friendID := shared.UserID(cmd.UserID), shared.UserID(cmd.FriendID)
	if err := requireUser(ctx, h.users, "RemoveFriend", userID); err != nil {
		return err
	}
	if err := requireUser(ctx, h.users, "RemoveFriend", friendID); err != nil {
		return err
	}

	if err := h.graph.RemoveFriend(ctx, userID, friendID); err != nil {
		return err
	}

	h.logger.Debug("friend removed", slog.Int64("user_id", cmd.UserID), slog.Int64("friend_id", cmd.FriendID))
	return nil
}
