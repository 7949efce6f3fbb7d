package query

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/domain/social"
)

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDS QUERIES
// Друзья пользователя и общие друзья двух пользователей.
// Дружба направленная: учитываются только исходящие рёбра.
// ══════════════════════════════════════════════════════════════════════════════

// FriendsHandler обрабатывает запросы по графу дружбы.
type FriendsHandler struct {
	users catalog.UserRepository
	graph *social.Graph
}

// NewFriendsHandler создаёт новый обработчик.
func NewFriendsHandler(users catalog.UserRepository, graph *social.Graph) *FriendsHandler {
	return &FriendsHandler{users: users, graph: graph}
}

// FriendsOf возвращает друзей пользователя по возрастанию id.
func (h *FriendsHandler) FriendsOf(ctx context.Context, userID int64) ([]UserDTO, error) {
	if err := h.requireUser(ctx, "FriendsOf", userID); err != nil {
		return nil, err
	}
	ids, err := h.graph.FriendsOf(ctx, shared.UserID(userID))
	if err != nil {
		return nil, shared.StoreError(domainName, "FriendsOf", err)
	}
	return h.load(ctx, "FriendsOf", ids)
}

// MutualFriends возвращает общих друзей по возрастанию id.
// Результат не зависит от порядка аргументов.
func (h *FriendsHandler) MutualFriends(ctx context.Context, userID, otherID int64) ([]UserDTO, error) {
	if err := h.requireUser(ctx, "MutualFriends", userID); err != nil {
		return nil, err
	}
	if err := h.requireUser(ctx, "MutualFriends", otherID); err != nil {
		return nil, err
	}
	ids, err := h.graph.MutualFriends(ctx, shared.UserID(userID), shared.UserID(otherID))
	if err != nil {
		return nil, shared.StoreError(domainName, "MutualFriends", err)
	}
	return h.load(ctx, "MutualFriends", ids)
}

func (h *FriendsHandler) requireUser(ctx context.Context, op string, id int64) error {
	if err := requirePositive(op, "user id", id); err != nil {
		return err
	}
	ok, err := h.users.Exists(ctx, shared.UserID(id))
	if err != nil {
		return shared.StoreError(domainName, op, err)
	}
	if !ok {
		return shared.NotFoundf(domainName, op, "user %d not found", id)
	}
	return nil
}

func (h *FriendsHandler) load(ctx context.Context, op string, ids []shared.UserID) ([]UserDTO, error) {
	users, err := h.users.GetMany(ctx, ids)
	if err != nil {
		return nil, shared.StoreError(domainName, op, err)
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserDTO(u))
	}
	return out, nil
}
