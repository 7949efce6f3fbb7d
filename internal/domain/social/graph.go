// Package social maintains the directed friendship relation between users and
// answers set queries over it.
//
// Friendship is strictly directional: AddFriend(a, b) records only the edge a -> b.
// Adding is idempotent; removing an edge that does not exist is an error.
package social

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

const domainName = "social"

// Graph operates on the friendship relation.
type Graph struct {
	friendships relation.FriendshipRepository
}

// NewGraph creates a Graph.
func NewGraph(friendships relation.FriendshipRepository) *Graph {
	return &Graph{friendships: friendships}
}

// AddFriend records userID -> friendID. Repeating the call is a no-op.
// A store reference failure is reported as NotFound naming the missing user.
func (g *Graph) AddFriend(ctx context.Context, userID, friendID shared.UserID) (added bool, err error) {
	n, err := g.friendships.Add(ctx, relation.Friendship{UserID: userID, FriendID: friendID})
	if err != nil {
		return false, referenceError("AddFriend", err)
	}
	return n == 1, nil
}

// RemoveFriend deletes userID -> friendID and fails with NotFound when the edge is absent.
// It must not be retried blindly: a second attempt after an ambiguous failure may
// legitimately report NotFound.
func (g *Graph) RemoveFriend(ctx context.Context, userID, friendID shared.UserID) error {
	n, err := g.friendships.Remove(ctx, relation.Friendship{UserID: userID, FriendID: friendID})
	if err != nil {
		return shared.StoreError(domainName, "RemoveFriend", err)
	}
	if n == 0 {
		return shared.NotFoundf(domainName, "RemoveFriend", "friendship %d -> %d not found", userID, friendID)
	}
	return nil
}

// FriendsOf returns the users userID has added, in ascending id order.
func (g *Graph) FriendsOf(ctx context.Context, userID shared.UserID) ([]shared.UserID, error) {
	ids, err := g.friendships.Targets(ctx, userID)
	if err != nil {
		return nil, shared.StoreError(domainName, "FriendsOf", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// MutualFriends returns the users both a and b have added, in ascending id order.
// The result does not depend on argument order.
func (g *Graph) MutualFriends(ctx context.Context, a, b shared.UserID) ([]shared.UserID, error) {
	var left, right []shared.UserID

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		left, err = g.friendships.Targets(egCtx, a)
		return err
	})
	eg.Go(func() error {
		var err error
		right, err = g.friendships.Targets(egCtx, b)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, shared.StoreError(domainName, "MutualFriends", err)
	}

	return Intersect(left, right), nil
}

// Intersect returns the sorted, de-duplicated intersection of two id sets.
func Intersect(a, b []shared.UserID) []shared.UserID {
	if len(a) > len(b) {
		a, b = b, a
	}
	seen := make(map[shared.UserID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	out := make([]shared.UserID, 0, len(seen))
	for _, id := range b {
		if _, ok := seen[id]; ok {
			out = append(out, id)
			delete(seen, id)
		}
	}
	slices.Sort(out)
	return out
}

func referenceError(op string, err error) error {
	if ref, ok := relation.AsReferenceError(err); ok {
		return shared.NotFoundf(domainName, op, "%s %d not found", ref.Entity, ref.ID)
	}
	return shared.StoreError(domainName, op, err)
}
