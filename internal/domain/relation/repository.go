package relation

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// Every write reports the number of rows it affected (0 or 1). Callers decide
// on derived counters from that number alone, never from a prior read.
// ══════════════════════════════════════════════════════════════════════════════

// LikeRepository operates on likes(film, user).
type LikeRepository interface {
	// Add inserts the like if absent. A duplicate affects 0 rows.
	Add(ctx context.Context, like Like) (int64, error)

	// Remove deletes the like and returns the rows removed.
	Remove(ctx context.Context, like Like) (int64, error)

	// ByFilm returns the likes of a film ordered by user id.
	ByFilm(ctx context.Context, filmID shared.FilmID) ([]Like, error)

	// Rank counts distinct likers per film, including films with no likes,
	// and returns the top q.Limit entries ordered by ComparePopularity.
	Rank(ctx context.Context, q RankQuery) ([]FilmLikes, error)
}

// FriendshipRepository operates on friendships(user, friend).
type FriendshipRepository interface {
	// Add inserts the edge if absent. A duplicate affects 0 rows.
	Add(ctx context.Context, f Friendship) (int64, error)

	// Remove deletes the edge and returns the rows removed.
	Remove(ctx context.Context, f Friendship) (int64, error)

	// Targets returns the outgoing edge set of a user in ascending id order.
	Targets(ctx context.Context, userID shared.UserID) ([]shared.UserID, error)
}

// FeedbackRepository operates on review_feedback(review, user, is_useful) and
// owns the only write path to reviews.useful_score.
type FeedbackRepository interface {
	// InsertIfAbsent inserts the row only if no row exists for (ReviewID, UserID).
	InsertIfAbsent(ctx context.Context, fb Feedback) (int64, error)

	// UpdateIfDifferent sets IsUseful only on an existing row holding the other value.
	UpdateIfDifferent(ctx context.Context, fb Feedback) (int64, error)

	// RemoveIfMatches deletes the row only if its value equals isUseful.
	RemoveIfMatches(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID, isUseful bool) (int64, error)

	// Find returns the row for (reviewID, userID), or ok=false.
	Find(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (fb Feedback, ok bool, err error)

	// ByReview returns all feedback rows of a review ordered by user id.
	ByReview(ctx context.Context, reviewID shared.ReviewID) ([]Feedback, error)

	// AdjustUsefulScore adds delta to the review's useful score.
	// Returns a ReferenceError when the review does not exist.
	AdjustUsefulScore(ctx context.Context, reviewID shared.ReviewID, delta int) error
}

// Relations gives access to all relation repositories of one backend.
type Relations interface {
	Likes() LikeRepository
	Friendships() FriendshipRepository
	Feedback() FeedbackRepository
}

// Store is a Relations backend that can run a function as one atomic unit.
// Repositories obtained from the Relations passed to fn participate in the unit;
// when fn returns an error nothing it wrote is kept.
type Store interface {
	Relations
	WithinTx(ctx context.Context, fn func(tx Relations) error) error
}
