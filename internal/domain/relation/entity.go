// Package relation describes the many-to-many relations of the catalog: likes,
// directed friendships and per-user review feedback. It defines rows and the
// store contract only; business rules live in popularity, social and feedback.
package relation

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// Like records that a user likes a film. Unique per (FilmID, UserID).
type Like struct {
	FilmID shared.FilmID
	UserID shared.UserID
}

// Friendship is a directed edge: UserID has added FriendID as a friend.
type Friendship struct {
	UserID   shared.UserID
	FriendID shared.UserID
}

// Feedback is a user's opinion on a review. At most one row exists per (ReviewID, UserID).
type Feedback struct {
	ReviewID shared.ReviewID
	UserID   shared.UserID
	IsUseful bool
}

// FilmLikes is one entry of a popularity ranking.
type FilmLikes struct {
	FilmID shared.FilmID
	Likes  int
}

// ComparePopularity orders by like count descending, then film id descending.
func ComparePopularity(a, b FilmLikes) int {
	if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
		return c
	}
	return cmp.Compare(b.FilmID, a.FilmID)
}

// RankQuery selects and limits a popularity ranking.
type RankQuery struct {
	Limit   int
	GenreID *shared.GenreID
	Year    *int
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// Entity names used in ReferenceError.
const (
	EntityUser   = "user"
	EntityFilm   = "film"
	EntityReview = "review"
)

// ReferenceError is returned by a store when a new row references an entity that does not exist.
// Backends always fill in the id of the missing entity.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, shared.ErrNotFound) match reference failures.
func (e *ReferenceError) Is(target error) bool {
	return target == shared.ErrNotFound
}

// AsReferenceError extracts a ReferenceError from err.
func AsReferenceError(err error) (*ReferenceError, bool) {
	var ref *ReferenceError
	if errors.As(err, &ref) {
		return ref, true
	}
	return nil, false
}
