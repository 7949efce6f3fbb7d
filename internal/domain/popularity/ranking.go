// Package popularity ranks films by the number of users that like them.
package popularity

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// DefaultLimit is the ranking size callers use when none is requested.
const DefaultLimit = 10

// Query filters a ranking. Nil filters are not applied.
type Query struct {
	Limit   int
	GenreID *shared.GenreID
	Year    *int
}

// Ranker computes popularity rankings from the likes relation.
type Ranker struct {
	likes relation.LikeRepository
}

// NewRanker creates a Ranker.
func NewRanker(likes relation.LikeRepository) *Ranker {
	return &Ranker{likes: likes}
}

// TopFilms returns film ids ordered by like count desc, then film id desc.
// Films without likes take part with a count of 0.
func (r *Ranker) TopFilms(ctx context.Context, q Query) ([]shared.FilmID, error) {
	ranked, err := r.Rank(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]shared.FilmID, len(ranked))
	for i, fl := range ranked {
		ids[i] = fl.FilmID
	}
	return ids, nil
}

// Rank is TopFilms with the like count kept next to each id.
func (r *Ranker) Rank(ctx context.Context, q Query) ([]relation.FilmLikes, error) {
	if q.Limit <= 0 {
		return nil, shared.InvalidArgumentf("popularity", "TopFilms", "limit must be positive, got %d", q.Limit)
	}
	ranked, err := r.likes.Rank(ctx, relation.RankQuery{Limit: q.Limit, GenreID: q.GenreID, Year: q.Year})
	if err != nil {
		return nil, shared.StoreError("popularity", "TopFilms", err)
	}
	return ranked, nil
}
