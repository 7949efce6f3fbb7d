package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFERENCE CHECKS
// Emulate the foreign keys of the relational schema.
// ══════════════════════════════════════════════════════════════════════════════

func (d *data) requireUser(id shared.UserID) error {
	if _, ok := d.users[id]; !ok {
		return &relation.ReferenceError{Entity: relation.EntityUser, ID: int64(id)}
	}
	return nil
}

func (d *data) requireFilm(id shared.FilmID) error {
	if _, ok := d.films[id]; !ok {
		return &relation.ReferenceError{Entity: relation.EntityFilm, ID: int64(id)}
	}
	return nil
}

func (d *data) requireReview(id shared.ReviewID) error {
	if _, ok := d.reviews[id]; !ok {
		return &relation.ReferenceError{Entity: relation.EntityReview, ID: int64(id)}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIKES
// ══════════════════════════════════════════════════════════════════════════════

type likeRepo struct{ s session }

func (r *likeRepo) Add(ctx context.Context, like relation.Like) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		if _, ok := d.likes[like]; ok {
			return nil
		}
		if err := d.requireFilm(like.FilmID); err != nil {
			return err
		}
		if err := d.requireUser(like.UserID); err != nil {
			return err
		}
		record(d, d.likes, like)
		d.likes[like] = struct{}{}
		n = 1
		return nil
	})
	return n, err
}

func (r *likeRepo) Remove(ctx context.Context, like relation.Like) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		if _, ok := d.likes[like]; ok {
			record(d, d.likes, like)
			delete(d.likes, like)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *likeRepo) ByFilm(ctx context.Context, filmID shared.FilmID) ([]relation.Like, error) {
	var out []relation.Like
	err := r.s.do(ctx, func(d *data) error {
		for like := range d.likes {
			if like.FilmID == filmID {
				out = append(out, like)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b relation.Like) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, err
}

func (r *likeRepo) Rank(ctx context.Context, q relation.RankQuery) ([]relation.FilmLikes, error) {
	var out []relation.FilmLikes
	err := r.s.do(ctx, func(d *data) error {
		counts := make(map[shared.FilmID]int, len(d.films))
		for like := range d.likes {
			counts[like.FilmID]++
		}
		for id, film := range d.films {
			if q.GenreID != nil && !slices.Contains(film.Genres, *q.GenreID) {
				continue
			}
			if q.Year != nil && film.ReleaseYear() != *q.Year {
				continue
			}
			out = append(out, relation.FilmLikes{FilmID: id, Likes: counts[id]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, relation.ComparePopularity)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDSHIPS
// ══════════════════════════════════════════════════════════════════════════════

type friendshipRepo struct{ s session }

func (r *friendshipRepo) Add(ctx context.Context, f relation.Friendship) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		if _, ok := d.friendships[f]; ok {
			return nil
		}
		if err := d.requireUser(f.UserID); err != nil {
			return err
		}
		if err := d.requireUser(f.FriendID); err != nil {
			return err
		}
		record(d, d.friendships, f)
		d.friendships[f] = struct{}{}
		n = 1
		return nil
	})
	return n, err
}

func (r *friendshipRepo) Remove(ctx context.Context, f relation.Friendship) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		if _, ok := d.friendships[f]; ok {
			record(d, d.friendships, f)
			delete(d.friendships, f)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *friendshipRepo) Targets(ctx context.Context, userID shared.UserID) ([]shared.UserID, error) {
	out := []shared.UserID{}
	err := r.s.do(ctx, func(d *data) error {
		for f := range d.friendships {
			if f.UserID == userID {
				out = append(out, f.FriendID)
			}
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

type feedbackRepo struct{ s session }

func (r *feedbackRepo) InsertIfAbsent(ctx context.Context, fb relation.Feedback) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		key := feedbackKey{fb.ReviewID, fb.UserID}
		if _, ok := d.feedback[key]; ok {
			return nil
		}
		if err := d.requireReview(fb.ReviewID); err != nil {
			return err
		}
		if err := d.requireUser(fb.UserID); err != nil {
			return err
		}
		record(d, d.feedback, key)
		d.feedback[key] = fb.IsUseful
		n = 1
		return nil
	})
	return n, err
}

func (r *feedbackRepo) UpdateIfDifferent(ctx context.Context, fb relation.Feedback) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		key := feedbackKey{fb.ReviewID, fb.UserID}
		if cur, ok := d.feedback[key]; ok && cur != fb.IsUseful {
			record(d, d.feedback, key)
			d.feedback[key] = fb.IsUseful
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *feedbackRepo) RemoveIfMatches(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID, isUseful bool) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(d *data) error {
		key := feedbackKey{reviewID, userID}
		if cur, ok := d.feedback[key]; ok && cur == isUseful {
			record(d, d.feedback, key)
			delete(d.feedback, key)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *feedbackRepo) Find(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (relation.Feedback, bool, error) {
	var (
		fb    relation.Feedback
		found bool
	)
	err := r.s.do(ctx, func(d *data) error {
		if v, ok := d.feedback[feedbackKey{reviewID, userID}]; ok {
			fb = relation.Feedback{ReviewID: reviewID, UserID: userID, IsUseful: v}
			found = true
		}
		return nil
	})
	return fb, found, err
}

func (r *feedbackRepo) ByReview(ctx context.Context, reviewID shared.ReviewID) ([]relation.Feedback, error) {
	var out []relation.Feedback
	err := r.s.do(ctx, func(d *data) error {
		for key, v := range d.feedback {
			if key.reviewID == reviewID {
				out = append(out, relation.Feedback{ReviewID: key.reviewID, UserID: key.userID, IsUseful: v})
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b relation.Feedback) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, err
}

func (r *feedbackRepo) AdjustUsefulScore(ctx context.Context, reviewID shared.ReviewID, delta int) error {
	return r.s.do(ctx, func(d *data) error {
		review, ok := d.reviews[reviewID]
		if !ok {
			return &relation.ReferenceError{Entity: relation.EntityReview, ID: int64(reviewID)}
		}
		record(d, d.reviews, reviewID)
		review.UsefulScore += delta
		d.reviews[reviewID] = review
		return nil
	})
}
