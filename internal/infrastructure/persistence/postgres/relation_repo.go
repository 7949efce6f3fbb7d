package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIKES
// ══════════════════════════════════════════════════════════════════════════════

type likeRepo struct{ q Querier }

func (r *likeRepo) Add(ctx context.Context, like relation.Like) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO likes (film_id, user_id) VALUES ($1, $2)
		ON CONFLICT (film_id, user_id) DO NOTHING
	`, int64(like.FilmID), int64(like.UserID))
	if err != nil {
		return 0, classify("AddLike", err,
			ref("likes_film_fk", relation.EntityFilm, like.FilmID),
			ref("likes_user_fk", relation.EntityUser, like.UserID))
	}
	return tag.RowsAffected(), nil
}

func (r *likeRepo) Remove(ctx context.Context, like relation.Like) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM likes WHERE film_id = $1 AND user_id = $2`,
		int64(like.FilmID), int64(like.UserID))
	if err != nil {
		return 0, classify("RemoveLike", err)
	}
	return tag.RowsAffected(), nil
}

func (r *likeRepo) ByFilm(ctx context.Context, filmID shared.FilmID) ([]relation.Like, error) {
	rows, err := r.q.Query(ctx, `SELECT film_id, user_id FROM likes WHERE film_id = $1 ORDER BY user_id`, int64(filmID))
	if err != nil {
		return nil, classify("LikesByFilm", err)
	}
	likes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (relation.Like, error) {
		var film, user int64
		err := row.Scan(&film, &user)
		return relation.Like{FilmID: shared.FilmID(film), UserID: shared.UserID(user)}, err
	})
	if err != nil {
		return nil, classify("LikesByFilm", err)
	}
	return likes, nil
}

// Rank counts likers per film with a LEFT JOIN so films without likes rank with 0.
func (r *likeRepo) Rank(ctx context.Context, q relation.RankQuery) ([]relation.FilmLikes, error) {
	var genre *int64
	if q.GenreID != nil {
		g := int64(*q.GenreID)
		genre = &g
	}

	rows, err := r.q.Query(ctx, `
		SELECT f.id, COUNT(l.user_id) AS likes
		FROM films f
		LEFT JOIN likes l ON l.film_id = f.id
		WHERE ($2::BIGINT IS NULL OR EXISTS (
				SELECT 1 FROM film_genres fg WHERE fg.film_id = f.id AND fg.genre_id = $2
			))
			AND ($3::INTEGER IS NULL OR EXTRACT(YEAR FROM f.release_date) = $3)
		GROUP BY f.id
		ORDER BY likes DESC, f.id DESC
		LIMIT $1
	`, q.Limit, genre, q.Year)
	if err != nil {
		return nil, classify("RankFilms", err)
	}
	ranked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (relation.FilmLikes, error) {
		var (
			id    int64
			likes int
		)
		err := row.Scan(&id, &likes)
		return relation.FilmLikes{FilmID: shared.FilmID(id), Likes: likes}, err
	})
	if err != nil {
		return nil, classify("RankFilms", err)
	}
	return ranked, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDSHIPS
// ══════════════════════════════════════════════════════════════════════════════

type friendshipRepo struct{ q Querier }

func (r *friendshipRepo) Add(ctx context.Context, f relation.Friendship) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`, int64(f.UserID), int64(f.FriendID))
	if err != nil {
		return 0, classify("AddFriend", err,
			ref("friendships_user_fk", relation.EntityUser, f.UserID),
			ref("friendships_friend_fk", relation.EntityUser, f.FriendID))
	}
	return tag.RowsAffected(), nil
}

func (r *friendshipRepo) Remove(ctx context.Context, f relation.Friendship) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`,
		int64(f.UserID), int64(f.FriendID))
	if err != nil {
		return 0, classify("RemoveFriend", err)
	}
	return tag.RowsAffected(), nil
}

func (r *friendshipRepo) Targets(ctx context.Context, userID shared.UserID) ([]shared.UserID, error) {
	rows, err := r.q.Query(ctx, `SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY friend_id`, int64(userID))
	if err != nil {
		return nil, classify("FriendsOf", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shared.UserID, error) {
		var id int64
		err := row.Scan(&id)
		return shared.UserID(id), err
	})
	if err != nil {
		return nil, classify("FriendsOf", err)
	}
	return ids, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

type feedbackRepo struct{ q Querier }

func feedbackRefs(reviewID shared.ReviewID, userID shared.UserID) []reference {
	return []reference{
		ref("review_feedback_review_fk", relation.EntityReview, reviewID),
		ref("review_feedback_user_fk", relation.EntityUser, userID),
	}
}

func (r *feedbackRepo) InsertIfAbsent(ctx context.Context, fb relation.Feedback) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO review_feedback (review_id, user_id, is_useful) VALUES ($1, $2, $3)
		ON CONFLICT (review_id, user_id) DO NOTHING
	`, int64(fb.ReviewID), int64(fb.UserID), fb.IsUseful)
	if err != nil {
		return 0, classify("InsertFeedback", err, feedbackRefs(fb.ReviewID, fb.UserID)...)
	}
	return tag.RowsAffected(), nil
}

func (r *feedbackRepo) UpdateIfDifferent(ctx context.Context, fb relation.Feedback) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE review_feedback SET is_useful = $3
		WHERE review_id = $1 AND user_id = $2 AND is_useful <> $3
	`, int64(fb.ReviewID), int64(fb.UserID), fb.IsUseful)
	if err != nil {
		return 0, classify("FlipFeedback", err)
	}
	return tag.RowsAffected(), nil
}

func (r *feedbackRepo) RemoveIfMatches(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID, isUseful bool) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM review_feedback
		WHERE review_id = $1 AND user_id = $2 AND is_useful = $3
	`, int64(reviewID), int64(userID), isUseful)
	if err != nil {
		return 0, classify("RemoveFeedback", err)
	}
	return tag.RowsAffected(), nil
}

func (r *feedbackRepo) Find(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (relation.Feedback, bool, error) {
	var isUseful bool
	err := r.q.QueryRow(ctx, `
		SELECT is_useful FROM review_feedback WHERE review_id = $1 AND user_id = $2
	`, int64(reviewID), int64(userID)).Scan(&isUseful)
	if IsNoRows(err) {
		return relation.Feedback{}, false, nil
	}
	if err != nil {
		return relation.Feedback{}, false, classify("FindFeedback", err)
	}
	return relation.Feedback{ReviewID: reviewID, UserID: userID, IsUseful: isUseful}, true, nil
}

func (r *feedbackRepo) ByReview(ctx context.Context, reviewID shared.ReviewID) ([]relation.Feedback, error) {
	rows, err := r.q.Query(ctx, `
		SELECT user_id, is_useful FROM review_feedback WHERE review_id = $1 ORDER BY user_id
	`, int64(reviewID))
	if err != nil {
		return nil, classify("FeedbackByReview", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (relation.Feedback, error) {
		var (
			user     int64
			isUseful bool
		)
		err := row.Scan(&user, &isUseful)
		return relation.Feedback{ReviewID: reviewID, UserID: shared.UserID(user), IsUseful: isUseful}, err
	})
	if err != nil {
		return nil, classify("FeedbackByReview", err)
	}
	return out, nil
}

func (r *feedbackRepo) AdjustUsefulScore(ctx context.Context, reviewID shared.ReviewID, delta int) error {
	tag, err := r.q.Exec(ctx, `UPDATE reviews SET useful_score = useful_score + $2 WHERE id = $1`,
		int64(reviewID), delta)
	if err != nil {
		return classify("AdjustUsefulScore", err)
	}
	if tag.RowsAffected() == 0 {
		return &relation.ReferenceError{Entity: relation.EntityReview, ID: int64(reviewID)}
	}
	return nil
}
