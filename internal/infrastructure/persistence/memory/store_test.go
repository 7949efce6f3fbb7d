package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

func seed(t *testing.T) (*Store, shared.UserID, shared.FilmID, shared.ReviewID) {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	repos := s.Catalog()

	u := &catalog.User{Email: "m@x.io", Login: "m"}
	require.NoError(t, repos.Users.Create(ctx, u))
	f := &catalog.Film{Name: "F", ReleaseDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Duration: 1, Genres: []shared.GenreID{1}}
	require.NoError(t, repos.Films.Create(ctx, f))
	r := &catalog.Review{FilmID: f.ID, UserID: u.ID, Content: "c", UsefulScore: 9}
	require.NoError(t, repos.Reviews.Create(ctx, r))
	return s, u.ID, f.ID, r.ID
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s, u, _, r := seed(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx relation.Relations) error {
		n, err := tx.Feedback().InsertIfAbsent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, tx.Feedback().AdjustUsefulScore(ctx, r, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := s.Feedback().Find(ctx, r, u)
	require.NoError(t, err)
	assert.False(t, ok)

	review, err := s.Catalog().Reviews.Get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 0, review.UsefulScore)
}

func TestStore_WithinTxRestoresOverwrittenRows(t *testing.T) {
	ctx := context.Background()
	s, u, f, r := seed(t)
	_, err := s.Feedback().InsertIfAbsent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
	require.NoError(t, err)
	_, err = s.Likes().Add(ctx, relation.Like{FilmID: f, UserID: u})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx relation.Relations) error {
		n, err := tx.Feedback().UpdateIfDifferent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: false})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		n, err = tx.Feedback().RemoveIfMatches(ctx, r, u, false)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		n, err = tx.Likes().Remove(ctx, relation.Like{FilmID: f, UserID: u})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, tx.Feedback().AdjustUsefulScore(ctx, r, -2))
		return errors.New("abort")
	})
	require.Error(t, err)

	fb, ok, err := s.Feedback().Find(ctx, r, u)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fb.IsUseful)

	likes, err := s.Likes().ByFilm(ctx, f)
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	review, err := s.Catalog().Reviews.Get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 0, review.UsefulScore)
}

func TestStore_WithinTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s, u, f, _ := seed(t)

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(tx relation.Relations) error {
			_, err := tx.Likes().Add(ctx, relation.Like{FilmID: f, UserID: u})
			require.NoError(t, err)
			panic("boom")
		})
	})

	likes, err := s.Likes().ByFilm(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, likes)

	// The store stays usable and later transactions commit.
	require.NoError(t, s.WithinTx(ctx, func(tx relation.Relations) error {
		_, err := tx.Likes().Add(ctx, relation.Like{FilmID: f, UserID: u})
		return err
	}))
	likes, err = s.Likes().ByFilm(ctx, f)
	require.NoError(t, err)
	assert.Len(t, likes, 1)
}

func TestStore_ConditionalWrites(t *testing.T) {
	ctx := context.Background()
	s, u, _, r := seed(t)
	fb := s.Feedback()

	n, err := fb.UpdateIfDifferent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = fb.InsertIfAbsent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = fb.InsertIfAbsent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: false})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = fb.UpdateIfDifferent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = fb.RemoveIfMatches(ctx, r, u, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = fb.RemoveIfMatches(ctx, r, u, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStore_ReferenceErrors(t *testing.T) {
	ctx := context.Background()
	s, u, f, _ := seed(t)

	_, err := s.Likes().Add(ctx, relation.Like{FilmID: f + 1, UserID: u})
	ref, ok := relation.AsReferenceError(err)
	require.True(t, ok)
	assert.Equal(t, relation.EntityFilm, ref.Entity)
	assert.EqualValues(t, f+1, ref.ID)
	assert.True(t, shared.IsNotFound(err))

	_, err = s.Friendships().Add(ctx, relation.Friendship{UserID: u, FriendID: 99})
	ref, ok = relation.AsReferenceError(err)
	require.True(t, ok)
	assert.Equal(t, relation.EntityUser, ref.Entity)
	assert.EqualValues(t, 99, ref.ID)

	err = s.Feedback().AdjustUsefulScore(ctx, 404, 1)
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_DeleteFilmCascades(t *testing.T) {
	ctx := context.Background()
	s, u, f, r := seed(t)

	_, err := s.Likes().Add(ctx, relation.Like{FilmID: f, UserID: u})
	require.NoError(t, err)
	_, err = s.Feedback().InsertIfAbsent(ctx, relation.Feedback{ReviewID: r, UserID: u, IsUseful: true})
	require.NoError(t, err)

	require.NoError(t, s.Catalog().Films.Delete(ctx, f))

	likes, err := s.Likes().ByFilm(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, likes)

	_, err = s.Catalog().Reviews.Get(ctx, r)
	assert.True(t, shared.IsNotFound(err))

	rows, err := s.Feedback().ByReview(ctx, r)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_ReviewScoreIsNotWrittenByCatalog(t *testing.T) {
	ctx := context.Background()
	s, _, _, r := seed(t)
	repos := s.Catalog()

	review, err := repos.Reviews.Get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 0, review.UsefulScore)

	review.UsefulScore = 100
	review.Content = "edited"
	require.NoError(t, repos.Reviews.UpdateContent(ctx, review))

	stored, err := repos.Reviews.Get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content)
	assert.Equal(t, 0, stored.UsefulScore)
}

func TestStore_UniqueUsers(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := seed(t)

	err := s.Catalog().Users.Create(ctx, &catalog.User{Email: "m@x.io", Login: "other"})
	assert.True(t, shared.IsAlreadyExists(err))

	err = s.Catalog().Users.Create(ctx, &catalog.User{Email: "other@x.io", Login: "m"})
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestStore_UnknownGenre(t *testing.T) {
	s := NewStore()
	f := &catalog.Film{Name: "F", Duration: 1, Genres: []shared.GenreID{77}}
	err := s.Catalog().Films.Create(context.Background(), f)
	assert.True(t, shared.IsNotFound(err))
}
