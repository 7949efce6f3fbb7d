package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/popularity"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/domain/social"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/memory"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

func seedUsers(t *testing.T, repos catalog.Repositories, logins ...string) []shared.UserID {
	t.Helper()
	ids := make([]shared.UserID, 0, len(logins))
	for _, login := range logins {
		u := &catalog.User{Email: login + "@example.com", Login: login, Name: login}
		require.NoError(t, repos.Users.Create(context.Background(), u))
		ids = append(ids, u.ID)
	}
	return ids
}

func seedFilm(t *testing.T, repos catalog.Repositories, name string, year int, genres ...shared.GenreID) shared.FilmID {
	t.Helper()
	f := &catalog.Film{
		Name:        name,
		ReleaseDate: time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
		Duration:    90,
		Genres:      genres,
	}
	require.NoError(t, repos.Films.Create(context.Background(), f))
	return f.ID
}

func filmIDs(films []FilmDTO) []int64 {
	out := make([]int64, len(films))
	for i, f := range films {
		out[i] = f.ID
	}
	return out
}

func userIDs(users []UserDTO) []int64 {
	out := make([]int64, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// TOP FILMS
// ══════════════════════════════════════════════════════════════════════════════

func TestTopFilms(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Catalog()
	users := seedUsers(t, repos, "u1", "u2", "u3")
	f1 := seedFilm(t, repos, "F1", 2001, 1)
	f2 := seedFilm(t, repos, "F2", 2002, 2)
	f3 := seedFilm(t, repos, "F3", 2001, 1)

	for _, like := range []relation.Like{
		{FilmID: f1, UserID: users[0]},
		{FilmID: f3, UserID: users[0]},
		{FilmID: f3, UserID: users[1]},
	} {
		_, err := store.Likes().Add(ctx, like)
		require.NoError(t, err)
	}

	h := NewTopFilmsHandler(popularity.NewRanker(store.Likes()), repos.Films, repos.Genres)

	t.Run("default count and order", func(t *testing.T) {
		films, err := h.Handle(ctx, TopFilmsQuery{})
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(f3), int64(f1), int64(f2)}, filmIDs(films))
		require.NotNil(t, films[0].Likes)
		assert.Equal(t, 2, *films[0].Likes)
		require.NotNil(t, films[2].Likes)
		assert.Equal(t, 0, *films[2].Likes)
		assert.Equal(t, "Comedy", films[0].Genres[0].Name)
	})

	t.Run("count", func(t *testing.T) {
		films, err := h.Handle(ctx, TopFilmsQuery{Count: 1})
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(f3)}, filmIDs(films))
	})

	t.Run("genre and year filters", func(t *testing.T) {
		drama := int64(2)
		films, err := h.Handle(ctx, TopFilmsQuery{GenreID: &drama})
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(f2)}, filmIDs(films))

		year := 2001
		films, err = h.Handle(ctx, TopFilmsQuery{Year: &year})
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(f3), int64(f1)}, filmIDs(films))
	})

	t.Run("invalid genre", func(t *testing.T) {
		bad := int64(-1)
		_, err := h.Handle(ctx, TopFilmsQuery{GenreID: &bad})
		assert.True(t, shared.IsInvalidArgument(err))
	})

	t.Run("year out of range", func(t *testing.T) {
		for _, y := range []int{1800, 10000} {
			_, err := h.Handle(ctx, TopFilmsQuery{Year: &y})
			assert.True(t, shared.IsInvalidArgument(err), "year %d", y)
		}
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDS
// ══════════════════════════════════════════════════════════════════════════════

func TestFriendsQueries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Catalog()
	ids := seedUsers(t, repos, "a", "b", "c", "d")
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	for _, edge := range [][2]shared.UserID{{a, d}, {a, c}, {b, c}, {b, d}, {c, a}} {
		_, err := store.Friendships().Add(ctx, relation.Friendship{UserID: edge[0], FriendID: edge[1]})
		require.NoError(t, err)
	}

	h := NewFriendsHandler(repos.Users, social.NewGraph(store.Friendships()))

	friends, err := h.FriendsOf(ctx, int64(a))
	require.NoError(t, err)
	assert.Equal(t, []int64{int64(c), int64(d)}, userIDs(friends))
	assert.Equal(t, "c", friends[0].Login)

	mutual, err := h.MutualFriends(ctx, int64(a), int64(b))
	require.NoError(t, err)
	assert.Equal(t, []int64{int64(c), int64(d)}, userIDs(mutual))

	reversed, err := h.MutualFriends(ctx, int64(b), int64(a))
	require.NoError(t, err)
	assert.Equal(t, userIDs(mutual), userIDs(reversed))

	none, err := h.FriendsOf(ctx, int64(d))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = h.FriendsOf(ctx, 404)
	assert.True(t, shared.IsNotFound(err))

	_, err = h.MutualFriends(ctx, int64(a), 0)
	assert.True(t, shared.IsInvalidArgument(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

func TestListReviews_OrderedByUsefulness(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Catalog()
	users := seedUsers(t, repos, "author", "voter")
	film := seedFilm(t, repos, "Film", 2010)
	other := seedFilm(t, repos, "Other", 2011)

	var reviewIDs []shared.ReviewID
	for _, filmID := range []shared.FilmID{film, film, other} {
		r, err := catalog.NewReview(filmID, users[0], "text", true)
		require.NoError(t, err)
		require.NoError(t, repos.Reviews.Create(ctx, r))
		reviewIDs = append(reviewIDs, r.ID)
	}
	require.NoError(t, store.Feedback().AdjustUsefulScore(ctx, reviewIDs[1], 3))

	h := NewCatalogHandler(repos)

	filmID := int64(film)
	reviews, err := h.ListReviews(ctx, ListReviewsQuery{FilmID: &filmID})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(reviewIDs[1]), reviews[0].ID)
	assert.Equal(t, 3, reviews[0].UsefulScore)
	assert.Equal(t, int64(reviewIDs[0]), reviews[1].ID)

	all, err := h.ListReviews(ctx, ListReviewsQuery{Count: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing := int64(404)
	_, err = h.ListReviews(ctx, ListReviewsQuery{FilmID: &missing})
	assert.True(t, shared.IsNotFound(err))

	got, err := h.GetReview(ctx, int64(reviewIDs[1]))
	require.NoError(t, err)
	assert.Equal(t, 3, got.UsefulScore)

	_, err = h.GetReview(ctx, 404)
	assert.True(t, shared.IsNotFound(err))
}

func TestCatalogQueries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Catalog()
	users := seedUsers(t, repos, "neo")
	film := seedFilm(t, repos, "Matrix", 1999, 6, 4)

	h := NewCatalogHandler(repos)

	f, err := h.GetFilm(ctx, int64(film))
	require.NoError(t, err)
	assert.Equal(t, "1999-06-01", f.ReleaseDate)
	assert.Equal(t, []GenreDTO{{ID: 6, Name: "Action"}, {ID: 4, Name: "Thriller"}}, f.Genres)
	assert.Nil(t, f.Likes)

	films, err := h.ListFilms(ctx)
	require.NoError(t, err)
	assert.Len(t, films, 1)

	u, err := h.GetUser(ctx, int64(users[0]))
	require.NoError(t, err)
	assert.Equal(t, "neo", u.Login)
	assert.Empty(t, u.Birthday)

	genres, err := h.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, len(catalog.DefaultGenres))

	_, err = h.GetFilm(ctx, -3)
	assert.True(t, shared.IsInvalidArgument(err))
}
