package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/feedback"
	"github.com/filmhub/filmhub-core/internal/domain/popularity"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/domain/social"
)

// openTestStore connects to TEST_DATABASE_URL and starts from empty tables.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("set TEST_DATABASE_URL to run PostgreSQL integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := NewConnectionFromURL(ctx, url, 8)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, EnsureSchema(ctx, conn))
	require.NoError(t, Truncate(ctx, conn))
	return NewStore(conn)
}

func createUsers(t *testing.T, repos catalog.Repositories, n int) []shared.UserID {
	t.Helper()
	ids := make([]shared.UserID, 0, n)
	for i := 1; i <= n; i++ {
		u := &catalog.User{
			Email: "it" + shared.UserID(i).String() + "@example.com",
			Login: "it" + shared.UserID(i).String(),
		}
		require.NoError(t, repos.Users.Create(context.Background(), u))
		ids = append(ids, u.ID)
	}
	return ids
}

func createFilm(t *testing.T, repos catalog.Repositories, year int, genres ...shared.GenreID) shared.FilmID {
	t.Helper()
	f := &catalog.Film{
		Name:        "film",
		ReleaseDate: time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
		Duration:    90,
		Genres:      genres,
	}
	require.NoError(t, repos.Films.Create(context.Background(), f))
	return f.ID
}

func TestIntegration_FeedbackScenario(t *testing.T) {
	store := openTestStore(t)
	repos := store.Catalog()
	ctx := context.Background()

	users := createUsers(t, repos, 3)
	film := createFilm(t, repos, 2001)
	review := &catalog.Review{FilmID: film, UserID: users[0], Content: "c"}
	require.NoError(t, repos.Reviews.Create(ctx, review))

	engine := feedback.NewEngine(store)
	score := func() int {
		rv, err := repos.Reviews.Get(ctx, review.ID)
		require.NoError(t, err)
		return rv.UsefulScore
	}

	_, err := engine.MarkUseful(ctx, review.ID, users[1])
	require.NoError(t, err)
	assert.Equal(t, 1, score())

	_, err = engine.MarkUseless(ctx, review.ID, users[2])
	require.NoError(t, err)
	assert.Equal(t, 0, score())

	_, err = engine.MarkUseless(ctx, review.ID, users[1])
	require.NoError(t, err)
	assert.Equal(t, -2, score())

	_, err = engine.ClearUseless(ctx, review.ID, users[1])
	require.NoError(t, err)
	assert.Equal(t, -1, score())

	_, err = engine.MarkUseful(ctx, review.ID+1000, users[1])
	assert.True(t, shared.IsNotFound(err))
}

func TestIntegration_ConcurrentFeedbackKeepsScore(t *testing.T) {
	store := openTestStore(t)
	repos := store.Catalog()
	ctx := context.Background()

	users := createUsers(t, repos, 8)
	film := createFilm(t, repos, 2001)
	review := &catalog.Review{FilmID: film, UserID: users[0], Content: "c"}
	require.NoError(t, repos.Reviews.Create(ctx, review))

	engine := feedback.NewEngine(store)
	var wg sync.WaitGroup
	for i, u := range users {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(k int, user shared.UserID) {
				defer wg.Done()
				for n := 0; n < 20; n++ {
					var err error
					switch (k + n) % 4 {
					case 0:
						_, err = engine.MarkUseful(ctx, review.ID, user)
					case 1:
						_, err = engine.MarkUseless(ctx, review.ID, user)
					case 2:
						_, err = engine.ClearUseful(ctx, review.ID, user)
					default:
						_, err = engine.ClearUseless(ctx, review.ID, user)
					}
					assert.NoError(t, err)
				}
			}(i+j, u)
		}
	}
	wg.Wait()

	expected, err := engine.Score(ctx, review.ID)
	require.NoError(t, err)
	rv, err := repos.Reviews.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, rv.UsefulScore)
}

func TestIntegration_FriendshipAndRanking(t *testing.T) {
	store := openTestStore(t)
	repos := store.Catalog()
	ctx := context.Background()

	users := createUsers(t, repos, 4)
	graph := social.NewGraph(store.Friendships())

	for _, f := range []shared.UserID{users[2], users[3]} {
		_, err := graph.AddFriend(ctx, users[0], f)
		require.NoError(t, err)
		_, err = graph.AddFriend(ctx, users[1], f)
		require.NoError(t, err)
	}
	added, err := graph.AddFriend(ctx, users[0], users[2])
	require.NoError(t, err)
	assert.False(t, added)

	common, err := graph.MutualFriends(ctx, users[1], users[0])
	require.NoError(t, err)
	assert.Equal(t, []shared.UserID{users[2], users[3]}, common)

	_, err = graph.AddFriend(ctx, users[0], 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 9999 not found")

	assert.True(t, shared.IsNotFound(graph.RemoveFriend(ctx, users[2], users[0])))

	f1 := createFilm(t, repos, 2001, 1)
	f2 := createFilm(t, repos, 2002, 2)
	f3 := createFilm(t, repos, 2003, 1)
	likes := store.Likes()
	for _, l := range []relation.Like{
		{FilmID: f1, UserID: users[0]}, {FilmID: f1, UserID: users[1]}, {FilmID: f1, UserID: users[2]},
		{FilmID: f2, UserID: users[0]},
		{FilmID: f3, UserID: users[0]}, {FilmID: f3, UserID: users[1]}, {FilmID: f3, UserID: users[2]},
	} {
		_, err := likes.Add(ctx, l)
		require.NoError(t, err)
	}

	ranker := popularity.NewRanker(likes)
	top, err := ranker.TopFilms(ctx, popularity.Query{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []shared.FilmID{f3, f1, f2}, top)

	comedy := shared.GenreID(1)
	year := 2001
	filtered, err := ranker.TopFilms(ctx, popularity.Query{Limit: 10, GenreID: &comedy, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, []shared.FilmID{f1}, filtered)

	require.NoError(t, repos.Films.Delete(ctx, f1))
	remaining, err := likes.ByFilm(ctx, f1)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestIntegration_UniqueUser(t *testing.T) {
	store := openTestStore(t)
	repos := store.Catalog()
	createUsers(t, repos, 1)

	err := repos.Users.Create(context.Background(), &catalog.User{Email: "it1@example.com", Login: "fresh"})
	require.Error(t, err)
	assert.True(t, shared.IsAlreadyExists(err))
	assert.Contains(t, err.Error(), "email is already taken")
}
