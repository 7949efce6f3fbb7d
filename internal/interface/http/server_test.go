package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmhub/filmhub-core/internal/application/command"
	"github.com/filmhub/filmhub-core/internal/application/query"
	"github.com/filmhub/filmhub-core/internal/domain/feedback"
	"github.com/filmhub/filmhub-core/internal/domain/popularity"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/domain/social"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/memory"
	"github.com/filmhub/filmhub-core/internal/interface/http/handlers"
	"github.com/filmhub/filmhub-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

func newTestServer(t *testing.T, mutate func(*Dependencies)) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	repos := store.Catalog()
	graph := social.NewGraph(store.Friendships())
	retrier := retry.StoreRetrier(shared.IsRetryable).With(retry.WithInitialDelay(time.Millisecond))

	deps := Dependencies{
		Catalog:      command.NewCatalogHandler(repos, logger),
		Likes:        command.NewLikeHandler(repos.Films, repos.Users, store.Likes(), retrier, logger),
		AddFriend:    command.NewAddFriendHandler(repos.Users, graph, retrier, logger),
		RemoveFriend: command.NewRemoveFriendHandler(repos.Users, graph, logger),
		Feedback:     command.NewApplyFeedbackHandler(repos.Reviews, repos.Users, feedback.NewEngine(store), retrier, logger),
		TopFilms:     query.NewTopFilmsHandler(popularity.NewRanker(store.Likes()), repos.Films, repos.Genres),
		Friends:      query.NewFriendsHandler(repos.Users, graph),
		CatalogQuery: query.NewCatalogHandler(repos),
		Logger:       logger,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewServer(DefaultConfig(), deps).Handler()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *ResponseMeta   `json:"meta"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func createUser(t *testing.T, h http.Handler, login string) int64 {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/users", map[string]any{
		"email": login + "@example.com", "login": login, "birthday": "1990-05-17",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[query.UserDTO](t, rec).ID
}

func createFilm(t *testing.T, h http.Handler, name string, genres ...int64) int64 {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/films", map[string]any{
		"name": name, "description": "d", "release_date": "2001-01-01", "duration": 100, "genres": genres,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[query.FilmDTO](t, rec).ID
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTES
// ══════════════════════════════════════════════════════════════════════════════

func TestPopularFilms(t *testing.T) {
	h := newTestServer(t, nil)
	u1, u2 := createUser(t, h, "u1"), createUser(t, h, "u2")
	f1, f2, f3 := createFilm(t, h, "F1", 1), createFilm(t, h, "F2", 2), createFilm(t, h, "F3", 1)

	for _, path := range []string{
		fmt.Sprintf("/films/%d/like/%d", f1, u1),
		fmt.Sprintf("/films/%d/like/%d", f3, u1),
		fmt.Sprintf("/films/%d/like/%d", f3, u2),
	} {
		rec := do(t, h, http.MethodPut, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/films/popular", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	films := decode[[]query.FilmDTO](t, rec)
	require.Len(t, films, 3)
	assert.Equal(t, []int64{f3, f1, f2}, []int64{films[0].ID, films[1].ID, films[2].ID})
	assert.Equal(t, 2, *films[0].Likes)

	rec = do(t, h, http.MethodGet, "/films/popular?count=1&genreId=1&year=2001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	films = decode[[]query.FilmDTO](t, rec)
	require.Len(t, films, 1)
	assert.Equal(t, f3, films[0].ID)

	rec = do(t, h, http.MethodGet, "/films/popular?count=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/films/popular?year=9999999999", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLikes(t *testing.T) {
	h := newTestServer(t, nil)
	u, f := createUser(t, h, "u"), createFilm(t, h, "F")
	path := fmt.Sprintf("/films/%d/like/%d", f, u)

	assert.True(t, decode[map[string]bool](t, do(t, h, http.MethodPut, path, nil))["changed"])
	assert.False(t, decode[map[string]bool](t, do(t, h, http.MethodPut, path, nil))["changed"])
	assert.True(t, decode[map[string]bool](t, do(t, h, http.MethodDelete, path, nil))["changed"])

	rec := do(t, h, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPut, fmt.Sprintf("/films/%d/like/%d", f, 999), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestFilmPatch(t *testing.T) {
	h := newTestServer(t, nil)
	f := createFilm(t, h, "Original", 1, 2)

	rec := do(t, h, http.MethodPatch, fmt.Sprintf("/films/%d", f), map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	film := decode[query.FilmDTO](t, rec)
	assert.Equal(t, "Renamed", film.Name)
	assert.Equal(t, 100, film.Duration)
	assert.Len(t, film.Genres, 2)

	rec = do(t, h, http.MethodPatch, fmt.Sprintf("/films/%d", f), map[string]any{"duration": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, fmt.Sprintf("/films/%d", f), map[string]any{"useful": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/films/%d", f), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/films/%d", f), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers(t *testing.T) {
	h := newTestServer(t, nil)
	id := createUser(t, h, "neo")

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[query.UserDTO](t, rec)
	assert.Equal(t, "neo", user.Name)
	assert.Equal(t, "1990-05-17", user.Birthday)

	rec = do(t, h, http.MethodPost, "/users", map[string]any{"email": "neo@example.com", "login": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", errorCode(t, rec))

	rec = do(t, h, http.MethodPatch, fmt.Sprintf("/users/%d", id), map[string]any{"name": "Thomas", "birthday": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user = decode[query.UserDTO](t, rec)
	assert.Equal(t, "Thomas", user.Name)
	assert.Equal(t, "1990-05-17", user.Birthday, "null leaves the field unchanged")

	rec = do(t, h, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFriends(t *testing.T) {
	h := newTestServer(t, nil)
	a, b, c := createUser(t, h, "a"), createUser(t, h, "b"), createUser(t, h, "c")

	for _, edge := range [][2]int64{{a, c}, {b, c}, {a, b}} {
		rec := do(t, h, http.MethodPut, fmt.Sprintf("/users/%d/friends/%d", edge[0], edge[1]), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	friends := decode[[]query.UserDTO](t, do(t, h, http.MethodGet, fmt.Sprintf("/users/%d/friends", a), nil))
	assert.Len(t, friends, 2)

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/users/%d/friends", b), nil)
	friends = decode[[]query.UserDTO](t, rec)
	require.Len(t, friends, 1, "friendship is directional")
	assert.Equal(t, c, friends[0].ID)

	common := decode[[]query.UserDTO](t, do(t, h, http.MethodGet, fmt.Sprintf("/users/%d/friends/common/%d", a, b), nil))
	require.Len(t, common, 1)
	assert.Equal(t, c, common[0].ID)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/users/%d/friends/%d", a, b), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/users/%d/friends/%d", a, b), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, fmt.Sprintf("/users/%d/friends/%d", a, a), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/users/12345/friends", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewFeedback(t *testing.T) {
	h := newTestServer(t, nil)
	author, u1, u2 := createUser(t, h, "author"), createUser(t, h, "u1"), createUser(t, h, "u2")
	film := createFilm(t, h, "F")

	rec := do(t, h, http.MethodPost, "/reviews", map[string]any{"film_id": film, "user_id": author, "content": "great"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "is_positive is required")

	rec = do(t, h, http.MethodPost, "/reviews", map[string]any{
		"film_id": film, "user_id": author, "content": "great", "is_positive": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode[query.ReviewDTO](t, rec)
	assert.Equal(t, 0, review.UsefulScore)

	score := func() int {
		rec := do(t, h, http.MethodGet, fmt.Sprintf("/reviews/%d", review.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[query.ReviewDTO](t, rec).UsefulScore
	}

	steps := []struct {
		method, kind string
		user         int64
		want         int
	}{
		{http.MethodPut, "like", u1, 1},
		{http.MethodDelete, "like", u1, 0},
		{http.MethodPut, "dislike", u1, -1},
		{http.MethodPut, "dislike", u2, -2},
		{http.MethodPut, "like", u1, 0},
		{http.MethodDelete, "dislike", u1, 0},
		{http.MethodDelete, "like", u1, -1},
	}
	for _, step := range steps {
		path := fmt.Sprintf("/reviews/%d/%s/%d", review.ID, step.kind, step.user)
		rec := do(t, h, step.method, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, step.want, score(), "%s %s", step.method, path)
	}

	tr := decode[transitionResponse](t, do(t, h, http.MethodPut, fmt.Sprintf("/reviews/%d/like/%d", review.ID, u2), nil))
	assert.Equal(t, transitionResponse{From: "USELESS", To: "USEFUL", Delta: 2}, tr)

	rec = do(t, h, http.MethodPatch, fmt.Sprintf("/reviews/%d", review.ID), map[string]any{"content": "still great"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[query.ReviewDTO](t, rec)
	assert.Equal(t, "still great", updated.Content)
	assert.Equal(t, 1, updated.UsefulScore)

	list := decode[[]query.ReviewDTO](t, do(t, h, http.MethodGet, fmt.Sprintf("/reviews?filmId=%d&count=5", film), nil))
	require.Len(t, list, 1)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/reviews/%d", review.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodPut, fmt.Sprintf("/reviews/%d/like/%d", review.ID, u1), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/films", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/films", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, func(d *Dependencies) {
		d.Limiter = NewMemoryLimiter(2, time.Minute)
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/films", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/films", nil).Code)
	rec := do(t, h, http.MethodGet, "/films", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := newTestServer(t, func(d *Dependencies) {
		d.Limiter = LimiterFunc(func(context.Context, string) (bool, error) {
			return false, errors.New("redis down")
		})
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/films", nil).Code)
}

func TestHealth(t *testing.T) {
	checker := handlers.NewHealthChecker("test")
	h := newTestServer(t, func(d *Dependencies) { d.Health = checker })

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)

	checker.AddCheck("postgres", func(context.Context) (string, error) { return "", errors.New("connection refused") })
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", errorCode(t, rec))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.NotFoundf("t", "op", "x"), http.StatusNotFound},
		{shared.InvalidArgumentf("t", "op", "x"), http.StatusBadRequest},
		{shared.NewDomainError("t", "op", shared.ErrAlreadyExists, "x"), http.StatusConflict},
		{shared.Unavailable("t", "op", errors.New("conn reset")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := errorStatus(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

func TestMemoryLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow(context.Background(), "ip")
	assert.True(t, ok)
	ok, _ = l.Allow(context.Background(), "ip")
	assert.False(t, ok)
	ok, _ = l.Allow(context.Background(), "other")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(context.Background(), "ip")
	assert.True(t, ok)
}
