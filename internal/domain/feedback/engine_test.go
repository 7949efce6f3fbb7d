package feedback_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/feedback"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/memory"
)

type fixture struct {
	store  *memory.Store
	engine *feedback.Engine
	review shared.ReviewID
	users  []shared.UserID
}

func newFixture(t *testing.T, users int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Catalog()

	fx := &fixture{store: store, engine: feedback.NewEngine(store)}
	for i := 0; i < users; i++ {
		u := &catalog.User{
			Email:    "user" + shared.UserID(i+1).String() + "@example.com",
			Login:    "user" + shared.UserID(i+1).String(),
			Birthday: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, repos.Users.Create(ctx, u))
		fx.users = append(fx.users, u.ID)
	}

	film := &catalog.Film{Name: "Film", ReleaseDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Duration: 90}
	require.NoError(t, repos.Films.Create(ctx, film))

	review, err := catalog.NewReview(film.ID, fx.users[0], "A review", true)
	require.NoError(t, err)
	require.NoError(t, repos.Reviews.Create(ctx, review))
	fx.review = review.ID
	return fx
}

func (fx *fixture) score(t *testing.T) int {
	t.Helper()
	r, err := fx.store.Catalog().Reviews.Get(context.Background(), fx.review)
	require.NoError(t, err)
	return r.UsefulScore
}

func TestEngine_Scenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 3)
	u2, u3 := fx.users[1], fx.users[2]

	assert.Equal(t, 0, fx.score(t))

	tr, err := fx.engine.MarkUseful(ctx, fx.review, u2)
	require.NoError(t, err)
	assert.Equal(t, feedback.Transition{From: feedback.StateNone, To: feedback.StateUseful, Delta: 1}, tr)
	assert.Equal(t, 1, fx.score(t))

	_, err = fx.engine.MarkUseless(ctx, fx.review, u3)
	require.NoError(t, err)
	assert.Equal(t, 0, fx.score(t))

	tr, err = fx.engine.MarkUseless(ctx, fx.review, u2)
	require.NoError(t, err)
	assert.Equal(t, feedback.Transition{From: feedback.StateUseful, To: feedback.StateUseless, Delta: -2}, tr)
	assert.Equal(t, -2, fx.score(t))

	tr, err = fx.engine.ClearUseless(ctx, fx.review, u2)
	require.NoError(t, err)
	assert.Equal(t, feedback.Transition{From: feedback.StateUseless, To: feedback.StateNone, Delta: 1}, tr)
	assert.Equal(t, -1, fx.score(t))
}

func TestEngine_MarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 2)
	u := fx.users[1]

	_, err := fx.engine.MarkUseful(ctx, fx.review, u)
	require.NoError(t, err)
	once := fx.score(t)

	tr, err := fx.engine.MarkUseful(ctx, fx.review, u)
	require.NoError(t, err)
	assert.False(t, tr.Changed())
	assert.Equal(t, 0, tr.Delta)
	assert.Equal(t, once, fx.score(t))

	state, err := fx.engine.Current(ctx, fx.review, u)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateUseful, state)
}

func TestEngine_FlipChangesScoreByTwo(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 2)
	u := fx.users[1]

	_, err := fx.engine.MarkUseful(ctx, fx.review, u)
	require.NoError(t, err)
	before := fx.score(t)

	_, err = fx.engine.MarkUseless(ctx, fx.review, u)
	require.NoError(t, err)
	assert.Equal(t, before-2, fx.score(t))

	_, err = fx.engine.MarkUseful(ctx, fx.review, u)
	require.NoError(t, err)
	assert.Equal(t, before, fx.score(t))
}

func TestEngine_ClearOnlyMatchingPolarity(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 2)
	u := fx.users[1]

	tr, err := fx.engine.ClearUseful(ctx, fx.review, u)
	require.NoError(t, err)
	assert.Equal(t, feedback.Transition{From: feedback.StateNone, To: feedback.StateNone}, tr)

	_, err = fx.engine.MarkUseless(ctx, fx.review, u)
	require.NoError(t, err)

	tr, err = fx.engine.ClearUseful(ctx, fx.review, u)
	require.NoError(t, err)
	assert.False(t, tr.Changed())
	assert.Equal(t, -1, fx.score(t))

	state, err := fx.engine.Current(ctx, fx.review, u)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateUseless, state)
}

func TestEngine_UnknownReview(t *testing.T) {
	fx := newFixture(t, 1)

	_, err := fx.engine.MarkUseful(context.Background(), fx.review+100, fx.users[0])
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestEngine_ScoreMatchesRowsUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 20)

	ops := []func(context.Context, shared.ReviewID, shared.UserID) (feedback.Transition, error){
		fx.engine.MarkUseful,
		fx.engine.MarkUseless,
		fx.engine.ClearUseful,
		fx.engine.ClearUseless,
	}

	var wg sync.WaitGroup
	for i, u := range fx.users {
		wg.Add(1)
		go func(seed int64, user shared.UserID) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for j := 0; j < 200; j++ {
				_, err := ops[rnd.Intn(len(ops))](ctx, fx.review, user)
				assert.NoError(t, err)
			}
		}(int64(i), u)
	}
	wg.Wait()

	expected, err := fx.engine.Score(ctx, fx.review)
	require.NoError(t, err)
	assert.Equal(t, expected, fx.score(t))
}

func TestEngine_CanceledContext(t *testing.T) {
	fx := newFixture(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.engine.MarkUseful(ctx, fx.review, fx.users[1])
	require.Error(t, err)
	assert.True(t, shared.IsUnavailable(err))
	assert.Equal(t, 0, fx.score(t))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "NONE", feedback.StateNone.String())
	assert.Equal(t, "USEFUL", feedback.StateUseful.String())
	assert.Equal(t, "USELESS", feedback.StateUseless.String())
	assert.Equal(t, "USEFUL -> USELESS (-2)",
		feedback.Transition{From: feedback.StateUseful, To: feedback.StateUseless, Delta: -2}.String())
}
