// Package memory is an in-process backend for the catalog and relation stores.
// It is used by tests and local runs; every instance is independent.
package memory

import (
	"context"
	"sync"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

type feedbackKey struct {
	reviewID shared.ReviewID
	userID   shared.UserID
}

// data is the full state of a store.
type data struct {
	films       map[shared.FilmID]catalog.Film
	users       map[shared.UserID]catalog.User
	reviews     map[shared.ReviewID]catalog.Review
	genres      map[shared.GenreID]catalog.Genre
	likes       map[relation.Like]struct{}
	friendships map[relation.Friendship]struct{}
	feedback    map[feedbackKey]bool

	nextFilmID   shared.FilmID
	nextUserID   shared.UserID
	nextReviewID shared.ReviewID

	// journal is set while a transaction runs.
	journal *journal
}

func newData() *data {
	d := &data{
		films:       make(map[shared.FilmID]catalog.Film),
		users:       make(map[shared.UserID]catalog.User),
		reviews:     make(map[shared.ReviewID]catalog.Review),
		genres:      make(map[shared.GenreID]catalog.Genre),
		likes:       make(map[relation.Like]struct{}),
		friendships: make(map[relation.Friendship]struct{}),
		feedback:    make(map[feedbackKey]bool),
	}
	for _, g := range catalog.DefaultGenres {
		d.genres[g.ID] = g
	}
	return d
}

// journal holds undo steps for the entries a transaction overwrote, oldest first.
type journal []func()

func (j journal) rollback() {
	for i := len(j) - 1; i >= 0; i-- {
		j[i]()
	}
}

// record saves the current entry for key so a failed transaction can restore it.
// It must be called before the entry is written or deleted.
func record[K comparable, V any](d *data, m map[K]V, key K) {
	if d.journal == nil {
		return
	}
	prev, had := m[key]
	*d.journal = append(*d.journal, func() {
		if had {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

// Store implements relation.Store and the catalog repositories on guarded maps.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore creates an empty store seeded with catalog.DefaultGenres.
func NewStore() *Store {
	return &Store{data: newData()}
}

// Compile-time interface checks.
var (
	_ relation.Store                = (*Store)(nil)
	_ catalog.FilmRepository        = (*filmRepo)(nil)
	_ catalog.UserRepository        = (*userRepo)(nil)
	_ catalog.ReviewRepository      = (*reviewRepo)(nil)
	_ catalog.GenreRepository       = (*genreRepo)(nil)
	_ relation.LikeRepository       = (*likeRepo)(nil)
	_ relation.FriendshipRepository = (*friendshipRepo)(nil)
	_ relation.FeedbackRepository   = (*feedbackRepo)(nil)
)

// session resolves the data a repository call works on.
// Outside a transaction every call takes the store lock; inside one the lock is already held.
type session struct {
	store *Store
	tx    *data
}

func (s session) do(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.data)
}

func (s *Store) session() session { return session{store: s} }

// WithinTx runs fn while holding the store lock. Writes made by fn are journaled
// and undone when fn fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(tx relation.Relations) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var undo journal
	committed := false
	s.data.journal = &undo
	defer func() {
		s.data.journal = nil
		if !committed {
			undo.rollback()
		}
	}()

	if err := fn(txRelations{session{store: s, tx: s.data}}); err != nil {
		return err
	}
	committed = true
	return nil
}

// Likes returns the like repository.
func (s *Store) Likes() relation.LikeRepository { return &likeRepo{s.session()} }

// Friendships returns the friendship repository.
func (s *Store) Friendships() relation.FriendshipRepository {
	return &friendshipRepo{s.session()}
}

// Feedback returns the feedback repository.
func (s *Store) Feedback() relation.FeedbackRepository { return &feedbackRepo{s.session()} }

// Catalog returns the catalog repositories backed by this store.
func (s *Store) Catalog() catalog.Repositories {
	return catalog.Repositories{
		Films:   &filmRepo{s.session()},
		Users:   &userRepo{s.session()},
		Reviews: &reviewRepo{s.session()},
		Genres:  &genreRepo{s.session()},
	}
}

type txRelations struct{ s session }

func (t txRelations) Likes() relation.LikeRepository { return &likeRepo{t.s} }
func (t txRelations) Friendships() relation.FriendshipRepository {
	return &friendshipRepo{t.s}
}
func (t txRelations) Feedback() relation.FeedbackRepository { return &feedbackRepo{t.s} }
