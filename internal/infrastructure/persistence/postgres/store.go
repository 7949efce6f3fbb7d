package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
)

// Store implements relation.Store on a connection pool.
type Store struct {
	conn *Connection
}

// NewStore creates a Store. The schema must already exist (see EnsureSchema).
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

var _ relation.Store = (*Store)(nil)

// Likes returns the like repository.
func (s *Store) Likes() relation.LikeRepository { return &likeRepo{q: s.conn} }

// Friendships returns the friendship repository.
func (s *Store) Friendships() relation.FriendshipRepository { return &friendshipRepo{q: s.conn} }

// Feedback returns the feedback repository.
func (s *Store) Feedback() relation.FeedbackRepository { return &feedbackRepo{q: s.conn} }

// WithinTx runs fn in one READ COMMITTED transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx relation.Relations) error) error {
	return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(txRelations{q: tx})
	})
}

// Catalog returns the catalog repositories backed by the same pool.
func (s *Store) Catalog() catalog.Repositories {
	return catalog.Repositories{
		Films:   &FilmRepository{conn: s.conn},
		Users:   &UserRepository{conn: s.conn},
		Reviews: &ReviewRepository{conn: s.conn},
		Genres:  &GenreRepository{conn: s.conn},
	}
}

type txRelations struct{ q Querier }

func (t txRelations) Likes() relation.LikeRepository             { return &likeRepo{q: t.q} }
func (t txRelations) Friendships() relation.FriendshipRepository { return &friendshipRepo{q: t.q} }
func (t txRelations) Feedback() relation.FeedbackRepository       { return &feedbackRepo{q: t.q} }
