package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

const domainName = "memory"

// ══════════════════════════════════════════════════════════════════════════════
// FILMS
// ══════════════════════════════════════════════════════════════════════════════

type filmRepo struct{ s session }

func copyFilm(f catalog.Film) *catalog.Film {
	f.Genres = slices.Clone(f.Genres)
	return &f
}

func (d *data) checkGenres(op string, genres []shared.GenreID) error {
	for _, g := range genres {
		if _, ok := d.genres[g]; !ok {
			return shared.NotFoundf(domainName, op, "genre %d not found", g)
		}
	}
	return nil
}

func (r *filmRepo) Create(ctx context.Context, film *catalog.Film) error {
	return r.s.do(ctx, func(d *data) error {
		if err := d.checkGenres("CreateFilm", film.Genres); err != nil {
			return err
		}
		d.nextFilmID++
		film.ID = d.nextFilmID
		d.films[film.ID] = *copyFilm(*film)
		return nil
	})
}

func (r *filmRepo) Get(ctx context.Context, id shared.FilmID) (*catalog.Film, error) {
	var out *catalog.Film
	err := r.s.do(ctx, func(d *data) error {
		f, ok := d.films[id]
		if !ok {
			return shared.NotFoundf(domainName, "GetFilm", "film %d not found", id)
		}
		out = copyFilm(f)
		return nil
	})
	return out, err
}

func (r *filmRepo) Update(ctx context.Context, film *catalog.Film) error {
	return r.s.do(ctx, func(d *data) error {
		if _, ok := d.films[film.ID]; !ok {
			return shared.NotFoundf(domainName, "UpdateFilm", "film %d not found", film.ID)
		}
		if err := d.checkGenres("UpdateFilm", film.Genres); err != nil {
			return err
		}
		d.films[film.ID] = *copyFilm(*film)
		return nil
	})
}

// Delete removes the film and cascades to likes, reviews and their feedback.
func (r *filmRepo) Delete(ctx context.Context, id shared.FilmID) error {
	return r.s.do(ctx, func(d *data) error {
		if _, ok := d.films[id]; !ok {
			return shared.NotFoundf(domainName, "DeleteFilm", "film %d not found", id)
		}
		delete(d.films, id)
		for like := range d.likes {
			if like.FilmID == id {
				delete(d.likes, like)
			}
		}
		for rid, review := range d.reviews {
			if review.FilmID == id {
				d.deleteReview(rid)
			}
		}
		return nil
	})
}

func (r *filmRepo) List(ctx context.Context) ([]*catalog.Film, error) {
	var out []*catalog.Film
	err := r.s.do(ctx, func(d *data) error {
		for _, f := range d.films {
			out = append(out, copyFilm(f))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *catalog.Film) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r *filmRepo) Exists(ctx context.Context, id shared.FilmID) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(d *data) error {
		_, ok = d.films[id]
		return nil
	})
	return ok, err
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

type userRepo struct{ s session }

func (d *data) checkUnique(op string, u *catalog.User) error {
	for id, other := range d.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return shared.NewDomainError(domainName, op, shared.ErrAlreadyExists, "email "+u.Email+" is already taken")
		}
		if other.Login == u.Login {
			return shared.NewDomainError(domainName, op, shared.ErrAlreadyExists, "login "+u.Login+" is already taken")
		}
	}
	return nil
}

func (r *userRepo) Create(ctx context.Context, user *catalog.User) error {
	return r.s.do(ctx, func(d *data) error {
		if err := d.checkUnique("CreateUser", user); err != nil {
			return err
		}
		d.nextUserID++
		user.ID = d.nextUserID
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) Get(ctx context.Context, id shared.UserID) (*catalog.User, error) {
	var out *catalog.User
	err := r.s.do(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return shared.NotFoundf(domainName, "GetUser", "user %d not found", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, user *catalog.User) error {
	return r.s.do(ctx, func(d *data) error {
		if _, ok := d.users[user.ID]; !ok {
			return shared.NotFoundf(domainName, "UpdateUser", "user %d not found", user.ID)
		}
		if err := d.checkUnique("UpdateUser", user); err != nil {
			return err
		}
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetMany(ctx context.Context, ids []shared.UserID) ([]*catalog.User, error) {
	out := make([]*catalog.User, 0, len(ids))
	err := r.s.do(ctx, func(d *data) error {
		for _, id := range ids {
			if u, ok := d.users[id]; ok {
				out = append(out, &u)
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Exists(ctx context.Context, id shared.UserID) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(d *data) error {
		_, ok = d.users[id]
		return nil
	})
	return ok, err
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEWS
// ══════════════════════════════════════════════════════════════════════════════

type reviewRepo struct{ s session }

func (d *data) deleteReview(id shared.ReviewID) {
	delete(d.reviews, id)
	for key := range d.feedback {
		if key.reviewID == id {
			delete(d.feedback, key)
		}
	}
}

func (r *reviewRepo) Create(ctx context.Context, review *catalog.Review) error {
	return r.s.do(ctx, func(d *data) error {
		if err := d.requireFilm(review.FilmID); err != nil {
			return err
		}
		if err := d.requireUser(review.UserID); err != nil {
			return err
		}
		d.nextReviewID++
		review.ID = d.nextReviewID
		review.UsefulScore = 0
		d.reviews[review.ID] = *review
		return nil
	})
}

func (r *reviewRepo) Get(ctx context.Context, id shared.ReviewID) (*catalog.Review, error) {
	var out *catalog.Review
	err := r.s.do(ctx, func(d *data) error {
		rv, ok := d.reviews[id]
		if !ok {
			return shared.NotFoundf(domainName, "GetReview", "review %d not found", id)
		}
		out = &rv
		return nil
	})
	return out, err
}

// UpdateContent keeps the stored useful score whatever the caller passes in.
func (r *reviewRepo) UpdateContent(ctx context.Context, review *catalog.Review) error {
	return r.s.do(ctx, func(d *data) error {
		stored, ok := d.reviews[review.ID]
		if !ok {
			return shared.NotFoundf(domainName, "UpdateReview", "review %d not found", review.ID)
		}
		stored.Content = review.Content
		stored.IsPositive = review.IsPositive
		d.reviews[review.ID] = stored
		*review = stored
		return nil
	})
}

func (r *reviewRepo) Delete(ctx context.Context, id shared.ReviewID) error {
	return r.s.do(ctx, func(d *data) error {
		if _, ok := d.reviews[id]; !ok {
			return shared.NotFoundf(domainName, "DeleteReview", "review %d not found", id)
		}
		d.deleteReview(id)
		return nil
	})
}

func (r *reviewRepo) ListByFilm(ctx context.Context, filmID *shared.FilmID, limit int) ([]*catalog.Review, error) {
	var out []*catalog.Review
	err := r.s.do(ctx, func(d *data) error {
		for _, rv := range d.reviews {
			if filmID != nil && rv.FilmID != *filmID {
				continue
			}
			out = append(out, &rv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *catalog.Review) int {
		if c := cmp.Compare(b.UsefulScore, a.UsefulScore); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reviewRepo) Exists(ctx context.Context, id shared.ReviewID) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(d *data) error {
		_, ok = d.reviews[id]
		return nil
	})
	return ok, err
}

// ══════════════════════════════════════════════════════════════════════════════
// GENRES
// ══════════════════════════════════════════════════════════════════════════════

type genreRepo struct{ s session }

func (r *genreRepo) List(ctx context.Context) ([]*catalog.Genre, error) {
	var out []*catalog.Genre
	err := r.s.do(ctx, func(d *data) error {
		for _, g := range d.genres {
			out = append(out, &g)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *catalog.Genre) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r *genreRepo) Get(ctx context.Context, id shared.GenreID) (*catalog.Genre, error) {
	var out *catalog.Genre
	err := r.s.do(ctx, func(d *data) error {
		g, ok := d.genres[id]
		if !ok {
			return shared.NotFoundf(domainName, "GetGenre", "genre %d not found", id)
		}
		out = &g
		return nil
	})
	return out, err
}
