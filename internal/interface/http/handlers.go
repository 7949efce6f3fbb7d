package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/filmhub/filmhub-core/internal/application/command"
	"github.com/filmhub/filmhub-core/internal/application/query"
	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  s.Uptime().Round(time.Second).String(),
		})
		return
	}

	status := s.deps.Health.Check(r.Context())
	if !status.Healthy {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(JSONResponse{
			Success: false,
			Data:    status,
			Error:   &APIError{Code: "unavailable", Message: status.Message},
		})
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// FILMS
// ══════════════════════════════════════════════════════════════════════════════

type createFilmRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"release_date"`
	Duration    int     `json:"duration"`
	Genres      []int64 `json:"genres"`
}

type updateFilmRequest struct {
	Name        shared.Optional[string]  `json:"name"`
	Description shared.Optional[string]  `json:"description"`
	ReleaseDate shared.Optional[string]  `json:"release_date"`
	Duration    shared.Optional[int]     `json:"duration"`
	Genres      shared.Optional[[]int64] `json:"genres"`
}

func (s *Server) handleListFilms(w http.ResponseWriter, r *http.Request) {
	films, err := s.deps.CatalogQuery.ListFilms(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, films)
}

func (s *Server) handlePopularFilms(w http.ResponseWriter, r *http.Request) {
	q := query.TopFilmsQuery{}
	var err error
	if q.Count, err = queryInt(r, "count"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.GenreID, err = queryInt64Ptr(r, "genreId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	year, err := queryInt64Ptr(r, "year")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if year != nil {
		y := int(*year)
		q.Year = &y
	}

	films, err := s.deps.TopFilms.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, films)
}

func (s *Server) handleCreateFilm(w http.ResponseWriter, r *http.Request) {
	var req createFilmRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	releaseDate, err := parseDate("release_date", req.ReleaseDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	film, err := s.deps.Catalog.CreateFilm(r.Context(), command.CreateFilmCommand{
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: releaseDate,
		Duration:    req.Duration,
		Genres:      req.Genres,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFilm(w, r, http.StatusCreated, film.ID)
}

func (s *Server) handleGetFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFilm(w, r, http.StatusOK, shared.FilmID(id))
}

func (s *Server) handleUpdateFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateFilmRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	update := catalog.FilmUpdate{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
	}
	if raw, ok := req.ReleaseDate.Get(); ok {
		d, err := parseDate("release_date", raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		update.ReleaseDate = shared.Some(d)
	}
	if raw, ok := req.Genres.Get(); ok {
		genres := make([]shared.GenreID, len(raw))
		for i, g := range raw {
			genres[i] = shared.GenreID(g)
		}
		update.Genres = shared.Some(genres)
	}

	film, err := s.deps.Catalog.UpdateFilm(r.Context(), command.UpdateFilmCommand{FilmID: id, Update: update})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFilm(w, r, http.StatusOK, film.ID)
}

func (s *Server) handleDeleteFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Catalog.DeleteFilm(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeFilm re-reads the film so the response carries genre names.
func (s *Server) writeFilm(w http.ResponseWriter, r *http.Request, status int, id shared.FilmID) {
	dto, err := s.deps.CatalogQuery.GetFilm(r.Context(), int64(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, status, dto)
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.deps.CatalogQuery.ListGenres(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, genres)
}

// ─────────────────────────────────────────────────────────────────────────────
// Likes
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleAddLike(w http.ResponseWriter, r *http.Request) {
	s.handleLike(w, r, s.deps.Likes.Add)
}

func (s *Server) handleRemoveLike(w http.ResponseWriter, r *http.Request) {
	s.handleLike(w, r, s.deps.Likes.Remove)
}

func (s *Server) handleLike(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, cmd command.LikeCommand) (*command.LikeResult, error),
) {
	filmID, userID, err := pathIDs(r, "id", "userId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := apply(r.Context(), command.LikeCommand{FilmID: filmID, UserID: userID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"changed": res.Changed})
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS AND FRIENDS
// ══════════════════════════════════════════════════════════════════════════════

type createUserRequest struct {
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

type updateUserRequest struct {
	Email    shared.Optional[string] `json:"email"`
	Login    shared.Optional[string] `json:"login"`
	Name     shared.Optional[string] `json:"name"`
	Birthday shared.Optional[string] `json:"birthday"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var birthday time.Time
	if req.Birthday != "" {
		var err error
		if birthday, err = parseDate("birthday", req.Birthday); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	user, err := s.deps.Catalog.CreateUser(r.Context(), command.CreateUserCommand{
		Email:    req.Email,
		Login:    req.Login,
		Name:     req.Name,
		Birthday: birthday,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewUserDTO(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.deps.CatalogQuery.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	update := catalog.UserUpdate{Email: req.Email, Login: req.Login, Name: req.Name}
	if raw, ok := req.Birthday.Get(); ok {
		d, err := parseDate("birthday", raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		update.Birthday = shared.Some(d)
	}

	user, err := s.deps.Catalog.UpdateUser(r.Context(), command.UpdateUserCommand{UserID: id, Update: update})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewUserDTO(user))
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	friends, err := s.deps.Friends.FriendsOf(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, friends)
}

func (s *Server) handleMutualFriends(w http.ResponseWriter, r *http.Request) {
	id, otherID, err := pathIDs(r, "id", "otherId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	friends, err := s.deps.Friends.MutualFriends(r.Context(), id, otherID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, friends)
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	id, friendID, err := pathIDs(r, "id", "friendId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.AddFriend.Handle(r.Context(), command.AddFriendCommand{UserID: id, FriendID: friendID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"changed": res.Added})
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, friendID, err := pathIDs(r, "id", "friendId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.RemoveFriend.Handle(r.Context(), command.RemoveFriendCommand{UserID: id, FriendID: friendID}); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEWS AND FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

type createReviewRequest struct {
	FilmID     int64  `json:"film_id"`
	UserID     int64  `json:"user_id"`
	Content    string `json:"content"`
	IsPositive *bool  `json:"is_positive"`
}

type updateReviewRequest struct {
	Content    shared.Optional[string] `json:"content"`
	IsPositive shared.Optional[bool]   `json:"is_positive"`
}

type transitionResponse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Delta int    `json:"delta"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	q := query.ListReviewsQuery{}
	var err error
	if q.FilmID, err = queryInt64Ptr(r, "filmId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Count, err = queryInt(r, "count"); err != nil {
		s.writeError(w, r, err)
		return
	}

	reviews, err := s.deps.CatalogQuery.ListReviews(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, reviews)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IsPositive == nil {
		s.writeError(w, r, badRequest("is_positive is required"))
		return
	}

	review, err := s.deps.Catalog.CreateReview(r.Context(), command.CreateReviewCommand{
		FilmID:     req.FilmID,
		UserID:     req.UserID,
		Content:    req.Content,
		IsPositive: *req.IsPositive,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewReviewDTO(review))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.deps.CatalogQuery.GetReview(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, review)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateReviewRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	review, err := s.deps.Catalog.UpdateReview(r.Context(), command.UpdateReviewCommand{
		ReviewID: id,
		Update:   catalog.ReviewUpdate{Content: req.Content, IsPositive: req.IsPositive},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewReviewDTO(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Catalog.DeleteReview(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) feedbackRoute(action command.FeedbackAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewID, userID, err := pathIDs(r, "id", "userId")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tr, err := s.deps.Feedback.Handle(r.Context(), command.ApplyFeedbackCommand{
			ReviewID: reviewID,
			UserID:   userID,
			Action:   action,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, transitionResponse{From: tr.From.String(), To: tr.To.String(), Delta: tr.Delta})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING
// ══════════════════════════════════════════════════════════════════════════════

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("path parameter %s=%q is not an integer", name, raw)
	}
	return id, nil
}

func pathIDs(r *http.Request, first, second string) (int64, int64, error) {
	a, err := pathID(r, first)
	if err != nil {
		return 0, 0, err
	}
	b, err := pathID(r, second)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// queryInt returns 0 when the parameter is absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("query parameter %s=%q is not an integer", name, raw)
	}
	return v, nil
}

// queryInt64Ptr returns nil when the parameter is absent.
func queryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest("query parameter %s=%q is not an integer", name, raw)
	}
	return &v, nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, badRequest("%s must be a YYYY-MM-DD date, got %q", field, raw)
	}
	return t, nil
}
