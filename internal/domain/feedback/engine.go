// Package feedback maintains the tri-state opinion of each user on each review and
// keeps the review's denormalized useful score equal to
// (#useful rows) - (#useless rows).
package feedback

import (
	"context"
	"fmt"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

const domainName = "feedback"

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// State is the opinion a user holds on a review.
type State int8

const (
	StateNone State = iota
	StateUseful
	StateUseless
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUseful:
		return "USEFUL"
	case StateUseless:
		return "USELESS"
	default:
		return "NONE"
	}
}

func stateOf(isUseful bool) State {
	if isUseful {
		return StateUseful
	}
	return StateUseless
}

// Transition is the change applied by one engine call.
// For a no-op From equals To and Delta is 0.
type Transition struct {
	From  State
	To    State
	Delta int
}

// Changed reports whether the call wrote anything.
func (t Transition) Changed() bool {
	return t.From != t.To
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s (%+d)", t.From, t.To, t.Delta)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine applies feedback transitions. Ids are validated by the caller.
type Engine struct {
	store relation.Store
}

// NewEngine creates an Engine over store.
func NewEngine(store relation.Store) *Engine {
	return &Engine{store: store}
}

// MarkUseful drives the pair toward USEFUL.
func (e *Engine) MarkUseful(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (Transition, error) {
	return e.mark(ctx, "MarkUseful", reviewID, userID, true)
}

// MarkUseless drives the pair toward USELESS.
func (e *Engine) MarkUseless(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (Transition, error) {
	return e.mark(ctx, "MarkUseless", reviewID, userID, false)
}

// ClearUseful drives USEFUL to NONE. Any other state is left as is.
func (e *Engine) ClearUseful(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (Transition, error) {
	return e.clear(ctx, "ClearUseful", reviewID, userID, true)
}

// ClearUseless drives USELESS to NONE. Any other state is left as is.
func (e *Engine) ClearUseless(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (Transition, error) {
	return e.clear(ctx, "ClearUseless", reviewID, userID, false)
}

// mark tries a flip, then an insert, then gives up as a no-op.
// Affected-row counts alone choose the branch; the whole call is one unit with the score change.
func (e *Engine) mark(ctx context.Context, op string, reviewID shared.ReviewID, userID shared.UserID, useful bool) (Transition, error) {
	target := stateOf(useful)
	sign := 1
	if !useful {
		sign = -1
	}
	row := relation.Feedback{ReviewID: reviewID, UserID: userID, IsUseful: useful}

	var tr Transition
	err := e.store.WithinTx(ctx, func(tx relation.Relations) error {
		repo := tx.Feedback()

		flipped, err := repo.UpdateIfDifferent(ctx, row)
		if err != nil {
			return err
		}
		if flipped == 1 {
			tr = Transition{From: stateOf(!useful), To: target, Delta: 2 * sign}
			return repo.AdjustUsefulScore(ctx, reviewID, tr.Delta)
		}

		inserted, err := repo.InsertIfAbsent(ctx, row)
		if err != nil {
			return err
		}
		if inserted == 1 {
			tr = Transition{From: StateNone, To: target, Delta: sign}
			return repo.AdjustUsefulScore(ctx, reviewID, tr.Delta)
		}

		tr = Transition{From: target, To: target}
		return nil
	})
	if err != nil {
		return Transition{}, shared.StoreError(domainName, op, err)
	}
	return tr, nil
}

// clear deletes the row only when it holds the expected polarity.
func (e *Engine) clear(ctx context.Context, op string, reviewID shared.ReviewID, userID shared.UserID, useful bool) (Transition, error) {
	var tr Transition
	err := e.store.WithinTx(ctx, func(tx relation.Relations) error {
		repo := tx.Feedback()

		removed, err := repo.RemoveIfMatches(ctx, reviewID, userID, useful)
		if err != nil {
			return err
		}
		if removed == 0 {
			// Either nothing is recorded or the opposite opinion is; both stay untouched.
			tr = Transition{From: StateNone, To: StateNone}
			return nil
		}

		delta := -1
		if !useful {
			delta = 1
		}
		tr = Transition{From: stateOf(useful), To: StateNone, Delta: delta}
		return repo.AdjustUsefulScore(ctx, reviewID, delta)
	})
	if err != nil {
		return Transition{}, shared.StoreError(domainName, op, err)
	}
	return tr, nil
}

// Current returns the state a user holds on a review.
func (e *Engine) Current(ctx context.Context, reviewID shared.ReviewID, userID shared.UserID) (State, error) {
	fb, ok, err := e.store.Feedback().Find(ctx, reviewID, userID)
	if err != nil {
		return StateNone, shared.StoreError(domainName, "Current", err)
	}
	if !ok {
		return StateNone, nil
	}
	return stateOf(fb.IsUseful), nil
}

// Score recomputes the useful score of a review from its feedback rows.
// It is the value the stored counter must always equal.
func (e *Engine) Score(ctx context.Context, reviewID shared.ReviewID) (int, error) {
	rows, err := e.store.Feedback().ByReview(ctx, reviewID)
	if err != nil {
		return 0, shared.StoreError(domainName, "Score", err)
	}
	score := 0
	for _, fb := range rows {
		if fb.IsUseful {
			score++
		} else {
			score--
		}
	}
	return score, nil
}
