// Package review submits and lists book reviews and computes their rating
// summary. Submitting a review first makes sure the book is in the user's
// library, since the backend only accepts reviews for library books.
package review

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/sequencer"
	"github.com/listenupapp/readtrack/internal/session"
	"github.com/listenupapp/readtrack/internal/validation"
)

// Step names reported in sequenced failures.
const (
	StepEnsureInLibrary = "ensure-in-library"
	StepCreateReview    = "create-review"
)

// Store is the remote review store. Listing is public; creating needs a session.
type Store interface {
	ListReviews(ctx context.Context, catalogID string) ([]domain.Review, error)
	CreateReview(ctx context.Context, sess *session.Session, catalogID string, rating int, text string) (*domain.Review, error)
}

// Library is the part of the library machine reviews depend on.
type Library interface {
	EnsureInLibrary(ctx context.Context, sess *session.Session, catalogID string, defaultStatus domain.Status) (*domain.LibraryEntry, error)
}

// Summary is what a book page shows about its reviews.
type Summary struct {
	Reviews      []domain.Review `json:"reviews"`
	Average      float64         `json:"average"`
	RatedAverage float64         `json:"rated_average"`
	Count        int             `json:"count"`
}

// Aggregator keeps each book's reviews most-recent-first.
type Aggregator struct {
	store     Store
	library   Library
	sequencer *sequencer.Sequencer
	validator *validation.Validator
	logger    *slog.Logger

	mu      sync.Mutex
	byBook  map[string][]domain.Review
	loaded  map[string]bool
	pending map[string][]domain.Review // submitted here, not yet seen in a listing
	// submitted numbers reviews submitted here per book, in submission order.
	submitted map[string]map[string]uint64
	seq       uint64
}

// NewAggregator creates a review aggregator.
func NewAggregator(store Store, library Library, seq *sequencer.Sequencer, v *validation.Validator, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if seq == nil {
		seq = sequencer.New(logger)
	}
	if v == nil {
		v = validation.New()
	}
	return &Aggregator{
		store:     store,
		library:   library,
		sequencer: seq,
		validator: v,
		logger:    logger,
		byBook:    make(map[string][]domain.Review),
		loaded:    make(map[string]bool),
		pending:   make(map[string][]domain.Review),
		submitted: make(map[string]map[string]uint64),
	}
}

// Field order matters: rating is reported before text.
type submitReviewInput struct {
	CatalogID string `json:"catalogId" validate:"notblank"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Text      string `json:"text" validate:"notblank"`
}

// SubmitReview posts a review for catalogID. The book is added to the
// library as planned first if it is not there yet. Text is trimmed.
//
// Invalid input fails before any network call. A failed library step is a
// *errors.StepError with Index 1 and no review is posted; a failed post has
// Index 2. On success the review is placed first in the book's list.
func (a *Aggregator) SubmitReview(ctx context.Context, sess *session.Session, catalogID string, rating int, text string) (*domain.Review, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	in := submitReviewInput{
		CatalogID: strings.TrimSpace(catalogID),
		Rating:    rating,
		Text:      strings.TrimSpace(text),
	}
	if err := a.validator.Validate(in); err != nil {
		return nil, err
	}

	saved, err := sequencer.Then(ctx, a.sequencer,
		StepEnsureInLibrary, func(ctx context.Context) (*domain.LibraryEntry, error) {
			return a.library.EnsureInLibrary(ctx, sess, in.CatalogID, domain.StatusPlanned)
		},
		StepCreateReview, func(ctx context.Context, _ *domain.LibraryEntry) (*domain.Review, error) {
			return a.store.CreateReview(ctx, sess, in.CatalogID, in.Rating, in.Text)
		},
	)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.byBook[in.CatalogID] = append([]domain.Review{*saved}, a.byBook[in.CatalogID]...)
	a.pending[in.CatalogID] = append([]domain.Review{*saved}, a.pending[in.CatalogID]...)
	if saved.ID != "" {
		a.seq++
		if a.submitted[in.CatalogID] == nil {
			a.submitted[in.CatalogID] = make(map[string]uint64)
		}
		a.submitted[in.CatalogID][saved.ID] = a.seq
	}
	a.mu.Unlock()

	a.logger.Info("review submitted",
		"user_id", sess.UserID,
		"catalog_id", in.CatalogID,
		"review_id", saved.ID,
		"rating", saved.Rating,
	)

	result := *saved
	return &result, nil
}

// LoadReviews fetches the book's reviews, newest first. Reviews submitted
// through this aggregator that the listing does not include yet stay at the
// front, and listed ones with equal timestamps keep their submission order,
// latest first.
func (a *Aggregator) LoadReviews(ctx context.Context, catalogID string) ([]domain.Review, error) {
	catalogID = strings.TrimSpace(catalogID)

	listed, err := a.store.ListReviews(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sortBySubmission(listed, a.submitted[catalogID])

	seen := make(map[string]struct{}, len(listed))
	for _, r := range listed {
		seen[r.ID] = struct{}{}
	}

	pending := slices.DeleteFunc(a.pending[catalogID], func(r domain.Review) bool {
		_, ok := seen[r.ID]
		return ok
	})
	if len(pending) == 0 {
		delete(a.pending, catalogID)
	} else {
		a.pending[catalogID] = pending
	}

	merged := make([]domain.Review, 0, len(pending)+len(listed))
	merged = append(merged, pending...)
	merged = append(merged, listed...)
	a.byBook[catalogID] = merged
	a.loaded[catalogID] = true

	return slices.Clone(merged), nil
}

// Reviews returns the in-memory list for catalogID without fetching.
func (a *Aggregator) Reviews(catalogID string) []domain.Review {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.byBook[strings.TrimSpace(catalogID)])
}

// Summary returns the book's reviews with their average and count, loading
// them on first use.
func (a *Aggregator) Summary(ctx context.Context, catalogID string) (*Summary, error) {
	catalogID = strings.TrimSpace(catalogID)

	a.mu.Lock()
	loaded := a.loaded[catalogID]
	a.mu.Unlock()

	var reviews []domain.Review
	if loaded {
		reviews = a.Reviews(catalogID)
	} else {
		var err error
		if reviews, err = a.LoadReviews(ctx, catalogID); err != nil {
			return nil, err
		}
	}

	return &Summary{
		Reviews:      reviews,
		Average:      AverageRating(reviews),
		RatedAverage: AverageRatingRatedOnly(reviews),
		Count:        len(reviews),
	}, nil
}

// SortNewestFirst orders reviews by CreatedAt descending, keeping the
// relative order of reviews with equal timestamps.
func SortNewestFirst(reviews []domain.Review) {
	sortBySubmission(reviews, nil)
}

// sortBySubmission sorts newest first. Among equal timestamps, reviews with a
// higher submission number come first and unnumbered ones keep their order.
func sortBySubmission(reviews []domain.Review, order map[string]uint64) {
	slices.SortStableFunc(reviews, func(a, b domain.Review) int {
		return cmp.Or(
			cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()),
			cmp.Compare(order[b.ID], order[a.ID]),
		)
	})
}

// AverageRating is the mean rating across reviews. A review without a rating
// counts as 0 but still counts toward the total, which is how the reading
// tracker has always displayed it. Zero reviews average 0.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		if r.Rated() {
			sum += r.Rating
		}
	}
	return float64(sum) / float64(len(reviews))
}

// AverageRatingRatedOnly is the mean over reviews that carry a rating.
// It is 0 when none do.
func AverageRatingRatedOnly(reviews []domain.Review) float64 {
	sum, n := 0, 0
	for _, r := range reviews {
		if r.Rated() {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
