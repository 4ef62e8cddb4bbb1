package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/domain"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{catalogId}/reviews",
		Summary:     "List reviews",
		Description: "Returns the book's reviews newest first, with their average rating",
		Tags:        []string{"Reviews"},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{catalogId}/reviews",
		Summary:       "Submit review",
		Description:   "Adds the book to the library if needed, then posts the review",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitReview)
}

// === DTOs ===

// ReviewResponse is a review in API responses.
type ReviewResponse struct {
	ID          string    `json:"id" doc:"Review ID"`
	AuthorLabel string    `json:"author_label" doc:"Display name of the author"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	Rating      int       `json:"rating" doc:"Star rating 1-5, or 0 when unrated"`
	Text        string    `json:"text" doc:"Review text"`
}

// ReviewSummaryResponse is a book's review list with its averages.
type ReviewSummaryResponse struct {
	Reviews      []ReviewResponse `json:"reviews" doc:"Reviews newest first"`
	Average      float64          `json:"average" doc:"Mean rating over all reviews, unrated counting as 0"`
	RatedAverage float64          `json:"rated_average" doc:"Mean rating over rated reviews only"`
	Count        int              `json:"count" doc:"Number of reviews"`
}

// ListReviewsInput contains parameters for listing reviews.
type ListReviewsInput struct {
	CatalogID string `path:"catalogId" doc:"Catalog ID"`
	Refresh   bool   `query:"refresh" doc:"Reload the reviews from the backend"`
}

// SubmitReviewRequest is the request body for posting a review.
type SubmitReviewRequest struct {
	Rating int    `json:"rating,omitempty" doc:"Star rating 1-5"`
	Text   string `json:"text,omitempty" doc:"Review text"`
}

// SubmitReviewInput contains parameters for posting a review.
type SubmitReviewInput struct {
	CatalogID string `path:"catalogId" doc:"Catalog ID"`
	Body      SubmitReviewRequest
}

// ReviewSummaryOutput wraps the summary for Huma.
type ReviewSummaryOutput struct {
	Body ReviewSummaryResponse
}

// ReviewOutput wraps a single review for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// === Handlers ===

func (s *Server) handleListReviews(ctx context.Context, input *ListReviewsInput) (*ReviewSummaryOutput, error) {
	if input.Refresh {
		if _, err := s.services.Reviews.LoadReviews(ctx, input.CatalogID); err != nil {
			return nil, err
		}
	}

	summary, err := s.services.Reviews.Summary(ctx, input.CatalogID)
	if err != nil {
		return nil, err
	}

	resp := ReviewSummaryResponse{
		Reviews:      make([]ReviewResponse, len(summary.Reviews)),
		Average:      summary.Average,
		RatedAverage: summary.RatedAverage,
		Count:        summary.Count,
	}
	for i := range summary.Reviews {
		resp.Reviews[i] = toReviewResponse(&summary.Reviews[i])
	}
	return &ReviewSummaryOutput{Body: resp}, nil
}

func (s *Server) handleSubmitReview(ctx context.Context, input *SubmitReviewInput) (*ReviewOutput, error) {
	saved, err := s.services.Reviews.SubmitReview(ctx, currentSession(ctx), input.CatalogID, input.Body.Rating, input.Body.Text)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: toReviewResponse(saved)}, nil
}

func toReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		AuthorLabel: r.AuthorLabel,
		CreatedAt:   r.CreatedAt,
		Rating:      r.Rating,
		Text:        r.Text,
	}
}
