package http

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

const msgRatingRange = "must be an integer between 1 and 5"

// ReviewResponse is returned after a review is added.
type ReviewResponse struct {
	Message    string         `json:"message"`
	Review     *domain.Review `json:"review"`
	NumReviews int            `json:"num_reviews"`
	Rating     float64        `json:"rating"`
}

// AddReview handles POST /api/v1/products/{id}/reviews. The rating is a
// whole number from 1 to 5, sent as a number or a base-10 string.
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	rating, ok := wholeNumber(fields["rating"])
	if !ok || rating < math.MinInt32 || rating > math.MaxInt32 {
		httputil.WriteError(w, r, validator.FieldError("Rating", msgRatingRange), h.logger)
		return
	}
	comment, err := cast.ToStringE(fields["comment"])
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("Comment must be text"), h.logger)
		return
	}

	product, review, err := h.service.AddReview(r.Context(), id.String(),
		service.Reviewer{UserID: claims.UserID, Name: claims.Name},
		domain.CreateReviewInput{Rating: int(rating), Comment: comment},
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, ReviewResponse{
		Message:    "Review added",
		Review:     review,
		NumReviews: product.NumReviews,
		Rating:     product.Rating,
	})
}
