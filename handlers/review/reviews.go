package review

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
)

// ReviewHandler handles course reviews
type ReviewHandler struct {
	reviews   *services.ReviewService
	validator *validation.Validator
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviews:   reviews,
		validator: validation.NewValidator(),
	}
}

// PostReviewRequest represents the request body for reviewing a course
type PostReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func courseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, response.BadRequest(c, "Invalid course id")
	}
	return uint(id), nil
}

// ListReviews handles GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	id, err := courseID(c)
	if err != nil {
		return err
	}

	reviews, rating, err := h.reviews.ListForCourse(id)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch reviews")
	}

	return response.Success(c, fiber.Map{
		"reviews": reviews,
		"rating":  rating,
	})
}

// PostReview handles POST /api/v1/courses/:id/reviews. One review per
// student per course; posting again replaces the earlier one.
func (h *ReviewHandler) PostReview(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := courseID(c)
	if err != nil {
		return err
	}

	var req PostReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	review, err := h.reviews.Post(user, id, req.Rating, validation.SanitizeString(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrNotEnrolled):
			return response.Forbidden(c, "Only enrolled students can review a course")
		}
		return response.InternalServerError(c, "Failed to save review")
	}

	return response.Created(c, review)
}
