package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingomarket/lingomarket-api/internal/service"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
	"github.com/lingomarket/lingomarket-api/pkg/response"
)

// ReviewHandler wires review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Create godoc
// @Summary Review a session
// @Description Leave a one-time rating and comment on a completed session
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	review, err := h.service.Create(c.Request.Context(), claims.UserID, claims.FullName, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, review)
}

// ListForTrainer godoc
// @Summary Trainer reviews
// @Description Public list of a trainer's reviews, newest first
// @Tags Reviews
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /reviews/trainer/{trainerId} [get]
func (h *ReviewHandler) ListForTrainer(c *gin.Context) {
	reviews, err := h.service.ListForTrainer(c.Request.Context(), c.Param("trainerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// MyReviews godoc
// @Summary Own received reviews
// @Description Reviews left on the calling trainer
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reviews/trainer-reviews [get]
func (h *ReviewHandler) MyReviews(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reviews, err := h.service.ListForTrainer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// TrainerSummary godoc
// @Summary Trainer review summary
// @Description Average rating and star histogram for a trainer
// @Tags Reviews
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Router /reviews/trainer/{trainerId}/summary [get]
func (h *ReviewHandler) TrainerSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("trainerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ListForSession godoc
// @Summary Session reviews
// @Description Reviews left on one session
// @Tags Reviews
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /reviews/session/{sessionId} [get]
func (h *ReviewHandler) ListForSession(c *gin.Context) {
	reviews, err := h.service.ListForSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}
