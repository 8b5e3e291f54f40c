package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lingomarket/lingomarket-api/internal/middleware"
	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/service"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
	"github.com/lingomarket/lingomarket-api/pkg/response"
)

// UserHandler wires profile, stats and trainer discovery endpoints.
type UserHandler struct {
	users     *service.UserService
	discovery *service.DiscoveryService
}

// NewUserHandler creates a new handler.
func NewUserHandler(users *service.UserService, discovery *service.DiscoveryService) *UserHandler {
	return &UserHandler{users: users, discovery: discovery}
}

// SearchTrainers godoc
// @Summary Discover trainers
// @Description List active trainers filtered by language, rate, experience, specialization and rating
// @Tags Users
// @Produce json
// @Param language query string false "Taught language"
// @Param minRate query number false "Minimum hourly rate"
// @Param maxRate query number false "Maximum hourly rate"
// @Param experience query int false "Minimum years of experience"
// @Param specialization query string false "Specialization"
// @Param rating query number false "Minimum rating"
// @Param search query string false "Free text over name and bio"
// @Param sortBy query string false "rating | price_low | price_high | experience"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/trainers [get]
func (h *UserHandler) SearchTrainers(c *gin.Context) {
	filter, err := trainerFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	trainers, cacheHit, err := h.discovery.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, trainers, nil, middleware.ExtractMeta(c))
}

// GetTrainer godoc
// @Summary Trainer profile
// @Description Public profile of a single trainer
// @Tags Users
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/trainers/{id} [get]
func (h *UserHandler) GetTrainer(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if user.Role != models.RoleTrainer {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "trainer not found"))
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Me godoc
// @Summary Current profile
// @Description Profile of the authenticated user
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.users.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateMe godoc
// @Summary Update profile
// @Description Partially update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Rate, language or availability changes alter discovery results.
	h.discovery.InvalidateCache(c.Request.Context())

	response.JSON(c, http.StatusOK, user, nil)
}

// MyStats godoc
// @Summary Current user stats
// @Description Aggregate counters for the authenticated user
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me/stats [get]
func (h *UserHandler) MyStats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

func trainerFilterFromQuery(c *gin.Context) (models.TrainerFilter, error) {
	filter := models.TrainerFilter{
		Language:       c.Query("language"),
		Specialization: c.Query("specialization"),
		Search:         c.Query("search"),
		SortBy:         c.Query("sortBy"),
	}

	if raw := c.Query("minRate"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "minRate must be a number")
		}
		filter.MinRate = &value
	}
	if raw := c.Query("maxRate"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "maxRate must be a number")
		}
		filter.MaxRate = &value
	}
	if raw := c.Query("experience"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "experience must be an integer")
		}
		filter.MinExperience = &value
	}
	if raw := c.Query("rating"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "rating must be a number")
		}
		filter.MinRating = &value
	}
	return filter, nil
}
