package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingomarket/lingomarket-api/internal/service"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
	"github.com/lingomarket/lingomarket-api/pkg/response"
)

// PaymentHandler wires payment intent endpoints.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// CreateIntent godoc
// @Summary Create card payment intent
// @Description Create a provider-side payment intent and return its client secret
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateIntentRequest true "Intent payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /payments/create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req service.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid intent payload"))
		return
	}

	intent, err := h.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, intent)
}

// MockPay godoc
// @Summary Simulate a payment
// @Description Issue an always-settled mock payment id for test environments
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.MockPaymentRequest true "Mock payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /payments/fake-payment [post]
func (h *PaymentHandler) MockPay(c *gin.Context) {
	var req service.MockPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mock payment payload"))
		return
	}

	result, err := h.service.MockPay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
