package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lingomarket/lingomarket-api/internal/middleware"
	"github.com/lingomarket/lingomarket-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}
