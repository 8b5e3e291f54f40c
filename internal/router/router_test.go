package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/pkg/config"
)

func TestRegisterRoutesMountsDocumentedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		APIPrefix: "/api",
		JWT: config.JWTConfig{
			Secret:            "route-test-secret",
			Expiration:        15 * time.Minute,
			RefreshExpiration: 24 * time.Hour,
		},
	}

	r := gin.New()
	require.NoError(t, RegisterRoutes(r, Dependencies{
		Config: cfg,
		Logger: zap.NewNop(),
		DB:     sqlx.NewDb(db, "sqlmock"),
	}))

	mounted := make(map[string]bool)
	for _, route := range r.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}

	wanted := []string{
		http.MethodPost + " /api/auth/register",
		http.MethodPost + " /api/auth/login",
		http.MethodPost + " /api/payments/create-payment-intent",
		http.MethodPost + " /api/payments/fake-payment",
		http.MethodPost + " /api/bookings",
		http.MethodPut + " /api/bookings/:id/payment",
		http.MethodGet + " /api/bookings/my-bookings",
		http.MethodGet + " /api/bookings/trainer-bookings",
		http.MethodPost + " /api/sessions",
		http.MethodPut + " /api/sessions/:id/status",
		http.MethodGet + " /api/sessions/my-sessions",
		http.MethodPost + " /api/reviews",
		http.MethodGet + " /api/reviews/trainer/:trainerId",
		http.MethodGet + " /api/reviews/trainer/:trainerId/summary",
		http.MethodGet + " /api/reviews/trainer-reviews",
		http.MethodGet + " /api/reviews/session/:sessionId",
		http.MethodGet + " /api/users/trainers",
		http.MethodPost + " /api/exports/earnings",
		http.MethodGet + " /api/exports/download",
	}
	for _, want := range wanted {
		require.True(t, mounted[want], "expected route %s to be mounted", want)
	}
}
