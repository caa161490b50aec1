package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odoyewu/odoyewu/internal/auth"
	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database/memstore"
	"github.com/odoyewu/odoyewu/internal/monitoring"
	"github.com/odoyewu/odoyewu/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		HTTP:        config.HTTPConfig{Mode: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:        config.AuthConfig{JWTSecret: "main-secret", TokenTTL: time.Hour},
		Matching: config.MatchingConfig{
			DefaultRadiusMiles:  50,
			ActiveWindow:        72 * time.Hour,
			HotspotWindow:       24 * time.Hour,
			HotspotGridSize:     0.1,
			HotspotMinCount:     3,
			ActivityRadiusMiles: 10,
		},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 60, Burst: 10},
	}
}

func TestNewRouter(t *testing.T) {
	cfg := testConfig()
	health := monitoring.NewHealthChecker("odoyewu", "test")

	store := memstore.New()
	router, limiter, err := newRouter(cfg, store, nil, health)
	require.NoError(t, err)
	require.NotNil(t, limiter)

	user, err := services.NewUserService(store).CreateUser(context.Background(), "dev@example.com", "dev", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/missions/weekly-preview", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateToken(user.ID, []byte(cfg.Auth.JWTSecret), time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/missions/weekly-preview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunToken(t *testing.T) {
	cfg := testConfig()
	const userID = "7f1c9a4e-2b1d-4c3e-9f00-123456789abc"

	var out bytes.Buffer
	require.NoError(t, runToken([]string{"-user", userID, "-ttl", "5m"}, cfg, &out))

	got, err := auth.ParseToken(strings.TrimSpace(out.String()), []byte(cfg.Auth.JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRunToken_Invalid(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name string
		args []string
	}{
		{"missing user", nil},
		{"not a uuid", []string{"-user", "alice"}},
		{"zero ttl", []string{"-user", "7f1c9a4e-2b1d-4c3e-9f00-123456789abc", "-ttl", "0s"}},
		{"unknown flag", []string{"-admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, runToken(tt.args, cfg, &out))
		})
	}
}

func TestRunUser(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	users := services.NewUserService(store)

	var out bytes.Buffer
	require.NoError(t, runUser(ctx, []string{"-email", "Ada@Example.com", "-handle", "nightowl", "-name", "Ada"}, users, &out))

	id := strings.TrimSpace(out.String())
	got, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "nightowl", got.AnonymousHandle)
	require.NotNil(t, got.RealName)
	assert.Equal(t, "Ada", *got.RealName)

	out.Reset()
	assert.Error(t, runUser(ctx, []string{"-email", "ada@example.com", "-handle", "other"}, users, &out), "duplicate email")
	assert.Error(t, runUser(ctx, []string{"-email", "not-an-email", "-handle", "x"}, users, &out))
	assert.Error(t, runUser(ctx, []string{"-handle", "x"}, users, &out))
}

func TestSchemaCheck(t *testing.T) {
	ctx := context.Background()

	ok := schemaCheck(func(context.Context) (int64, error) { return 4, nil })(ctx)
	assert.Equal(t, monitoring.HealthStatusHealthy, ok.Status)
	assert.Equal(t, map[string]interface{}{"version": int64(4)}, ok.Details)

	failed := schemaCheck(func(context.Context) (int64, error) { return 0, errors.New("no goose table") })(ctx)
	assert.Equal(t, monitoring.HealthStatusUnhealthy, failed.Status)
	assert.Contains(t, failed.Message, "no goose table")

	health := monitoring.NewHealthChecker("odoyewu", "test")
	health.RegisterCustomCheck("schema", false, schemaCheck(func(context.Context) (int64, error) { return 0, errors.New("down") }))
	assert.Equal(t, monitoring.HealthStatusDegraded, health.GetHealth(ctx).Status)
}
