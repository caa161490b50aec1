package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/database/memstore"
	apperrors "github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/geo"
)

// wednesday is 2025-01-15 14:30 UTC
var wednesday = time.Date(2025, time.January, 15, 14, 30, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		DefaultRadiusMiles:  50,
		ActiveWindow:        72 * time.Hour,
		HotspotWindow:       24 * time.Hour,
		HotspotGridSize:     0.1,
		HotspotMinCount:     3,
		ActivityRadiusMiles: 10,
	}
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) MatchCreated(ctx context.Context) {
	m.Called()
}

func (m *mockRecorder) MissionCompleted(ctx context.Context, xp int, leveledUp bool) {
	m.Called(xp, leveledUp)
}

func (m *mockRecorder) NearbySearched(ctx context.Context, results int) {
	m.Called(results)
}

// seedUser stores a user; loc and seenAt are optional
func seedUser(t *testing.T, store database.Store, handle string, loc *geo.Coordinate, seenAt time.Time) *User {
	t.Helper()
	ctx := context.Background()

	realName := "Real " + handle
	u := &User{
		ID:              uuid.New().String(),
		Email:           handle + "@example.com",
		AnonymousHandle: handle,
		RealName:        &realName,
		Level:           1,
		CreatedAt:       seenAt,
	}
	require.NoError(t, store.CreateUser(ctx, u))
	if loc != nil {
		require.NoError(t, store.UpdateUserLocation(ctx, u.ID, *loc, seenAt))
	}

	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	return stored
}

func at(lat, lon float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lon}
}

func assertAppError(t *testing.T, err error, typ apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, typ, appErr.Type, appErr.Message)
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  apperrors.ErrorType
	}{
		{"not found", database.ErrNotFound, apperrors.ErrorTypeNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), database.ErrNotFound), apperrors.ErrorTypeNotFound},
		{"duplicate", database.ErrDuplicate, apperrors.ErrorTypeConflict},
		{"other", errors.New("connection refused"), apperrors.ErrorTypeDatabase},
		{"deadline", fmt.Errorf("select users: %w", context.DeadlineExceeded), apperrors.ErrorTypeTimeout},
		{"app error passes through", apperrors.NewAuthorizationError("nope"), apperrors.ErrorTypeAuthorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAppError(t, storeError("op", "thing", tt.err), tt.typ)
		})
	}

	assert.NoError(t, storeError("op", "thing", nil))
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, checkID(uuid.New().String(), "match"))
	assertAppError(t, checkID("42", "match"), apperrors.ErrorTypeNotFound)
	assertAppError(t, checkID("", "match"), apperrors.ErrorTypeNotFound)
}

func TestValidRadius(t *testing.T) {
	assert.True(t, validRadius(0.5))
	assert.True(t, validRadius(50))
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.False(t, validRadius(r), "%v", r)
	}
}

func TestBuildOptions_Defaults(t *testing.T) {
	o := buildOptions(nil)
	assert.NotNil(t, o.now)
	assert.IsType(t, noopRecorder{}, o.metrics)
	assert.Equal(t, time.UTC, o.now().Location())

	clock := newTestClock(wednesday)
	o = buildOptions([]Option{WithClock(clock.Now), WithRecorder(nil)})
	assert.Equal(t, wednesday, o.now())
	assert.IsType(t, noopRecorder{}, o.metrics)
}

func newMemStore() *memstore.Store {
	return memstore.New()
}
