package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/odoyewu/odoyewu/internal/errors"
)

// MockRedisClient is a mock implementation of RedisClientInterface
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	cmd := redis.NewIntCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.Get(0).(int64))
	}
	return cmd
}

func (m *MockRedisClient) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	args := m.Called(ctx, pattern)
	cmd := redis.NewStringSliceCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.Get(0).([]string))
	}
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	cmd := redis.NewStatusCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func entryJSON(t *testing.T, data interface{}, written time.Time, ttl int) string {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	b, err := json.Marshal(CacheEntry{Data: raw, Timestamp: written, TTL: ttl, Version: entryVersion})
	require.NoError(t, err)
	return string(b)
}

func TestRedisService_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit ttl", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Set", mock.Anything, "k", []byte(`{"a":1}`), 5*time.Minute).Return("OK", nil)

		assert.NoError(t, service.Set(ctx, "k", map[string]int{"a": 1}, 5*time.Minute))
		mockClient.AssertExpectations(t)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Set", mock.Anything, "k", mock.Anything, DefaultTTL).Return("OK", nil)

		assert.NoError(t, service.Set(ctx, "k", "v", 0))
		mockClient.AssertExpectations(t)
	})

	t.Run("client error", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Set", mock.Anything, "k", mock.Anything, mock.Anything).Return("", errors.New("READONLY"))

		err := service.Set(ctx, "k", "v", time.Second)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "READONLY")
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeCache))
	})

	t.Run("unmarshalable value", func(t *testing.T) {
		service := NewRedisServiceWithClient(&MockRedisClient{})
		assert.Error(t, service.Set(ctx, "k", make(chan int), time.Second))
	})
}

func TestRedisService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		val     string
		err     error
		want    string
		wantErr error
	}{
		{name: "hit", val: `"hello"`, want: "hello"},
		{name: "miss", err: redis.Nil, wantErr: ErrCacheMiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &MockRedisClient{}
			service := NewRedisServiceWithClient(mockClient)
			mockClient.On("Get", mock.Anything, "k").Return(tt.val, tt.err)

			var got string
			err := service.Get(ctx, "k", &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("connection error is not a miss", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Get", mock.Anything, "k").Return("", errors.New("connection refused"))

		var got string
		err := service.Get(ctx, "k", &got)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})
}

func TestRedisService_SetCache(t *testing.T) {
	mockClient := &MockRedisClient{}
	service := NewRedisServiceWithClient(mockClient)

	mockClient.On("Set", mock.Anything, "cache:hotspots:grid:0.1", mock.Anything, 2*time.Minute).
		Run(func(args mock.Arguments) {
			var entry CacheEntry
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &entry))
			assert.Equal(t, 120, entry.TTL)
			assert.Equal(t, entryVersion, entry.Version)
			assert.JSONEq(t, `[1,2,3]`, string(entry.Data))
		}).
		Return("OK", nil)

	require.NoError(t, service.SetCache(context.Background(), "hotspots:grid:0.1", []int{1, 2, 3}, 2*time.Minute))
	mockClient.AssertExpectations(t)
}

func TestRedisService_GetCache(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh entry", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Get", mock.Anything, "cache:key").
			Return(entryJSON(t, map[string]string{"test": "data"}, time.Now(), 3600), nil)

		var data map[string]string
		require.NoError(t, service.GetCache(ctx, "key", &data))
		assert.Equal(t, "data", data["test"])
	})

	t.Run("stale entry", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Get", mock.Anything, "cache:key").
			Return(entryJSON(t, "old", time.Now().Add(-2*time.Hour), 60), nil)

		var data string
		assert.ErrorIs(t, service.GetCache(ctx, "key", &data), ErrCacheMiss)
	})

	unreadable := []struct {
		name string
		val  string
	}{
		{"other version", func() string {
			b, err := json.Marshal(CacheEntry{Data: json.RawMessage(`"x"`), Timestamp: time.Now(), TTL: 60, Version: "0.9"})
			require.NoError(t, err)
			return string(b)
		}()},
		{"corrupt envelope", `{"data":`},
		{"data of another shape", entryJSON(t, map[string]int{"a": 1}, time.Now(), 60)},
	}
	for _, tt := range unreadable {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &MockRedisClient{}
			service := NewRedisServiceWithClient(mockClient)
			mockClient.On("Get", mock.Anything, "cache:key").Return(tt.val, nil)
			mockClient.On("Del", mock.Anything, []string{"cache:key"}).Return(int64(1), nil).Once()

			var data string
			assert.ErrorIs(t, service.GetCache(ctx, "key", &data), ErrCacheMiss)
			mockClient.AssertExpectations(t)
		})
	}

	t.Run("connection error", func(t *testing.T) {
		mockClient := &MockRedisClient{}
		service := NewRedisServiceWithClient(mockClient)
		mockClient.On("Get", mock.Anything, "cache:key").Return("", errors.New("connection refused"))

		var data string
		err := service.GetCache(ctx, "key", &data)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeCache))
		mockClient.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
	})
}

func TestRedisService_DeletePattern(t *testing.T) {
	ctx := context.Background()
	mockClient := &MockRedisClient{}
	service := NewRedisServiceWithClient(mockClient)

	mockClient.On("Keys", mock.Anything, "cache:*").Return([]string{"cache:a", "cache:b"}, nil).Once()
	mockClient.On("Del", mock.Anything, []string{"cache:a", "cache:b"}).Return(int64(2), nil).Once()

	deleted, err := service.DeletePattern(ctx, "cache:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	mockClient.On("Keys", mock.Anything, "cache:*").Return([]string{}, nil).Once()
	assert.NoError(t, service.InvalidateAll(ctx))
	mockClient.AssertExpectations(t)
}

func TestRedisService_HealthCheck(t *testing.T) {
	ctx := context.Background()
	mockClient := &MockRedisClient{}
	service := NewRedisServiceWithClient(mockClient)

	mockClient.On("Ping", mock.Anything).Return("PONG", nil).Once()
	assert.NoError(t, service.HealthCheck(ctx))

	mockClient.On("Ping", mock.Anything).Return("", errors.New("down")).Once()
	assert.Error(t, service.HealthCheck(ctx))

	mockClient.On("Close").Return(nil)
	assert.NoError(t, service.Close())
	mockClient.AssertExpectations(t)
}
