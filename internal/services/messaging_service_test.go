package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/odoyewu/odoyewu/internal/errors"
)

func TestMessagingService_Conversation(t *testing.T) {
	store := newMemStore()
	clock := newTestClock(wednesday)
	ctx := context.Background()
	alice := seedUser(t, store, "alice", nil, wednesday)
	bob := seedUser(t, store, "bob", nil, wednesday)

	match, err := NewMatchingService(store, testMatchingConfig(), WithClock(clock.Now)).CreateMatch(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	svc := NewMessagingService(store, WithClock(clock.Now))

	sent, err := svc.SendMessage(ctx, alice.ID, match.MatchID, "  hi there  ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", sent.Content)
	assert.True(t, sent.IsMine)
	assert.Equal(t, wednesday, sent.Timestamp)

	clock.Advance(time.Minute)
	_, err = svc.SendMessage(ctx, bob.ID, match.MatchID, "hey")
	require.NoError(t, err)

	history, err := svc.ListMessages(ctx, bob.ID, match.MatchID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi there", history[0].Content)
	assert.False(t, history[0].IsMine)
	assert.Equal(t, alice.ID, history[0].SenderID)
	assert.Equal(t, "hey", history[1].Content)
	assert.True(t, history[1].IsMine)
}

func TestMessagingService_EmptyHistory(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice", nil, wednesday)
	bob := seedUser(t, store, "bob", nil, wednesday)
	match, err := NewMatchingService(store, testMatchingConfig()).CreateMatch(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	history, err := NewMessagingService(store).ListMessages(ctx, alice.ID, match.MatchID)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestMessagingService_Errors(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice", nil, wednesday)
	bob := seedUser(t, store, "bob", nil, wednesday)
	eve := seedUser(t, store, "eve", nil, wednesday)
	match, err := NewMatchingService(store, testMatchingConfig()).CreateMatch(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	svc := NewMessagingService(store)

	tests := []struct {
		name    string
		sender  string
		matchID string
		content string
		typ     apperrors.ErrorType
	}{
		{"blank", alice.ID, match.MatchID, "   ", apperrors.ErrorTypeValidation},
		{"too long", alice.ID, match.MatchID, strings.Repeat("é", MaxMessageLength+1), apperrors.ErrorTypeValidation},
		{"outsider", eve.ID, match.MatchID, "hello", apperrors.ErrorTypeAuthorization},
		{"unknown match", alice.ID, uuid.New().String(), "hello", apperrors.ErrorTypeNotFound},
		{"malformed match", alice.ID, "abc", "hello", apperrors.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, tt.sender, tt.matchID, tt.content)
			assertAppError(t, err, tt.typ)
		})
	}

	_, err = svc.SendMessage(ctx, alice.ID, match.MatchID, strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err, "limit counts characters")

	_, err = svc.ListMessages(ctx, eve.ID, match.MatchID)
	assertAppError(t, err, apperrors.ErrorTypeAuthorization)
}
