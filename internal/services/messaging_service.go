package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

const (
	// MaxMessageLength is counted in characters, not bytes
	MaxMessageLength = 2000
	// historyLimit caps how many messages one ListMessages call returns
	historyLimit = 500
)

// ChatMessage is a message as seen by one participant
type ChatMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsMine    bool      `json:"is_mine"`
}

type MessagingService struct {
	store database.Store
	now   Clock
}

func NewMessagingService(store database.Store, opts ...Option) *MessagingService {
	o := buildOptions(opts)
	return &MessagingService{store: store, now: o.now}
}

// SendMessage posts content into a match the sender belongs to
func (s *MessagingService) SendMessage(ctx context.Context, senderID, matchID, content string) (*ChatMessage, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"sender_id": senderID,
		"match_id":  matchID,
		"operation": "send_message",
	})

	logger.Debug("Attempting to send message")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.NewValidationError("content", "message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, errors.NewValidationError("content", "message content is too long").
			WithMetadata("max_length", MaxMessageLength)
	}

	message := &Message{
		ID:        uuid.New().String(),
		MatchID:   matchID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now(),
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		if _, err := participantMatch(ctx, repo, senderID, matchID); err != nil {
			return err
		}
		if err := repo.InsertMessage(ctx, message); err != nil {
			return storeError("insert message", "message", err)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to send message")
		return nil, err
	}

	logger.WithField("message_id", message.ID).Info("Successfully sent message")
	return toChatMessage(message, senderID), nil
}

// ListMessages returns a match's messages oldest first
func (s *MessagingService) ListMessages(ctx context.Context, userID, matchID string) ([]ChatMessage, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"match_id":  matchID,
		"operation": "list_messages",
	})

	if _, err := participantMatch(ctx, s.store, userID, matchID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, matchID, historyLimit)
	if err != nil {
		logger.WithError(err).Error("Failed to query messages")
		return nil, storeError("list messages", "message", err)
	}

	out := make([]ChatMessage, 0, len(messages))
	for i := range messages {
		out = append(out, *toChatMessage(&messages[i], userID))
	}
	logger.WithField("count", len(out)).Debug("Successfully retrieved messages")
	return out, nil
}

func toChatMessage(m *Message, viewerID string) *ChatMessage {
	return &ChatMessage{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Timestamp: m.CreatedAt,
		IsMine:    m.SenderID == viewerID,
	}
}
