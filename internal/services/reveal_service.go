package services

import (
	"context"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// Identity is what a user discloses when revealing
type Identity struct {
	RealName *string `json:"real_name"`
	Email    string  `json:"email"`
}

// RevealResult is returned by Reveal. The identity fields are empty when
// the caller had already revealed.
type RevealResult struct {
	Message         string  `json:"message"`
	AlreadyRevealed bool    `json:"-"`
	RealName        *string `json:"real_name,omitempty"`
	Email           string  `json:"email,omitempty"`
}

// RevealStatus describes both sides of a match
type RevealStatus struct {
	IRevealed    bool      `json:"i_revealed"`
	TheyRevealed bool      `json:"they_revealed"`
	TheirInfo    *Identity `json:"their_info,omitempty"`
}

// RevealService lets matched users disclose their real identity to each other
type RevealService struct {
	store database.Store
}

func NewRevealService(store database.Store) *RevealService {
	return &RevealService{store: store}
}

// participantMatch loads matchID and checks userID is one of its sides
func participantMatch(ctx context.Context, repo database.Repository, userID, matchID string) (*Match, error) {
	if err := checkID(matchID, "match"); err != nil {
		return nil, err
	}
	m, err := repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeError("get match", "match", err)
	}
	if !m.Involves(userID) {
		return nil, errors.NewAuthorizationError("Not authorized")
	}
	return m, nil
}

// Reveal sets the caller's reveal flag on the match
func (s *RevealService) Reveal(ctx context.Context, userID, matchID string) (*RevealResult, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"match_id":  matchID,
		"operation": "reveal_identity",
	})

	var result *RevealResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		m, err := participantMatch(ctx, repo, userID, matchID)
		if err != nil {
			return err
		}

		changed, err := repo.SetRevealed(ctx, m.ID, m.Side(userID))
		if err != nil {
			return storeError("set revealed", "match", err)
		}
		if !changed {
			result = &RevealResult{Message: "Already revealed", AlreadyRevealed: true}
			return nil
		}

		me, err := repo.GetUser(ctx, userID)
		if err != nil {
			return storeError("get user", "user", err)
		}
		result = &RevealResult{
			Message:  "Identity revealed",
			RealName: me.RealName,
			Email:    me.Email,
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to reveal identity")
		return nil, err
	}

	if !result.AlreadyRevealed {
		logger.Info("Identity revealed")
	}
	return result, nil
}

// Status reports both reveal flags and, once the other side revealed,
// their identity
func (s *RevealService) Status(ctx context.Context, userID, matchID string) (*RevealStatus, error) {
	m, err := participantMatch(ctx, s.store, userID, matchID)
	if err != nil {
		return nil, err
	}

	otherID := m.Other(userID)
	status := &RevealStatus{
		IRevealed:    m.RevealedBy(userID),
		TheyRevealed: m.RevealedBy(otherID),
	}
	if status.TheyRevealed {
		other, err := s.store.GetUser(ctx, otherID)
		if err != nil {
			return nil, storeError("get user", "user", err)
		}
		status.TheirInfo = &Identity{RealName: other.RealName, Email: other.Email}
	}
	return status, nil
}
