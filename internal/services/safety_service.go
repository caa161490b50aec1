package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// SafetyService manages block edges and moderation reports. Block edges
// are read directly by the matching engine.
type SafetyService struct {
	store database.Store
	now   Clock
}

func NewSafetyService(store database.Store, opts ...Option) *SafetyService {
	o := buildOptions(opts)
	return &SafetyService{store: store, now: o.now}
}

// BlockUser adds a directed block from userID to targetID
func (s *SafetyService) BlockUser(ctx context.Context, userID, targetID string, reason *string) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"target_id": targetID,
		"operation": "block_user",
	})

	if err := checkID(targetID, "user"); err != nil {
		return err
	}
	if targetID == userID {
		return errors.NewValidationError("user_id", "You cannot block yourself")
	}
	reason = trimmedOrNil(reason)

	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		if _, err := repo.GetUser(ctx, targetID); err != nil {
			return storeError("get user", "user", err)
		}
		err := repo.CreateBlock(ctx, &database.Block{
			ID:        uuid.New().String(),
			BlockerID: userID,
			BlockedID: targetID,
			Reason:    reason,
			CreatedAt: s.now(),
		})
		if stderrors.Is(err, database.ErrDuplicate) {
			return errors.NewConflictError("User already blocked")
		}
		return storeError("create block", "block", err)
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to block user")
		return err
	}

	logger.Info("User blocked")
	return nil
}

// UnblockUser removes the caller's block on targetID
func (s *SafetyService) UnblockUser(ctx context.Context, userID, targetID string) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"target_id": targetID,
		"operation": "unblock_user",
	})

	if _, err := uuid.Parse(targetID); err != nil {
		return errors.NewNotFoundError("block")
	}
	removed, err := s.store.DeleteBlock(ctx, userID, targetID)
	if err != nil {
		logger.WithError(err).Error("Failed to delete block")
		return storeError("delete block", "block", err)
	}
	if !removed {
		return errors.NewNotFoundError("block").WithDetails("User is not blocked")
	}

	logger.Info("User unblocked")
	return nil
}

// ListBlocked returns the users the caller has blocked, newest first
func (s *SafetyService) ListBlocked(ctx context.Context, userID string) ([]BlockedUser, error) {
	blocked, err := s.store.ListBlockedUsers(ctx, userID)
	if err != nil {
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"user_id":   userID,
			"operation": "list_blocked",
		}).WithError(err).Error("Failed to list blocked users")
		return nil, storeError("list blocked users", "block", err)
	}
	if blocked == nil {
		blocked = []BlockedUser{}
	}
	return blocked, nil
}

// ValidReportType reports whether t is an accepted report type
func ValidReportType(t string) bool {
	for _, valid := range database.ReportTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ReportUser files a pending moderation report against targetID
func (s *SafetyService) ReportUser(ctx context.Context, userID, targetID, reportType string, description *string) (*Report, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":     userID,
		"target_id":   targetID,
		"report_type": reportType,
		"operation":   "report_user",
	})

	if !ValidReportType(reportType) {
		return nil, errors.NewValidationError("report_type",
			"Invalid report type. Must be one of: "+strings.Join(database.ReportTypes, ", "))
	}
	if err := checkID(targetID, "user"); err != nil {
		return nil, err
	}
	if targetID == userID {
		return nil, errors.NewValidationError("user_id", "You cannot report yourself")
	}

	report := &Report{
		ID:             uuid.New().String(),
		ReporterID:     userID,
		ReportedUserID: targetID,
		ReportType:     reportType,
		Description:    trimmedOrNil(description),
		Status:         database.ReportStatusPending,
		CreatedAt:      s.now(),
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo database.Repository) error {
		if _, err := repo.GetUser(ctx, targetID); err != nil {
			return storeError("get user", "user", err)
		}
		if err := repo.InsertReport(ctx, report); err != nil {
			return storeError("insert report", "report", err)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to file report")
		return nil, err
	}

	logger.WithField("report_id", report.ID).Info("Report filed")
	return report, nil
}

// ListMyReports returns reports filed by the caller, newest first
func (s *SafetyService) ListMyReports(ctx context.Context, userID string) ([]Report, error) {
	reports, err := s.store.ListReportsByReporter(ctx, userID)
	if err != nil {
		return nil, storeError("list reports", "report", err)
	}
	if reports == nil {
		reports = []Report{}
	}
	return reports, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
