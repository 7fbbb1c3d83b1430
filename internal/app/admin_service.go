package app

import (
	"context"
	"fmt"
	"time"

	"journal_reminder_service/internal/domain/notification"
)

// ErrAdminNotAuthorized is returned when the caller is not the configured operator.
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// FollowUpStatus is an operator's view of one user's follow-ups for the current local day.
type FollowUpStatus struct {
	Decision  notification.Decision
	Cancelled bool
	NextAt    *time.Time
}

// AdminService backs the operator bot commands. Every call is checked against adminTelegramID.
type AdminService struct {
	followUps       *FollowUpService
	adminTelegramID int64
	now             func() time.Time
}

func NewAdminService(f *FollowUpService, adminID int64) *AdminService {
	return &AdminService{
		followUps:       f,
		adminTelegramID: adminID,
		now:             time.Now,
	}
}

// NextFollowUp returns when the user's next follow-up is due, or nil when none is pending today.
func (s *AdminService) NextFollowUp(ctx context.Context, performingAdminID int64, userID string) (*time.Time, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	next, err := s.followUps.NextFollowUpTime(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute next follow-up: %w", err)
	}
	return next, nil
}

func (s *AdminService) FollowUpStatus(ctx context.Context, performingAdminID int64, userID string) (FollowUpStatus, error) {
	if performingAdminID != s.adminTelegramID {
		return FollowUpStatus{}, ErrAdminNotAuthorized
	}
	now := s.now()

	decision, err := s.followUps.ShouldSendFollowUp(ctx, userID, now)
	if err != nil {
		return FollowUpStatus{}, fmt.Errorf("failed to evaluate follow-up: %w", err)
	}
	cancelled, err := s.followUps.IsFollowUpCancelled(ctx, userID, now)
	if err != nil {
		return FollowUpStatus{}, fmt.Errorf("failed to check cancellation: %w", err)
	}
	next, err := s.followUps.NextFollowUpTime(ctx, userID, now)
	if err != nil {
		return FollowUpStatus{}, fmt.Errorf("failed to compute next follow-up: %w", err)
	}
	return FollowUpStatus{Decision: decision, Cancelled: cancelled, NextAt: next}, nil
}

// CancelFollowUps records a cancellation for the user's current local day.
func (s *AdminService) CancelFollowUps(ctx context.Context, performingAdminID int64, userID string) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	if err := s.followUps.CancelFollowUps(ctx, userID, s.now()); err != nil {
		return fmt.Errorf("failed to cancel follow-ups: %w", err)
	}
	return nil
}
