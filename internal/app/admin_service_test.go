package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newAdminService(chaseSent int) (*AdminService, *MockLedger) {
	fu, ledger := newFollowUpService(tokyoSettings(), chaseSent, false)
	s := NewAdminService(fu, 42)
	s.now = func() time.Time { return primaryUTC }
	return s, ledger
}

func TestAdminService_RejectsOtherUsers(t *testing.T) {
	s, ledger := newAdminService(0)
	ctx := context.Background()

	if _, err := s.NextFollowUp(ctx, 7, "user-1"); !errors.Is(err, ErrAdminNotAuthorized) {
		t.Fatalf("NextFollowUp: want ErrAdminNotAuthorized, got %v", err)
	}
	if _, err := s.FollowUpStatus(ctx, 7, "user-1"); !errors.Is(err, ErrAdminNotAuthorized) {
		t.Fatalf("FollowUpStatus: want ErrAdminNotAuthorized, got %v", err)
	}
	if err := s.CancelFollowUps(ctx, 7, "user-1"); !errors.Is(err, ErrAdminNotAuthorized) {
		t.Fatalf("CancelFollowUps: want ErrAdminNotAuthorized, got %v", err)
	}
	if ledger.InsertAttempts != 0 {
		t.Fatal("unauthorized cancel must not touch the ledger")
	}
}

func TestAdminService_Status(t *testing.T) {
	s, _ := newAdminService(0)
	ctx := context.Background()

	next, err := s.NextFollowUp(ctx, 42, "user-1")
	if err != nil || next == nil || !next.Equal(firstFollow) {
		t.Fatalf("want %s, got %v (err %v)", firstFollow, next, err)
	}

	if err := s.CancelFollowUps(ctx, 42, "user-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	st, err := s.FollowUpStatus(ctx, 42, "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Cancelled || st.Decision.ShouldSend || st.Decision.FollowUpCount != 1 || st.NextAt == nil {
		t.Fatalf("unexpected status: %+v", st)
	}
}
