package impact

import (
	"errors"
	"testing"

	"github.com/zulandar/isotrack/internal/models"
)

func TestApprove(t *testing.T) {
	db := openTestDB(t)
	rev := seedRevision(t, db, "p1", "ISO-1")
	impacts := seedImpacts(t, db, rev.ID)

	imp, err := Approve(db, impacts[0].ID, "ana")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if imp.Status != models.ImpactApproved {
		t.Errorf("Status = %q, want APPROVED", imp.Status)
	}
	if imp.ReviewedBy != "ana" || imp.ReviewedAt == nil {
		t.Errorf("reviewer not recorded: %q %v", imp.ReviewedBy, imp.ReviewedAt)
	}
}

func TestApprove_AlreadyApproved(t *testing.T) {
	db := openTestDB(t)
	rev := seedRevision(t, db, "p1", "ISO-1")
	impacts := seedImpacts(t, db, rev.ID)

	if _, err := Approve(db, impacts[0].ID, "ana"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	_, err := Approve(db, impacts[0].ID, "ana")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Approve err = %v, want ErrInvalidState", err)
	}
}

func TestApprove_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := Approve(db, 999, "ana")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReject(t *testing.T) {
	db := openTestDB(t)
	rev := seedRevision(t, db, "p1", "ISO-1")
	impacts := seedImpacts(t, db, rev.ID)

	imp, err := Reject(db, impacts[1].ID, "  spool B belongs to another line ", "luis")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if imp.Status != models.ImpactRejected {
		t.Errorf("Status = %q, want REJECTED", imp.Status)
	}
	if imp.RejectionReason != "spool B belongs to another line" {
		t.Errorf("RejectionReason = %q", imp.RejectionReason)
	}
}

func TestReject_MissingReason(t *testing.T) {
	db := openTestDB(t)
	rev := seedRevision(t, db, "p1", "ISO-1")
	impacts := seedImpacts(t, db, rev.ID)

	for _, reason := range []string{"", "   "} {
		_, err := Reject(db, impacts[0].ID, reason, "luis")
		if !errors.Is(err, ErrMissingReason) {
			t.Errorf("Reject(%q) err = %v, want ErrMissingReason", reason, err)
		}
	}
	imp, err := Get(db, impacts[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if imp.Status != models.ImpactPending {
		t.Errorf("Status = %q, want PENDING after failed reject", imp.Status)
	}
}

func TestReject_AfterApprove(t *testing.T) {
	db := openTestDB(t)
	rev := seedRevision(t, db, "p1", "ISO-1")
	impacts := seedImpacts(t, db, rev.ID)

	if _, err := Approve(db, impacts[0].ID, "ana"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	_, err := Reject(db, impacts[0].ID, "too late", "luis")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}
