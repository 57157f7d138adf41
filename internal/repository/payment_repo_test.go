package repository

import (
	"testing"

	"feedra/internal/domain"
	"feedra/internal/feed"
	"feedra/internal/models"
)

func newPaymentRepo(t *testing.T) *PaymentRepository {
	t.Helper()
	return NewPaymentRepository(newTestDB(t), feed.NewBus())
}

func TestPaymentCreateDefaultsToPending(t *testing.T) {
	r := newPaymentRepo(t)
	id, err := r.Create(&models.Payment{UserID: 1, Amount: 25})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := r.GetByID(id)
	if err != nil || p == nil {
		t.Fatalf("get: %v %v", p, err)
	}
	if p.Status != domain.PaymentPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if p.CreatedAt.IsZero() {
		t.Error("created_at must be store-assigned")
	}
}

func TestPaymentCreateRejectsUnknownStatus(t *testing.T) {
	r := newPaymentRepo(t)
	if _, err := r.Create(&models.Payment{UserID: 1, Amount: 5, Status: "maybe"}); err != ErrInvalidPaymentStatus {
		t.Fatalf("err = %v, want ErrInvalidPaymentStatus", err)
	}
}

func TestPaymentListScopesToUser(t *testing.T) {
	r := newPaymentRepo(t)
	if _, err := r.Create(&models.Payment{UserID: 1, Amount: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create(&models.Payment{UserID: 2, Amount: 7}); err != nil {
		t.Fatal(err)
	}
	if got := r.List(1); len(got) != 1 || got[0].UserID != 1 {
		t.Errorf("user 1 list = %+v", got)
	}
	if got := r.List(0); len(got) != 2 {
		t.Errorf("unscoped list = %d, want 2", len(got))
	}
}

func TestPaymentUpdateStatus(t *testing.T) {
	r := newPaymentRepo(t)
	id, err := r.Create(&models.Payment{UserID: 1, Amount: 5})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateStatus(id, domain.PaymentCompleted); err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ := r.GetByID(id)
	if p.Status != domain.PaymentCompleted {
		t.Errorf("status = %q", p.Status)
	}
	if err := r.UpdateStatus(id, "maybe"); err != ErrInvalidPaymentStatus {
		t.Errorf("unknown status = %v, want ErrInvalidPaymentStatus", err)
	}
	if err := r.UpdateStatus(9999, domain.PaymentFailed); KindOf(err) != KindNotFound {
		t.Errorf("missing payment = %v, want not-found", err)
	}
}
