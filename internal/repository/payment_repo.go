package repository

import (
	"errors"
	"log"
	"time"

	"feedra/internal/domain"
	"feedra/internal/feed"
	"feedra/internal/models"

	"gorm.io/gorm"
)

const paymentCollection = "payments"

var ErrInvalidPaymentStatus = errors.New("invalid payment status")

type PaymentRepository struct {
	db  *gorm.DB
	bus *feed.Bus
}

func NewPaymentRepository(db *gorm.DB, bus *feed.Bus) *PaymentRepository {
	return &PaymentRepository{db: db, bus: bus}
}

// Create stores a payment with a store-assigned creation time. Status
// defaults to pending and must come from the closed vocabulary.
func (r *PaymentRepository) Create(p *models.Payment) (uint, error) {
	p.ID = 0
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}
	if p.Status == "" {
		p.Status = domain.PaymentPending
	}
	if !domain.ValidPaymentStatus(p.Status) {
		return 0, ErrInvalidPaymentStatus
	}
	if err := r.db.Create(p).Error; err != nil {
		return 0, writeErr("payments.create", err)
	}
	r.bus.Publish(feed.Event{Collection: paymentCollection, Op: feed.OpAdded, ID: p.ID})
	return p.ID, nil
}

// List returns payments newest first, optionally narrowed to one user.
// Like donation listings, read failures degrade to empty.
func (r *PaymentRepository) List(userID uint) []domain.Payment {
	tx := r.db.Model(&models.Payment{}).Order("created_at DESC")
	if userID != 0 {
		tx = tx.Where("user_id = ?", userID)
	}
	var rows []models.Payment
	if err := tx.Find(&rows).Error; err != nil {
		log.Printf("[payments] list failed: %v", err)
		return []domain.Payment{}
	}
	out := make([]domain.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, domain.NormalizePayment(&rows[i]))
	}
	return out
}

func (r *PaymentRepository) GetByID(id uint) (*domain.Payment, error) {
	var m models.Payment
	err := r.db.First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, readErr("payments.get", err)
	}
	p := domain.NormalizePayment(&m)
	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(id uint, status string) error {
	if !domain.ValidPaymentStatus(status) {
		return ErrInvalidPaymentStatus
	}
	tx := r.db.Model(&models.Payment{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": timeNow()})
	if tx.Error != nil {
		return writeErr("payments.update", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return &Error{Kind: KindNotFound, Op: "payments.update", Err: gorm.ErrRecordNotFound}
	}
	r.bus.Publish(feed.Event{Collection: paymentCollection, Op: feed.OpModified, ID: id})
	return nil
}

func (r *PaymentRepository) Delete(id uint) error {
	if err := r.db.Delete(&models.Payment{}, id).Error; err != nil {
		return writeErr("payments.delete", err)
	}
	r.bus.Publish(feed.Event{Collection: paymentCollection, Op: feed.OpRemoved, ID: id})
	return nil
}

// Subscribe streams the full payment listing on every change. Same
// contract as DonationRepository.Subscribe.
func (r *PaymentRepository) Subscribe(onData func([]domain.Payment), onError func(string)) (cancel func()) {
	ready := make(chan struct{})
	cancel = r.bus.Subscribe(paymentCollection, func(feed.Event) {
		<-ready
		var rows []models.Payment
		if err := r.db.Model(&models.Payment{}).Order("created_at DESC").Find(&rows).Error; err != nil {
			onError(streamMessage(readErr("payments.list", err)))
			return
		}
		out := make([]domain.Payment, 0, len(rows))
		for i := range rows {
			out = append(out, domain.NormalizePayment(&rows[i]))
		}
		onData(out)
	})
	onData(r.List(0))
	close(ready)
	return cancel
}
