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

const donationCollection = "donations"

// timeNow is swapped in tests.
var timeNow = time.Now

var (
	ErrInvalidStatus     = errors.New("invalid donation status")
	ErrInvalidTransition = errors.New("status cannot move backward")
)

// Filter narrows donation listings. Status "all" or "" matches every
// status; OwnerID 0 matches every donor; Limit 0 means no cap.
type Filter struct {
	Status  string
	OwnerID uint
	Limit   int
}

// Change is one entry of a live batch.
type Change struct {
	Op       feed.Op         `json:"op"`
	Donation domain.Donation `json:"donation"`
}

// Batch is one delivery from a live subscription: the full normalized
// snapshot for the filter plus the changes that triggered it.
type Batch struct {
	Donations []domain.Donation `json:"donations"`
	Changes   []Change          `json:"changes"`
}

type DonationRepository struct {
	db  *gorm.DB
	bus *feed.Bus
}

func NewDonationRepository(db *gorm.DB, bus *feed.Bus) *DonationRepository {
	return &DonationRepository{db: db, bus: bus}
}

// Create stores a new donation. Status is forced to available and the
// creation time is store-assigned regardless of what the caller supplied;
// urgency defaults to medium and the tag/image sets to empty.
func (r *DonationRepository) Create(d *models.Donation) (uint, error) {
	d.ID = 0
	d.Status = domain.StatusAvailable
	d.ClaimedBy = nil
	d.ClaimedAt = nil
	d.CompletedAt = nil
	d.CreatedAt = time.Time{}
	d.UpdatedAt = time.Time{}
	if d.Urgency == "" {
		d.Urgency = domain.UrgencyMedium
	}
	if d.Tags == "" {
		d.Tags = domain.EncodeStrings(nil)
	}
	if d.Images == "" {
		d.Images = domain.EncodeStrings(nil)
	}
	if err := r.db.Create(d).Error; err != nil {
		return 0, writeErr("donations.create", err)
	}
	r.bus.Publish(feed.Event{Collection: donationCollection, Op: feed.OpAdded, ID: d.ID})
	return d.ID, nil
}

func applyFilter(tx *gorm.DB, f Filter) *gorm.DB {
	if f.Status != "" && f.Status != domain.StatusAll {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.OwnerID != 0 {
		tx = tx.Where("donor_id = ?", f.OwnerID)
	}
	tx = tx.Order("created_at DESC")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	return tx
}

func (r *DonationRepository) listRaw(f Filter) ([]models.Donation, error) {
	var rows []models.Donation
	if err := applyFilter(r.db.Model(&models.Donation{}), f).Find(&rows).Error; err != nil {
		return nil, readErr("donations.list", err)
	}
	return rows, nil
}

// List returns normalized donations for the filter. Read failures degrade
// to an empty listing so a transient store problem never breaks a view;
// the failure is logged, not propagated.
func (r *DonationRepository) List(f Filter) []domain.Donation {
	rows, err := r.listRaw(f)
	if err != nil {
		log.Printf("[donations] list failed: %v", err)
		return []domain.Donation{}
	}
	out := make([]domain.Donation, 0, len(rows))
	for i := range rows {
		out = append(out, domain.NormalizeDonation(&rows[i]))
	}
	return out
}

// ListMine returns the caller's ten most recent donations.
func (r *DonationRepository) ListMine(ownerID uint) []domain.Donation {
	return r.List(Filter{OwnerID: ownerID, Limit: 10})
}

// GetByID returns the normalized record, or (nil, nil) when no such
// donation exists. Not-found is a sentinel here, never an error.
func (r *DonationRepository) GetByID(id uint) (*domain.Donation, error) {
	var m models.Donation
	err := r.db.First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, readErr("donations.get", err)
	}
	d := domain.NormalizeDonation(&m)
	return &d, nil
}

// UpdateStatus advances a donation along available → claimed → completed.
// The write is conditional on the expected prior status, so the first
// claim wins and no transition can move backward; a lost race surfaces as
// ErrConflict.
func (r *DonationRepository) UpdateStatus(id uint, status string, claimedBy *uint) error {
	now := timeNow()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	var prior string
	switch status {
	case domain.StatusClaimed:
		prior = domain.StatusAvailable
		if claimedBy != nil {
			updates["claimed_by"] = *claimedBy
			updates["claimed_at"] = now
		}
	case domain.StatusCompleted:
		prior = domain.StatusClaimed
		updates["completed_at"] = now
	case domain.StatusAvailable:
		return ErrInvalidTransition
	default:
		return ErrInvalidStatus
	}
	tx := r.db.Model(&models.Donation{}).Where("id = ? AND status = ?", id, prior).Updates(updates)
	if tx.Error != nil {
		return writeErr("donations.update", tx.Error)
	}
	if tx.RowsAffected == 0 {
		existing, err := r.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &Error{Kind: KindNotFound, Op: "donations.update", Err: gorm.ErrRecordNotFound}
		}
		return ErrConflict
	}
	r.bus.Publish(feed.Event{Collection: donationCollection, Op: feed.OpModified, ID: id})
	return nil
}

// Delete removes a donation unconditionally (administrative path, no
// status precondition).
func (r *DonationRepository) Delete(id uint) error {
	if err := r.db.Delete(&models.Donation{}, id).Error; err != nil {
		return writeErr("donations.delete", err)
	}
	r.bus.Publish(feed.Event{Collection: donationCollection, Op: feed.OpRemoved, ID: id})
	return nil
}

// Subscribe opens a live query with the same filter semantics as List.
// onData receives the full normalized snapshot on every change batch. The
// first delivery is the initial snapshot and carries no changes: a record
// that existed before the listener attached never looks newly added.
// onError receives a classified human-readable message on stream
// failures; the subscription stays registered so later events can still
// come through. The returned cancel must be invoked exactly once on
// teardown, and before re-subscribing with a different filter.
func (r *DonationRepository) Subscribe(f Filter, onData func(Batch), onError func(string)) (cancel func()) {
	// Register before the first read so an event racing the attach is
	// buffered rather than lost; its delivery waits for the snapshot.
	ready := make(chan struct{})
	cancel = r.bus.Subscribe(donationCollection, func(e feed.Event) {
		<-ready
		rows, err := r.listRaw(f)
		if err != nil {
			onError(streamMessage(err))
			return
		}
		b := Batch{Donations: make([]domain.Donation, 0, len(rows))}
		for i := range rows {
			b.Donations = append(b.Donations, domain.NormalizeDonation(&rows[i]))
		}
		switch e.Op {
		case feed.OpRemoved:
			b.Changes = append(b.Changes, Change{Op: feed.OpRemoved, Donation: domain.Donation{ID: e.ID}})
		default:
			// The changed record only yields a change entry while it
			// matches the filter.
			for _, d := range b.Donations {
				if d.ID == e.ID {
					b.Changes = append(b.Changes, Change{Op: e.Op, Donation: d})
					break
				}
			}
		}
		onData(b)
	})

	if rows, err := r.listRaw(f); err != nil {
		onError(streamMessage(err))
	} else {
		b := Batch{Donations: make([]domain.Donation, 0, len(rows))}
		for i := range rows {
			b.Donations = append(b.Donations, domain.NormalizeDonation(&rows[i]))
		}
		onData(b)
	}
	close(ready)
	return cancel
}
