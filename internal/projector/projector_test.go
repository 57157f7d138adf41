package projector

import (
	"testing"
	"time"

	"feedra/internal/domain"
	"feedra/internal/feed"
	"feedra/internal/models"
	"feedra/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func donation(id, donorID uint, kg float64) domain.Donation {
	return domain.Donation{
		ID:         id,
		DonorID:    donorID,
		FoodType:   "rice",
		Location:   "Market St",
		QuantityKg: kg,
		Status:     domain.StatusAvailable,
	}
}

func addedBatch(donations ...domain.Donation) repository.Batch {
	b := repository.Batch{Donations: donations}
	for _, d := range donations {
		b.Changes = append(b.Changes, repository.Change{Op: feed.OpAdded, Donation: d})
	}
	return b
}

func TestApplySkipsOwnDonations(t *testing.T) {
	p := New(1)
	p.Apply(addedBatch(donation(10, 1, 5), donation(11, 2, 3)))

	ns := p.Notifications()
	if len(ns) != 1 {
		t.Fatalf("notifications = %d, want 1", len(ns))
	}
	if ns[0].ID != 11 {
		t.Errorf("notification for donation %d, want 11", ns[0].ID)
	}
	if ns[0].Type != domain.NotifNewDonation {
		t.Errorf("type = %q", ns[0].Type)
	}
	if p.UnreadCount() != 1 {
		t.Errorf("unread = %d, want 1", p.UnreadCount())
	}
}

func TestApplyIgnoresModifiedAndRemoved(t *testing.T) {
	p := New(1)
	b := repository.Batch{
		Donations: []domain.Donation{donation(10, 2, 5)},
		Changes: []repository.Change{
			{Op: feed.OpModified, Donation: donation(10, 2, 5)},
			{Op: feed.OpRemoved, Donation: domain.Donation{ID: 11}},
		},
	}
	p.Apply(b)
	if len(p.Notifications()) != 0 {
		t.Errorf("only added changes may notify, got %d", len(p.Notifications()))
	}
	// Stats still refold from the snapshot.
	if p.Stats().TotalDonations != 1 {
		t.Errorf("stats not refolded: %+v", p.Stats())
	}
}

func TestNotificationFeedCapsAtTen(t *testing.T) {
	p := New(1)
	for i := uint(1); i <= 12; i++ {
		p.Apply(addedBatch(donation(i, 2, 1)))
	}
	ns := p.Notifications()
	if len(ns) != 10 {
		t.Fatalf("feed length = %d, want 10", len(ns))
	}
	if ns[0].ID != 12 || ns[9].ID != 3 {
		t.Errorf("feed not newest-first: first=%d last=%d", ns[0].ID, ns[9].ID)
	}
	if p.UnreadCount() != 12 {
		t.Errorf("unread = %d, want 12 (counter is not capped)", p.UnreadCount())
	}
}

func TestMarkReadFloorsAtZero(t *testing.T) {
	p := New(1)
	p.Apply(addedBatch(donation(10, 2, 1)))

	p.MarkRead(10)
	if p.UnreadCount() != 0 {
		t.Fatalf("unread = %d, want 0", p.UnreadCount())
	}
	p.MarkRead(10) // already read
	p.MarkRead(99) // unknown id
	if p.UnreadCount() != 0 {
		t.Errorf("unread went below zero: %d", p.UnreadCount())
	}
	if !p.Notifications()[0].Read {
		t.Error("read flag not set")
	}
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	p := New(1)
	p.Apply(addedBatch(donation(10, 2, 1), donation(11, 3, 1)))

	p.MarkAllRead()
	p.MarkAllRead()
	if p.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", p.UnreadCount())
	}
	for _, n := range p.Notifications() {
		if !n.Read {
			t.Errorf("notification %d still unread", n.ID)
		}
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats([]domain.Donation{
		donation(1, 2, 1.4),
		donation(2, 2, 1.4),
		donation(3, 3, 0), // missing quantity counts as zero
	})
	if s.TotalDonations != 3 {
		t.Errorf("TotalDonations = %d", s.TotalDonations)
	}
	if s.TotalFoodSaved != 3 { // round(2.8)
		t.Errorf("TotalFoodSaved = %g, want 3", s.TotalFoodSaved)
	}
	if s.ActiveDonors != 2 {
		t.Errorf("ActiveDonors = %d, want 2", s.ActiveDonors)
	}
	if s.CO2Saved != 6 { // round(2.8 * 2.3) = round(6.44)
		t.Errorf("CO2Saved = %g, want 6", s.CO2Saved)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats(nil)
	if s != (Stats{}) {
		t.Errorf("empty snapshot should fold to zero stats, got %+v", s)
	}
}

// Attach-time behavior over a real store: records that existed before the
// listener attached fold into the stats but never notify.
func TestAttachOverExistingDonationsStaysQuiet(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:projattach?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Donation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := repository.NewDonationRepository(db, feed.NewBus())
	if _, err := repo.Create(&models.Donation{FoodType: "rice", QuantityKg: 5, Location: "Market St", DonorID: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p := New(2)
	batches := make(chan repository.Batch, 4)
	cancel := repo.Subscribe(repository.Filter{Status: domain.StatusAll},
		func(b repository.Batch) { batches <- b },
		func(msg string) { t.Errorf("unexpected stream error: %s", msg) })
	defer cancel()

	wait := func() repository.Batch {
		select {
		case b := <-batches:
			return b
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for batch")
			return repository.Batch{}
		}
	}

	p.Apply(wait())
	if n := p.UnreadCount(); n != 0 {
		t.Fatalf("pre-existing donation produced %d unread on attach, want 0", n)
	}
	if len(p.Notifications()) != 0 {
		t.Fatalf("pre-existing donation notified on attach: %+v", p.Notifications())
	}
	if p.Stats().TotalDonations != 1 {
		t.Errorf("stats must still fold the snapshot: %+v", p.Stats())
	}

	if _, err := repo.Create(&models.Donation{FoodType: "bread", QuantityKg: 2, Location: "Depot", DonorID: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	p.Apply(wait())
	if p.UnreadCount() != 1 || len(p.Notifications()) != 1 {
		t.Fatalf("post-attach donation did not notify: unread=%d feed=%d", p.UnreadCount(), len(p.Notifications()))
	}
}
