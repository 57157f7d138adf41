package projector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"feedra/internal/domain"
	"feedra/internal/feed"
	"feedra/internal/repository"
)

// maxNotifications caps the in-memory feed at the most recent entries.
const maxNotifications = 10

// timeNow is swapped in tests.
var timeNow = time.Now

// Notification is derived, ephemeral view state. Its ID equals the
// triggering donation's ID; it lives only in this projector and is never
// persisted.
type Notification struct {
	ID        uint            `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Read      bool            `json:"read"`
	Donation  domain.Donation `json:"donation"`
}

// Stats are the rolling aggregate figures shown on the dashboard.
type Stats struct {
	TotalDonations int     `json:"total_donations"`
	TotalFoodSaved float64 `json:"total_food_saved"`
	ActiveDonors   int     `json:"active_donors"`
	CO2Saved       float64 `json:"co2_saved"`
}

// Projector folds live donation batches into per-session derived state:
// a capped notification feed, an unread counter and aggregate stats. One
// projector belongs to one viewer; all mutation happens through Apply and
// the read-state methods, guarded by a single mutex.
type Projector struct {
	viewerID uint

	mu            sync.RWMutex
	notifications []Notification
	unread        int
	stats         Stats
}

func New(viewerID uint) *Projector {
	return &Projector{viewerID: viewerID}
}

// Apply folds one change batch. Only added records from other donors
// synthesize notifications; a donation that existed before the listener
// attached never does. Stats are refolded from the full snapshot on every
// batch, so they are always exactly consistent with the latest snapshot.
func (p *Projector) Apply(b repository.Batch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range b.Changes {
		if c.Op != feed.OpAdded {
			continue
		}
		if c.Donation.DonorID == p.viewerID {
			continue
		}
		n := Notification{
			ID:        c.Donation.ID,
			Type:      domain.NotifNewDonation,
			Title:     "New Food Donation Available!",
			Message:   fmt.Sprintf("%gkg of %s available in %s", c.Donation.QuantityKg, c.Donation.FoodType, c.Donation.Location),
			Timestamp: timeNow(),
			Donation:  c.Donation,
		}
		p.notifications = append([]Notification{n}, p.notifications...)
		if len(p.notifications) > maxNotifications {
			p.notifications = p.notifications[:maxNotifications]
		}
		p.unread++
	}

	p.stats = ComputeStats(b.Donations)
}

// MarkRead flips one notification's read flag. The unread counter floors
// at zero no matter how often this is called.
func (p *Projector) MarkRead(id uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.notifications {
		if p.notifications[i].ID == id {
			if !p.notifications[i].Read {
				p.notifications[i].Read = true
				if p.unread > 0 {
					p.unread--
				}
			}
			return
		}
	}
}

// MarkAllRead flips every flag and zeroes the counter; calling it again
// is a no-op.
func (p *Projector) MarkAllRead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.notifications {
		p.notifications[i].Read = true
	}
	p.unread = 0
}

// Notifications returns a copy of the current feed, newest first.
func (p *Projector) Notifications() []Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Notification, len(p.notifications))
	copy(out, p.notifications)
	return out
}

func (p *Projector) UnreadCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unread
}

func (p *Projector) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// ComputeStats folds a snapshot from scratch: record count, quantity sum
// (missing quantity counts as zero), distinct donors and the derived CO2
// figure at 2.3 kg per kg of food saved.
func ComputeStats(donations []domain.Donation) Stats {
	var total float64
	donors := make(map[uint]struct{}, len(donations))
	for _, d := range donations {
		total += d.QuantityKg
		donors[d.DonorID] = struct{}{}
	}
	return Stats{
		TotalDonations: len(donations),
		TotalFoodSaved: math.Round(total),
		ActiveDonors:   len(donors),
		CO2Saved:       math.Round(total * domain.CO2FactorPerKg),
	}
}
