package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"feedra/internal/domain"
	"feedra/internal/middleware"
	"feedra/internal/models"
	"feedra/internal/repository"
	"feedra/internal/service"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	repo     *repository.DonationRepository
	userRepo *repository.UserRepository
	mail     *service.MailService
}

func NewDonationHandler(repo *repository.DonationRepository, userRepo *repository.UserRepository, mail *service.MailService) *DonationHandler {
	return &DonationHandler{repo: repo, userRepo: userRepo, mail: mail}
}

type CreateDonationRequest struct {
	FoodType           string   `json:"food_type" binding:"required,max=128"`
	Description        string   `json:"description"`
	QuantityKg         float64  `json:"quantity_kg" binding:"gte=0"`
	Location           string   `json:"location" binding:"required,max=255"`
	ExpiryDate         string   `json:"expiry_date"` // RFC3339 or YYYY-MM-DD
	ContactInfo        string   `json:"contact_info"`
	Images             []string `json:"images"`
	Tags               []string `json:"tags"`
	Urgency            string   `json:"urgency" binding:"omitempty,oneof=low medium high"`
	PickupInstructions string   `json:"pickup_instructions"`
	// Status is accepted but ignored; new donations are always available.
	Status string `json:"status"`
}

func (h *DonationHandler) Create(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var expiry *time.Time
	if req.ExpiryDate != "" {
		t, err := parseDate(req.ExpiryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry_date (use RFC3339 or YYYY-MM-DD)"})
			return
		}
		expiry = &t
	}
	m := &models.Donation{
		FoodType:           req.FoodType,
		Description:        req.Description,
		QuantityKg:         req.QuantityKg,
		Location:           req.Location,
		ExpiryDate:         expiry,
		ContactInfo:        req.ContactInfo,
		DonorID:            middleware.GetUserID(c),
		DonorName:          middleware.GetDisplayName(c),
		Images:             domain.EncodeStrings(req.Images),
		Tags:               domain.EncodeStrings(req.Tags),
		Urgency:            req.Urgency,
		PickupInstructions: req.PickupInstructions,
	}
	id, err := h.repo.Create(m)
	if err != nil {
		writeStoreError(c, err, "failed to create donation")
		return
	}
	service.BestEffort("donation-posted", h.mail.SendDonationPosted(
		context.Background(), m.DonorName, middleware.GetEmail(c), m.FoodType, m.QuantityKg, m.Location))
	d, _ := h.repo.GetByID(id)
	c.JSON(http.StatusCreated, gin.H{"id": id, "donation": d})
}

// List is public: status/user_id/limit query params map onto the
// repository filter, and failures show as an empty listing.
func (h *DonationHandler) List(c *gin.Context) {
	f := repository.Filter{Status: c.DefaultQuery("status", domain.StatusAll)}
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		f.OwnerID = uint(id)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		f.Limit = n
	}
	c.JSON(http.StatusOK, gin.H{"donations": h.repo.List(f)})
}

// ListMine returns the caller's recent donations.
func (h *DonationHandler) ListMine(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"donations": h.repo.ListMine(middleware.GetUserID(c))})
}

func (h *DonationHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	d, err := h.repo.GetByID(id)
	if err != nil {
		writeStoreError(c, err, "failed to load donation")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"donation": d})
}

// Claim moves an available donation to claimed for the caller. The first
// claim wins; a lost race answers 409 so the UI can refresh.
func (h *DonationHandler) Claim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	d, err := h.repo.GetByID(id)
	if err != nil {
		writeStoreError(c, err, "failed to load donation")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	if d.DonorID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot claim your own donation"})
		return
	}
	if err := h.repo.UpdateStatus(id, domain.StatusClaimed, &userID); err != nil {
		writeTransitionError(c, err)
		return
	}
	h.notifyDonorClaimed(d.DonorID, middleware.GetDisplayName(c), d.FoodType, d.QuantityKg)
	updated, _ := h.repo.GetByID(id)
	c.JSON(http.StatusOK, gin.H{"donation": updated})
}

// Complete marks a claimed donation as picked up. Only the donor or the
// claimant may close it out.
func (h *DonationHandler) Complete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	d, err := h.repo.GetByID(id)
	if err != nil {
		writeStoreError(c, err, "failed to load donation")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	if d.DonorID != userID && (d.ClaimedBy == nil || *d.ClaimedBy != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not part of this donation"})
		return
	}
	if err := h.repo.UpdateStatus(id, domain.StatusCompleted, nil); err != nil {
		writeTransitionError(c, err)
		return
	}
	updated, _ := h.repo.GetByID(id)
	c.JSON(http.StatusOK, gin.H{"donation": updated})
}

// Delete is the administrative removal path: no status precondition, owner
// or admin only.
func (h *DonationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	d, err := h.repo.GetByID(id)
	if err != nil {
		writeStoreError(c, err, "failed to load donation")
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	role, _ := c.Get("role")
	if d.DonorID != middleware.GetUserID(c) && role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		writeStoreError(c, err, "failed to delete donation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *DonationHandler) notifyDonorClaimed(donorID uint, claimerName, foodType string, quantityKg float64) {
	donor, err := h.userRepo.GetByID(donorID)
	if err != nil {
		log.Printf("[donations] claim mail skipped, donor %d lookup failed: %v", donorID, err)
		return
	}
	service.BestEffort("claim-notice", h.mail.SendClaimNotice(
		context.Background(), donor.DisplayName, donor.Email, claimerName, foodType, quantityKg))
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeStoreError maps classified store failures onto HTTP statuses; the
// permission message mirrors what the live stream reports.
func writeStoreError(c *gin.Context, err error, fallback string) {
	switch repository.KindOf(err) {
	case repository.KindPermissionDenied:
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied. Please check access rules."})
	case repository.KindPreconditionFailed:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database indexes are being created. Please wait a moment and refresh."})
	case repository.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Printf("[donations] %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func writeTransitionError(c *gin.Context, err error) {
	switch err {
	case repository.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "donation was updated by someone else"})
	case repository.ErrInvalidStatus, repository.ErrInvalidTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		writeStoreError(c, err, "failed to update donation")
	}
}
