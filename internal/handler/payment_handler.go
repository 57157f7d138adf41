package handler

import (
	"net/http"

	"feedra/internal/domain"
	"feedra/internal/middleware"
	"feedra/internal/models"
	"feedra/internal/repository"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	repo *repository.PaymentRepository
}

func NewPaymentHandler(repo *repository.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{repo: repo}
}

type CreatePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Status string  `json:"status" binding:"omitempty,oneof=pending completed failed refunded"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := &models.Payment{
		UserID: middleware.GetUserID(c),
		Amount: req.Amount,
		Status: req.Status,
	}
	id, err := h.repo.Create(m)
	if err != nil {
		writeStoreError(c, err, "failed to create payment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List returns the caller's payments; admins see everyone's.
func (h *PaymentHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if role, _ := c.Get("role"); role == domain.RoleAdmin {
		userID = 0
	}
	c.JSON(http.StatusOK, gin.H{"payments": h.repo.List(userID)})
}

type UpdatePaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=pending completed failed refunded"`
}

func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.UpdateStatus(id, req.Status); err != nil {
		writeStoreError(c, err, "failed to update payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.repo.GetByID(id)
	if err != nil {
		writeStoreError(c, err, "failed to load payment")
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	role, _ := c.Get("role")
	if p.UserID != middleware.GetUserID(c) && role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		writeStoreError(c, err, "failed to delete payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
