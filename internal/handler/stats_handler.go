package handler

import (
	"net/http"

	"feedra/internal/projector"
	"feedra/internal/repository"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the one-shot dashboard aggregates; live dashboards
// use the WebSocket stream instead.
type StatsHandler struct {
	repo *repository.DonationRepository
}

func NewStatsHandler(repo *repository.DonationRepository) *StatsHandler {
	return &StatsHandler{repo: repo}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats := projector.ComputeStats(h.repo.List(repository.Filter{}))
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
