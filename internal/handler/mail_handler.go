package handler

import (
	"net/http"

	"feedra/internal/service"

	"github.com/gin-gonic/gin"
)

// MailHandler exposes the transport probe; admin-only diagnostic.
type MailHandler struct {
	mail *service.MailService
}

func NewMailHandler(mail *service.MailService) *MailHandler {
	return &MailHandler{mail: mail}
}

// Test sends a fixed placeholder template and reports success as a
// boolean, the only place a mail failure crosses the API.
func (h *MailHandler) Test(c *gin.Context) {
	err := h.mail.Test(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": service.BestEffort("test", err)})
}
