package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List godoc
// GET /api/v1/audit-logs?entity=&page=&per_page=
func (h *AuditHandler) List(c *gin.Context) {
	page, ok := optionalInt(c, "page")
	if !ok {
		return
	}
	perPage, ok := optionalInt(c, "per_page")
	if !ok {
		return
	}

	logs, total, filter, err := h.auditService.List(c.Request.Context(), model.AuditFilter{
		Entity:  strings.ToLower(strings.TrimSpace(c.Query("entity"))),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"audit_logs": logs},
		response.NewPagination(filter.Page, filter.PerPage, total))
}
