package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"picking-verification-backend/internal/models"
	"picking-verification-backend/internal/services/archive"
	service "picking-verification-backend/internal/services/reconciliation"
)

type AdminHandler struct {
	archive *archive.ArchiveService
	recon   *service.ReconciliationService
}

func NewAdminHandler(a *archive.ArchiveService, r *service.ReconciliationService) *AdminHandler {
	return &AdminHandler{archive: a, recon: r}
}

func (h *AdminHandler) Archive(c *gin.Context) {
	outcome, err := h.archive.ArchiveAndReset(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *AdminHandler) ResumeArchive(c *gin.Context) {
	var payload struct {
		SnapshotName string `json:"snapshot_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot_name required"})
		return
	}
	outcome, err := h.archive.ResumeReset(c.Request.Context(), payload.SnapshotName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *AdminHandler) DeletePallet(c *gin.Context) {
	pallet := c.Param("pallet")
	n, err := h.recon.DeletePallet(c.Request.Context(), pallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pallet": pallet, "deleted": n, "by": c.GetString(adminKey)})
}

func (h *AdminHandler) Snapshots(c *gin.Context) {
	names, err := h.archive.Snapshots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": names})
}

// ListBatches accepts a comma separated status filter and an optional limit.
func (h *AdminHandler) ListBatches(c *gin.Context) {
	var statuses []models.BatchStatus
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, models.BatchStatus(s))
		}
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	batches, err := h.recon.ListBatches(c.Request.Context(), statuses, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(batches))
	for _, b := range batches {
		out = append(out, gin.H{
			"batch_id":       b.ID,
			"filename":       b.Filename,
			"status":         b.Status,
			"row_count":      b.RowCount,
			"conflict_count": b.ConflictCount,
			"decision":       b.Decision,
			"last_error":     b.LastError,
			"expires_at":     b.ExpiresAt,
			"created_at":     b.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"batches": out})
}

func (h *AdminHandler) AuditTrail(c *gin.Context) {
	id, ok := batchID(c)
	if !ok {
		return
	}
	entries, err := h.recon.AuditTrail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": id, "entries": entries})
}
