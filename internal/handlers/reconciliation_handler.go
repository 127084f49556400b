package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"picking-verification-backend/internal/models"
	"picking-verification-backend/internal/services/ingestion"
	service "picking-verification-backend/internal/services/reconciliation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReconciliationHandler struct {
	service   *service.ReconciliationService
	maxUpload int64
	logger    *zap.Logger
}

func NewReconciliationHandler(s *service.ReconciliationService, maxUpload int64, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{service: s, maxUpload: maxUpload, logger: logger}
}

type batchResponse struct {
	BatchID            uuid.UUID          `json:"batch_id"`
	Filename           string             `json:"filename"`
	Status             models.BatchStatus `json:"status"`
	RowCount           int                `json:"row_count"`
	IsClean            bool               `json:"is_clean"`
	ConflictCount      int                `json:"conflict_count"`
	Conflicts          models.Dataset     `json:"conflicts"`
	StoredMatches      models.Dataset     `json:"stored_matches"`
	IncomingDuplicates []string           `json:"incoming_duplicates,omitempty"`
	ExpectedDecisions  []service.Decision `json:"expected_decisions"`
	ExpiresAt          time.Time          `json:"expires_at"`
	LastError          string             `json:"last_error,omitempty"`
}

func (h *ReconciliationHandler) toResponse(view *service.BatchView) batchResponse {
	schema := h.service.Schema()
	conflicts := view.Result.Conflicts
	stored := view.Result.StoredMatches

	expected := []service.Decision{service.DecisionCommit}
	if !view.Result.IsClean {
		expected = []service.Decision{service.DecisionProceed, service.DecisionAbort}
	}

	return batchResponse{
		BatchID:            view.Batch.ID,
		Filename:           view.Batch.Filename,
		Status:             view.Batch.Status,
		RowCount:           view.Batch.RowCount,
		IsClean:            view.Result.IsClean,
		ConflictCount:      view.Result.ConflictCount,
		Conflicts:          conflicts.Project(schema.DisplayColumns(conflicts.Header)),
		StoredMatches:      stored.Project(schema.DisplayColumns(stored.Header)),
		IncomingDuplicates: view.Result.IncomingDuplicates,
		ExpectedDecisions:  expected,
		ExpiresAt:          view.Batch.ExpiresAt,
		LastError:          view.Batch.LastError,
	}
}

// Upload parses the picking file and returns the conflicts it has with
// the store. Nothing is written to the store here.
func (h *ReconciliationHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxUpload)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	h.logger.Debug("received picking file", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	incoming, err := ingestion.Parse(header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.service.Upload(c.Request.Context(), header.Filename, incoming)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(view))
}

func (h *ReconciliationHandler) GetBatch(c *gin.Context) {
	id, ok := batchID(c)
	if !ok {
		return
	}
	view, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(view))
}

func (h *ReconciliationHandler) Decide(c *gin.Context) {
	id, ok := batchID(c)
	if !ok {
		return
	}

	var payload struct {
		Decision string `json:"decision"`
		Operator string `json:"operator"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	decision, err := service.ParseDecision(payload.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	operator := payload.Operator
	if operator == "" {
		operator = c.ClientIP()
	}

	outcome, err := h.service.Decide(c.Request.Context(), id, decision, operator)
	if err != nil {
		respondErrorWith(c, err, gin.H{"outcome": outcome})
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": id, "outcome": outcome})
}

// DownloadConflicts exports the batch's current conflicts as a workbook.
func (h *ReconciliationHandler) DownloadConflicts(c *gin.Context) {
	id, ok := batchID(c)
	if !ok {
		return
	}
	view, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeWorkbook(c, "conflicts_"+id.String()+".xlsx", "Conflicts", view.Result.Conflicts)
}

func (h *ReconciliationHandler) Store(c *gin.Context) {
	ds, err := h.service.StoreView(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"row_count": ds.Len(), "data": ds})
}

func (h *ReconciliationHandler) DownloadStore(c *gin.Context) {
	ds, err := h.service.StoreView(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeWorkbook(c, "picking_store.xlsx", "Store", ds)
}

func (h *ReconciliationHandler) writeWorkbook(c *gin.Context, filename, sheet string, ds models.Dataset) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := ingestion.WriteWorkbook(c.Writer, sheet, ds); err != nil {
		h.logger.Error("workbook export failed", zap.String("filename", filename), zap.Error(err))
		_ = c.Error(err)
	}
}

func batchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return uuid.Nil, false
	}
	return id, true
}
