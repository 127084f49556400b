package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"picking-verification-backend/internal/apperrors"
)

func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

// respondErrorWith writes err with its mapped status, plus any typed
// details an operator needs to act on it.
func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}

	var schemaErr *apperrors.SchemaError
	if errors.As(err, &schemaErr) {
		body["missing_columns"] = schemaErr.Missing
	}
	var partial *apperrors.PartialArchiveError
	if errors.As(err, &partial) {
		body["snapshot_name"] = partial.SnapshotName
		body["row_count"] = partial.RowCount
	}

	_ = c.Error(err)
	c.JSON(apperrors.HTTPStatus(err), body)
}
