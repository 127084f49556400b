package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
	"picking-verification-backend/internal/repository"
	"picking-verification-backend/internal/services/matching"
)

type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionAbort   Decision = "abort"
	DecisionCommit  Decision = "commit"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionProceed, DecisionAbort, DecisionCommit:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidDecision, s)
	}
}

type CommitOutcome struct {
	Decision Decision `json:"decision"`
	Appended bool     `json:"appended"`
	RowCount int      `json:"row_count"`
	// DroppedColumns are incoming columns the store header does not have.
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Commit applies the operator's decision to incoming. A clean result only
// accepts DecisionCommit; a result with conflicts accepts DecisionProceed
// or DecisionAbort. storeHeader is the store's current header line; when
// it is empty the incoming header is written ahead of the rows.
//
// A failed append returns an outcome with Appended false and a
// *apperrors.StoreWriteError.
func Commit(ctx context.Context, store repository.Store, storeHeader []string, incoming models.Dataset, result matching.Result, decision Decision) (CommitOutcome, error) {
	out := CommitOutcome{Decision: decision}

	switch {
	case result.IsClean && decision != DecisionCommit:
		return out, fmt.Errorf("%w: batch has no conflicts, expected %q, got %q",
			apperrors.ErrDecisionMismatch, DecisionCommit, decision)
	case !result.IsClean && decision == DecisionCommit:
		return out, fmt.Errorf("%w: batch has %d conflicts, expected %q or %q",
			apperrors.ErrDecisionMismatch, result.ConflictCount, DecisionProceed, DecisionAbort)
	case decision == DecisionAbort:
		return out, nil
	}

	var lines [][]string
	if len(storeHeader) == 0 {
		lines = incoming.Grid()
	} else {
		lines = incoming.AlignTo(storeHeader)
		out.DroppedColumns = missingFrom(storeHeader, incoming.Header)
	}

	if err := store.AppendRows(ctx, lines); err != nil {
		werr := apperrors.Write("append_rows", err)
		out.Error = werr.Error()
		return out, werr
	}

	out.Appended = true
	out.RowCount = incoming.Len()
	return out, nil
}

// missingFrom returns the columns of cols that header does not contain.
func missingFrom(header, cols []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, c := range cols {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
