package matching

import (
	"slices"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
)

// Result partitions an incoming batch against the store.
type Result struct {
	// Conflicts are the incoming rows whose key is already stored.
	Conflicts     models.Dataset `json:"conflicts"`
	ConflictCount int            `json:"conflict_count"`
	ConflictKeys  []string       `json:"conflict_keys"`
	IsClean       bool           `json:"is_clean"`
	// StoredMatches are the stored rows whose key appears in the batch.
	StoredMatches models.Dataset `json:"stored_matches"`
	// IncomingDuplicates lists keys repeated inside the batch itself. It is
	// informational and does not affect IsClean.
	IncomingDuplicates []string `json:"incoming_duplicates,omitempty"`
}

// Reconcile tests each incoming row's key for membership in the store.
// Keys are compared as exact strings.
func Reconcile(incoming, store models.Dataset, schema models.Schema) (Result, error) {
	if missing := schema.Missing(incoming.Header); len(missing) > 0 {
		return Result{}, &apperrors.SchemaError{Missing: missing}
	}

	key := schema.Key
	res := Result{
		Conflicts:          models.NewDataset(incoming.Header),
		ConflictKeys:       []string{},
		StoredMatches:      models.NewDataset(store.Header),
		IncomingDuplicates: duplicates(incoming.Column(key)),
	}

	// Nothing stored, or a store that never had the key column, cannot
	// conflict.
	if store.IsEmpty() || !store.HasColumn(key) {
		res.IsClean = true
		return res, nil
	}

	stored := make(map[string]struct{}, store.Len())
	for _, v := range store.Column(key) {
		stored[v] = struct{}{}
	}
	for i, v := range incoming.Column(key) {
		if _, ok := stored[v]; ok {
			res.Conflicts.Append(incoming.Rows[i])
		}
	}

	uploaded := make(map[string]struct{}, incoming.Len())
	for _, v := range incoming.Column(key) {
		uploaded[v] = struct{}{}
	}
	for i, v := range store.Column(key) {
		if _, ok := uploaded[v]; ok {
			res.StoredMatches.Append(store.Rows[i])
		}
	}

	res.ConflictKeys = distinctSorted(res.Conflicts.Column(key))
	res.ConflictCount = res.Conflicts.Len()
	res.IsClean = res.ConflictCount == 0
	return res, nil
}

func duplicates(values []string) []string {
	seen := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		seen[v]++
		if seen[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}

func distinctSorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// SameKeys reports whether two sorted key lists are equal.
func SameKeys(a, b []string) bool {
	return slices.Equal(a, b)
}
