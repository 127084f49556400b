package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("quota exceeded")

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"schema", &SchemaError{Missing: []string{"Pallet"}}, http.StatusUnprocessableEntity},
		{"read", Read("read_all", cause), http.StatusBadGateway},
		{"wrapped write", fmt.Errorf("commit: %w", Write("append", cause)), http.StatusBadGateway},
		{"partial", &PartialArchiveError{SnapshotName: "Backup_x", Err: cause}, http.StatusBadGateway},
		{"format", ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"not found", ErrBatchNotFound, http.StatusNotFound},
		{"expired", ErrBatchExpired, http.StatusGone},
		{"stale", fmt.Errorf("decide: %w", ErrStaleBatch), http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"other", cause, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestStoreErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, Read("read_all", cause), cause)
	assert.ErrorIs(t, Write("append", cause), cause)
	assert.ErrorIs(t, &PartialArchiveError{Err: cause}, cause)
	assert.Nil(t, Read("read_all", nil))
	assert.Nil(t, Write("append", nil))
}

func TestSchemaErrorNamesColumn(t *testing.T) {
	err := &SchemaError{Missing: []string{"Pallet"}}
	assert.Contains(t, err.Error(), "Pallet")
}
