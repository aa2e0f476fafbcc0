package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/prachisingh/musicapi/pkg/apperr"
)

func TestClassifyErrorNil(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))
}

func TestClassifyErrorNoRowsPassesThrough(t *testing.T) {
	err := ClassifyError(pgx.ErrNoRows)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NotErrorIs(t, err, apperr.ErrQueryFailed)
	assert.NotErrorIs(t, err, apperr.ErrConnectionLost)
}

func TestClassifyErrorServerSideFailure(t *testing.T) {
	cases := []*pgconn.PgError{
		{Code: "42601", Message: "syntax error at or near \"SELEC\""},
		{Code: "23505", Message: "duplicate key value violates unique constraint"},
		{Code: "42P01", Message: "relation \"music_data\" does not exist"},
	}
	for _, pgErr := range cases {
		err := ClassifyError(fmt.Errorf("exec: %w", pgErr))
		assert.ErrorIs(t, err, apperr.ErrQueryFailed, "code %s", pgErr.Code)
		assert.Contains(t, err.Error(), pgErr.Code)
	}
}

func TestClassifyErrorInterruptedContext(t *testing.T) {
	for _, cause := range []error{context.DeadlineExceeded, context.Canceled} {
		err := ClassifyError(fmt.Errorf("query: %w", cause))
		assert.ErrorIs(t, err, apperr.ErrConnectionLost, "cause %v", cause)
	}
}

func TestClassifyErrorNetworkFailure(t *testing.T) {
	err := ClassifyError(errors.New("write tcp 127.0.0.1:5432: broken pipe"))
	assert.ErrorIs(t, err, apperr.ErrConnectionLost)
}
