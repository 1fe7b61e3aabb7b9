package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

var historyCols = []string{"id", "user_id", "type", "serial_number", "reference", "token", "amount_cents", "status", "details", "occurred_at", "version"}

func newHistoryStore(t *testing.T) (*HistoryStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryStore(db), mock
}

func TestHistoryStore_Append(t *testing.T) {
	ctx := context.Background()
	entries := []models.HistoryEntry{
		{UserID: 1, Type: models.HistorySplit, SerialNumber: "S1", Token: "T1", AmountCents: 6000, Status: models.HistoryStatusSuccess, OccurredAt: fixedNow},
		{UserID: 1, Type: models.HistorySplitOriginal, SerialNumber: "S0", AmountCents: 6000, Status: models.HistoryStatusConsumed, OccurredAt: fixedNow},
	}

	t.Run("all or nothing", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO history").
			WithArgs(int64(1), "split", "S1", "", "T1", int64(6000), "success", nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO history").
			WithArgs(int64(1), "split-original", "S0", "", "", int64(6000), "consumed", nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		require.NoError(t, s.Append(ctx, entries...))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO history").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO history").WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := s.Append(ctx, entries...)
		assert.ErrorContains(t, err, "insert split-original history entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to write", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		assert.NoError(t, s.Append(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHistoryStore_List(t *testing.T) {
	ctx := context.Background()

	t.Run("filter search and sort", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM history WHERE user_id = \\$1 AND type = \\$2 AND \\(LOWER\\(serial_number\\) LIKE \\$3 OR LOWER\\(reference\\) LIKE \\$3\\)").
			WithArgs(int64(1), "split", "%ab12%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery("ORDER BY amount_cents ASC, id ASC LIMIT \\$4 OFFSET \\$5").
			WithArgs(int64(1), "split", "%ab12%", 2, 2).
			WillReturnRows(sqlmock.NewRows(historyCols).
				AddRow(9, 1, "split", "AB123", "R", "T", 500, "success", []byte(`{"label":"Voucher 1"}`), fixedNow, 1))

		page, err := s.List(ctx, 1, HistoryQuery{Type: "split", Search: " AB12 ", Sort: SortAmountAsc, Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, "Voucher 1", page.Entries[0].Details["label"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectQuery("SELECT COUNT").WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("ORDER BY occurred_at DESC, id DESC LIMIT \\$2 OFFSET \\$3").
			WithArgs(int64(1), 20, 0).
			WillReturnRows(sqlmock.NewRows(historyCols))

		page, err := s.List(ctx, 1, HistoryQuery{Sort: "bogus"})
		require.NoError(t, err)
		assert.Empty(t, page.Entries)
		assert.NotNil(t, page.Entries)
		assert.Equal(t, 1, page.Page)
	})
}

func TestHistoryStore_GetAndUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectQuery("FROM history WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(5), int64(1)).
			WillReturnError(sql.ErrNoRows)

		_, err := s.Get(ctx, 1, 5)
		assert.True(t, errs.Is(err, errs.ErrNotFound))
	})

	t.Run("get many", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectQuery("WHERE user_id = \\$1 AND id IN \\(\\$2, \\$3\\) ORDER BY id").
			WithArgs(int64(1), int64(4), int64(6)).
			WillReturnRows(sqlmock.NewRows(historyCols).
				AddRow(4, 1, "split", "S4", "R4", "T4", 100, "success", nil, fixedNow, 1).
				AddRow(6, 1, "split", "S6", "R6", "T6", 200, "success", "{}", fixedNow, 1))

		out, err := s.GetMany(ctx, 1, []int64{4, 6})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "T6", out[1].Token)
	})

	t.Run("status with stale version", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectExec("UPDATE history SET status = \\$1, version = version \\+ 1 WHERE id = \\$2 AND user_id = \\$3 AND version = \\$4").
			WithArgs("Redeemed", int64(5), int64(1), 2).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateStatus(ctx, 1, 5, "Redeemed", 2)
		assert.True(t, errs.Is(err, errs.ErrVersionMismatch))
	})

	t.Run("patch by serial", func(t *testing.T) {
		s, mock := newHistoryStore(t)
		mock.ExpectExec("UPDATE history SET status = \\$1, version = version \\+ 1 WHERE user_id = \\$2 AND serial_number = \\$3").
			WithArgs("Redeemed", int64(1), "S4").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := s.PatchStatusBySerial(ctx, 1, "S4", "Redeemed")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestValidSort(t *testing.T) {
	assert.True(t, ValidSort(SortDateDesc))
	assert.False(t, ValidSort("random"))
}
