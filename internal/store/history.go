package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

// History sort orders.
const (
	SortDateDesc   = "date_desc"
	SortDateAsc    = "date_asc"
	SortAmountDesc = "amount_desc"
	SortAmountAsc  = "amount_asc"
)

var orderBy = map[string]string{
	SortDateDesc:   "occurred_at DESC, id DESC",
	SortDateAsc:    "occurred_at ASC, id ASC",
	SortAmountDesc: "amount_cents DESC, id DESC",
	SortAmountAsc:  "amount_cents ASC, id ASC",
}

// ValidSort reports whether sort is a known order.
func ValidSort(sort string) bool {
	_, ok := orderBy[sort]
	return ok
}

// HistoryQuery filters a user's history. Zero values mean no filter, newest
// first, first page.
type HistoryQuery struct {
	Type     string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

type HistoryPage struct {
	Entries  []models.HistoryEntry `json:"entries"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}

type HistoryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

const historyColumns = "id, user_id, type, serial_number, reference, token, amount_cents, status, details, occurred_at, version"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.HistoryEntry, error) {
	var e models.HistoryEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Type, &e.SerialNumber, &e.Reference, &e.Token,
		&e.AmountCents, &e.Status, &e.Details, &e.OccurredAt, &e.Version)
	return e, err
}

// Append writes entries in one transaction. It satisfies
// split.HistoryAppender.
func (s *HistoryStore) Append(ctx context.Context, entries ...models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "begin history append")
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "commit history append")
	}
	return nil
}

func insertEntry(ctx context.Context, q querier, e models.HistoryEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO history (user_id, type, serial_number, reference, token, amount_cents, status, details, occurred_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`,
		e.UserID, e.Type, e.SerialNumber, e.Reference, e.Token, e.AmountCents, e.Status, e.Details, e.OccurredAt.UTC())
	if err != nil {
		return errs.Wrapf(err, "insert %s history entry", e.Type)
	}
	return nil
}

// List returns one page of a user's history.
func (s *HistoryStore) List(ctx context.Context, userID int64, q HistoryQuery) (*HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	order, ok := orderBy[q.Sort]
	if !ok {
		order = orderBy[SortDateDesc]
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	if q.Type != "" {
		args = append(args, q.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(serial_number) LIKE $%d OR LOWER(reference) LIKE $%d)", n, n))
	}
	clause := strings.Join(where, " AND ")

	page := &HistoryPage{Page: q.Page, PageSize: q.PageSize, Entries: []models.HistoryEntry{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history WHERE "+clause, args...).Scan(&page.Total); err != nil {
		return nil, errs.Wrap(err, "count history")
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	query := fmt.Sprintf("SELECT %s FROM history WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		historyColumns, clause, order, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "list history")
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errs.Wrap(err, "scan history")
		}
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "list history")
	}
	return page, nil
}

func (s *HistoryStore) Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM history WHERE id = $1 AND user_id = $2", id, userID))
	if err != nil {
		return nil, notFound(err, "history entry")
	}
	return &e, nil
}

// GetMany returns the user's entries with the given ids in id order.
// Unknown ids are skipped.
func (s *HistoryStore) GetMany(ctx context.Context, userID int64, ids []int64) ([]models.HistoryEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []any{userID}
	marks := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		marks[i] = fmt.Sprintf("$%d", i+2)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM history WHERE user_id = $1 AND id IN (%s) ORDER BY id",
		historyColumns, strings.Join(marks, ", ")), args...)
	if err != nil {
		return nil, errs.Wrap(err, "load history entries")
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errs.Wrap(err, "scan history")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateStatus sets an entry's status if it is still at version.
func (s *HistoryStore) UpdateStatus(ctx context.Context, userID, id int64, status string, version int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE history
		SET status = $1, version = version + 1
		WHERE id = $2 AND user_id = $3 AND version = $4`,
		status, id, userID, version)
	if err != nil {
		return errs.Wrap(err, "update history status")
	}
	return expectOneRow(res, fmt.Sprintf("history entry %d", id))
}

// PatchStatusBySerial sets the status of every entry of the user that
// refers to serial, returning how many changed. Entries already carrying
// status are left alone.
func (s *HistoryStore) PatchStatusBySerial(ctx context.Context, userID int64, serial, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE history
		SET status = $1, version = version + 1
		WHERE user_id = $2 AND serial_number = $3 AND status <> $1`,
		status, userID, serial)
	if err != nil {
		return 0, errs.Wrap(err, "patch history status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(err, "patch history status")
	}
	return n, nil
}
