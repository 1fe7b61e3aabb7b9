package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

const userColumns = "id, phone_number, password_hash, wallet_cents, version, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.PasswordHash, &u.WalletCents, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user with an empty wallet. A taken phone number yields
// errs.ErrConflict.
func (s *UserStore) Create(ctx context.Context, phone, passwordHash string) (*models.User, error) {
	now := s.now().UTC()
	u := &models.User{PhoneNumber: phone, PasswordHash: passwordHash, Version: 1, CreatedAt: now, UpdatedAt: now}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (phone_number, password_hash, wallet_cents, version, created_at, updated_at)
		VALUES ($1, $2, 0, 1, $3, $3)
		RETURNING id`,
		phone, passwordHash, now).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Markf(errs.ErrConflict, "phone number already registered")
		}
		return nil, errs.Wrap(err, "create user")
	}
	return u, nil
}

func (s *UserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone_number = $1", phone))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// CreditWallet adds amountCents to the wallet if the row is still at
// version. The caller reloads and retries on errs.ErrVersionMismatch.
func (s *UserStore) CreditWallet(ctx context.Context, userID, amountCents int64, version int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET wallet_cents = wallet_cents + $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		amountCents, s.now().UTC(), userID, version)
	if err != nil {
		return errs.Wrap(err, "credit wallet")
	}
	return expectOneRow(res, fmt.Sprintf("user %d", userID))
}
