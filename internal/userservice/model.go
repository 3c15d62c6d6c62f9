package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sushihentaime/dreamblog/internal/common"
)

var errNoRowsAffected = errors.New("no rows affected")

var (
	ErrDuplicateUsername = fmt.Errorf("%w: duplicate username", common.ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("%w: duplicate email", common.ErrConflict)
)

const userColumns = `id, username, email, password, roles, verified, deletion_requested, deletion_date,
		notify_email, notify_sms, phone, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func NewUserModel(db *sql.DB) *UserModel {
	return &UserModel{db: db}
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		roles        pq.StringArray
		deletionDate sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password.hash,
		&roles,
		&u.Verified,
		&u.DeletionRequested,
		&deletionDate,
		&u.Notifications.Email,
		&u.Notifications.SMS,
		&u.Phone,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	u.Roles = common.ParseRoles(roles)
	if deletionDate.Valid {
		t := deletionDate.Time
		u.DeletionDate = &t
	}

	return &u, nil
}

func duplicateError(err error) error {
	switch {
	case common.UniqueViolation(err, "users_username_key"):
		return ErrDuplicateUsername
	case common.UniqueViolation(err, "users_email_key"):
		return ErrDuplicateEmail
	default:
		return err
	}
}

// insert creates the user and stores the verification token hash produced by issue inside the
// same transaction, so the record is never committed without its token.
func (m *UserModel) insert(ctx context.Context, u *User, issue func(id int) ([]byte, error)) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (username, email, password, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Password.hash,
		pq.Array(u.Roles.Strings()),
	}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		return duplicateError(err)
	}

	hash, err := issue(u.ID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET email_verification_token = $1 WHERE id = $2`, hash, u.ID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (m *UserModel) getByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(m.db.QueryRowContext(ctx, query, id))
}

func (m *UserModel) getByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(m.db.QueryRowContext(ctx, query, email))
}

// verify consumes the stored verification token. It only succeeds while the stored hash still
// equals the presented one.
func (m *UserModel) verify(ctx context.Context, id int, tokenHash []byte) error {
	query := `
		UPDATE users
		SET verified = true,
			email_verification_token = NULL,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND email_verification_token = $2`

	return tokenConsumed(expectOneRow(m.db.ExecContext(ctx, query, id, tokenHash)))
}

func (m *UserModel) setDeletionToken(ctx context.Context, id int, tokenHash []byte) error {
	query := `
		UPDATE users
		SET account_deletion_token = $2, updated_at = NOW()
		WHERE id = $1`

	return recordFound(expectOneRow(m.db.ExecContext(ctx, query, id, tokenHash)))
}

// confirmDeletion consumes the stored deletion token and schedules the deletion.
func (m *UserModel) confirmDeletion(ctx context.Context, id int, tokenHash []byte, deletionDate time.Time) error {
	query := `
		UPDATE users
		SET account_deletion_token = NULL,
			deletion_requested = true,
			deletion_date = $3,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND account_deletion_token = $2`

	return tokenConsumed(expectOneRow(m.db.ExecContext(ctx, query, id, tokenHash, deletionDate)))
}

func (m *UserModel) cancelDeletion(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET deletion_requested = false,
			deletion_date = NULL,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1`

	return recordFound(expectOneRow(m.db.ExecContext(ctx, query, id)))
}

func (m *UserModel) updateProfile(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, phone = $3, notify_email = $4, notify_sms = $5,
			updated_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Phone,
		u.Notifications.Email,
		u.Notifications.SMS,
		u.ID,
		u.Version,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrEditConflict
		default:
			return duplicateError(err)
		}
	}

	return nil
}

func (m *UserModel) dueForDeletion(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		SELECT id
		FROM users
		WHERE deletion_requested AND deletion_date <= $1
		ORDER BY id`

	rows, err := m.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// purge removes the user if its deletion is still scheduled and due. A user that is already
// gone or whose deletion was cancelled in the meantime is left alone and reported as false.
func (m *UserModel) purge(ctx context.Context, id int, now time.Time) (bool, error) {
	query := `
		DELETE FROM users
		WHERE id = $1 AND deletion_requested AND deletion_date <= $2`

	res, err := m.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	switch {
	case rows == 0:
		return errNoRowsAffected
	case rows > 1:
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return nil
}

// tokenConsumed reports a compare-and-swap on a stored token that matched nothing as an
// invalid token: the user is gone, the token was already used, or a newer one replaced it.
func tokenConsumed(err error) error {
	if errors.Is(err, errNoRowsAffected) {
		return common.ErrInvalidToken
	}
	return err
}

func recordFound(err error) error {
	if errors.Is(err, errNoRowsAffected) {
		return common.ErrRecordNotFound
	}
	return err
}
