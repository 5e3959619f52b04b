package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	errors "github.com/frahmantamala/fault-tracker/internal"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, surname, employee_code, username, password_hash, role, created_at, updated_at`

// UserRepository reads and writes users with plain SQL through sqlx.
// Queries are written with '?' and rebound for the driver in use.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	query := r.db.Rebind(`INSERT INTO users (name, surname, employee_code, username, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		u.Name, u.Surname, u.EmployeeCode, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	query := r.db.Rebind(`UPDATE users SET name = ?, surname = ?, employee_code = ?, username = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, u.Name, u.Surname, u.EmployeeCode, u.Username, u.UpdatedAt, u.ID)
	return affectedOne(res, err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, hash, id)
	return affectedOne(res, err)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	return affectedOne(res, err)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (r *UserRepository) ExistsByEmployeeCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE employee_code = ?)`, code)
}

func (r *UserRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM faults WHERE reported_by = ? OR assigned_technician_id = ?)`, id, id)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query), args...); err != nil {
		return false, errors.NewStoreUnavailableError(err)
	}
	return exists, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
