package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/auth"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredential(ctx context.Context, username string) (*auth.Credential, error) {
	var (
		cred auth.Credential
		role string
	)
	query := `SELECT id, name, role, password_hash FROM users WHERE username = ?`

	row := r.db.WithContext(ctx).Raw(query, username).Row()
	if err := row.Scan(&cred.UserID, &cred.Name, &role, &cred.PasswordHash); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	cred.Role = actor.Role(role)
	return &cred, nil
}
