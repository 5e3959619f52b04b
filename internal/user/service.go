package user

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmployeeCode(ctx context.Context, code string) (bool, error)
	// InUse reports whether faults were reported by or assigned to the user.
	InUse(ctx context.Context, id int64) (bool, error)
}

var (
	ErrDuplicateUsername     = errors.NewConflictError("username is already taken", errors.ErrCodeDuplicateUsername)
	ErrDuplicateEmployeeCode = errors.NewConflictError("employee code is already registered", errors.ErrCodeDuplicateEmployeeCode)
	ErrRoleImmutable         = errors.NewValidationError("employee code prefix determines the role and cannot change", errors.ErrCodeRoleImmutable)
)

type Service struct {
	repo       RepositoryAPI
	publisher  events.Publisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// ListUsers returns every user, optionally narrowed to one role.
func (s *Service) ListUsers(ctx context.Context, a actor.Actor, role actor.Role) ([]*User, error) {
	if !a.IsChief() {
		return nil, errors.ErrPermissionDenied
	}

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get users from repository", "error", err)
		return nil, err
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		if role != "" && row.Role != string(role) {
			continue
		}
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// GetUser is open to chiefs and to the user reading itself.
func (s *Service) GetUser(ctx context.Context, a actor.Actor, id int64) (*User, error) {
	if !a.IsChief() && a.UserID != id {
		return nil, errors.ErrPermissionDenied
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Me(ctx context.Context, a actor.Actor) (*User, error) {
	return s.GetUser(ctx, a, a.UserID)
}

func (s *Service) CreateUser(ctx context.Context, a actor.Actor, dto CreateUserDTO) (*User, error) {
	if !a.IsChief() {
		s.logger.Warn("create user denied", "user_id", a.UserID, "role", a.Role)
		return nil, errors.ErrPermissionDenied
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := actor.RoleFromEmployeeCode(dto.EmployeeCode)
	if err != nil {
		return nil, errors.NewValidationFieldError("employee_code", err.Error(), errors.ErrCodeInvalidEmployeeCode)
	}
	if err := s.ensureUnique(ctx, dto.Username, dto.EmployeeCode); err != nil {
		return nil, err
	}

	hash, err := s.hash(dto.Password)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	row := &userDatamodel.User{
		Name:         dto.Name,
		Surname:      dto.Surname,
		EmployeeCode: dto.EmployeeCode,
		Username:     dto.Username,
		PasswordHash: hash,
		Role:         string(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, err
	}

	s.changed(ctx, "created", row.ID)
	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	return FromDataModel(row), nil
}

func (s *Service) UpdateUser(ctx context.Context, a actor.Actor, id int64, dto UpdateUserDTO) (*User, error) {
	if !a.IsChief() {
		s.logger.Warn("update user denied", "target_id", id, "user_id", a.UserID, "role", a.Role)
		return nil, errors.ErrPermissionDenied
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Username != nil && *dto.Username != row.Username {
		if err := s.ensureUnique(ctx, *dto.Username, ""); err != nil {
			return nil, err
		}
		row.Username = *dto.Username
	}
	if dto.EmployeeCode != nil && *dto.EmployeeCode != row.EmployeeCode {
		if !samePrefix(*dto.EmployeeCode, row.EmployeeCode) {
			return nil, ErrRoleImmutable
		}
		if err := s.ensureUnique(ctx, "", *dto.EmployeeCode); err != nil {
			return nil, err
		}
		row.EmployeeCode = *dto.EmployeeCode
	}
	if dto.Name != nil {
		row.Name = *dto.Name
	}
	if dto.Surname != nil {
		row.Surname = *dto.Surname
	}
	row.UpdatedAt = clock.Now()

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "error", err, "target_id", id)
		return nil, err
	}

	s.changed(ctx, "updated", id)
	return FromDataModel(row), nil
}

// ChangePassword lets a user replace its own password after proving the
// current one.
func (s *Service) ChangePassword(ctx context.Context, a actor.Actor, id int64, dto ChangePasswordDTO) error {
	if a.UserID != id {
		return errors.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
		s.logger.Warn("change password rejected", "user_id", id)
		return errors.ErrInvalidCredential
	}

	hash, err := s.hash(dto.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		s.logger.Error("failed to update password", "error", err, "user_id", id)
		return err
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, a actor.Actor, id int64) error {
	if !a.IsChief() || a.UserID == id {
		s.logger.Warn("delete user denied", "target_id", id, "user_id", a.UserID, "role", a.Role)
		return errors.ErrPermissionDenied
	}

	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return errors.NewConflictError("user is referenced by faults", errors.ErrCodeInUse)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "error", err, "target_id", id)
		return err
	}

	s.changed(ctx, "deleted", id)
	return nil
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) EmployeeCodeExists(ctx context.Context, code string) (bool, error) {
	return s.repo.ExistsByEmployeeCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *Service) ensureUnique(ctx context.Context, username, code string) error {
	if username != "" {
		exists, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateUsername
		}
	}
	if code != "" {
		exists, err := s.repo.ExistsByEmployeeCode(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEmployeeCode
		}
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

func (s *Service) changed(ctx context.Context, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, events.NewCatalogChangedEvent("user", action, id)); err != nil {
		s.logger.Error("failed to publish user change", "error", err, "target_id", id)
	}
}

// samePrefix compares the role-bearing "IBx" prefix of two employee codes.
func samePrefix(a, b string) bool {
	return len(a) >= 3 && len(b) >= 3 && a[:3] == b[:3]
}
