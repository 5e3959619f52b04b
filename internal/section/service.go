package section

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*sectionDatamodel.Section, error)
	GetByID(ctx context.Context, id int64) (*sectionDatamodel.Section, error)
	GetByName(ctx context.Context, name string) (*sectionDatamodel.Section, error)
	Create(ctx context.Context, s *sectionDatamodel.Section) error
	Update(ctx context.Context, s *sectionDatamodel.Section) error
	Delete(ctx context.Context, id int64) error
	// InUse reports whether machines or faults still reference the section.
	InUse(ctx context.Context, id int64) (bool, error)
}

var ErrDuplicateName = errors.NewConflictError("a section with this name already exists", errors.ErrCodeDuplicateName)

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) ListSections(ctx context.Context) ([]*Section, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get sections from repository", "error", err)
		return nil, err
	}

	sections := make([]*Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, FromDataModel(row))
	}
	return sections, nil
}

func (s *Service) GetSection(ctx context.Context, id int64) (*Section, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) CreateSection(ctx context.Context, a actor.Actor, dto SectionDTO) (*Section, error) {
	if !a.IsChief() {
		s.logger.Warn("create section denied", "user_id", a.UserID, "role", a.Role)
		return nil, errors.ErrPermissionDenied
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, dto.Name, 0); err != nil {
		return nil, err
	}

	row := &sectionDatamodel.Section{Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create section", "error", err, "name", dto.Name)
		return nil, err
	}

	s.changed(ctx, "created", row.ID)
	s.logger.Info("section created", "section_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) UpdateSection(ctx context.Context, a actor.Actor, id int64, dto SectionDTO) (*Section, error) {
	if !a.IsChief() {
		s.logger.Warn("update section denied", "section_id", id, "user_id", a.UserID, "role", a.Role)
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
	if err := s.ensureUniqueName(ctx, dto.Name, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update section", "error", err, "section_id", id)
		return nil, err
	}

	s.changed(ctx, "updated", id)
	return FromDataModel(row), nil
}

func (s *Service) DeleteSection(ctx context.Context, a actor.Actor, id int64) error {
	if !a.IsChief() {
		s.logger.Warn("delete section denied", "section_id", id, "user_id", a.UserID, "role", a.Role)
		return errors.ErrPermissionDenied
	}

	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return errors.NewConflictError("section still has machines or faults", errors.ErrCodeInUse)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete section", "error", err, "section_id", id)
		return err
	}

	s.changed(ctx, "deleted", id)
	s.logger.Info("section deleted", "section_id", id, "user_id", a.UserID)
	return nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrDuplicateName
	}
	return nil
}

func (s *Service) changed(ctx context.Context, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, events.NewCatalogChangedEvent("section", action, id)); err != nil {
		s.logger.Error("failed to publish section change", "error", err, "section_id", id)
	}
}
