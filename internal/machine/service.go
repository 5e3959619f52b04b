package machine

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*machineDatamodel.Machine, error)
	GetBySection(ctx context.Context, sectionID int64) ([]*machineDatamodel.Machine, error)
	GetByID(ctx context.Context, id int64) (*machineDatamodel.Machine, error)
	Create(ctx context.Context, m *machineDatamodel.Machine) error
	Update(ctx context.Context, m *machineDatamodel.Machine) error
	Delete(ctx context.Context, id int64) error
	// FaultCount is the number of faults referencing the machine.
	FaultCount(ctx context.Context, id int64) (int64, error)
}

type SectionReader interface {
	GetByID(ctx context.Context, id int64) (*sectionDatamodel.Section, error)
}

type Service struct {
	repo      RepositoryAPI
	sections  SectionReader
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, sections SectionReader, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sections:  sections,
		publisher: publisher,
		logger:    logger,
	}
}

// ListMachines lists every machine, or only those of sectionID when it is
// non-zero.
func (s *Service) ListMachines(ctx context.Context, sectionID int64) ([]*Machine, error) {
	var (
		rows []*machineDatamodel.Machine
		err  error
	)
	if sectionID > 0 {
		if _, err := s.sections.GetByID(ctx, sectionID); err != nil {
			return nil, err
		}
		rows, err = s.repo.GetBySection(ctx, sectionID)
	} else {
		rows, err = s.repo.GetAll(ctx)
	}
	if err != nil {
		s.logger.Error("failed to get machines from repository", "error", err, "section_id", sectionID)
		return nil, err
	}

	machines := make([]*Machine, 0, len(rows))
	for _, row := range rows {
		machines = append(machines, FromDataModel(row))
	}
	return machines, nil
}

func (s *Service) GetMachine(ctx context.Context, id int64) (*Machine, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) CreateMachine(ctx context.Context, a actor.Actor, dto MachineDTO) (*Machine, error) {
	if !a.IsChief() {
		s.logger.Warn("create machine denied", "user_id", a.UserID, "role", a.Role)
		return nil, errors.ErrPermissionDenied
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.sections.GetByID(ctx, dto.SectionID); err != nil {
		return nil, err
	}

	row := &machineDatamodel.Machine{Name: dto.Name, SectionID: dto.SectionID}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create machine", "error", err, "section_id", dto.SectionID)
		return nil, err
	}

	s.changed(ctx, "created", row.ID)
	s.logger.Info("machine created", "machine_id", row.ID, "section_id", row.SectionID)
	return FromDataModel(row), nil
}

// UpdateMachine renames or moves a machine. Moving is refused once faults
// reference the machine, since those faults would end up pointing at a
// machine outside their section.
func (s *Service) UpdateMachine(ctx context.Context, a actor.Actor, id int64, dto MachineDTO) (*Machine, error) {
	if !a.IsChief() {
		s.logger.Warn("update machine denied", "machine_id", id, "user_id", a.UserID, "role", a.Role)
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

	if dto.SectionID != row.SectionID {
		if _, err := s.sections.GetByID(ctx, dto.SectionID); err != nil {
			return nil, err
		}
		count, err := s.repo.FaultCount(ctx, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			s.logger.Warn("machine move refused", "machine_id", id, "faults", count)
			return nil, errors.ErrReferential.WithMessage("machine is referenced by faults of its current section")
		}
	}

	row.Name = dto.Name
	row.SectionID = dto.SectionID
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update machine", "error", err, "machine_id", id)
		return nil, err
	}

	s.changed(ctx, "updated", id)
	return FromDataModel(row), nil
}

func (s *Service) DeleteMachine(ctx context.Context, a actor.Actor, id int64) error {
	if !a.IsChief() {
		s.logger.Warn("delete machine denied", "machine_id", id, "user_id", a.UserID, "role", a.Role)
		return errors.ErrPermissionDenied
	}

	count, err := s.repo.FaultCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.NewConflictError("machine is referenced by faults", errors.ErrCodeInUse)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete machine", "error", err, "machine_id", id)
		return err
	}

	s.changed(ctx, "deleted", id)
	return nil
}

func (s *Service) changed(ctx context.Context, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, events.NewCatalogChangedEvent("machine", action, id)); err != nil {
		s.logger.Error("failed to publish machine change", "error", err, "machine_id", id)
	}
}
