package fault

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
)

// RepositoryAPI is the fault side of the record store. Implementations
// return internal.ErrFaultNotFound for unknown ids and wrap driver failures
// with internal.NewStoreUnavailableError.
type RepositoryAPI interface {
	Create(ctx context.Context, f *faultDatamodel.Fault) error
	GetByID(ctx context.Context, id int64) (*faultDatamodel.Fault, error)
	GetAll(ctx context.Context) ([]*faultDatamodel.Fault, error)
	// ListForTechnician returns faults in any of states or assigned to
	// technicianID, read in a single statement.
	ListForTechnician(ctx context.Context, technicianID int64, states ...string) ([]*faultDatamodel.Fault, error)
	// Update persists f if the stored version still equals expectedVersion
	// and bumps f.Version; otherwise it returns ErrConcurrentModification.
	Update(ctx context.Context, f *faultDatamodel.Fault, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
}

type SectionReader interface {
	GetByID(ctx context.Context, id int64) (*sectionDatamodel.Section, error)
	GetAll(ctx context.Context) ([]*sectionDatamodel.Section, error)
}

type MachineReader interface {
	GetByID(ctx context.Context, id int64) (*machineDatamodel.Machine, error)
	GetAll(ctx context.Context) ([]*machineDatamodel.Machine, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
}

// References groups the stores a fault points into.
type References struct {
	Sections SectionReader
	Machines MachineReader
	Users    UserReader
}

// Sink receives rendered fault views.
type Sink interface {
	WriteFault(ctx context.Context, view View, hint string) error
	WriteFaults(ctx context.Context, views []View, hint string) error
}

type Service struct {
	repo      RepositoryAPI
	refs      References
	publisher events.Publisher
	sink      Sink
	now       clock.Clock
	logger    *slog.Logger
}

type Option func(*Service)

// WithClock overrides the time source used for fault timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.now = c }
}

func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

func NewService(repo RepositoryAPI, refs References, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		refs:      refs,
		publisher: publisher,
		now:       clock.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateFault(ctx context.Context, a actor.Actor, dto CreateFaultDTO) (*Fault, error) {
	if !a.IsChief() && !a.IsSupervisor() {
		s.logger.Warn("create fault denied", "user_id", a.UserID, "role", a.Role)
		s.reject(ctx, a, errors.ErrPermissionDenied)
		return nil, errors.ErrPermissionDenied.WithMessage("only chiefs and supervisors can report faults")
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("fault validation failed", "error", err, "user_id", a.UserID)
		return nil, err
	}

	if err := s.checkLocation(ctx, dto.SectionID, dto.MachineID); err != nil {
		s.logger.Warn("fault references rejected", "error", err,
			"section_id", dto.SectionID, "machine_id", dto.MachineID)
		s.reject(ctx, a, err)
		return nil, err
	}

	f := &Fault{
		Description: strings.TrimSpace(dto.Description),
		State:       StatePending,
		SectionID:   dto.SectionID,
		MachineID:   dto.MachineID,
		ReportedBy:  a.UserID,
		CreatedAt:   clock.In(s.now()),
		Version:     1,
	}

	row := ToDataModel(f)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create fault", "error", err, "user_id", a.UserID)
		return nil, err
	}
	f.ID = row.ID

	s.publish(ctx, events.NewFaultCreatedEvent(f.ID, f.SectionID, f.MachineID, f.ReportedBy, string(a.Role)))

	s.logger.Info("fault created",
		"fault_id", f.ID,
		"user_id", a.UserID,
		"section_id", f.SectionID,
		"machine_id", f.MachineID)

	return f, nil
}

// ListVisibleFaults returns the faults a may see, narrowed by filters,
// newest first.
func (s *Service) ListVisibleFaults(ctx context.Context, a actor.Actor, filters ListFilters) ([]*Fault, error) {
	snapshot, err := s.snapshot(ctx, a)
	if err != nil {
		s.logger.Error("failed to list faults", "error", err, "user_id", a.UserID)
		return nil, err
	}

	visible := Visible(snapshot, a)
	out := make([]*Fault, 0, len(visible))
	for _, f := range visible {
		if filters.Match(f) {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// snapshot fetches the smallest fault set that still contains everything
// visible to a.
func (s *Service) snapshot(ctx context.Context, a actor.Actor) ([]*Fault, error) {
	if !a.IsTechnician() {
		rows, err := s.repo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return FromDataModels(rows), nil
	}

	rows, err := s.repo.ListForTechnician(ctx, a.UserID, string(StatePending), string(StateInProgress))
	if err != nil {
		return nil, err
	}
	return FromDataModels(rows), nil
}

func (s *Service) GetFault(ctx context.Context, a actor.Actor, id int64) (*Fault, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get fault", "error", err, "fault_id", id)
		return nil, err
	}

	f := FromDataModel(row)
	if !CanView(f, a) {
		s.logger.Warn("unauthorized access to fault", "fault_id", id, "user_id", a.UserID, "role", a.Role)
		return nil, errors.ErrPermissionDenied
	}
	return f, nil
}

// TransitionFault applies patch to the fault through the workflow rules and
// persists it with an optimistic version check.
func (s *Service) TransitionFault(ctx context.Context, a actor.Actor, id int64, patch Patch) (*Fault, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load fault for transition", "error", err, "fault_id", id)
		return nil, err
	}
	current := FromDataModel(row)

	next, err := Apply(current, a, patch, clock.In(s.now()))
	if err != nil {
		s.logger.Warn("fault transition rejected",
			"fault_id", id,
			"user_id", a.UserID,
			"role", a.Role,
			"state", current.State,
			"error", err)
		s.reject(ctx, a, err)
		return nil, err
	}

	if patch.TouchesLocation() {
		if err := s.checkLocation(ctx, next.SectionID, next.MachineID); err != nil {
			s.logger.Warn("fault references rejected", "error", err, "fault_id", id,
				"section_id", next.SectionID, "machine_id", next.MachineID)
			s.reject(ctx, a, err)
			return nil, err
		}
	}

	if a.IsChief() && patch.AssignedTechnicianID != nil {
		if err := s.checkTechnician(ctx, *patch.AssignedTechnicianID); err != nil {
			s.reject(ctx, a, err)
			return nil, err
		}
	}

	updated := ToDataModel(next)
	if err := s.repo.Update(ctx, updated, current.Version); err != nil {
		s.logger.Error("failed to persist fault transition", "error", err, "fault_id", id, "version", current.Version)
		s.reject(ctx, a, err)
		return nil, err
	}
	next.Version = updated.Version

	s.publish(ctx, events.NewFaultTransitionedEvent(id, string(current.State), string(next.State), a.UserID, string(a.Role)))

	s.logger.Info("fault updated",
		"fault_id", id,
		"user_id", a.UserID,
		"from_state", current.State,
		"to_state", next.State)

	return next, nil
}

func (s *Service) DeleteFault(ctx context.Context, a actor.Actor, id int64) error {
	if !a.IsChief() {
		s.logger.Warn("delete fault denied", "fault_id", id, "user_id", a.UserID, "role", a.Role)
		return errors.ErrPermissionDenied.WithMessage("only chiefs can delete faults")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete fault", "error", err, "fault_id", id)
		return err
	}

	s.publish(ctx, events.NewFaultDeletedEvent(id, a.UserID))
	s.logger.Info("fault deleted", "fault_id", id, "user_id", a.UserID)
	return nil
}

// ExportFault renders a single visible fault through the report sink.
func (s *Service) ExportFault(ctx context.Context, a actor.Actor, id int64) (string, error) {
	f, err := s.GetFault(ctx, a, id)
	if err != nil {
		return "", err
	}
	views, err := s.resolve(ctx, []*Fault{f})
	if err != nil {
		return "", err
	}

	hint := fmt.Sprintf("averia_%d", id)
	if err := s.writeSink(func(sink Sink) error { return sink.WriteFault(ctx, views[0], hint) }); err != nil {
		s.logger.Error("failed to export fault", "error", err, "fault_id", id)
		return "", err
	}
	return hint, nil
}

// ExportFaults renders the filtered visible list through the report sink.
func (s *Service) ExportFaults(ctx context.Context, a actor.Actor, filters ListFilters) (string, error) {
	faults, err := s.ListVisibleFaults(ctx, a, filters)
	if err != nil {
		return "", err
	}
	views, err := s.resolve(ctx, faults)
	if err != nil {
		return "", err
	}

	const hint = "lista_averias"
	if err := s.writeSink(func(sink Sink) error { return sink.WriteFaults(ctx, views, hint) }); err != nil {
		s.logger.Error("failed to export fault list", "error", err, "count", len(views))
		return "", err
	}
	return hint, nil
}

func (s *Service) writeSink(write func(Sink) error) error {
	if s.sink == nil {
		return errors.ErrReportFailed.WithMessage("no report sink configured")
	}
	if err := write(s.sink); err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return err
		}
		return errors.ErrReportFailed.WithCause(err)
	}
	return nil
}

// resolve turns faults into views carrying display names.
func (s *Service) resolve(ctx context.Context, faults []*Fault) ([]View, error) {
	sections, err := s.refs.Sections.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	machines, err := s.refs.Machines.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.refs.Users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	sectionNames := make(map[int64]string, len(sections))
	for _, sec := range sections {
		sectionNames[sec.ID] = sec.Name
	}
	machineNames := make(map[int64]string, len(machines))
	for _, m := range machines {
		machineNames[m.ID] = m.Name
	}
	userNames := make(map[int64]string, len(users))
	for _, u := range users {
		userNames[u.ID] = strings.TrimSpace(u.Name + " " + u.Surname)
	}

	views := make([]View, 0, len(faults))
	for _, f := range faults {
		v := View{
			ID:          f.ID,
			Description: f.Description,
			State:       f.State,
			Section:     sectionNames[f.SectionID],
			Machine:     machineNames[f.MachineID],
			ReportedBy:  userNames[f.ReportedBy],
			CreatedAt:   f.CreatedAt,
			UpdatedAt:   f.UpdatedAt,
		}
		if f.AssignedTechnicianID != nil {
			v.AssignedTechnician = userNames[*f.AssignedTechnicianID]
		}
		views = append(views, v)
	}
	return views, nil
}

// checkLocation verifies both references exist and the machine belongs to
// the section.
func (s *Service) checkLocation(ctx context.Context, sectionID, machineID int64) error {
	if _, err := s.refs.Sections.GetByID(ctx, sectionID); err != nil {
		return err
	}
	m, err := s.refs.Machines.GetByID(ctx, machineID)
	if err != nil {
		return err
	}
	if m.SectionID != sectionID {
		return errors.ErrReferential.WithDetails(map[string]int64{
			"section_id":         sectionID,
			"machine_id":         machineID,
			"machine_section_id": m.SectionID,
		})
	}
	return nil
}

func (s *Service) checkTechnician(ctx context.Context, userID int64) error {
	u, err := s.refs.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if actor.Role(u.Role) != actor.RoleTechnician {
		return errors.ErrReferential.WithMessage("assigned user is not a technician")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish fault event", "event_type", event.EventType(), "error", err)
	}
}

// reject reports a refused operation. Only counters consume these, so they
// go out asynchronously and never delay the caller's error.
func (s *Service) reject(ctx context.Context, a actor.Actor, err error) {
	kind := errors.ErrorKind(err)
	if kind == "" || s.publisher == nil {
		return
	}
	event := events.NewFaultRejectedEvent(string(kind), a.UserID, string(a.Role))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish fault event", "event_type", event.EventType(), "error", err)
	}
}
