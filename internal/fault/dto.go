package fault

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	"github.com/frahmantamala/fault-tracker/internal/core/common/validation"
)

type CreateFaultDTO struct {
	Description string `json:"description"`
	SectionID   int64  `json:"section_id"`
	MachineID   int64  `json:"machine_id"`
}

func (d *CreateFaultDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("description", strings.TrimSpace(d.Description)).
		Required().
		MaxLength(validation.MaxDescriptionLength)
	v.Field("section_id", d.SectionID).Required().Positive()
	v.Field("machine_id", d.MachineID).Required().Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	State                *State  `json:"state,omitempty"`
	Description          *string `json:"description,omitempty"`
	SectionID            *int64  `json:"section_id,omitempty"`
	MachineID            *int64  `json:"machine_id,omitempty"`
	AssignedTechnicianID *int64  `json:"assigned_technician_id,omitempty"`
	Unassign             bool    `json:"unassign,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.State == nil && p.Description == nil && p.SectionID == nil &&
		p.MachineID == nil && p.AssignedTechnicianID == nil && !p.Unassign
}

// TouchesLocation reports whether the patch names a section or machine.
func (p Patch) TouchesLocation() bool {
	return p.SectionID != nil || p.MachineID != nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return errors.ErrEmptyPatch
	}
	if p.State != nil && !p.State.Valid() {
		return errors.NewValidationFieldError("state", "state must be PENDING, IN_PROGRESS or RESOLVED", errors.ErrCodeValidationFailed)
	}
	if p.Description != nil {
		if err := validation.ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.AssignedTechnicianID != nil && p.Unassign {
		return errors.NewValidationFieldError("unassign", "cannot assign and unassign in the same patch", errors.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	if p.SectionID != nil {
		v.Field("section_id", *p.SectionID).Positive()
	}
	if p.MachineID != nil {
		v.Field("machine_id", *p.MachineID).Positive()
	}
	if p.AssignedTechnicianID != nil {
		v.Field("assigned_technician_id", *p.AssignedTechnicianID).Positive()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ListFilters narrows an already access-filtered fault list. Zero values
// mean "any".
type ListFilters struct {
	State        State
	SectionID    int64
	MachineID    int64
	ReportedBy   int64
	TechnicianID int64
	Month        int
	Year         int
}

// ParseListFilters reads filters from query parameters.
func ParseListFilters(q url.Values) (ListFilters, error) {
	var f ListFilters
	var errs []errors.ValidationError

	if s := q.Get("state"); s != "" {
		f.State = State(strings.ToUpper(s))
		if !f.State.Valid() {
			errs = append(errs, errors.ValidationError{Field: "state", Message: "unknown state", Code: string(errors.ErrCodeValidationFailed)})
		}
	}

	ids := []struct {
		name string
		dst  *int64
	}{
		{"section_id", &f.SectionID},
		{"machine_id", &f.MachineID},
		{"reported_by", &f.ReportedBy},
		{"technician_id", &f.TechnicianID},
	}
	for _, p := range ids {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			errs = append(errs, errors.ValidationError{Field: p.name, Message: p.name + " must be a positive integer", Code: string(errors.ErrCodeValidationFailed)})
			continue
		}
		*p.dst = n
	}

	if raw := q.Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			errs = append(errs, errors.ValidationError{Field: "month", Message: "month must be between 1 and 12", Code: string(errors.ErrCodeValidationFailed)})
		}
		f.Month = n
	}
	if raw := q.Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, errors.ValidationError{Field: "year", Message: "year must be a positive integer", Code: string(errors.ErrCodeValidationFailed)})
		}
		f.Year = n
	}

	if len(errs) > 0 {
		return ListFilters{}, errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: errs})
	}
	return f, nil
}

func (lf ListFilters) Match(f *Fault) bool {
	if lf.State != "" && f.State != lf.State {
		return false
	}
	if lf.SectionID != 0 && f.SectionID != lf.SectionID {
		return false
	}
	if lf.MachineID != 0 && f.MachineID != lf.MachineID {
		return false
	}
	if lf.ReportedBy != 0 && f.ReportedBy != lf.ReportedBy {
		return false
	}
	if lf.TechnicianID != 0 && !f.IsAssignedTo(lf.TechnicianID) {
		return false
	}
	created := clock.In(f.CreatedAt)
	if lf.Month != 0 && created.Month() != time.Month(lf.Month) {
		return false
	}
	if lf.Year != 0 && created.Year() != lf.Year {
		return false
	}
	return true
}

// View is a fault with its references resolved to display names, the shape
// handed to report sinks.
type View struct {
	ID                 int64      `json:"id"`
	Description        string     `json:"description"`
	State              State      `json:"state"`
	Section            string     `json:"section"`
	Machine            string     `json:"machine"`
	ReportedBy         string     `json:"reported_by"`
	AssignedTechnician string     `json:"assigned_technician,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

type ListResponse struct {
	Faults []*Fault `json:"faults"`
	Total  int      `json:"total"`
}
