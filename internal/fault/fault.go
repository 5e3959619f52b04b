package fault

import (
	"time"

	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
)

type State string

const (
	StatePending    State = "PENDING"
	StateInProgress State = "IN_PROGRESS"
	StateResolved   State = "RESOLVED"
)

// States lists the workflow states in order.
var States = []State{StatePending, StateInProgress, StateResolved}

func (s State) Valid() bool {
	return s.rank() >= 0
}

// Active reports whether technicians may still act on a fault in this state.
func (s State) Active() bool {
	return s == StatePending || s == StateInProgress
}

func (s State) rank() int {
	for i, st := range States {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the state one step forward, or false from RESOLVED.
func (s State) Next() (State, bool) {
	r := s.rank()
	if r < 0 || r+1 >= len(States) {
		return "", false
	}
	return States[r+1], true
}

type Fault struct {
	ID                   int64      `json:"id"`
	Description          string     `json:"description"`
	State                State      `json:"state"`
	SectionID            int64      `json:"section_id"`
	MachineID            int64      `json:"machine_id"`
	ReportedBy           int64      `json:"reported_by"`
	AssignedTechnicianID *int64     `json:"assigned_technician_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
	Version              int64      `json:"version"`
}

func (f *Fault) IsAssigned() bool {
	return f.AssignedTechnicianID != nil
}

func (f *Fault) IsAssignedTo(userID int64) bool {
	return f.AssignedTechnicianID != nil && *f.AssignedTechnicianID == userID
}

// Clone returns a deep copy so callers can mutate the result freely.
func (f *Fault) Clone() *Fault {
	cp := *f
	if f.AssignedTechnicianID != nil {
		id := *f.AssignedTechnicianID
		cp.AssignedTechnicianID = &id
	}
	if f.UpdatedAt != nil {
		t := *f.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

func ToDataModel(f *Fault) *faultDatamodel.Fault {
	return &faultDatamodel.Fault{
		ID:                   f.ID,
		Description:          f.Description,
		State:                string(f.State),
		SectionID:            f.SectionID,
		MachineID:            f.MachineID,
		ReportedBy:           f.ReportedBy,
		AssignedTechnicianID: f.AssignedTechnicianID,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
		Version:              f.Version,
	}
}

func FromDataModel(f *faultDatamodel.Fault) *Fault {
	return &Fault{
		ID:                   f.ID,
		Description:          f.Description,
		State:                State(f.State),
		SectionID:            f.SectionID,
		MachineID:            f.MachineID,
		ReportedBy:           f.ReportedBy,
		AssignedTechnicianID: f.AssignedTechnicianID,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
		Version:              f.Version,
	}
}

func FromDataModels(rows []*faultDatamodel.Fault) []*Fault {
	out := make([]*Fault, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
