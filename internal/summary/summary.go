// Package summary aggregates fault collections into monthly dashboards.
package summary

import (
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/fault"
)

type StateCounts struct {
	Pending    int `json:"PENDING"`
	InProgress int `json:"IN_PROGRESS"`
	Resolved   int `json:"RESOLVED"`
}

func (c *StateCounts) add(s fault.State) {
	switch s {
	case fault.StatePending:
		c.Pending++
	case fault.StateInProgress:
		c.InProgress++
	case fault.StateResolved:
		c.Resolved++
	}
}

type Bucket struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Total  int         `json:"total"`
	States StateCounts `json:"states"`
}

type RoleCount struct {
	Role  actor.Role `json:"role"`
	Count int        `json:"count"`
}

// Summary contains only slices and structs so its JSON encoding is stable.
type Summary struct {
	Window       Window      `json:"window"`
	Total        int         `json:"total"`
	ByState      StateCounts `json:"by_state"`
	BySection    []Bucket    `json:"by_section"`
	ByMachine    []Bucket    `json:"by_machine"`
	ByTechnician []Bucket    `json:"by_technician"`
	ByRole       []RoleCount `json:"by_role"`
}

type Ref struct {
	ID   int64
	Name string
}

type Person struct {
	ID   int64
	Name string
	Role actor.Role
}

// References are the known sections, machines and users, in the order the
// summary buckets should follow.
type References struct {
	Sections []Ref
	Machines []Ref
	Users    []Person
}

// Summarize counts the faults created inside w. It is pure: bucket order
// comes from refs, never from the order of faults.
func Summarize(faults []*fault.Fault, refs References, w Window) Summary {
	s := Summary{
		Window:       w,
		BySection:    make([]Bucket, len(refs.Sections)),
		ByMachine:    make([]Bucket, len(refs.Machines)),
		ByTechnician: []Bucket{},
		ByRole:       make([]RoleCount, len(actor.Roles)),
	}

	sectionIdx := make(map[int64]int, len(refs.Sections))
	for i, r := range refs.Sections {
		s.BySection[i] = Bucket{ID: r.ID, Name: r.Name}
		if _, dup := sectionIdx[r.ID]; !dup {
			sectionIdx[r.ID] = i
		}
	}
	machineIdx := make(map[int64]int, len(refs.Machines))
	for i, r := range refs.Machines {
		s.ByMachine[i] = Bucket{ID: r.ID, Name: r.Name}
		if _, dup := machineIdx[r.ID]; !dup {
			machineIdx[r.ID] = i
		}
	}
	techIdx := make(map[int64]int)
	for _, u := range refs.Users {
		if u.Role != actor.RoleTechnician {
			continue
		}
		if _, dup := techIdx[u.ID]; dup {
			continue
		}
		techIdx[u.ID] = len(s.ByTechnician)
		s.ByTechnician = append(s.ByTechnician, Bucket{ID: u.ID, Name: u.Name})
	}

	for _, f := range faults {
		if !w.Contains(f.CreatedAt) {
			continue
		}
		s.Total++
		s.ByState.add(f.State)
		if i, ok := sectionIdx[f.SectionID]; ok {
			s.BySection[i].Total++
			s.BySection[i].States.add(f.State)
		}
		if i, ok := machineIdx[f.MachineID]; ok {
			s.ByMachine[i].Total++
			s.ByMachine[i].States.add(f.State)
		}
		if f.AssignedTechnicianID != nil {
			if i, ok := techIdx[*f.AssignedTechnicianID]; ok {
				s.ByTechnician[i].Total++
				s.ByTechnician[i].States.add(f.State)
			}
		}
	}

	// users are counted regardless of the window
	for i, role := range actor.Roles {
		s.ByRole[i].Role = role
	}
	for _, u := range refs.Users {
		for i, role := range actor.Roles {
			if u.Role == role {
				s.ByRole[i].Count++
			}
		}
	}

	return s
}

// Section returns the bucket for a section id.
func (s Summary) Section(id int64) (Bucket, bool) {
	for _, b := range s.BySection {
		if b.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}
