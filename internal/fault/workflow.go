package fault

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
)

// Apply runs the workflow rules for a mutating f with p and returns the
// updated copy. f itself is never modified and nothing is persisted.
//
// Checks run in a fixed order: permission, then patch shape, then state
// legality. Callers without rights on f learn nothing about the patch.
// Referential checks against the store happen in the service.
func Apply(f *Fault, a actor.Actor, p Patch, now time.Time) (*Fault, error) {
	if err := checkPermission(f, a, p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	target := f.State
	if p.State != nil {
		target = *p.State
	}
	if err := checkTransition(f.State, target, a); err != nil {
		return nil, err
	}

	next := f.Clone()
	next.State = target
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.SectionID != nil {
		next.SectionID = *p.SectionID
	}
	if p.MachineID != nil {
		next.MachineID = *p.MachineID
	}

	switch {
	case a.IsTechnician():
		// any accepted technician mutation claims the fault
		id := a.UserID
		next.AssignedTechnicianID = &id
	case p.Unassign:
		next.AssignedTechnicianID = nil
	case p.AssignedTechnicianID != nil:
		id := *p.AssignedTechnicianID
		next.AssignedTechnicianID = &id
	}

	at := now
	next.UpdatedAt = &at
	return next, nil
}

func checkPermission(f *Fault, a actor.Actor, p Patch) error {
	if a.IsTechnician() && f.State == StateResolved {
		return errors.ErrInvalidTransition.WithMessage("fault is already resolved")
	}
	if !CanEdit(f, a) {
		return errors.ErrPermissionDenied
	}

	switch a.Role {
	case actor.RoleChief:
		return nil
	case actor.RoleSupervisor:
		// state moves are left to checkTransition; CanEdit already pins f to PENDING
		if p.AssignedTechnicianID != nil || p.Unassign {
			return errors.ErrPermissionDenied.WithMessage("supervisors cannot assign technicians")
		}
	case actor.RoleTechnician:
		if p.Unassign || (p.AssignedTechnicianID != nil && *p.AssignedTechnicianID != a.UserID) {
			return errors.ErrPermissionDenied.WithMessage("technicians can only assign themselves")
		}
		if (p.SectionID != nil && *p.SectionID != f.SectionID) || (p.MachineID != nil && *p.MachineID != f.MachineID) {
			return errors.ErrPermissionDenied.WithMessage("technicians cannot move a fault to another section or machine")
		}
	default:
		return errors.ErrPermissionDenied
	}
	return nil
}

func checkTransition(from, to State, a actor.Actor) error {
	if a.IsChief() {
		return nil
	}
	if from == to {
		return nil
	}
	if next, ok := from.Next(); ok && next == to {
		return nil
	}
	return errors.ErrInvalidTransition.WithMessage("cannot move from " + string(from) + " to " + string(to))
}
