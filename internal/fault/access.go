package fault

import "github.com/frahmantamala/fault-tracker/internal/core/actor"

// CanView reports whether a sees f.
//
// Chiefs see everything. Supervisors see the faults they reported.
// Technicians see every pending or in-progress fault plus anything assigned
// to them, whatever its state.
func CanView(f *Fault, a actor.Actor) bool {
	switch a.Role {
	case actor.RoleChief:
		return true
	case actor.RoleSupervisor:
		return f.ReportedBy == a.UserID
	case actor.RoleTechnician:
		return f.State.Active() || f.IsAssignedTo(a.UserID)
	}
	return false
}

// CanEdit reports whether a may mutate f at all. Field and state rules are
// applied on top of this by Apply.
func CanEdit(f *Fault, a actor.Actor) bool {
	switch a.Role {
	case actor.RoleChief:
		return true
	case actor.RoleSupervisor:
		return f.ReportedBy == a.UserID && f.State == StatePending
	case actor.RoleTechnician:
		if f.IsAssigned() {
			return f.IsAssignedTo(a.UserID)
		}
		return f.State.Active()
	}
	return false
}

// Visible keeps the faults a can see, preserving input order.
func Visible(faults []*Fault, a actor.Actor) []*Fault {
	out := make([]*Fault, 0, len(faults))
	for _, f := range faults {
		if CanView(f, a) {
			out = append(out, f)
		}
	}
	return out
}
