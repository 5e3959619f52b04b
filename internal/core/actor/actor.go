// Package actor holds the closed role classification and the explicit
// caller identity passed into every fault operation.
package actor

import (
	"errors"
	"regexp"
)

type Role string

const (
	RoleChief      Role = "CHIEF"
	RoleSupervisor Role = "SUPERVISOR"
	RoleTechnician Role = "TECHNICIAN"
)

// Roles lists every role in reporting order.
var Roles = []Role{RoleChief, RoleSupervisor, RoleTechnician}

var (
	ErrUnknownRole         = errors.New("unknown role")
	ErrInvalidEmployeeCode = errors.New("employee code must be IBJ, IBE or IBT followed by 5 digits")
)

var employeeCodePattern = regexp.MustCompile(`^IB([JET])\d{5}$`)

func (r Role) Valid() bool {
	switch r {
	case RoleChief, RoleSupervisor, RoleTechnician:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// RoleFromEmployeeCode derives the role from the code prefix. It is only
// called when a user is created; the stored role is authoritative afterwards.
func RoleFromEmployeeCode(code string) (Role, error) {
	m := employeeCodePattern.FindStringSubmatch(code)
	if m == nil {
		return "", ErrInvalidEmployeeCode
	}
	switch m[1] {
	case "J":
		return RoleChief, nil
	case "E":
		return RoleSupervisor, nil
	default:
		return RoleTechnician, nil
	}
}

// Actor is the resolved caller of a core operation.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (a Actor) IsChief() bool      { return a.Role == RoleChief }
func (a Actor) IsSupervisor() bool { return a.Role == RoleSupervisor }
func (a Actor) IsTechnician() bool { return a.Role == RoleTechnician }

func (a Actor) Valid() bool {
	return a.UserID > 0 && a.Role.Valid()
}
