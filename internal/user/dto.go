package user

import (
	"regexp"
	"strings"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/common/validation"
)

var (
	employeeCodePattern = regexp.MustCompile(`^IB[JET]\d{5}$`)
	usernamePattern     = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)
)

// CreateUserDTO carries no role: it is derived from the employee code.
type CreateUserDTO struct {
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	EmployeeCode string `json:"employee_code"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

func (d *CreateUserDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Surname = strings.TrimSpace(d.Surname)
	d.EmployeeCode = strings.ToUpper(strings.TrimSpace(d.EmployeeCode))
	d.Username = strings.TrimSpace(d.Username)
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("surname", d.Surname).Required().MaxLength(validation.MaxNameLength)
	v.Field("employee_code", d.EmployeeCode).Required().
		Matches(employeeCodePattern, "employee_code must be IBJ, IBE or IBT followed by 5 digits", errors.ErrCodeInvalidEmployeeCode)
	v.Field("username", d.Username).Required().
		Matches(usernamePattern, "username must be 3 to 50 letters, digits, dots, dashes or underscores", errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidatePassword(d.Password); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO edits profile fields. Nil fields are left untouched.
type UpdateUserDTO struct {
	Name         *string `json:"name,omitempty"`
	Surname      *string `json:"surname,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	Username     *string `json:"username,omitempty"`
}

func (d *UpdateUserDTO) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(d.Name)
	trim(d.Surname)
	trim(d.Username)
	if d.EmployeeCode != nil {
		*d.EmployeeCode = strings.ToUpper(strings.TrimSpace(*d.EmployeeCode))
	}
}

func (d UpdateUserDTO) Validate() error {
	if d.Name == nil && d.Surname == nil && d.EmployeeCode == nil && d.Username == nil {
		return errors.ErrEmptyPatch
	}
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(validation.MaxNameLength)
	}
	if d.Surname != nil {
		v.Field("surname", *d.Surname).Required().MaxLength(validation.MaxNameLength)
	}
	if d.EmployeeCode != nil {
		v.Field("employee_code", *d.EmployeeCode).
			Matches(employeeCodePattern, "employee_code must be IBJ, IBE or IBT followed by 5 digits", errors.ErrCodeInvalidEmployeeCode)
	}
	if d.Username != nil {
		v.Field("username", *d.Username).
			Matches(usernamePattern, "username must be 3 to 50 letters, digits, dots, dashes or underscores", errors.ErrCodeValidationFailed)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (d ChangePasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("current_password", d.CurrentPassword).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidatePassword(d.NewPassword); err != nil {
		return err
	}
	return nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}
