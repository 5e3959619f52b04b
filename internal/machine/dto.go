package machine

import (
	"strings"

	"github.com/frahmantamala/fault-tracker/internal/core/common/validation"
)

type MachineDTO struct {
	Name      string `json:"name"`
	SectionID int64  `json:"section_id"`
}

func (d *MachineDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

func (d MachineDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("section_id", d.SectionID).Required().Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MachinesResponse struct {
	Machines []*Machine `json:"machines"`
}
