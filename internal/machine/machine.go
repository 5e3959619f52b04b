package machine

import (
	"time"

	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
)

type Machine struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SectionID int64     `json:"section_id"`
	CreatedAt time.Time `json:"created_at"`
}

func ToDataModel(m *Machine) *machineDatamodel.Machine {
	return &machineDatamodel.Machine{
		ID:        m.ID,
		Name:      m.Name,
		SectionID: m.SectionID,
		CreatedAt: m.CreatedAt,
	}
}

func FromDataModel(m *machineDatamodel.Machine) *Machine {
	return &Machine{
		ID:        m.ID,
		Name:      m.Name,
		SectionID: m.SectionID,
		CreatedAt: m.CreatedAt,
	}
}
