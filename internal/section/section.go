package section

import (
	"time"

	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
)

type Section struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func ToDataModel(s *Section) *sectionDatamodel.Section {
	return &sectionDatamodel.Section{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
	}
}

func FromDataModel(s *sectionDatamodel.Section) *Section {
	return &Section{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
	}
}
