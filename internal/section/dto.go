package section

import (
	"strings"

	"github.com/frahmantamala/fault-tracker/internal/core/common/validation"
)

type SectionDTO struct {
	Name string `json:"name"`
}

func (d *SectionDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

func (d SectionDTO) Validate() error {
	if err := validation.ValidateName("name", d.Name); err != nil {
		return err
	}
	return nil
}

type SectionsResponse struct {
	Sections []*Section `json:"sections"`
}
