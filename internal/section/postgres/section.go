package postgres

import (
	"context"
	stderrors "errors"

	errors "github.com/frahmantamala/fault-tracker/internal"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	"gorm.io/gorm"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) GetAll(ctx context.Context) ([]*sectionDatamodel.Section, error) {
	var sections []*sectionDatamodel.Section
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sections).Error; err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return sections, nil
}

func (r *SectionRepository) GetByID(ctx context.Context, id int64) (*sectionDatamodel.Section, error) {
	var sec sectionDatamodel.Section
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSectionNotFound
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	return &sec, nil
}

// GetByName returns nil without error when no section has that name.
func (r *SectionRepository) GetByName(ctx context.Context, name string) (*sectionDatamodel.Section, error) {
	var sec sectionDatamodel.Section
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&sec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	return &sec, nil
}

func (r *SectionRepository) Create(ctx context.Context, sec *sectionDatamodel.Section) error {
	if err := r.db.WithContext(ctx).Create(sec).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *SectionRepository) Update(ctx context.Context, sec *sectionDatamodel.Section) error {
	if err := r.db.WithContext(ctx).Save(sec).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *SectionRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&sectionDatamodel.Section{})
	if res.Error != nil {
		return errors.NewStoreUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrSectionNotFound
	}
	return nil
}

func (r *SectionRepository) InUse(ctx context.Context, id int64) (bool, error) {
	var machines, faults int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&machineDatamodel.Machine{}).Where("section_id = ?", id).Count(&machines).Error; err != nil {
		return false, errors.NewStoreUnavailableError(err)
	}
	if err := db.Model(&faultDatamodel.Fault{}).Where("section_id = ?", id).Count(&faults).Error; err != nil {
		return false, errors.NewStoreUnavailableError(err)
	}
	return machines+faults > 0, nil
}
