package postgres

import (
	"context"
	stderrors "errors"

	errors "github.com/frahmantamala/fault-tracker/internal"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	"gorm.io/gorm"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) GetAll(ctx context.Context) ([]*machineDatamodel.Machine, error) {
	var machines []*machineDatamodel.Machine
	if err := r.db.WithContext(ctx).Order("section_id ASC, id ASC").Find(&machines).Error; err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return machines, nil
}

func (r *MachineRepository) GetBySection(ctx context.Context, sectionID int64) ([]*machineDatamodel.Machine, error) {
	var machines []*machineDatamodel.Machine
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("id ASC").
		Find(&machines).Error
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return machines, nil
}

func (r *MachineRepository) GetByID(ctx context.Context, id int64) (*machineDatamodel.Machine, error) {
	var m machineDatamodel.Machine
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMachineNotFound
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	return &m, nil
}

func (r *MachineRepository) Create(ctx context.Context, m *machineDatamodel.Machine) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *MachineRepository) Update(ctx context.Context, m *machineDatamodel.Machine) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *MachineRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&machineDatamodel.Machine{})
	if res.Error != nil {
		return errors.NewStoreUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrMachineNotFound
	}
	return nil
}

func (r *MachineRepository) FaultCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&faultDatamodel.Fault{}).Where("machine_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, errors.NewStoreUnavailableError(err)
	}
	return count, nil
}
