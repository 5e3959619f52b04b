package postgres

import (
	"context"
	stderrors "errors"

	errors "github.com/frahmantamala/fault-tracker/internal"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"gorm.io/gorm"
)

// FaultRepository implements fault.RepositoryAPI using GORM.
type FaultRepository struct {
	db *gorm.DB
}

func NewFaultRepository(db *gorm.DB) fault.RepositoryAPI {
	return &FaultRepository{db: db}
}

func (r *FaultRepository) Create(ctx context.Context, f *faultDatamodel.Fault) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *FaultRepository) GetByID(ctx context.Context, id int64) (*faultDatamodel.Fault, error) {
	var f faultDatamodel.Fault
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrFaultNotFound
		}
		return nil, errors.NewStoreUnavailableError(err)
	}
	return &f, nil
}

func (r *FaultRepository) GetAll(ctx context.Context) ([]*faultDatamodel.Fault, error) {
	var faults []*faultDatamodel.Fault
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&faults).Error
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return faults, nil
}

// ListForTechnician reads, in one statement, every fault in one of states
// plus every fault assigned to technicianID.
func (r *FaultRepository) ListForTechnician(ctx context.Context, technicianID int64, states ...string) ([]*faultDatamodel.Fault, error) {
	var faults []*faultDatamodel.Fault
	q := r.db.WithContext(ctx)
	if len(states) > 0 {
		q = q.Where("state IN ? OR assigned_technician_id = ?", states, technicianID)
	} else {
		q = q.Where("assigned_technician_id = ?", technicianID)
	}
	err := q.Order("created_at DESC, id DESC").Find(&faults).Error
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return faults, nil
}

// Update writes every mutable column guarded by the version the caller read.
// Zero affected rows means another writer got there first, or the fault is
// gone.
func (r *FaultRepository) Update(ctx context.Context, f *faultDatamodel.Fault, expectedVersion int64) error {
	var assigned interface{}
	if f.AssignedTechnicianID != nil {
		assigned = *f.AssignedTechnicianID
	}
	var updatedAt interface{}
	if f.UpdatedAt != nil {
		updatedAt = *f.UpdatedAt
	}

	res := r.db.WithContext(ctx).
		Model(&faultDatamodel.Fault{}).
		Where("id = ? AND version = ?", f.ID, expectedVersion).
		Updates(map[string]interface{}{
			"description":            f.Description,
			"state":                  f.State,
			"section_id":             f.SectionID,
			"machine_id":             f.MachineID,
			"assigned_technician_id": assigned,
			"updated_at":             updatedAt,
			"version":                expectedVersion + 1,
		})
	if res.Error != nil {
		return errors.NewStoreUnavailableError(res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&faultDatamodel.Fault{}).Where("id = ?", f.ID).Count(&count).Error; err != nil {
			return errors.NewStoreUnavailableError(err)
		}
		if count == 0 {
			return errors.ErrFaultNotFound
		}
		return errors.ErrConcurrentModification
	}

	f.Version = expectedVersion + 1
	return nil
}

func (r *FaultRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&faultDatamodel.Fault{})
	if res.Error != nil {
		return errors.NewStoreUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrFaultNotFound
	}
	return nil
}
