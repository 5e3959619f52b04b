package fault

import "time"

type Fault struct {
	ID                   int64      `gorm:"primaryKey"`
	Description          string     `gorm:"column:description;not null"`
	State                string     `gorm:"column:state;not null;index"`
	SectionID            int64      `gorm:"column:section_id;not null;index"`
	MachineID            int64      `gorm:"column:machine_id;not null;index"`
	ReportedBy           int64      `gorm:"column:reported_by;not null;index"`
	AssignedTechnicianID *int64     `gorm:"column:assigned_technician_id;index"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt            *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
	Version              int64      `gorm:"column:version;not null"`
}

func (Fault) TableName() string {
	return "faults"
}
