package machine

import "time"

type Machine struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	SectionID int64     `gorm:"column:section_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Machine) TableName() string {
	return "machines"
}
