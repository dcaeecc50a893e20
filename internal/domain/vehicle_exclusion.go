package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleExclusion marks a make/model (optionally a single year) as not insurable.
type VehicleExclusion struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Make      string    `gorm:"column:make;not null;index:idx_vehicle_exclusions_make_model" json:"make"`
	Model     string    `gorm:"column:model;not null;index:idx_vehicle_exclusions_make_model" json:"model"`
	Year      *int      `gorm:"column:year" json:"year"`
	Reason    string    `gorm:"column:reason" json:"reason"`
	Active    bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VehicleExclusion) TableName() string {
	return "vehicle_exclusions"
}

func (v *VehicleExclusion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
