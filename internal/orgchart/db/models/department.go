// Package models holds the gorm row definitions backing the repository.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is the persisted form of a department.
type Department struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"size:255;not null"`
	Description *string    `gorm:"type:text"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	HeadID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
