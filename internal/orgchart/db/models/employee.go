package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is the persisted form of an employee. Department stores the
// denormalized department name next to the DepartmentID reference.
type Employee struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeID       string     `gorm:"size:64;not null;uniqueIndex"`
	FirstName        string     `gorm:"size:100;not null"`
	LastName         string     `gorm:"size:100;not null"`
	Email            *string    `gorm:"size:255"`
	Position         *string    `gorm:"size:255"`
	EmploymentStatus string     `gorm:"size:32;not null"`
	DepartmentID     *uuid.UUID `gorm:"type:uuid;index"`
	Department       *string    `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
