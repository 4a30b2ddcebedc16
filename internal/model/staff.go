package model

import (
	"github.com/google/uuid"
)

// Guru is a teaching staff record. Role is either Guru or Kepala Sekolah;
// the collection is the first one checked when resolving an actor.
type Guru struct {
	Base
	Nama   string     `gorm:"type:varchar(255);not null" json:"nama"`
	Email  string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role   string     `gorm:"type:varchar(50);not null" json:"role"`
	Cabang string     `gorm:"type:varchar(100);not null;index" json:"cabang"`
	Kelas  string     `gorm:"type:varchar(100)" json:"kelas"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId"`
}

func (Guru) TableName() string {
	return "guru"
}

// Caregiver is a daycare staff record, checked after guru.
type Caregiver struct {
	Base
	Nama   string     `gorm:"type:varchar(255);not null" json:"nama"`
	Email  string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role   string     `gorm:"type:varchar(50);not null;default:'Caregiver'" json:"role"`
	Cabang string     `gorm:"type:varchar(100);not null;index" json:"cabang"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId"`
}

func (Caregiver) TableName() string {
	return "caregivers"
}
