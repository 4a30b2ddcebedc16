package model

import (
	"github.com/google/uuid"
)

// Kelas is a class within a branch.
type Kelas struct {
	Base
	Nama   string `gorm:"type:varchar(100);not null" json:"nama"`
	Cabang string `gorm:"type:varchar(100);not null;index" json:"cabang"`
}

func (Kelas) TableName() string {
	return "kelas"
}

// Siswa is an enrolled student.
type Siswa struct {
	Base
	Nama    string     `gorm:"type:varchar(255);not null" json:"nama"`
	NIS     string     `gorm:"column:nis;type:varchar(50)" json:"nis"`
	Cabang  string     `gorm:"type:varchar(100);not null;index" json:"cabang"`
	KelasID *uuid.UUID `gorm:"type:uuid;index" json:"kelasId"`
}

func (Siswa) TableName() string {
	return "siswa"
}
