package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerDirection enum constants
const (
	LedgerInflow  = "Masuk"
	LedgerOutflow = "Keluar"
)

// LedgerEntry is a cash-flow record (arus kas). Entries posted by a
// realization carry PengajuanID; manual entries leave it empty.
type LedgerEntry struct {
	Base
	Tanggal     time.Time       `gorm:"not null;index" json:"tanggal"`
	Cabang      string          `gorm:"type:varchar(100);not null;index" json:"cabang"`
	Nomenklatur string          `gorm:"type:varchar(255)" json:"nomenklatur"`
	Keterangan  string          `gorm:"type:text" json:"keterangan"`
	Jenis       string          `gorm:"type:varchar(10);not null;index" json:"jenis"` // Masuk or Keluar
	Nominal     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"nominal"`
	PengajuanID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"pengajuanId"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
}

func (LedgerEntry) TableName() string {
	return "arus_kas"
}

func (e *LedgerEntry) BeforeSave(_ *gorm.DB) error {
	e.Cabang = strings.TrimSpace(e.Cabang)
	e.Keterangan = strings.TrimSpace(e.Keterangan)
	return nil
}

func ValidLedgerDirection(jenis string) bool {
	return jenis == LedgerInflow || jenis == LedgerOutflow
}
