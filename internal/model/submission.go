package model

import (
	"strings"
	"time"

	"yayasan/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Submission is a budget request (pengajuan) travelling through the
// principal → director approval chain. Realization fields are filled once
// the submission is approved and the money has been spent.
type Submission struct {
	Base
	Tanggal     time.Time       `gorm:"not null;index" json:"tanggal"`
	Pengaju     string          `gorm:"type:varchar(255);not null" json:"pengaju"`
	Cabang      string          `gorm:"type:varchar(100);not null;index" json:"cabang"`
	Nomenklatur string          `gorm:"type:varchar(255);not null;index" json:"nomenklatur"`
	Barang      string          `gorm:"type:text;not null" json:"barang"`
	HargaSatuan decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"hargaSatuan"`
	Qty         int             `gorm:"not null" json:"qty"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"` // = HargaSatuan * Qty
	Status      policy.Status   `gorm:"type:varchar(30);not null;index" json:"status"`
	UserID      uuid.UUID       `gorm:"type:uuid;index" json:"userId"`

	// Realization (realisasi)
	Realisasi        decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"realisasi"`
	Selisih          decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"selisih"` // = Total - Realisasi
	BuktiRealisasi   string              `gorm:"type:text" json:"buktiRealisasi"`
	TanggalRealisasi *time.Time          `json:"tanggalRealisasi"`
	ArusKasID        *uuid.UUID          `gorm:"type:uuid" json:"arusKasId"` // back-reference to the ledger entry

	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	LastActionBy    *uuid.UUID `gorm:"type:uuid" json:"last_action_by"`
	LastActionAt    *time.Time `json:"last_action_at"`

	// Version is bumped on every write; updates are conditional on it.
	Version int `gorm:"not null;default:1" json:"version"`
}

func (Submission) TableName() string {
	return "pengajuan"
}

// Recalculate enforces total = unit price * quantity and, once a
// realization exists, variance = total - realized amount.
func (s *Submission) Recalculate() {
	s.Total = s.HargaSatuan.Mul(decimal.NewFromInt(int64(s.Qty)))
	if s.Realisasi.Valid {
		s.Selisih = decimal.NewNullDecimal(s.Total.Sub(s.Realisasi.Decimal))
	}
}

func (s *Submission) BeforeSave(_ *gorm.DB) error {
	s.Pengaju = strings.TrimSpace(s.Pengaju)
	s.Cabang = strings.TrimSpace(s.Cabang)
	s.Nomenklatur = strings.TrimSpace(s.Nomenklatur)
	s.Barang = strings.TrimSpace(s.Barang)
	s.Recalculate()
	return nil
}
