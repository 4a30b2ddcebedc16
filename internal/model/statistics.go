package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusTally aggregates the submissions of one status.
type StatusTally struct {
	Status    string          `json:"status"`
	Count     int64           `json:"count"`
	Total     decimal.Decimal `json:"total"`
	Realisasi decimal.Decimal `json:"realisasi"`
	Selisih   decimal.Decimal `json:"selisih"`
}

// NomenclatureRanking ranks budget lines by approved amount.
type NomenclatureRanking struct {
	Nomenklatur string          `json:"nomenklatur"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

// BudgetStatistics is the recap shown on the finance dashboard.
type BudgetStatistics struct {
	Cabang             string                `json:"cabang,omitempty"`
	ByStatus           []StatusTally         `json:"by_status"`
	TotalDiajukan      decimal.Decimal       `json:"total_diajukan"`
	TotalDisetujui     decimal.Decimal       `json:"total_disetujui"`
	TotalRealisasi     decimal.Decimal       `json:"total_realisasi"`
	TotalSelisih       decimal.Decimal       `json:"total_selisih"`
	BelumRealisasi     int64                 `json:"belum_realisasi"`
	TopNomenklatur     []NomenclatureRanking `json:"top_nomenklatur"`
	TimeRangeStartDate time.Time             `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time             `json:"time_range_end_date"`
}
