package service

import (
	"context"
	"time"

	"yayasan/internal/model"
	"yayasan/internal/repository"

	"github.com/shopspring/decimal"
)

// CashflowQuery selects the periods of the cash-flow report.
type CashflowQuery struct {
	Cabang    string
	GroupBy   string // week, month, quarter or year
	StartDate string // 2006-01-02, default first day of the current year
	EndDate   string // 2006-01-02, default today
}

// CashflowPoint is one period of the report. Period is the first day of the
// period; SaldoAkhir is the running balance from the start of the range.
type CashflowPoint struct {
	Period     string          `json:"period"`
	Masuk      decimal.Decimal `json:"masuk"`
	Keluar     decimal.Decimal `json:"keluar"`
	Saldo      decimal.Decimal `json:"saldo"`
	SaldoAkhir decimal.Decimal `json:"saldoAkhir"`
}

// Cashflow groups the ledger into periods. Empty periods are left out.
func (s *ledgerService) Cashflow(ctx context.Context, actor Actor, q CashflowQuery) ([]CashflowPoint, error) {
	groupBy := q.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
	default:
		groupBy = "month"
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var err error
	if q.StartDate != "" {
		if start, err = parseDate("start_date", q.StartDate); err != nil {
			return nil, err
		}
	}
	if q.EndDate != "" {
		if end, err = parseDate("end_date", q.EndDate); err != nil {
			return nil, err
		}
	}
	if end.Before(start) {
		return nil, invalid("end_date must not be before start_date")
	}
	to := end.AddDate(0, 0, 1)
	cabang, err := scopedBranch(actor, q.Cabang)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListAll(ctx, repository.LedgerFilter{
		Cabang: cabang,
		From:   &start,
		To:     &to,
	})
	if err != nil {
		return nil, storeErr("cash-flow report", err)
	}

	points := make([]CashflowPoint, 0)
	index := make(map[string]int)
	for _, e := range entries {
		key := truncate(e.Tanggal.UTC(), groupBy).Format(dateLayout)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, CashflowPoint{Period: key, Masuk: decimal.Zero, Keluar: decimal.Zero})
		}
		switch e.Jenis {
		case model.LedgerInflow:
			points[i].Masuk = points[i].Masuk.Add(e.Nominal)
		case model.LedgerOutflow:
			points[i].Keluar = points[i].Keluar.Add(e.Nominal)
		}
	}

	// entries come ordered by date, so points are too
	running := decimal.Zero
	for i := range points {
		points[i].Saldo = points[i].Masuk.Sub(points[i].Keluar)
		running = running.Add(points[i].Saldo)
		points[i].SaldoAkhir = running
	}
	return points, nil
}

// truncate returns the first day of the period t falls in. Weeks start on
// Monday.
func truncate(t time.Time, groupBy string) time.Time {
	y, m, d := t.Date()
	switch groupBy {
	case "week":
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case "quarter":
		return time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, time.UTC)
	case "year":
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
}
