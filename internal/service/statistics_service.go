package service

import (
	"context"
	"time"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/shopspring/decimal"
)

type StatisticsQuery struct {
	Cabang    string
	StartDate string // 2006-01-02, default first day of the current month
	EndDate   string // 2006-01-02, default today
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, actor Actor, q StatisticsQuery) (*model.BudgetStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: time.Now}
}

// GetStatistics recaps submissions dated within the range: counts and sums
// per status, the approved budget still awaiting realization, and the
// largest approved budget lines.
func (s *statisticsService) GetStatistics(ctx context.Context, actor Actor, q StatisticsQuery) (*model.BudgetStatistics, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
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
	// inclusive of the whole end day
	end = end.Add(24*time.Hour - time.Nanosecond)

	cabang, err := scopedBranch(actor, q.Cabang)
	if err != nil {
		return nil, err
	}
	filter := repository.StatisticsFilter{
		Cabang: cabang,
		Start:  start,
		End:    end,
	}

	tallies, err := s.repo.TallyByStatus(ctx, filter)
	if err != nil {
		return nil, storeErr("statistics", err)
	}
	unrealized, err := s.repo.CountUnrealized(ctx, filter, policy.StatusApproved.String())
	if err != nil {
		return nil, storeErr("statistics", err)
	}
	top, err := s.repo.TopNomenclatures(ctx, filter, policy.StatusApproved.String(), 5)
	if err != nil {
		return nil, storeErr("statistics", err)
	}

	stats := &model.BudgetStatistics{
		Cabang:             filter.Cabang,
		BelumRealisasi:     unrealized,
		TopNomenklatur:     top,
		TimeRangeStartDate: start,
		TimeRangeEndDate:   end,
	}
	if stats.TopNomenklatur == nil {
		stats.TopNomenklatur = []model.NomenclatureRanking{}
	}

	byStatus := make(map[string]model.StatusTally, len(tallies))
	for _, t := range tallies {
		byStatus[t.Status] = t
	}
	for _, st := range policy.AllStatuses {
		t, ok := byStatus[st.String()]
		if !ok {
			t = model.StatusTally{Status: st.String(), Total: decimal.Zero, Realisasi: decimal.Zero, Selisih: decimal.Zero}
		}
		stats.ByStatus = append(stats.ByStatus, t)

		stats.TotalDiajukan = stats.TotalDiajukan.Add(t.Total)
		if st == policy.StatusApproved {
			stats.TotalDisetujui = t.Total
			stats.TotalRealisasi = t.Realisasi
			stats.TotalSelisih = t.Selisih
		}
	}

	return stats, nil
}
