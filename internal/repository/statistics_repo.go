package repository

import (
	"context"
	"fmt"
	"time"

	"yayasan/internal/model"

	"gorm.io/gorm"
)

// StatisticsFilter bounds the aggregation by branch and submission date.
type StatisticsFilter struct {
	Cabang string
	Start  time.Time
	End    time.Time
}

type StatisticsRepository interface {
	TallyByStatus(ctx context.Context, f StatisticsFilter) ([]model.StatusTally, error)
	CountUnrealized(ctx context.Context, f StatisticsFilter, approved string) (int64, error)
	TopNomenclatures(ctx context.Context, f StatisticsFilter, status string, limit int) ([]model.NomenclatureRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) scoped(ctx context.Context, f StatisticsFilter) *gorm.DB {
	q := GetDB(ctx, r.db).Model(&model.Submission{}).
		Where("tanggal >= ? AND tanggal <= ?", f.Start, f.End)
	if f.Cabang != "" {
		q = inBranch(q, f.Cabang)
	}
	return q
}

func (r *statisticsRepository) TallyByStatus(ctx context.Context, f StatisticsFilter) ([]model.StatusTally, error) {
	var tallies []model.StatusTally
	if err := r.scoped(ctx, f).
		Select("status, COUNT(*) as count, COALESCE(SUM(total), 0) as total, COALESCE(SUM(realisasi), 0) as realisasi, COALESCE(SUM(selisih), 0) as selisih").
		Group("status").
		Scan(&tallies).Error; err != nil {
		return nil, fmt.Errorf("failed to tally submissions: %w", err)
	}
	return tallies, nil
}

// CountUnrealized counts approved submissions still waiting for a realization report.
func (r *statisticsRepository) CountUnrealized(ctx context.Context, f StatisticsFilter, approved string) (int64, error) {
	var n int64
	if err := r.scoped(ctx, f).
		Where("status = ? AND realisasi IS NULL", approved).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count unrealized submissions: %w", err)
	}
	return n, nil
}

func (r *statisticsRepository) TopNomenclatures(ctx context.Context, f StatisticsFilter, status string, limit int) ([]model.NomenclatureRanking, error) {
	var rankings []model.NomenclatureRanking
	if err := r.scoped(ctx, f).
		Select("nomenklatur, COUNT(*) as count, COALESCE(SUM(total), 0) as total").
		Where("status = ?", status).
		Group("nomenklatur").
		Order("total DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top nomenclatures: %w", err)
	}
	return rankings, nil
}
