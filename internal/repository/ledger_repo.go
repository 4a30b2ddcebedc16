package repository

import (
	"context"
	"time"

	"yayasan/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerFilter struct {
	Cabang string
	Jenis  string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// LedgerTotals sums nominal per direction.
type LedgerTotals struct {
	Masuk  decimal.Decimal
	Keluar decimal.Decimal
}

type LedgerRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)
	FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.LedgerEntry, error)
	Update(ctx context.Context, entry *model.LedgerEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	Unlink(ctx context.Context, submissionID uuid.UUID) error
	List(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, int64, error)
	ListAll(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, error)
	Totals(ctx context.Context, filter LedgerFilter) (LedgerTotals, error)
	CountBySubmission(ctx context.Context, submissionID uuid.UUID) (int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := GetDB(ctx, r.db).First(&entry, "pengajuan_id = ?", submissionID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) Update(ctx context.Context, entry *model.LedgerEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}

func (r *ledgerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.LedgerEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Unlink clears the submission reference of the entry posted for it, if any.
func (r *ledgerRepository) Unlink(ctx context.Context, submissionID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.LedgerEntry{}).
		Where("pengajuan_id = ?", submissionID).
		Update("pengajuan_id", nil).Error
}

func (r *ledgerRepository) scoped(db *gorm.DB, filter LedgerFilter) *gorm.DB {
	if filter.Cabang != "" {
		db = inBranch(db, filter.Cabang)
	}
	if filter.Jenis != "" {
		db = db.Where("jenis = ?", filter.Jenis)
	}
	if filter.From != nil {
		db = db.Where("tanggal >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("tanggal < ?", *filter.To)
	}
	return db
}

func (r *ledgerRepository) List(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := r.scoped(db.Model(&model.LedgerEntry{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.scoped(db, filter).
		Order("tanggal desc, created_at desc").
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) ListAll(ctx context.Context, filter LedgerFilter) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	if err := r.scoped(GetDB(ctx, r.db), filter).Order("tanggal asc, created_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Totals sums in Go so decimal precision does not depend on the driver.
func (r *ledgerRepository) Totals(ctx context.Context, filter LedgerFilter) (LedgerTotals, error) {
	totals := LedgerTotals{Masuk: decimal.Zero, Keluar: decimal.Zero}

	var rows []struct {
		Jenis   string
		Nominal decimal.Decimal
	}
	if err := r.scoped(GetDB(ctx, r.db).Model(&model.LedgerEntry{}), filter).
		Select("jenis, nominal").
		Scan(&rows).Error; err != nil {
		return totals, err
	}

	for _, row := range rows {
		switch row.Jenis {
		case model.LedgerInflow:
			totals.Masuk = totals.Masuk.Add(row.Nominal)
		case model.LedgerOutflow:
			totals.Keluar = totals.Keluar.Add(row.Nominal)
		}
	}
	return totals, nil
}

func (r *ledgerRepository) CountBySubmission(ctx context.Context, submissionID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).Where("pengajuan_id = ?", submissionID).Count(&n).Error
	return n, err
}
