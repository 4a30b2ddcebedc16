package repository

import (
	"context"

	"yayasan/internal/model"

	"gorm.io/gorm"
)

// ScopeRepository reads the class and student collections used by the
// cabang → kelas → siswa filters.
type ScopeRepository interface {
	ListKelas(ctx context.Context, cabang string) ([]model.Kelas, error)
	ListSiswa(ctx context.Context, cabang string) ([]model.Siswa, error)
	CreateKelas(ctx context.Context, k *model.Kelas) error
	CreateSiswa(ctx context.Context, s *model.Siswa) error
}

type scopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) ScopeRepository {
	return &scopeRepository{db: db}
}

func (r *scopeRepository) ListKelas(ctx context.Context, cabang string) ([]model.Kelas, error) {
	var list []model.Kelas
	q := GetDB(ctx, r.db).Order("cabang asc, nama asc")
	if cabang != "" {
		q = inBranch(q, cabang)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *scopeRepository) ListSiswa(ctx context.Context, cabang string) ([]model.Siswa, error) {
	var list []model.Siswa
	q := GetDB(ctx, r.db).Order("nama asc")
	if cabang != "" {
		q = inBranch(q, cabang)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *scopeRepository) CreateKelas(ctx context.Context, k *model.Kelas) error {
	return GetDB(ctx, r.db).Create(k).Error
}

func (r *scopeRepository) CreateSiswa(ctx context.Context, s *model.Siswa) error {
	return GetDB(ctx, r.db).Create(s).Error
}
