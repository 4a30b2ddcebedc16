package repository

import (
	"context"
	"time"

	"yayasan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionFilter narrows List. Empty fields are ignored.
type SubmissionFilter struct {
	Cabang      string
	Status      string
	Nomenklatur string
	UserID      *uuid.UUID
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

type SubmissionRepository interface {
	Create(ctx context.Context, s *model.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error)
	UpdateVersioned(ctx context.Context, s *model.Submission, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return GetDB(ctx, r.db).Create(s).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var s model.Submission
	if err := GetDB(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error) {
	var submissions []model.Submission
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Cabang != "" {
			q = inBranch(q, filter.Cabang)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Nomenklatur != "" {
			q = q.Where("nomenklatur = ?", filter.Nomenklatur)
		}
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.From != nil {
			q = q.Where("tanggal >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("tanggal < ?", *filter.To)
		}
		return q
	}

	if err := apply(db.Model(&model.Submission{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := apply(db).
		Order("tanggal DESC, created_at DESC").
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

// UpdateVersioned writes every column of s only if the stored version still
// equals expectedVersion. On success s.Version is expectedVersion+1.
func (r *submissionRepository) UpdateVersioned(ctx context.Context, s *model.Submission, expectedVersion int) error {
	s.Version = expectedVersion + 1
	res := GetDB(ctx, r.db).
		Model(s).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(s)
	if res.Error != nil {
		s.Version = expectedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.Version = expectedVersion
		return ErrStaleVersion
	}
	return nil
}

func (r *submissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Submission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
