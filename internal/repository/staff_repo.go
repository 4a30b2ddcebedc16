package repository

import (
	"context"
	"strings"

	"yayasan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffRepository gives access to the role-tagged staff collections
// (guru, caregivers) used to resolve actors.
type StaffRepository interface {
	FindGuruByEmail(ctx context.Context, email string) (*model.Guru, error)
	FindCaregiverByEmail(ctx context.Context, email string) (*model.Caregiver, error)

	CreateGuru(ctx context.Context, g *model.Guru) error
	FindGuruByID(ctx context.Context, id uuid.UUID) (*model.Guru, error)
	UpdateGuru(ctx context.Context, g *model.Guru) error
	DeleteGuru(ctx context.Context, id uuid.UUID) error
	ListGuru(ctx context.Context, cabang string, page, limit int) ([]model.Guru, int64, error)

	CreateCaregiver(ctx context.Context, c *model.Caregiver) error
	FindCaregiverByID(ctx context.Context, id uuid.UUID) (*model.Caregiver, error)
	UpdateCaregiver(ctx context.Context, c *model.Caregiver) error
	DeleteCaregiver(ctx context.Context, id uuid.UUID) error
	ListCaregivers(ctx context.Context, cabang string, page, limit int) ([]model.Caregiver, int64, error)

	UpdateEmailByUserID(ctx context.Context, userID uuid.UUID, email string) error
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *staffRepository) FindGuruByEmail(ctx context.Context, email string) (*model.Guru, error) {
	var g model.Guru
	if err := GetDB(ctx, r.db).First(&g, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *staffRepository) FindCaregiverByEmail(ctx context.Context, email string) (*model.Caregiver, error) {
	var c model.Caregiver
	if err := GetDB(ctx, r.db).First(&c, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *staffRepository) CreateGuru(ctx context.Context, g *model.Guru) error {
	g.Email = normalizeEmail(g.Email)
	return GetDB(ctx, r.db).Create(g).Error
}

func (r *staffRepository) FindGuruByID(ctx context.Context, id uuid.UUID) (*model.Guru, error) {
	var g model.Guru
	if err := GetDB(ctx, r.db).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *staffRepository) UpdateGuru(ctx context.Context, g *model.Guru) error {
	g.Email = normalizeEmail(g.Email)
	return GetDB(ctx, r.db).Save(g).Error
}

func (r *staffRepository) DeleteGuru(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Guru{}).Error
}

func (r *staffRepository) ListGuru(ctx context.Context, cabang string, page, limit int) ([]model.Guru, int64, error) {
	var list []model.Guru
	var total int64

	db := GetDB(ctx, r.db)
	q := db.Model(&model.Guru{})
	if cabang != "" {
		q = inBranch(q, cabang)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Order("nama asc")
	if cabang != "" {
		fetch = inBranch(fetch, cabang)
	}
	if err := fetch.Offset(offset(page, limit)).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *staffRepository) CreateCaregiver(ctx context.Context, c *model.Caregiver) error {
	c.Email = normalizeEmail(c.Email)
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *staffRepository) FindCaregiverByID(ctx context.Context, id uuid.UUID) (*model.Caregiver, error) {
	var c model.Caregiver
	if err := GetDB(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *staffRepository) UpdateCaregiver(ctx context.Context, c *model.Caregiver) error {
	c.Email = normalizeEmail(c.Email)
	return GetDB(ctx, r.db).Save(c).Error
}

func (r *staffRepository) DeleteCaregiver(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Caregiver{}).Error
}

func (r *staffRepository) ListCaregivers(ctx context.Context, cabang string, page, limit int) ([]model.Caregiver, int64, error) {
	var list []model.Caregiver
	var total int64

	db := GetDB(ctx, r.db)
	q := db.Model(&model.Caregiver{})
	if cabang != "" {
		q = inBranch(q, cabang)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Order("nama asc")
	if cabang != "" {
		fetch = inBranch(fetch, cabang)
	}
	if err := fetch.Offset(offset(page, limit)).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateEmailByUserID keeps staff records in sync when an account changes
// its sign-in email.
func (r *staffRepository) UpdateEmailByUserID(ctx context.Context, userID uuid.UUID, email string) error {
	db := GetDB(ctx, r.db)
	email = normalizeEmail(email)
	if err := db.Model(&model.Guru{}).Where("user_id = ?", userID).Update("email", email).Error; err != nil {
		return err
	}
	return db.Model(&model.Caregiver{}).Where("user_id = ?", userID).Update("email", email).Error
}
