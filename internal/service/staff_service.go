package service

import (
	"context"
	"time"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/google/uuid"
)

type GuruRequest struct {
	Nama   string `json:"nama" binding:"required,max=255"`
	Email  string `json:"email" binding:"required,email"`
	Role   string `json:"role" binding:"required"`
	Cabang string `json:"cabang" binding:"required,max=100"`
	Kelas  string `json:"kelas" binding:"max=100"`
	UserID string `json:"userId" binding:"omitempty,uuid"`
}

type CaregiverRequest struct {
	Nama   string `json:"nama" binding:"required,max=255"`
	Email  string `json:"email" binding:"required,email"`
	Cabang string `json:"cabang" binding:"required,max=100"`
	UserID string `json:"userId" binding:"omitempty,uuid"`
}

type StaffResponse struct {
	ID        string  `json:"id"`
	Nama      string  `json:"nama"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Cabang    string  `json:"cabang"`
	Kelas     string  `json:"kelas,omitempty"`
	UserID    *string `json:"userId"`
	CreatedAt string  `json:"created_at"`
}

// StaffService manages the role-tagged guru and caregivers collections.
type StaffService interface {
	ListGuru(ctx context.Context, actor Actor, cabang string, page, limit int) ([]StaffResponse, int64, error)
	CreateGuru(ctx context.Context, actor Actor, req GuruRequest) (*StaffResponse, error)
	UpdateGuru(ctx context.Context, actor Actor, id string, req GuruRequest) (*StaffResponse, error)
	DeleteGuru(ctx context.Context, actor Actor, id string) error

	ListCaregivers(ctx context.Context, actor Actor, cabang string, page, limit int) ([]StaffResponse, int64, error)
	CreateCaregiver(ctx context.Context, actor Actor, req CaregiverRequest) (*StaffResponse, error)
	UpdateCaregiver(ctx context.Context, actor Actor, id string, req CaregiverRequest) (*StaffResponse, error)
	DeleteCaregiver(ctx context.Context, actor Actor, id string) error
}

type staffService struct {
	tx       repository.TransactionManager
	repo     repository.StaffRepository
	audit    repository.AuditRepository
	notifier Notifier
}

func NewStaffService(tx repository.TransactionManager, repo repository.StaffRepository, audit repository.AuditRepository, notifier Notifier) StaffService {
	return &staffService{tx: tx, repo: repo, audit: audit, notifier: notifierOrNop(notifier)}
}

func (s *staffService) ListGuru(ctx context.Context, actor Actor, cabang string, page, limit int) ([]StaffResponse, int64, error) {
	cabang, err := scopedBranch(actor, cabang)
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)
	list, total, err := s.repo.ListGuru(ctx, cabang, page, limit)
	if err != nil {
		return nil, 0, storeErr("list guru", err)
	}
	res := make([]StaffResponse, 0, len(list))
	for _, g := range list {
		res = append(res, guruResponse(g))
	}
	return res, total, nil
}

func (s *staffService) CreateGuru(ctx context.Context, actor Actor, req GuruRequest) (*StaffResponse, error) {
	g := model.Guru{}
	if err := applyGuru(&g, actor, req); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateGuru(txCtx, &g); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionCreateStaff, g.ID.String(), g.Nama, map[string]any{
			"collection": "guru",
			"role":       g.Role,
			"cabang":     g.Cabang,
		})
	})
	if err != nil {
		return nil, passthrough("create guru", err)
	}

	s.notifier.Publish(EventStaffChanged, g.ID.String())
	resp := guruResponse(g)
	return &resp, nil
}

func (s *staffService) UpdateGuru(ctx context.Context, actor Actor, id string, req GuruRequest) (*StaffResponse, error) {
	guruID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid guru id")
	}

	var g *model.Guru
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindGuruByID(txCtx, guruID)
		if err != nil {
			return err
		}
		if err := policy.CanActOnBranch(actor.Role, actor.Branch, found.Cabang); err != nil {
			return forbidden(err)
		}
		g = found
		if err := applyGuru(g, actor, req); err != nil {
			return err
		}
		if err := s.repo.UpdateGuru(txCtx, g); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateStaff, g.ID.String(), g.Nama, map[string]any{
			"collection": "guru",
			"role":       g.Role,
			"cabang":     g.Cabang,
		})
	})
	if err != nil {
		return nil, passthrough("update guru", err)
	}

	s.notifier.Publish(EventStaffChanged, g.ID.String())
	resp := guruResponse(*g)
	return &resp, nil
}

func (s *staffService) DeleteGuru(ctx context.Context, actor Actor, id string) error {
	guruID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid guru id")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		g, err := s.repo.FindGuruByID(txCtx, guruID)
		if err != nil {
			return err
		}
		if err := policy.CanActOnBranch(actor.Role, actor.Branch, g.Cabang); err != nil {
			return forbidden(err)
		}
		if err := s.repo.DeleteGuru(txCtx, g.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteStaff, g.ID.String(), g.Nama, map[string]any{"collection": "guru"})
	})
	if err != nil {
		return passthrough("delete guru", err)
	}

	s.notifier.Publish(EventStaffChanged, guruID.String())
	return nil
}

func (s *staffService) ListCaregivers(ctx context.Context, actor Actor, cabang string, page, limit int) ([]StaffResponse, int64, error) {
	cabang, err := scopedBranch(actor, cabang)
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)
	list, total, err := s.repo.ListCaregivers(ctx, cabang, page, limit)
	if err != nil {
		return nil, 0, storeErr("list caregivers", err)
	}
	res := make([]StaffResponse, 0, len(list))
	for _, c := range list {
		res = append(res, caregiverResponse(c))
	}
	return res, total, nil
}

func (s *staffService) CreateCaregiver(ctx context.Context, actor Actor, req CaregiverRequest) (*StaffResponse, error) {
	c := model.Caregiver{}
	if err := applyCaregiver(&c, actor, req); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateCaregiver(txCtx, &c); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionCreateStaff, c.ID.String(), c.Nama, map[string]any{
			"collection": "caregivers",
			"cabang":     c.Cabang,
		})
	})
	if err != nil {
		return nil, passthrough("create caregiver", err)
	}

	s.notifier.Publish(EventStaffChanged, c.ID.String())
	resp := caregiverResponse(c)
	return &resp, nil
}

func (s *staffService) UpdateCaregiver(ctx context.Context, actor Actor, id string, req CaregiverRequest) (*StaffResponse, error) {
	cgID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid caregiver id")
	}

	var c *model.Caregiver
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindCaregiverByID(txCtx, cgID)
		if err != nil {
			return err
		}
		if err := policy.CanActOnBranch(actor.Role, actor.Branch, found.Cabang); err != nil {
			return forbidden(err)
		}
		c = found
		if err := applyCaregiver(c, actor, req); err != nil {
			return err
		}
		if err := s.repo.UpdateCaregiver(txCtx, c); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateStaff, c.ID.String(), c.Nama, map[string]any{
			"collection": "caregivers",
			"cabang":     c.Cabang,
		})
	})
	if err != nil {
		return nil, passthrough("update caregiver", err)
	}

	s.notifier.Publish(EventStaffChanged, c.ID.String())
	resp := caregiverResponse(*c)
	return &resp, nil
}

func (s *staffService) DeleteCaregiver(ctx context.Context, actor Actor, id string) error {
	cgID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid caregiver id")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.FindCaregiverByID(txCtx, cgID)
		if err != nil {
			return err
		}
		if err := policy.CanActOnBranch(actor.Role, actor.Branch, c.Cabang); err != nil {
			return forbidden(err)
		}
		if err := s.repo.DeleteCaregiver(txCtx, c.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteStaff, c.ID.String(), c.Nama, map[string]any{"collection": "caregivers"})
	})
	if err != nil {
		return passthrough("delete caregiver", err)
	}

	s.notifier.Publish(EventStaffChanged, cgID.String())
	return nil
}

// --- Helpers ---

func applyGuru(g *model.Guru, actor Actor, req GuruRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	role, err := policy.ParseRole(req.Role)
	if err != nil || (role != policy.RoleGuru && role != policy.RoleKepalaSekolah) {
		return invalid("role of a guru record must be Guru or Kepala Sekolah")
	}
	if err := policy.CanActOnBranch(actor.Role, actor.Branch, req.Cabang); err != nil {
		return forbidden(err)
	}
	userID, err := optionalUUID(req.UserID)
	if err != nil {
		return err
	}

	g.Nama = req.Nama
	g.Email = req.Email
	g.Role = role.String()
	g.Cabang = req.Cabang
	g.Kelas = req.Kelas
	g.UserID = userID
	return nil
}

func applyCaregiver(c *model.Caregiver, actor Actor, req CaregiverRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if err := policy.CanActOnBranch(actor.Role, actor.Branch, req.Cabang); err != nil {
		return forbidden(err)
	}
	userID, err := optionalUUID(req.UserID)
	if err != nil {
		return err
	}

	c.Nama = req.Nama
	c.Email = req.Email
	c.Role = policy.RoleCaregiver.String()
	c.Cabang = req.Cabang
	c.UserID = userID
	return nil
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, invalid("invalid userId")
	}
	return &id, nil
}

func guruResponse(g model.Guru) StaffResponse {
	resp := StaffResponse{
		ID:        g.ID.String(),
		Nama:      g.Nama,
		Email:     g.Email,
		Role:      g.Role,
		Cabang:    g.Cabang,
		Kelas:     g.Kelas,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
	if g.UserID != nil {
		id := g.UserID.String()
		resp.UserID = &id
	}
	return resp
}

func caregiverResponse(c model.Caregiver) StaffResponse {
	resp := StaffResponse{
		ID:        c.ID.String(),
		Nama:      c.Nama,
		Email:     c.Email,
		Role:      c.Role,
		Cabang:    c.Cabang,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.UserID != nil {
		id := c.UserID.String()
		resp.UserID = &id
	}
	return resp
}
