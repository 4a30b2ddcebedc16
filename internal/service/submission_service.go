package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yayasan/internal/metrics"
	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitRequest struct {
	Tanggal     string          `json:"tanggal" binding:"required,datetime=2006-01-02"`
	Pengaju     string          `json:"pengaju" binding:"max=255"`
	Cabang      string          `json:"cabang" binding:"max=100"`
	Nomenklatur string          `json:"nomenklatur" binding:"required,max=255"`
	Barang      string          `json:"barang" binding:"required"`
	HargaSatuan decimal.Decimal `json:"hargaSatuan"`
	Qty         int             `json:"qty" binding:"required,gt=0"`
}

// EditSubmissionRequest carries only the fields to change. Version, when
// set, must match the stored version.
type EditSubmissionRequest struct {
	Tanggal     *string          `json:"tanggal" binding:"omitempty,datetime=2006-01-02"`
	Pengaju     *string          `json:"pengaju" binding:"omitempty,max=255"`
	Cabang      *string          `json:"cabang" binding:"omitempty,max=100"`
	Nomenklatur *string          `json:"nomenklatur" binding:"omitempty,max=255"`
	Barang      *string          `json:"barang"`
	HargaSatuan *decimal.Decimal `json:"hargaSatuan"`
	Qty         *int             `json:"qty" binding:"omitempty,gt=0"`
	Version     *int             `json:"version"`
}

type TransitionRequest struct {
	Reason  string `json:"reason"`
	Version *int   `json:"version"`
}

type RealizationRequest struct {
	Realisasi        decimal.Decimal `json:"realisasi"`
	TanggalRealisasi string          `json:"tanggalRealisasi" binding:"required,datetime=2006-01-02"`
	BuktiRealisasi   string          `json:"buktiRealisasi"`
	Version          *int            `json:"version"`
}

type SubmissionQuery struct {
	Cabang      string
	Status      string
	Nomenklatur string
	Mine        bool
	Bulan       string // 2006-01
	Page        int
	Limit       int
}

type SubmissionResponse struct {
	ID               string              `json:"id"`
	Tanggal          string              `json:"tanggal"`
	Pengaju          string              `json:"pengaju"`
	Cabang           string              `json:"cabang"`
	Nomenklatur      string              `json:"nomenklatur"`
	Barang           string              `json:"barang"`
	HargaSatuan      decimal.Decimal     `json:"hargaSatuan"`
	Qty              int                 `json:"qty"`
	Total            decimal.Decimal     `json:"total"`
	Status           policy.Status       `json:"status"`
	UserID           string              `json:"userId"`
	Realisasi        decimal.NullDecimal `json:"realisasi"`
	Selisih          decimal.NullDecimal `json:"selisih"`
	BuktiRealisasi   string              `json:"buktiRealisasi,omitempty"`
	ArusKasID        *string             `json:"arusKasId"`
	TanggalRealisasi *string             `json:"tanggalRealisasi"`
	RejectionReason  string              `json:"rejection_reason,omitempty"`
	AwaitingRole     string              `json:"awaiting_role,omitempty"`
	Version          int                 `json:"version"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

// --- Interface ---

// SubmissionService drives budget submissions through the approval chain
// and records their realization.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, req SubmitRequest) (*SubmissionResponse, error)
	Approve(ctx context.Context, actor Actor, id string, req TransitionRequest) (*SubmissionResponse, error)
	Reject(ctx context.Context, actor Actor, id string, req TransitionRequest) (*SubmissionResponse, error)
	Edit(ctx context.Context, actor Actor, id string, req EditSubmissionRequest) (*SubmissionResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	ReportRealization(ctx context.Context, actor Actor, id string, req RealizationRequest) (*SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id string) (*SubmissionResponse, error)
	List(ctx context.Context, actor Actor, q SubmissionQuery) ([]SubmissionResponse, int64, error)
}

type submissionService struct {
	tx         repository.TransactionManager
	repo       repository.SubmissionRepository
	ledgerRepo repository.LedgerRepository
	ledger     LedgerService
	audit      repository.AuditRepository
	notifier   Notifier
	headOffice string
}

func NewSubmissionService(
	tx repository.TransactionManager,
	repo repository.SubmissionRepository,
	ledgerRepo repository.LedgerRepository,
	ledger LedgerService,
	audit repository.AuditRepository,
	notifier Notifier,
	headOffice string,
) SubmissionService {
	return &submissionService{
		tx:         tx,
		repo:       repo,
		ledgerRepo: ledgerRepo,
		ledger:     ledger,
		audit:      audit,
		notifier:   notifierOrNop(notifier),
		headOffice: headOffice,
	}
}

// --- Implementation ---

func (s *submissionService) Submit(ctx context.Context, actor Actor, req SubmitRequest) (resp *SubmissionResponse, err error) {
	defer s.observe("submit", &err)

	if err := policy.CanSubmit(actor.Role); err != nil {
		return nil, forbidden(err)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.HargaSatuan.IsPositive() {
		return nil, invalid("hargaSatuan must be greater than zero")
	}
	tanggal, err := parseDate("tanggal", req.Tanggal)
	if err != nil {
		return nil, err
	}

	cabang := strings.TrimSpace(req.Cabang)
	if cabang == "" {
		cabang = actor.Branch
	}
	if cabang == "" {
		return nil, invalid("cabang is required")
	}
	if err := policy.CanActOnBranch(actor.Role, actor.Branch, cabang); err != nil {
		return nil, forbidden(err)
	}
	pengaju := strings.TrimSpace(req.Pengaju)
	if pengaju == "" {
		pengaju = actor.Name
	}

	sub := model.Submission{
		Tanggal:     tanggal,
		Pengaju:     pengaju,
		Cabang:      cabang,
		Nomenklatur: req.Nomenklatur,
		Barang:      req.Barang,
		HargaSatuan: req.HargaSatuan,
		Qty:         req.Qty,
		Status:      policy.InitialStatus(cabang, s.headOffice),
		UserID:      actor.UserID,
		Version:     1,
	}
	sub.Recalculate()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &sub); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionCreateSubmission, sub.ID.String(), sub.Barang, map[string]any{
			"cabang": sub.Cabang,
			"total":  sub.Total.StringFixed(2),
			"status": sub.Status,
		})
	})
	if err != nil {
		return nil, passthrough("submit", err)
	}

	s.notifier.Publish(EventSubmissionChanged, sub.ID.String())
	out := toSubmissionResponse(sub)
	return &out, nil
}

func (s *submissionService) Approve(ctx context.Context, actor Actor, id string, req TransitionRequest) (*SubmissionResponse, error) {
	return s.transition(ctx, actor, id, policy.TransitionApprove, req)
}

func (s *submissionService) Reject(ctx context.Context, actor Actor, id string, req TransitionRequest) (*SubmissionResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, invalid("reason is required when rejecting")
	}
	return s.transition(ctx, actor, id, policy.TransitionReject, req)
}

func (s *submissionService) transition(ctx context.Context, actor Actor, id string, t policy.Transition, req TransitionRequest) (resp *SubmissionResponse, err error) {
	defer s.observe(string(t), &err)

	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid submission id")
	}

	var sub *model.Submission
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.load(txCtx, actor, subID, req.Version)
		if err != nil {
			return err
		}
		sub = found

		from := sub.Status
		next, err := policy.CanTransition(from, actor.Role, t)
		if err != nil {
			return forbidden(err)
		}

		now := time.Now()
		expected := sub.Version
		sub.Status = next
		sub.LastActionBy = actor.userRef()
		sub.LastActionAt = &now
		if t == policy.TransitionReject {
			sub.RejectionReason = strings.TrimSpace(req.Reason)
		}
		if err := s.repo.UpdateVersioned(txCtx, sub, expected); err != nil {
			return err
		}

		action := model.ActionApproveSubmission
		details := map[string]any{"from": from, "to": next}
		if t == policy.TransitionReject {
			action = model.ActionRejectSubmission
			details["reason"] = sub.RejectionReason
		}
		return writeAudit(txCtx, s.audit, actor, action, sub.ID.String(), sub.Barang, details)
	})
	if err != nil {
		return nil, passthrough(string(t), err)
	}

	s.notifier.Publish(EventSubmissionChanged, sub.ID.String())
	out := toSubmissionResponse(*sub)
	return &out, nil
}

func (s *submissionService) Edit(ctx context.Context, actor Actor, id string, req EditSubmissionRequest) (resp *SubmissionResponse, err error) {
	defer s.observe("edit", &err)

	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid submission id")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.HargaSatuan != nil && !req.HargaSatuan.IsPositive() {
		return nil, invalid("hargaSatuan must be greater than zero")
	}

	var sub *model.Submission
	synced := false
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.load(txCtx, actor, subID, req.Version)
		if err != nil {
			return err
		}
		sub = found

		if err := policy.CanEdit(sub.Status, actor.Role); err != nil {
			return forbidden(err)
		}
		if err := applyEdit(sub, req); err != nil {
			return err
		}
		if err := policy.CanActOnBranch(actor.Role, actor.Branch, sub.Cabang); err != nil {
			return forbidden(err)
		}
		sub.Recalculate()

		if synced, err = s.syncRealizationEntry(txCtx, sub); err != nil {
			return err
		}
		if err := s.repo.UpdateVersioned(txCtx, sub, found.Version); err != nil {
			return err
		}
		details := map[string]any{
			"total":  sub.Total.StringFixed(2),
			"status": sub.Status,
		}
		if sub.Selisih.Valid {
			details["selisih"] = sub.Selisih.Decimal.StringFixed(2)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateSubmission, sub.ID.String(), sub.Barang, details)
	})
	if err != nil {
		return nil, passthrough("edit", err)
	}

	s.notifier.Publish(EventSubmissionChanged, sub.ID.String())
	if synced {
		s.notifier.Publish(EventLedgerChanged, sub.ArusKasID.String())
	}
	out := toSubmissionResponse(*sub)
	return &out, nil
}

// Delete removes the submission. A ledger entry it posted stays in the
// cash-flow log with its back-reference cleared.
func (s *submissionService) Delete(ctx context.Context, actor Actor, id string) (err error) {
	defer s.observe("delete", &err)

	subID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid submission id")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sub, err := s.load(txCtx, actor, subID, nil)
		if err != nil {
			return err
		}
		if err := policy.CanDelete(sub.Status, actor.Role); err != nil {
			return forbidden(err)
		}
		if err := s.ledgerRepo.Unlink(txCtx, sub.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, sub.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteSubmission, sub.ID.String(), sub.Barang, map[string]any{
			"status": sub.Status,
			"total":  sub.Total.StringFixed(2),
		})
	})
	if err != nil {
		return passthrough("delete", err)
	}

	s.notifier.Publish(EventSubmissionDeleted, subID.String())
	return nil
}

// ReportRealization stores the realized spend and posts the matching
// outflow in the same transaction. Reporting again overwrites both.
func (s *submissionService) ReportRealization(ctx context.Context, actor Actor, id string, req RealizationRequest) (resp *SubmissionResponse, err error) {
	defer s.observe("realize", &err)

	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid submission id")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Realisasi.IsNegative() {
		return nil, invalid("realisasi cannot be negative")
	}
	tanggal, err := parseDate("tanggalRealisasi", req.TanggalRealisasi)
	if err != nil {
		return nil, err
	}

	var sub *model.Submission
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.load(txCtx, actor, subID, req.Version)
		if err != nil {
			return err
		}
		sub = found

		if err := policy.CanReportRealization(sub.Status, actor.Role); err != nil {
			return forbidden(err)
		}

		expected := sub.Version
		sub.Realisasi = decimal.NewNullDecimal(req.Realisasi)
		sub.TanggalRealisasi = &tanggal
		sub.BuktiRealisasi = strings.TrimSpace(req.BuktiRealisasi)
		sub.Recalculate()

		ledgerID, err := s.ledger.Upsert(txCtx, sub.ArusKasID, realizationEntry(sub, actor.userRef()))
		if err != nil {
			return err
		}
		sub.ArusKasID = &ledgerID
		if err := s.repo.UpdateVersioned(txCtx, sub, expected); err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.audit, actor, model.ActionPostLedgerEntry, ledgerID.String(), sub.Barang, map[string]any{
			"pengajuan_id": sub.ID.String(),
			"nominal":      req.Realisasi.StringFixed(2),
		}); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionReportRealization, sub.ID.String(), sub.Barang, map[string]any{
			"realisasi":   req.Realisasi.StringFixed(2),
			"selisih":     sub.Selisih.Decimal.StringFixed(2),
			"arus_kas_id": ledgerID.String(),
		})
	})
	if err != nil {
		return nil, passthrough("report realization", err)
	}

	s.notifier.Publish(EventSubmissionChanged, sub.ID.String())
	s.notifier.Publish(EventLedgerChanged, sub.ArusKasID.String())
	out := toSubmissionResponse(*sub)
	return &out, nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id string) (*SubmissionResponse, error) {
	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid submission id")
	}
	sub, err := s.load(ctx, actor, subID, nil)
	if err != nil {
		return nil, passthrough("get submission", err)
	}
	out := toSubmissionResponse(*sub)
	return &out, nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, q SubmissionQuery) ([]SubmissionResponse, int64, error) {
	from, to, err := parseMonth(q.Bulan)
	if err != nil {
		return nil, 0, err
	}
	if q.Status != "" {
		st, err := policy.ParseStatus(q.Status)
		if err != nil {
			return nil, 0, invalid("%s", err)
		}
		q.Status = st.String()
	}

	cabang, err := scopedBranch(actor, q.Cabang)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.SubmissionFilter{
		Cabang:      cabang,
		Status:      q.Status,
		Nomenklatur: q.Nomenklatur,
		From:        from,
		To:          to,
	}
	if q.Mine {
		filter.UserID = &actor.UserID
	}
	filter.Page, filter.Limit = normalizePage(q.Page, q.Limit)

	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list submissions", err)
	}

	res := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		res = append(res, toSubmissionResponse(sub))
	}
	return res, total, nil
}

// load fetches a submission the actor may act on and checks the caller's
// expected version, if any.
func (s *submissionService) load(ctx context.Context, actor Actor, id uuid.UUID, version *int) (*model.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("load submission", err)
	}
	if err := policy.CanActOnBranch(actor.Role, actor.Branch, sub.Cabang); err != nil {
		return nil, forbidden(err)
	}
	if version != nil && *version != sub.Version {
		return nil, fmt.Errorf("%w: submission changed since version %d (now %d), reload and retry", ErrConflict, *version, sub.Version)
	}
	return sub, nil
}

func (s *submissionService) observe(action string, err *error) {
	metrics.WorkflowTransitions.WithLabelValues(action, metrics.Result(*err)).Inc()
}

// syncRealizationEntry carries the edited branch, budget line and item of a
// realized submission over to the outflow it posted. An entry removed by
// finance stays removed until the next realization report.
func (s *submissionService) syncRealizationEntry(ctx context.Context, sub *model.Submission) (bool, error) {
	if !sub.Realisasi.Valid || sub.TanggalRealisasi == nil {
		return false, nil
	}
	linked, err := s.ledgerRepo.FindBySubmission(ctx, sub.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	id, err := s.ledger.Upsert(ctx, &linked.ID, realizationEntry(sub, linked.CreatedBy))
	if err != nil {
		return false, err
	}
	sub.ArusKasID = &id
	return true, nil
}

// --- Helpers ---

// realizationEntry is the outflow a realized submission posts to arus kas.
func realizationEntry(sub *model.Submission, createdBy *uuid.UUID) model.LedgerEntry {
	return model.LedgerEntry{
		Tanggal:     *sub.TanggalRealisasi,
		Cabang:      sub.Cabang,
		Nomenklatur: sub.Nomenklatur,
		Keterangan:  "Realisasi: " + sub.Barang,
		Jenis:       model.LedgerOutflow,
		Nominal:     sub.Realisasi.Decimal,
		PengajuanID: &sub.ID,
		CreatedBy:   createdBy,
	}
}

func applyEdit(sub *model.Submission, req EditSubmissionRequest) error {
	if req.Tanggal != nil {
		t, err := parseDate("tanggal", *req.Tanggal)
		if err != nil {
			return err
		}
		sub.Tanggal = t
	}
	if req.Pengaju != nil {
		sub.Pengaju = *req.Pengaju
	}
	if req.Cabang != nil {
		if strings.TrimSpace(*req.Cabang) == "" {
			return invalid("cabang cannot be empty")
		}
		sub.Cabang = strings.TrimSpace(*req.Cabang)
	}
	if req.Nomenklatur != nil {
		if strings.TrimSpace(*req.Nomenklatur) == "" {
			return invalid("nomenklatur cannot be empty")
		}
		sub.Nomenklatur = *req.Nomenklatur
	}
	if req.Barang != nil {
		if strings.TrimSpace(*req.Barang) == "" {
			return invalid("barang cannot be empty")
		}
		sub.Barang = *req.Barang
	}
	if req.HargaSatuan != nil {
		sub.HargaSatuan = *req.HargaSatuan
	}
	if req.Qty != nil {
		sub.Qty = *req.Qty
	}
	return nil
}

func toSubmissionResponse(s model.Submission) SubmissionResponse {
	resp := SubmissionResponse{
		ID:              s.ID.String(),
		Tanggal:         s.Tanggal.Format(dateLayout),
		Pengaju:         s.Pengaju,
		Cabang:          s.Cabang,
		Nomenklatur:     s.Nomenklatur,
		Barang:          s.Barang,
		HargaSatuan:     s.HargaSatuan,
		Qty:             s.Qty,
		Total:           s.Total,
		Status:          s.Status,
		UserID:          s.UserID.String(),
		Realisasi:       s.Realisasi,
		Selisih:         s.Selisih,
		BuktiRealisasi:  s.BuktiRealisasi,
		RejectionReason: s.RejectionReason,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
	if role, ok := policy.RequiredApprover(s.Status); ok {
		resp.AwaitingRole = role.String()
	}
	if s.ArusKasID != nil {
		id := s.ArusKasID.String()
		resp.ArusKasID = &id
	}
	if s.TanggalRealisasi != nil {
		t := s.TanggalRealisasi.Format(dateLayout)
		resp.TanggalRealisasi = &t
	}
	return resp
}
