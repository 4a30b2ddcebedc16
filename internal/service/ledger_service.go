package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"yayasan/internal/metrics"
	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// --- DTOs ---

type LedgerEntryRequest struct {
	Tanggal     string          `json:"tanggal" binding:"required,datetime=2006-01-02"`
	Cabang      string          `json:"cabang" binding:"required,max=100"`
	Nomenklatur string          `json:"nomenklatur" binding:"max=255"`
	Keterangan  string          `json:"keterangan"`
	Jenis       string          `json:"jenis" binding:"required,oneof=Masuk Keluar"`
	Nominal     decimal.Decimal `json:"nominal"`
}

type LedgerQuery struct {
	Cabang string
	Jenis  string
	Bulan  string // 2006-01
	Page   int
	Limit  int
}

type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	Tanggal     string          `json:"tanggal"`
	Cabang      string          `json:"cabang"`
	Nomenklatur string          `json:"nomenklatur"`
	Keterangan  string          `json:"keterangan"`
	Jenis       string          `json:"jenis"`
	Nominal     decimal.Decimal `json:"nominal"`
	PengajuanID *string         `json:"pengajuanId"`
	CreatedAt   string          `json:"created_at"`
}

type LedgerSummary struct {
	Masuk  decimal.Decimal `json:"masuk"`
	Keluar decimal.Decimal `json:"keluar"`
	Saldo  decimal.Decimal `json:"saldo"`
}

// --- Interface ---

// LedgerService owns the cash-flow (arus kas) collection. Upsert is the
// poster used by realization reports; the rest serves finance users.
type LedgerService interface {
	Upsert(ctx context.Context, ref *uuid.UUID, entry model.LedgerEntry) (uuid.UUID, error)

	CreateEntry(ctx context.Context, actor Actor, req LedgerEntryRequest) (*LedgerEntryResponse, error)
	UpdateEntry(ctx context.Context, actor Actor, id string, req LedgerEntryRequest) (*LedgerEntryResponse, error)
	DeleteEntry(ctx context.Context, actor Actor, id string) error
	ListEntries(ctx context.Context, actor Actor, q LedgerQuery) ([]LedgerEntryResponse, int64, error)
	Summary(ctx context.Context, actor Actor, q LedgerQuery) (*LedgerSummary, error)
	Export(ctx context.Context, actor Actor, q LedgerQuery, w io.Writer) error
	Cashflow(ctx context.Context, actor Actor, q CashflowQuery) ([]CashflowPoint, error)
}

type ledgerService struct {
	tx       repository.TransactionManager
	repo     repository.LedgerRepository
	audit    repository.AuditRepository
	notifier Notifier
}

func NewLedgerService(tx repository.TransactionManager, repo repository.LedgerRepository, audit repository.AuditRepository, notifier Notifier) LedgerService {
	return &ledgerService{tx: tx, repo: repo, audit: audit, notifier: notifierOrNop(notifier)}
}

// --- Poster ---

// Upsert writes entry in place of the one ref points to. When ref is nil or
// the referenced entry was deleted, the entry already posted for the same
// submission is reused; only if there is none a new one is created. It joins
// the caller's transaction when ctx carries one.
func (s *ledgerService) Upsert(ctx context.Context, ref *uuid.UUID, entry model.LedgerEntry) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.findTarget(txCtx, ref, entry.PengajuanID)
		if err != nil {
			return err
		}

		if existing == nil {
			if err := s.repo.Create(txCtx, &entry); err != nil {
				return fmt.Errorf("failed to create ledger entry: %w", err)
			}
			id = entry.ID
			metrics.LedgerPostings.WithLabelValues("create").Inc()
			return nil
		}

		existing.Tanggal = entry.Tanggal
		existing.Cabang = entry.Cabang
		existing.Nomenklatur = entry.Nomenklatur
		existing.Keterangan = entry.Keterangan
		existing.Jenis = entry.Jenis
		existing.Nominal = entry.Nominal
		existing.PengajuanID = entry.PengajuanID
		if err := s.repo.Update(txCtx, existing); err != nil {
			return fmt.Errorf("failed to update ledger entry: %w", err)
		}
		id = existing.ID
		metrics.LedgerPostings.WithLabelValues("update").Inc()
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *ledgerService) findTarget(ctx context.Context, ref, submissionID *uuid.UUID) (*model.LedgerEntry, error) {
	if ref != nil {
		e, err := s.repo.FindByID(ctx, *ref)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if submissionID != nil {
		e, err := s.repo.FindBySubmission(ctx, *submissionID)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// --- Manual entries ---

func (s *ledgerService) CreateEntry(ctx context.Context, actor Actor, req LedgerEntryRequest) (*LedgerEntryResponse, error) {
	if err := policy.CanManageLedger(actor.Role); err != nil {
		return nil, forbidden(err)
	}
	entry, err := entryFromRequest(req)
	if err != nil {
		return nil, err
	}
	entry.CreatedBy = actor.userRef()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &entry); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionCreateLedgerEntry, entry.ID.String(), entry.Keterangan, map[string]any{
			"cabang":  entry.Cabang,
			"jenis":   entry.Jenis,
			"nominal": entry.Nominal.StringFixed(2),
		})
	})
	if err != nil {
		return nil, passthrough("create ledger entry", err)
	}

	s.notifier.Publish(EventLedgerChanged, entry.ID.String())
	resp := toLedgerResponse(entry)
	return &resp, nil
}

func (s *ledgerService) UpdateEntry(ctx context.Context, actor Actor, id string, req LedgerEntryRequest) (*LedgerEntryResponse, error) {
	if err := policy.CanManageLedger(actor.Role); err != nil {
		return nil, forbidden(err)
	}
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid("invalid ledger entry id")
	}
	update, err := entryFromRequest(req)
	if err != nil {
		return nil, err
	}

	var entry *model.LedgerEntry
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, entryID)
		if err != nil {
			return err
		}
		entry = found
		if entry.PengajuanID != nil {
			return fmt.Errorf("%w: entry was posted by a realization report and changes only through it", ErrPrecondition)
		}

		entry.Tanggal = update.Tanggal
		entry.Cabang = update.Cabang
		entry.Nomenklatur = update.Nomenklatur
		entry.Keterangan = update.Keterangan
		entry.Jenis = update.Jenis
		entry.Nominal = update.Nominal
		if err := s.repo.Update(txCtx, entry); err != nil {
			return err
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateLedgerEntry, entry.ID.String(), entry.Keterangan, map[string]any{
			"jenis":   entry.Jenis,
			"nominal": entry.Nominal.StringFixed(2),
		})
	})
	if err != nil {
		return nil, passthrough("update ledger entry", err)
	}

	s.notifier.Publish(EventLedgerChanged, entry.ID.String())
	resp := toLedgerResponse(*entry)
	return &resp, nil
}

// DeleteEntry removes an entry. Entries posted by a realization may be
// removed too; the next report for that submission posts a fresh one.
func (s *ledgerService) DeleteEntry(ctx context.Context, actor Actor, id string) error {
	if err := policy.CanManageLedger(actor.Role); err != nil {
		return forbidden(err)
	}
	entryID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid ledger entry id")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.repo.FindByID(txCtx, entryID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, entry.ID); err != nil {
			return err
		}
		details := map[string]any{"nominal": entry.Nominal.StringFixed(2)}
		if entry.PengajuanID != nil {
			details["pengajuan_id"] = entry.PengajuanID.String()
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteLedgerEntry, entry.ID.String(), entry.Keterangan, details)
	})
	if err != nil {
		return passthrough("delete ledger entry", err)
	}

	s.notifier.Publish(EventLedgerDeleted, entryID.String())
	return nil
}

func (s *ledgerService) ListEntries(ctx context.Context, actor Actor, q LedgerQuery) ([]LedgerEntryResponse, int64, error) {
	filter, err := ledgerFilter(actor, q)
	if err != nil {
		return nil, 0, err
	}
	filter.Page, filter.Limit = normalizePage(q.Page, q.Limit)

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list ledger entries", err)
	}

	res := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toLedgerResponse(e))
	}
	return res, total, nil
}

func (s *ledgerService) Summary(ctx context.Context, actor Actor, q LedgerQuery) (*LedgerSummary, error) {
	filter, err := ledgerFilter(actor, q)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx, filter)
	if err != nil {
		return nil, storeErr("summarize ledger", err)
	}
	return &LedgerSummary{
		Masuk:  totals.Masuk,
		Keluar: totals.Keluar,
		Saldo:  totals.Masuk.Sub(totals.Keluar),
	}, nil
}

// Export writes the filtered ledger as an xlsx workbook with a running
// balance column.
func (s *ledgerService) Export(ctx context.Context, actor Actor, q LedgerQuery, w io.Writer) error {
	filter, err := ledgerFilter(actor, q)
	if err != nil {
		return err
	}
	entries, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return storeErr("export ledger", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Arus Kas"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}

	header := []any{"Tanggal", "Cabang", "Nomenklatur", "Keterangan", "Masuk", "Keluar", "Saldo"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "G1", bold)
	}

	saldo := decimal.Zero
	for i, e := range entries {
		masuk, keluar := decimal.Zero, decimal.Zero
		if e.Jenis == model.LedgerInflow {
			masuk = e.Nominal
			saldo = saldo.Add(e.Nominal)
		} else {
			keluar = e.Nominal
			saldo = saldo.Sub(e.Nominal)
		}

		row := []any{
			e.Tanggal.Format(dateLayout),
			e.Cabang,
			e.Nomenklatur,
			e.Keterangan,
			masuk.InexactFloat64(),
			keluar.InexactFloat64(),
			saldo.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export ledger: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export ledger: %w", err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "B", 14)
	_ = f.SetColWidth(sheet, "C", "D", 32)
	_ = f.SetColWidth(sheet, "E", "G", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	return nil
}

// --- Helpers ---

func entryFromRequest(req LedgerEntryRequest) (model.LedgerEntry, error) {
	if err := validateStruct(req); err != nil {
		return model.LedgerEntry{}, err
	}
	if !model.ValidLedgerDirection(req.Jenis) {
		return model.LedgerEntry{}, invalid("jenis must be Masuk or Keluar")
	}
	if !req.Nominal.IsPositive() {
		return model.LedgerEntry{}, invalid("nominal must be greater than zero")
	}
	tanggal, err := parseDate("tanggal", req.Tanggal)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	return model.LedgerEntry{
		Tanggal:     tanggal,
		Cabang:      req.Cabang,
		Nomenklatur: req.Nomenklatur,
		Keterangan:  req.Keterangan,
		Jenis:       req.Jenis,
		Nominal:     req.Nominal,
	}, nil
}

// ledgerFilter applies the actor's branch restriction on top of the query.
func ledgerFilter(actor Actor, q LedgerQuery) (repository.LedgerFilter, error) {
	from, to, err := parseMonth(q.Bulan)
	if err != nil {
		return repository.LedgerFilter{}, err
	}
	if q.Jenis != "" && !model.ValidLedgerDirection(q.Jenis) {
		return repository.LedgerFilter{}, invalid("jenis must be Masuk or Keluar")
	}
	cabang, err := scopedBranch(actor, q.Cabang)
	if err != nil {
		return repository.LedgerFilter{}, err
	}
	return repository.LedgerFilter{
		Cabang: cabang,
		Jenis:  q.Jenis,
		From:   from,
		To:     to,
	}, nil
}

// scopedBranch pins branch-scoped actors to their own branch and lets the
// others filter freely.
func scopedBranch(actor Actor, requested string) (string, error) {
	branch, err := policy.BranchScope(actor.Role, actor.Branch, requested)
	if err != nil {
		return "", forbidden(err)
	}
	return branch, nil
}

func toLedgerResponse(e model.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:          e.ID.String(),
		Tanggal:     e.Tanggal.Format(dateLayout),
		Cabang:      e.Cabang,
		Nomenklatur: e.Nomenklatur,
		Keterangan:  e.Keterangan,
		Jenis:       e.Jenis,
		Nominal:     e.Nominal,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.PengajuanID != nil {
		s := e.PengajuanID.String()
		resp.PengajuanID = &s
	}
	return resp
}
