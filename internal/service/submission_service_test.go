package service_test

import (
	"testing"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type SubmissionSuite struct {
	suite.Suite

	db         *gorm.DB
	ledgerRepo repository.LedgerRepository
	ledger     service.LedgerService
	subs       service.SubmissionService
	notifier   *recordingNotifier

	guru      service.Actor
	caregiver service.Actor
	principal service.Actor
	otherKS   service.Actor
	director  service.Actor
	admin     service.Actor
}

func TestSubmissionSuite(t *testing.T) {
	suite.Run(t, new(SubmissionSuite))
}

func (s *SubmissionSuite) SetupTest() {
	t := s.T()
	s.db = newTestDB(t)
	s.notifier = &recordingNotifier{}

	tx := repository.NewTransactionManager(s.db)
	audit := repository.NewAuditRepository(s.db)
	s.ledgerRepo = repository.NewLedgerRepository(s.db)
	s.ledger = service.NewLedgerService(tx, s.ledgerRepo, audit, s.notifier)
	s.subs = service.NewSubmissionService(tx, repository.NewSubmissionRepository(s.db), s.ledgerRepo, s.ledger, audit, s.notifier, "Pusat")

	s.guru = newActor(t, s.db, policy.RoleGuru, "Cabang A")
	s.caregiver = newActor(t, s.db, policy.RoleCaregiver, "Cabang A")
	s.principal = newActor(t, s.db, policy.RoleKepalaSekolah, "Cabang A")
	s.otherKS = newActor(t, s.db, policy.RoleKepalaSekolah, "Cabang B")
	s.director = newActor(t, s.db, policy.RoleDirektur, "")
	s.admin = newActor(t, s.db, policy.RoleAdmin, "")
}

func (s *SubmissionSuite) kertasA4(cabang string) service.SubmitRequest {
	return service.SubmitRequest{
		Tanggal:     "2026-01-05",
		Cabang:      cabang,
		Nomenklatur: "ATK",
		Barang:      "Kertas A4",
		HargaSatuan: decimal.NewFromInt(50000),
		Qty:         10,
	}
}

func (s *SubmissionSuite) submitApproved() *service.SubmissionResponse {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)
	_, err = s.subs.Approve(ctx, s.principal, sub.ID, service.TransitionRequest{})
	s.Require().NoError(err)
	sub, err = s.subs.Approve(ctx, s.director, sub.ID, service.TransitionRequest{})
	s.Require().NoError(err)
	s.Require().Equal(policy.StatusApproved, sub.Status)
	return sub
}

func (s *SubmissionSuite) ledgerCount(sub *service.SubmissionResponse) int64 {
	var n int64
	s.Require().NoError(s.db.Model(&model.LedgerEntry{}).Where("pengajuan_id = ?", sub.ID).Count(&n).Error)
	return n
}

func (s *SubmissionSuite) TestFullWorkflowKertasA4() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(500000).Equal(sub.Total))
	s.Equal(policy.StatusAwaitingPrincipal, sub.Status)
	s.Equal(1, sub.Version)
	s.Equal(s.guru.UserID.String(), sub.UserID)
	s.Equal("Kepala Sekolah", sub.AwaitingRole)

	sub, err = s.subs.Approve(ctx, s.principal, sub.ID, service.TransitionRequest{})
	s.Require().NoError(err)
	s.Equal(policy.StatusAwaitingDirector, sub.Status)

	sub, err = s.subs.Approve(ctx, s.director, sub.ID, service.TransitionRequest{})
	s.Require().NoError(err)
	s.Equal(policy.StatusApproved, sub.Status)
	s.Empty(sub.AwaitingRole)

	sub, err = s.subs.ReportRealization(ctx, s.caregiver, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
		BuktiRealisasi:   "nota-001.jpg",
	})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(20000).Equal(sub.Selisih.Decimal))
	s.Require().NotNil(sub.ArusKasID)
	firstLedgerID := *sub.ArusKasID
	s.Equal(int64(1), s.ledgerCount(sub))

	entry, err := s.ledgerRepo.FindBySubmission(ctx, mustUUID(s.T(), sub.ID))
	s.Require().NoError(err)
	s.Equal(model.LedgerOutflow, entry.Jenis)
	s.True(decimal.NewFromInt(480000).Equal(entry.Nominal))
	s.Equal("Cabang A", entry.Cabang)

	sub, err = s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(450000),
		TanggalRealisasi: "2026-01-21",
	})
	s.Require().NoError(err)
	s.Equal(firstLedgerID, *sub.ArusKasID)
	s.True(decimal.NewFromInt(50000).Equal(sub.Selisih.Decimal))
	s.Equal(int64(1), s.ledgerCount(sub))

	entry, err = s.ledgerRepo.FindByID(ctx, mustUUID(s.T(), firstLedgerID))
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(450000).Equal(entry.Nominal))

	s.Contains(s.notifier.Kinds(), service.EventLedgerChanged)
}

func (s *SubmissionSuite) TestHeadOfficeSkipsPrincipal() {
	sub, err := s.subs.Submit(ctx, s.director, s.kertasA4("pusat"))
	s.Require().NoError(err)
	s.Equal(policy.StatusAwaitingDirector, sub.Status)

	sub, err = s.subs.Submit(ctx, s.director, s.kertasA4("Cabang B"))
	s.Require().NoError(err)
	s.Equal(policy.StatusAwaitingPrincipal, sub.Status)
}

func (s *SubmissionSuite) TestSubmitDefaultsToActorBranch() {
	req := s.kertasA4("")
	sub, err := s.subs.Submit(ctx, s.guru, req)
	s.Require().NoError(err)
	s.Equal("Cabang A", sub.Cabang)
	s.Equal(s.guru.Name, sub.Pengaju)

	_, err = s.subs.Submit(ctx, s.admin, req)
	s.ErrorIs(err, service.ErrInvalidInput)
}

func (s *SubmissionSuite) TestSubmitValidation() {
	req := s.kertasA4("Cabang A")
	req.Qty = 0
	_, err := s.subs.Submit(ctx, s.guru, req)
	s.ErrorIs(err, service.ErrInvalidInput)

	req = s.kertasA4("Cabang A")
	req.HargaSatuan = decimal.Zero
	_, err = s.subs.Submit(ctx, s.guru, req)
	s.ErrorIs(err, service.ErrInvalidInput)

	req = s.kertasA4("Cabang A")
	req.Tanggal = "05/01/2026"
	_, err = s.subs.Submit(ctx, s.guru, req)
	s.ErrorIs(err, service.ErrInvalidInput)
}

func (s *SubmissionSuite) TestSubmitForAnotherBranchIsDenied() {
	_, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang B"))
	s.ErrorIs(err, service.ErrForbidden)

	siswa := newActor(s.T(), s.db, policy.RoleSiswa, "Cabang A")
	_, err = s.subs.Submit(ctx, siswa, s.kertasA4("Cabang A"))
	s.ErrorIs(err, service.ErrForbidden)
	s.True(policy.IsDenial(err))
}

func (s *SubmissionSuite) TestWrongApproverLeavesStatusUnchanged() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	_, err = s.subs.Approve(ctx, s.director, sub.ID, service.TransitionRequest{})
	s.ErrorIs(err, service.ErrForbidden)
	s.EqualError(err, "forbidden: only the Principal (Kepala Sekolah) may approve this stage")

	_, err = s.subs.Approve(ctx, s.guru, sub.ID, service.TransitionRequest{})
	s.ErrorIs(err, service.ErrForbidden)

	got, err := s.subs.Get(ctx, s.director, sub.ID)
	s.Require().NoError(err)
	s.Equal(policy.StatusAwaitingPrincipal, got.Status)
	s.Equal(1, got.Version)
}

func (s *SubmissionSuite) TestPrincipalOfAnotherBranchCannotApprove() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	_, err = s.subs.Approve(ctx, s.otherKS, sub.ID, service.TransitionRequest{})
	s.ErrorIs(err, service.ErrForbidden)
}

func (s *SubmissionSuite) TestRejectIsTerminal() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	_, err = s.subs.Reject(ctx, s.principal, sub.ID, service.TransitionRequest{})
	s.ErrorIs(err, service.ErrInvalidInput)

	sub, err = s.subs.Reject(ctx, s.principal, sub.ID, service.TransitionRequest{Reason: "anggaran habis"})
	s.Require().NoError(err)
	s.Equal(policy.StatusRejected, sub.Status)
	s.Equal("anggaran habis", sub.RejectionReason)

	_, err = s.subs.Approve(ctx, s.director, sub.ID, service.TransitionRequest{})
	s.ErrorIs(err, service.ErrPrecondition)

	_, err = s.subs.Edit(ctx, s.director, sub.ID, service.EditSubmissionRequest{Qty: ptr(2)})
	s.ErrorIs(err, service.ErrForbidden)

	s.NoError(s.subs.Delete(ctx, s.principal, sub.ID))
}

func (s *SubmissionSuite) TestRealizationRequiresApproval() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	_, err = s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(1000),
		TanggalRealisasi: "2026-01-20",
	})
	s.ErrorIs(err, service.ErrPrecondition)
	s.Equal(int64(0), s.ledgerCount(sub))
}

func (s *SubmissionSuite) TestEditRecomputesTotalAndVariance() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	sub, err = s.subs.Edit(ctx, s.guru, sub.ID, service.EditSubmissionRequest{Qty: ptr(12)})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(600000).Equal(sub.Total))
	s.Equal(2, sub.Version)

	approved := s.submitApproved()
	approved, err = s.subs.ReportRealization(ctx, s.guru, approved.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)

	_, err = s.subs.Edit(ctx, s.principal, approved.ID, service.EditSubmissionRequest{Qty: ptr(11)})
	s.ErrorIs(err, service.ErrForbidden)

	price := decimal.NewFromInt(45000)
	approved, err = s.subs.Edit(ctx, s.director, approved.ID, service.EditSubmissionRequest{HargaSatuan: &price})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(450000).Equal(approved.Total))
	s.True(decimal.NewFromInt(-30000).Equal(approved.Selisih.Decimal))
}

func (s *SubmissionSuite) TestStaleVersionIsRejected() {
	sub, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)

	_, err = s.subs.Approve(ctx, s.principal, sub.ID, service.TransitionRequest{Version: ptr(1)})
	s.Require().NoError(err)

	_, err = s.subs.Edit(ctx, s.principal, sub.ID, service.EditSubmissionRequest{Qty: ptr(3), Version: ptr(1)})
	s.ErrorIs(err, service.ErrConflict)

	_, err = s.subs.Approve(ctx, s.director, sub.ID, service.TransitionRequest{Version: ptr(1)})
	s.ErrorIs(err, service.ErrConflict)

	got, err := s.subs.Get(ctx, s.director, sub.ID)
	s.Require().NoError(err)
	s.Equal(policy.StatusAwaitingDirector, got.Status)
	s.Equal(2, got.Version)
}

func (s *SubmissionSuite) TestDeleteApprovedOnlyByDirector() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)

	for _, actor := range []service.Actor{s.guru, s.caregiver, s.principal, s.admin} {
		s.ErrorIs(s.subs.Delete(ctx, actor, sub.ID), service.ErrForbidden, actor.Role)
	}

	s.Require().NoError(s.subs.Delete(ctx, s.director, sub.ID))

	_, err = s.subs.Get(ctx, s.director, sub.ID)
	s.ErrorIs(err, service.ErrNotFound)

	entry, err := s.ledgerRepo.FindByID(ctx, mustUUID(s.T(), *sub.ArusKasID))
	s.Require().NoError(err)
	s.Nil(entry.PengajuanID)
}

func (s *SubmissionSuite) TestDeletedLedgerEntryIsPostedAgain() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)
	first := *sub.ArusKasID

	finance := newActor(s.T(), s.db, policy.RoleYayasan, "")
	s.Require().NoError(s.ledger.DeleteEntry(ctx, finance, first))
	s.Equal(int64(0), s.ledgerCount(sub))

	sub, err = s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(470000),
		TanggalRealisasi: "2026-01-22",
	})
	s.Require().NoError(err)
	s.NotEqual(first, *sub.ArusKasID)
	s.Equal(int64(1), s.ledgerCount(sub))
}

func (s *SubmissionSuite) TestListIsBranchScoped() {
	_, err := s.subs.Submit(ctx, s.guru, s.kertasA4("Cabang A"))
	s.Require().NoError(err)
	_, err = s.subs.Submit(ctx, s.director, s.kertasA4("Cabang B"))
	s.Require().NoError(err)

	list, total, err := s.subs.List(ctx, s.otherKS, service.SubmissionQuery{Cabang: "Cabang A"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Cabang B", list[0].Cabang)

	_, total, err = s.subs.List(ctx, s.director, service.SubmissionQuery{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	_, total, err = s.subs.List(ctx, s.director, service.SubmissionQuery{Status: "menunggu ks"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	_, _, err = s.subs.List(ctx, s.director, service.SubmissionQuery{Status: "Draft"})
	s.ErrorIs(err, service.ErrInvalidInput)

	_, err = s.subs.Get(ctx, s.otherKS, list[0].ID)
	s.NoError(err)
}

func (s *SubmissionSuite) TestMutationsAreAudited() {
	sub := s.submitApproved()
	_, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)

	var actions []string
	s.Require().NoError(s.db.Model(&model.AuditLog{}).Order("created_at asc").Pluck("action", &actions).Error)
	s.ElementsMatch([]string{
		model.ActionCreateSubmission,
		model.ActionApproveSubmission,
		model.ActionApproveSubmission,
		model.ActionPostLedgerEntry,
		model.ActionReportRealization,
	}, actions)
}

func ptr[T any](v T) *T {
	return &v
}

func (s *SubmissionSuite) TestEditRealizedMovesItsLedgerEntry() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)
	ledgerID := *sub.ArusKasID

	cabang, nomenklatur, barang := "Cabang B", "Konsumsi", "Snack rapat"
	sub, err = s.subs.Edit(ctx, s.director, sub.ID, service.EditSubmissionRequest{
		Cabang:      &cabang,
		Nomenklatur: &nomenklatur,
		Barang:      &barang,
	})
	s.Require().NoError(err)
	s.Equal(ledgerID, *sub.ArusKasID)
	s.Equal(int64(1), s.ledgerCount(sub))

	entry, err := s.ledgerRepo.FindByID(ctx, mustUUID(s.T(), ledgerID))
	s.Require().NoError(err)
	s.Equal("Cabang B", entry.Cabang)
	s.Equal("Konsumsi", entry.Nomenklatur)
	s.Equal("Realisasi: Snack rapat", entry.Keterangan)
	s.True(decimal.NewFromInt(480000).Equal(entry.Nominal))
	s.Equal("2026-01-20", entry.Tanggal.Format("2006-01-02"))
	s.Contains(s.notifier.Kinds(), service.EventLedgerChanged)
}

func (s *SubmissionSuite) TestEditRealizedKeepsRemovedLedgerEntryRemoved() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)

	finance := newActor(s.T(), s.db, policy.RoleYayasan, "")
	s.Require().NoError(s.ledger.DeleteEntry(ctx, finance, *sub.ArusKasID))

	barang := "Kertas F4"
	_, err = s.subs.Edit(ctx, s.director, sub.ID, service.EditSubmissionRequest{Barang: &barang})
	s.Require().NoError(err)
	s.Equal(int64(0), s.ledgerCount(sub))
}
