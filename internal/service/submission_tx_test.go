package service_test

import (
	"context"
	"errors"

	"yayasan/internal/model"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errDiskFull = errors.New("disk full")

// brokenSubmissions fails the final write of a workflow step so the
// surrounding transaction has to roll back the earlier ones.
type brokenSubmissions struct {
	repository.SubmissionRepository
	failUpdate bool
	failDelete bool
}

func (b brokenSubmissions) UpdateVersioned(ctx context.Context, sub *model.Submission, expectedVersion int) error {
	if b.failUpdate {
		return errDiskFull
	}
	return b.SubmissionRepository.UpdateVersioned(ctx, sub, expectedVersion)
}

func (b brokenSubmissions) Delete(ctx context.Context, id uuid.UUID) error {
	if b.failDelete {
		return errDiskFull
	}
	return b.SubmissionRepository.Delete(ctx, id)
}

func (s *SubmissionSuite) brokenService(repo brokenSubmissions) (service.SubmissionService, *recordingNotifier) {
	n := &recordingNotifier{}
	repo.SubmissionRepository = repository.NewSubmissionRepository(s.db)
	tx := repository.NewTransactionManager(s.db)
	return service.NewSubmissionService(tx, repo, s.ledgerRepo, s.ledger, repository.NewAuditRepository(s.db), n, "Pusat"), n
}

func (s *SubmissionSuite) auditCount(entityID string) int64 {
	var n int64
	s.Require().NoError(s.db.Model(&model.AuditLog{}).Where("entity_id = ?", entityID).Count(&n).Error)
	return n
}

func (s *SubmissionSuite) TestFailedRealizationLeavesNoLedgerEntry() {
	sub := s.submitApproved()
	audits := s.auditCount(sub.ID)
	broken, n := s.brokenService(brokenSubmissions{failUpdate: true})

	_, err := broken.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().ErrorIs(err, service.ErrStorage)

	s.Equal(int64(0), s.ledgerCount(sub))
	s.Equal(audits, s.auditCount(sub.ID))
	s.Empty(n.Kinds())

	stored, err := s.subs.Get(ctx, s.director, sub.ID)
	s.Require().NoError(err)
	s.Equal(sub.Version, stored.Version)
	s.False(stored.Realisasi.Valid)
	s.Nil(stored.ArusKasID)
}

func (s *SubmissionSuite) TestFailedEditLeavesLedgerEntryUntouched() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)
	broken, _ := s.brokenService(brokenSubmissions{failUpdate: true})

	cabang := "Cabang B"
	_, err = broken.Edit(ctx, s.director, sub.ID, service.EditSubmissionRequest{Cabang: &cabang})
	s.Require().ErrorIs(err, service.ErrStorage)

	entry, err := s.ledgerRepo.FindByID(ctx, mustUUID(s.T(), *sub.ArusKasID))
	s.Require().NoError(err)
	s.Equal("Cabang A", entry.Cabang)
}

func (s *SubmissionSuite) TestFailedDeleteKeepsLedgerLink() {
	sub := s.submitApproved()
	sub, err := s.subs.ReportRealization(ctx, s.guru, sub.ID, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(480000),
		TanggalRealisasi: "2026-01-20",
	})
	s.Require().NoError(err)
	broken, n := s.brokenService(brokenSubmissions{failDelete: true})

	s.Require().ErrorIs(broken.Delete(ctx, s.director, sub.ID), service.ErrStorage)
	s.Empty(n.Kinds())

	_, err = s.subs.Get(ctx, s.director, sub.ID)
	s.Require().NoError(err)

	entry, err := s.ledgerRepo.FindByID(ctx, mustUUID(s.T(), *sub.ArusKasID))
	s.Require().NoError(err)
	s.Require().NotNil(entry.PengajuanID)
	s.Equal(sub.ID, entry.PengajuanID.String())
}
