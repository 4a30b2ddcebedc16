package service_test

import (
	"testing"

	"yayasan/internal/policy"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	db := newTestDB(t)
	tx := repository.NewTransactionManager(db)
	audit := repository.NewAuditRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	notifier := &recordingNotifier{}
	ledger := service.NewLedgerService(tx, ledgerRepo, audit, notifier)
	subs := service.NewSubmissionService(tx, repository.NewSubmissionRepository(db), ledgerRepo, ledger, audit, notifier, "Pusat")
	stats := service.NewStatisticsService(repository.NewStatisticsRepository(db))

	guruA := newActor(t, db, policy.RoleGuru, "Cabang A")
	guruB := newActor(t, db, policy.RoleGuru, "Cabang B")
	ksA := newActor(t, db, policy.RoleKepalaSekolah, "Cabang A")
	director := newActor(t, db, policy.RoleDirektur, "")

	submit := func(actor service.Actor, nomenklatur string, harga int64, qty int) string {
		res, err := subs.Submit(ctx, actor, service.SubmitRequest{
			Tanggal:     "2026-03-10",
			Nomenklatur: nomenklatur,
			Barang:      "barang " + nomenklatur,
			HargaSatuan: decimal.NewFromInt(harga),
			Qty:         qty,
		})
		require.NoError(t, err)
		return res.ID
	}

	approved := submit(guruA, "ATK", 50000, 2)      // 100000
	realized := submit(guruA, "Konsumsi", 25000, 8) // 200000
	submit(guruA, "ATK", 10000, 1)                  // pending
	submit(guruB, "Kebersihan", 30000, 1)           // other branch

	for _, id := range []string{approved, realized} {
		_, err := subs.Approve(ctx, ksA, id, service.TransitionRequest{})
		require.NoError(t, err)
		_, err = subs.Approve(ctx, director, id, service.TransitionRequest{})
		require.NoError(t, err)
	}
	_, err := subs.ReportRealization(ctx, guruA, realized, service.RealizationRequest{
		Realisasi:        decimal.NewFromInt(180000),
		TanggalRealisasi: "2026-03-20",
	})
	require.NoError(t, err)

	q := service.StatisticsQuery{StartDate: "2026-03-01", EndDate: "2026-03-31"}

	all, err := stats.GetStatistics(ctx, director, q)
	require.NoError(t, err)
	require.Len(t, all.ByStatus, len(policy.AllStatuses))
	assert.True(t, all.TotalDiajukan.Equal(decimal.NewFromInt(340000)), all.TotalDiajukan.String())
	assert.True(t, all.TotalDisetujui.Equal(decimal.NewFromInt(300000)), all.TotalDisetujui.String())
	assert.True(t, all.TotalRealisasi.Equal(decimal.NewFromInt(180000)), all.TotalRealisasi.String())
	assert.True(t, all.TotalSelisih.Equal(decimal.NewFromInt(20000)), all.TotalSelisih.String())
	assert.Equal(t, int64(1), all.BelumRealisasi)
	require.Len(t, all.TopNomenklatur, 2)
	assert.Equal(t, "Konsumsi", all.TopNomenklatur[0].Nomenklatur)

	// branch roles only see their own branch, whatever they ask for
	own, err := stats.GetStatistics(ctx, guruB, service.StatisticsQuery{Cabang: "Cabang A", StartDate: "2026-03-01", EndDate: "2026-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "Cabang B", own.Cabang)
	assert.True(t, own.TotalDiajukan.Equal(decimal.NewFromInt(30000)))
	assert.Empty(t, own.TopNomenklatur)

	outside, err := stats.GetStatistics(ctx, director, service.StatisticsQuery{StartDate: "2026-04-01", EndDate: "2026-04-30"})
	require.NoError(t, err)
	assert.True(t, outside.TotalDiajukan.IsZero())

	_, err = stats.GetStatistics(ctx, director, service.StatisticsQuery{StartDate: "2026-03-31", EndDate: "2026-03-01"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = stats.GetStatistics(ctx, director, service.StatisticsQuery{StartDate: "March"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
