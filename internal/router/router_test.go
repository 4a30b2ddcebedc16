package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yayasan/internal/config"
	"yayasan/internal/database"
	"yayasan/internal/model"
	"yayasan/internal/repository"
	"yayasan/internal/router"
	"yayasan/internal/service"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// TestMain keeps gorm's per-query debug lines out of the test output.
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *response.Meta  `json:"meta"`
	Error      string          `json:"error"`
	RequestID  string          `json:"request_id"`
}

type RouterSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *gin.Engine
	users  service.UserService
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(database.DriverSQLite, filepath.Join(s.T().TempDir(), "router.db"))
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	cfg := config.Config{
		GinMode:          gin.TestMode,
		JWTSecret:        []byte("router-test"),
		JWTTTL:           time.Hour,
		HeadOfficeBranch: "Pusat",
	}
	app, err := router.New(cfg, db, prometheus.NewRegistry())
	s.Require().NoError(err)
	s.Require().NoError(app.Roles.SeedDefaultRolesAndPermissions(context.Background()))
	s.engine = app.Engine

	tx := repository.NewTransactionManager(db)
	s.users = service.NewUserService(tx, repository.NewUserRepository(db), repository.NewStaffRepository(db), repository.NewAuditRepository(db), cfg.JWTSecret, cfg.JWTTTL)
}

func (s *RouterSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *RouterSuite) request(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, data any) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		s.Require().NoError(json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

// account creates a user and signs it in.
func (s *RouterSuite) account(name, email, role string) (string, string) {
	u, err := s.users.CreateUser(context.Background(), service.Actor{}, service.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: "rahasia1",
		Role:     role,
	})
	s.Require().NoError(err)

	w := s.request(http.MethodPost, "/login", "", service.LoginUserRequest{Email: email, Password: "rahasia1"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var tok service.TokenResponse
	s.decode(w, &tok)
	s.Require().NotEmpty(tok.Token)
	return u.ID.String(), tok.Token
}

func (s *RouterSuite) guru(direktur, name, email, role, cabang string) string {
	id, tok := s.account(name, email, "")
	w := s.request(http.MethodPost, "/api/guru", direktur, service.GuruRequest{
		Nama:   name,
		Email:  email,
		Role:   role,
		Cabang: cabang,
		UserID: id,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return tok
}

func (s *RouterSuite) TestPublicEndpoints() {
	w := s.request(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/pengajuan", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/login", "", service.LoginUserRequest{Email: "nobody@yayasan.test", Password: "x"})
	s.Equal(http.StatusUnauthorized, w.Code)
	env := s.decode(w, nil)
	s.Equal("error", env.Status)
	s.NotEmpty(env.RequestID)
}

func (s *RouterSuite) TestAccountWithoutRoleIsRefused() {
	_, tok := s.account("Tamu", "tamu@yayasan.test", "")

	w := s.request(http.MethodGet, "/me", tok, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "no role assigned")

	w = s.request(http.MethodGet, "/api/pengajuan", tok, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestMe() {
	_, direktur := s.account("Pak Direktur", "direktur@yayasan.test", "Direktur")
	ks := s.guru(direktur, "Bu Kepala", "ks@yayasan.test", "Kepala Sekolah", "Cabang A")

	w := s.request(http.MethodGet, "/me", ks, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var me struct {
		Role        string   `json:"role"`
		Cabang      string   `json:"cabang"`
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	s.decode(w, &me)
	s.Equal("Kepala Sekolah", me.Role)
	s.Equal("Cabang A", me.Cabang)
	s.Equal("Bu Kepala", me.Name)
	s.Contains(me.Permissions, service.PermSubmissionsApprove)
	s.NotContains(me.Permissions, service.PermLedgerWrite)
}

func (s *RouterSuite) TestApprovalToLedgerFlow() {
	_, direktur := s.account("Pak Direktur", "direktur@yayasan.test", "Direktur")
	ks := s.guru(direktur, "Bu Kepala", "ks@yayasan.test", "Kepala Sekolah", "Cabang A")
	guru := s.guru(direktur, "Pak Guru", "guru@yayasan.test", "Guru", "Cabang A")

	w := s.request(http.MethodPost, "/api/pengajuan", guru, map[string]any{
		"tanggal":     "2026-10-01",
		"nomenklatur": "ATK",
		"barang":      "Kertas A4",
		"hargaSatuan": 50000,
		"qty":         2,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var sub service.SubmissionResponse
	s.decode(w, &sub)
	s.Equal("Menunggu KS", string(sub.Status))
	s.Equal("Cabang A", sub.Cabang)
	s.True(sub.Total.Equal(decimal.NewFromInt(100000)))

	// route level gate
	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/approve", guru, nil)
	s.Equal(http.StatusForbidden, w.Code)

	// stage gate
	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/approve", direktur, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "only the Principal (Kepala Sekolah) may approve this stage")

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/realisasi", guru, map[string]any{
		"realisasi":        90000,
		"tanggalRealisasi": "2026-10-10",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/approve", ks, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &sub)
	s.Equal("Menunggu Direktur", string(sub.Status))

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/approve", direktur, service.TransitionRequest{Version: &sub.Version})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &sub)
	s.Equal("Disetujui", string(sub.Status))

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/realisasi", guru, map[string]any{
		"realisasi":        90000,
		"tanggalRealisasi": "2026-10-10",
		"buktiRealisasi":   "https://files.example/nota.jpg",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &sub)
	s.Require().NotNil(sub.ArusKasID)
	s.True(sub.Selisih.Decimal.Equal(decimal.NewFromInt(10000)))

	// a stale version is refused
	stale := 1
	w = s.request(http.MethodPut, "/api/pengajuan/"+sub.ID, direktur, service.EditSubmissionRequest{Version: &stale})
	s.Equal(http.StatusConflict, w.Code)

	w = s.request(http.MethodGet, "/api/arus-kas?cabang=Cabang%20A", direktur, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var entries []service.LedgerEntryResponse
	env := s.decode(w, &entries)
	s.Require().NotNil(env.Meta)
	s.Equal(int64(1), env.Meta.Total)
	s.Require().Len(entries, 1)
	s.Equal(*sub.ArusKasID, entries[0].ID)
	s.Equal("Keluar", entries[0].Jenis)
	s.True(entries[0].Nominal.Equal(decimal.NewFromInt(90000)))

	w = s.request(http.MethodGet, "/api/arus-kas/summary?bulan=2026-10", direktur, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var sum service.LedgerSummary
	s.decode(w, &sum)
	s.True(sum.Keluar.Equal(decimal.NewFromInt(90000)))
	s.True(sum.Saldo.Equal(decimal.NewFromInt(-90000)))

	w = s.request(http.MethodGet, "/api/arus-kas/periods?start_date=2026-10-01&end_date=2026-10-31", direktur, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var periods []service.CashflowPoint
	s.decode(w, &periods)
	s.Require().Len(periods, 1)
	s.Equal("2026-10-01", periods[0].Period)
	s.True(periods[0].SaldoAkhir.Equal(decimal.NewFromInt(-90000)))

	w = s.request(http.MethodGet, "/api/statistics?start_date=2026-10-01&end_date=2026-10-31", ks, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var stats model.BudgetStatistics
	s.decode(w, &stats)
	s.Equal("Cabang A", stats.Cabang)
	s.True(stats.TotalDisetujui.Equal(decimal.NewFromInt(100000)))
	s.True(stats.TotalRealisasi.Equal(decimal.NewFromInt(90000)))
	s.Equal(int64(0), stats.BelumRealisasi)

	w = s.request(http.MethodGet, "/api/statistics?start_date=2026-10-31&end_date=2026-10-01", direktur, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodGet, "/api/arus-kas/export", direktur, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "arus-kas-")

	// the ledger is not writable for branch roles
	w = s.request(http.MethodPost, "/api/arus-kas", ks, service.LedgerEntryRequest{Tanggal: "2026-10-02", Cabang: "Cabang A", Jenis: "Masuk"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/audit-logs?entity_id="+sub.ID, direktur, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	env = s.decode(w, nil)
	s.GreaterOrEqual(env.Meta.Total, int64(4))

	w = s.request(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `workflow_transitions_total{action="approve",result="ok"}`)
}

func (s *RouterSuite) TestRejectNeedsReason() {
	_, direktur := s.account("Pak Direktur", "direktur@yayasan.test", "Direktur")
	ks := s.guru(direktur, "Bu Kepala", "ks@yayasan.test", "Kepala Sekolah", "Cabang A")

	w := s.request(http.MethodPost, "/api/pengajuan", ks, map[string]any{
		"tanggal":     "2026-10-01",
		"nomenklatur": "ATK",
		"barang":      "Spidol",
		"hargaSatuan": 10000,
		"qty":         3,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sub service.SubmissionResponse
	s.decode(w, &sub)

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/reject", ks, service.TransitionRequest{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/pengajuan/"+sub.ID+"/reject", ks, service.TransitionRequest{Reason: "anggaran habis"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &sub)
	s.Equal("Ditolak", string(sub.Status))
	s.Equal("anggaran habis", sub.RejectionReason)

	w = s.request(http.MethodGet, "/api/pengajuan/"+sub.ID, ks, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/pengajuan/not-a-uuid", ks, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestHeadOfficeSkipsPrincipal() {
	_, direktur := s.account("Pak Direktur", "direktur@yayasan.test", "Direktur")

	w := s.request(http.MethodPost, "/api/pengajuan", direktur, map[string]any{
		"tanggal":     "2026-10-01",
		"cabang":      "Pusat",
		"nomenklatur": "Operasional",
		"barang":      "Tinta printer",
		"hargaSatuan": 150000,
		"qty":         1,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var sub service.SubmissionResponse
	s.decode(w, &sub)
	s.Equal("Menunggu Direktur", string(sub.Status))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.NewConnection(database.DriverSQLite, filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	app, err := router.New(config.Config{JWTSecret: []byte("x"), JWTTTL: time.Hour, EnablePprof: true}, db, prometheus.NewRegistry())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	app.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
