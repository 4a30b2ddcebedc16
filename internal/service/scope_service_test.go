package service_test

import (
	"testing"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrow(t *testing.T) {
	k1 := model.Kelas{Base: model.Base{ID: uuid.New()}, Nama: "TK A", Cabang: "Cabang A"}
	k2 := model.Kelas{Base: model.Base{ID: uuid.New()}, Nama: "TK B", Cabang: "Cabang A"}
	k3 := model.Kelas{Base: model.Base{ID: uuid.New()}, Nama: "TK A", Cabang: "Cabang B"}
	classes := []model.Kelas{k1, k2, k3}
	students := []model.Siswa{
		{Base: model.Base{ID: uuid.New()}, Nama: "Ani", Cabang: "Cabang A", KelasID: &k1.ID},
		{Base: model.Base{ID: uuid.New()}, Nama: "Budi", Cabang: "Cabang A", KelasID: &k2.ID},
		{Base: model.Base{ID: uuid.New()}, Nama: "Citra", Cabang: "Cabang B", KelasID: &k3.ID},
		{Base: model.Base{ID: uuid.New()}, Nama: "Dodi", Cabang: "Cabang A"},
	}

	tests := []struct {
		name             string
		branch, class    string
		wantClasses      int
		wantStudentNames []string
	}{
		{"no filter", "", "", 3, []string{"Ani", "Budi", "Citra", "Dodi"}},
		{"branch only", "Cabang A", "", 2, []string{"Ani", "Budi", "Dodi"}},
		{"branch and class name", "Cabang A", "TK A", 2, []string{"Ani"}},
		{"class id", "", k2.ID.String(), 3, []string{"Budi"}},
		{"class name across branches", "", "tk a", 3, []string{"Ani", "Citra"}},
		{"unknown branch", "Cabang Z", "", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := service.Narrow(classes, students, tt.branch, tt.class)
			assert.Equal(t, []string{"Cabang A", "Cabang B"}, scope.Branches)
			assert.Len(t, scope.Classes, tt.wantClasses)

			names := []string{}
			for _, s := range scope.Students {
				names = append(names, s.Nama)
			}
			if tt.wantStudentNames == nil {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.wantStudentNames, names)
			}
		})
	}
}

func TestScopeServicePinsBranchScopedActors(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewScopeRepository(db)
	require.NoError(t, repo.CreateKelas(ctx, &model.Kelas{Nama: "TK A", Cabang: "Cabang A"}))
	require.NoError(t, repo.CreateKelas(ctx, &model.Kelas{Nama: "TK A", Cabang: "Cabang B"}))
	require.NoError(t, repo.CreateSiswa(ctx, &model.Siswa{Nama: "Ani", NIS: "001", Cabang: "Cabang B"}))

	svc := service.NewScopeService(repo)

	scope, err := svc.Narrow(ctx, service.Actor{Role: policy.RoleGuru, Branch: "Cabang A"}, "Cabang B", "")
	require.NoError(t, err)
	require.Len(t, scope.Classes, 1)
	assert.Equal(t, "Cabang A", scope.Classes[0].Cabang)
	assert.Empty(t, scope.Students)

	scope, err = svc.Narrow(ctx, service.Actor{Role: policy.RoleDirektur}, "Cabang B", "")
	require.NoError(t, err)
	assert.Len(t, scope.Students, 1)
}
