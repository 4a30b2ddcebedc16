package service

import (
	"context"
	"sort"
	"strings"

	"yayasan/internal/model"
	"yayasan/internal/repository"
)

type ClassOption struct {
	ID     string `json:"id"`
	Nama   string `json:"nama"`
	Cabang string `json:"cabang"`
}

type StudentOption struct {
	ID      string `json:"id"`
	Nama    string `json:"nama"`
	NIS     string `json:"nis"`
	Cabang  string `json:"cabang"`
	KelasID string `json:"kelasId,omitempty"`
}

// Scope is what a cabang → kelas → siswa filter offers for a selection.
type Scope struct {
	Branches []string        `json:"cabang"`
	Classes  []ClassOption   `json:"kelas"`
	Students []StudentOption `json:"siswa"`
}

type ScopeService interface {
	Narrow(ctx context.Context, actor Actor, branch, class string) (*Scope, error)
}

type scopeService struct {
	repo repository.ScopeRepository
}

func NewScopeService(repo repository.ScopeRepository) ScopeService {
	return &scopeService{repo: repo}
}

func (s *scopeService) Narrow(ctx context.Context, actor Actor, branch, class string) (*Scope, error) {
	branch, err := scopedBranch(actor, branch)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.ListKelas(ctx, "")
	if err != nil {
		return nil, storeErr("list kelas", err)
	}
	students, err := s.repo.ListSiswa(ctx, "")
	if err != nil {
		return nil, storeErr("list siswa", err)
	}

	scope := Narrow(classes, students, branch, class)
	return &scope, nil
}

// Narrow filters classes by branch and students by branch and class. An
// empty branch or class does not filter. class matches a kelas id or name.
func Narrow(classes []model.Kelas, students []model.Siswa, branch, class string) Scope {
	branch = strings.TrimSpace(branch)
	class = strings.TrimSpace(class)

	scope := Scope{
		Branches: []string{},
		Classes:  []ClassOption{},
		Students: []StudentOption{},
	}

	seen := map[string]bool{}
	for _, k := range classes {
		if !seen[k.Cabang] {
			seen[k.Cabang] = true
			scope.Branches = append(scope.Branches, k.Cabang)
		}
	}
	for _, st := range students {
		if !seen[st.Cabang] {
			seen[st.Cabang] = true
			scope.Branches = append(scope.Branches, st.Cabang)
		}
	}
	sort.Strings(scope.Branches)

	inBranch := func(c string) bool {
		return branch == "" || strings.EqualFold(c, branch)
	}

	selected := map[string]bool{}
	for _, k := range classes {
		if !inBranch(k.Cabang) {
			continue
		}
		scope.Classes = append(scope.Classes, ClassOption{ID: k.ID.String(), Nama: k.Nama, Cabang: k.Cabang})
		if class != "" && (k.ID.String() == class || strings.EqualFold(k.Nama, class)) {
			selected[k.ID.String()] = true
		}
	}

	for _, st := range students {
		if !inBranch(st.Cabang) {
			continue
		}
		kelasID := ""
		if st.KelasID != nil {
			kelasID = st.KelasID.String()
		}
		if class != "" && !selected[kelasID] {
			continue
		}
		scope.Students = append(scope.Students, StudentOption{
			ID:      st.ID.String(),
			Nama:    st.Nama,
			NIS:     st.NIS,
			Cabang:  st.Cabang,
			KelasID: kelasID,
		})
	}

	return scope
}
