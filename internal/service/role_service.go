package service

import (
	"context"
	"fmt"

	"yayasan/internal/model"
	"yayasan/internal/policy"
	"yayasan/internal/repository"
)

// --- DTOs ---

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Permission codes gating the HTTP routes.
const (
	PermSubmissionsRead    = "submissions.read"
	PermSubmissionsWrite   = "submissions.write"
	PermSubmissionsApprove = "submissions.approve"
	PermRealizationsWrite  = "realizations.write"
	PermLedgerRead         = "ledger.read"
	PermLedgerWrite        = "ledger.write"
	PermStaffRead          = "staff.read"
	PermStaffWrite         = "staff.write"
	PermUsersWrite         = "users.write"
	PermAuditRead          = "audit.read"
	PermScopeRead          = "scope.read"
)

var defaultPermissions = []model.Permission{
	{Code: PermSubmissionsRead, Name: "Lihat Pengajuan", Group: "submissions"},
	{Code: PermSubmissionsWrite, Name: "Buat / Ubah / Hapus Pengajuan", Group: "submissions"},
	{Code: PermSubmissionsApprove, Name: "Setujui / Tolak Pengajuan", Group: "submissions"},
	{Code: PermRealizationsWrite, Name: "Laporkan Realisasi", Group: "submissions"},
	{Code: PermLedgerRead, Name: "Lihat Arus Kas", Group: "ledger"},
	{Code: PermLedgerWrite, Name: "Kelola Arus Kas", Group: "ledger"},
	{Code: PermStaffRead, Name: "Lihat Guru & Caregiver", Group: "staff"},
	{Code: PermStaffWrite, Name: "Kelola Guru & Caregiver", Group: "staff"},
	{Code: PermUsersWrite, Name: "Kelola Akun", Group: "users"},
	{Code: PermAuditRead, Name: "Lihat Riwayat Aktivitas", Group: "audit"},
	{Code: PermScopeRead, Name: "Lihat Cabang / Kelas / Siswa", Group: "scope"},
}

type roleDefinition struct {
	Description string
	PermCodes   []string
}

// roleDefinitions gates routes coarsely. Status-dependent decisions are
// made by the policy package.
var roleDefinitions = map[policy.Role]roleDefinition{
	policy.RoleAdmin: {
		Description: "Administrator sistem",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermRealizationsWrite,
			PermLedgerRead, PermLedgerWrite,
			PermStaffRead, PermStaffWrite, PermUsersWrite,
			PermAuditRead, PermScopeRead,
		},
	},
	policy.RoleDirektur: {
		Description: "Direktur, penyetuju tahap akhir",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermSubmissionsApprove, PermRealizationsWrite,
			PermLedgerRead, PermLedgerWrite,
			PermStaffRead, PermStaffWrite,
			PermAuditRead, PermScopeRead,
		},
	},
	policy.RoleYayasan: {
		Description: "Pengurus yayasan",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermRealizationsWrite,
			PermLedgerRead, PermLedgerWrite,
			PermStaffRead, PermAuditRead, PermScopeRead,
		},
	},
	policy.RoleKepalaSekolah: {
		Description: "Kepala sekolah, penyetuju tahap pertama di cabangnya",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermSubmissionsApprove, PermRealizationsWrite,
			PermLedgerRead, PermStaffRead, PermStaffWrite, PermScopeRead,
		},
	},
	policy.RoleGuru: {
		Description: "Guru",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermRealizationsWrite, PermScopeRead,
		},
	},
	policy.RoleCaregiver: {
		Description: "Caregiver daycare",
		PermCodes: []string{
			PermSubmissionsRead, PermSubmissionsWrite, PermRealizationsWrite, PermScopeRead,
		},
	},
	policy.RoleSiswa: {
		Description: "Siswa",
		PermCodes:   []string{PermScopeRead},
	},
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	tx   repository.TransactionManager
	repo repository.RoleRepository
}

func NewRoleService(tx repository.TransactionManager, repo repository.RoleRepository) RoleService {
	return &roleService{tx: tx, repo: repo}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storeErr("list roles", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, storeErr("list permissions", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.repo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("permissions of role %q", roleName), err)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles
// if not already present and resets each role's permission set.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		permByCode := make(map[string]model.Permission, len(defaultPermissions))
		for _, p := range defaultPermissions {
			perm := p
			if err := s.repo.FindOrCreatePermission(txCtx, &perm); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
			permByCode[perm.Code] = perm
		}

		for _, roleName := range policy.AllRoles {
			def := roleDefinitions[roleName]
			role := model.Role{
				Name:        roleName.String(),
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.repo.FindOrCreate(txCtx, &role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}

			perms := make([]model.Permission, 0, len(def.PermCodes))
			for _, code := range def.PermCodes {
				if p, ok := permByCode[code]; ok {
					perms = append(perms, p)
				}
			}
			if err := s.repo.ReplacePermissions(txCtx, &role, perms); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
			}
		}
		return nil
	})
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
