package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of actor roles. The string value is what gets
// persisted in the staff collections and user accounts.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RoleDirektur      Role = "Direktur"
	RoleYayasan       Role = "Yayasan"
	RoleKepalaSekolah Role = "Kepala Sekolah"
	RoleGuru          Role = "Guru"
	RoleCaregiver     Role = "Caregiver"
	RoleSiswa         Role = "Siswa"
)

var ErrUnknownRole = errors.New("unknown role")

// AllRoles lists every role in display order.
var AllRoles = []Role{
	RoleAdmin,
	RoleDirektur,
	RoleYayasan,
	RoleKepalaSekolah,
	RoleGuru,
	RoleCaregiver,
	RoleSiswa,
}

// StaffRoles may create submissions and report realizations.
var StaffRoles = []Role{
	RoleAdmin,
	RoleDirektur,
	RoleYayasan,
	RoleKepalaSekolah,
	RoleGuru,
	RoleCaregiver,
}

// FinanceRoles manage the cash-flow ledger directly.
var FinanceRoles = []Role{
	RoleAdmin,
	RoleDirektur,
	RoleYayasan,
}

// BranchRoles only see data of their own branch.
var BranchRoles = []Role{
	RoleKepalaSekolah,
	RoleGuru,
	RoleCaregiver,
	RoleSiswa,
}

// ParseRole matches s against the known roles, ignoring case and
// surrounding whitespace.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsStaff() bool {
	return r.in(StaffRoles)
}

func (r Role) IsFinance() bool {
	return r.in(FinanceRoles)
}

func (r Role) IsBranchScoped() bool {
	return r.in(BranchRoles)
}

func (r Role) in(roles []Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// Title is the human readable label used in denial messages.
func (r Role) Title() string {
	switch r {
	case RoleKepalaSekolah:
		return "Principal (Kepala Sekolah)"
	case RoleDirektur:
		return "Director (Direktur)"
	default:
		return string(r)
	}
}
