package policy_test

import (
	"testing"

	"yayasan/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		current policy.Status
		role    policy.Role
		t       policy.Transition
		want    policy.Status
		denied  bool
		invalid bool
	}{
		{"principal approves first stage", policy.StatusAwaitingPrincipal, policy.RoleKepalaSekolah, policy.TransitionApprove, policy.StatusAwaitingDirector, false, false},
		{"director approves second stage", policy.StatusAwaitingDirector, policy.RoleDirektur, policy.TransitionApprove, policy.StatusApproved, false, false},
		{"director cannot skip the principal", policy.StatusAwaitingPrincipal, policy.RoleDirektur, policy.TransitionApprove, policy.StatusAwaitingPrincipal, true, false},
		{"principal cannot approve second stage", policy.StatusAwaitingDirector, policy.RoleKepalaSekolah, policy.TransitionApprove, policy.StatusAwaitingDirector, true, false},
		{"admin is not an approver", policy.StatusAwaitingPrincipal, policy.RoleAdmin, policy.TransitionApprove, policy.StatusAwaitingPrincipal, true, false},
		{"guru is not an approver", policy.StatusAwaitingDirector, policy.RoleGuru, policy.TransitionApprove, policy.StatusAwaitingDirector, true, false},
		{"principal rejects first stage", policy.StatusAwaitingPrincipal, policy.RoleKepalaSekolah, policy.TransitionReject, policy.StatusRejected, false, false},
		{"director rejects second stage", policy.StatusAwaitingDirector, policy.RoleDirektur, policy.TransitionReject, policy.StatusRejected, false, false},
		{"approved is terminal", policy.StatusApproved, policy.RoleDirektur, policy.TransitionApprove, policy.StatusApproved, false, true},
		{"rejected is terminal", policy.StatusRejected, policy.RoleDirektur, policy.TransitionApprove, policy.StatusRejected, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.CanTransition(tt.current, tt.role, tt.t)
			assert.Equal(t, tt.want, got)

			switch {
			case tt.denied:
				require.Error(t, err)
				assert.True(t, policy.IsDenial(err))
			case tt.invalid:
				assert.ErrorIs(t, err, policy.ErrInvalidTransition)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanTransitionNamesRequiredRole(t *testing.T) {
	_, err := policy.CanTransition(policy.StatusAwaitingPrincipal, policy.RoleGuru, policy.TransitionApprove)
	require.Error(t, err)
	assert.Equal(t, "only the Principal (Kepala Sekolah) may approve this stage", err.Error())

	_, err = policy.CanTransition(policy.StatusAwaitingDirector, policy.RoleKepalaSekolah, policy.TransitionApprove)
	require.Error(t, err)
	assert.Equal(t, "only the Director (Direktur) may approve this stage", err.Error())
}

func TestApprovalNeverSkipsAStage(t *testing.T) {
	status := policy.StatusAwaitingPrincipal
	chain := []policy.Role{policy.RoleKepalaSekolah, policy.RoleDirektur}
	seen := []policy.Status{status}

	for _, role := range chain {
		next, err := policy.CanTransition(status, role, policy.TransitionApprove)
		require.NoError(t, err)
		status = next
		seen = append(seen, status)
	}

	assert.Equal(t, []policy.Status{policy.StatusAwaitingPrincipal, policy.StatusAwaitingDirector, policy.StatusApproved}, seen)
}

func TestCanDelete(t *testing.T) {
	for _, role := range policy.AllRoles {
		err := policy.CanDelete(policy.StatusApproved, role)
		if role == policy.RoleDirektur {
			assert.NoError(t, err, role)
		} else {
			assert.True(t, policy.IsDenial(err), role)
		}
	}

	assert.NoError(t, policy.CanDelete(policy.StatusAwaitingPrincipal, policy.RoleGuru))
	assert.NoError(t, policy.CanDelete(policy.StatusAwaitingPrincipal, policy.RoleCaregiver))
	assert.Error(t, policy.CanDelete(policy.StatusAwaitingPrincipal, policy.RoleSiswa))

	assert.NoError(t, policy.CanDelete(policy.StatusAwaitingDirector, policy.RoleKepalaSekolah))
	assert.NoError(t, policy.CanDelete(policy.StatusAwaitingDirector, policy.RoleDirektur))
	assert.Error(t, policy.CanDelete(policy.StatusAwaitingDirector, policy.RoleGuru))
	assert.Error(t, policy.CanDelete(policy.StatusAwaitingDirector, policy.RoleAdmin))
}

func TestCanEdit(t *testing.T) {
	assert.NoError(t, policy.CanEdit(policy.StatusAwaitingPrincipal, policy.RoleGuru))
	assert.NoError(t, policy.CanEdit(policy.StatusAwaitingDirector, policy.RoleKepalaSekolah))
	assert.Error(t, policy.CanEdit(policy.StatusAwaitingDirector, policy.RoleCaregiver))
	assert.NoError(t, policy.CanEdit(policy.StatusApproved, policy.RoleDirektur))
	assert.Error(t, policy.CanEdit(policy.StatusApproved, policy.RoleKepalaSekolah))
	assert.Error(t, policy.CanEdit(policy.StatusRejected, policy.RoleDirektur))
}

func TestCanReportRealization(t *testing.T) {
	assert.NoError(t, policy.CanReportRealization(policy.StatusApproved, policy.RoleCaregiver))
	assert.ErrorIs(t, policy.CanReportRealization(policy.StatusAwaitingDirector, policy.RoleGuru), policy.ErrNotApproved)
	assert.True(t, policy.IsDenial(policy.CanReportRealization(policy.StatusApproved, policy.RoleSiswa)))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, policy.StatusAwaitingDirector, policy.InitialStatus("Pusat", "Pusat"))
	assert.Equal(t, policy.StatusAwaitingDirector, policy.InitialStatus(" pusat ", "Pusat"))
	assert.Equal(t, policy.StatusAwaitingPrincipal, policy.InitialStatus("Cabang A", "Pusat"))
	assert.Equal(t, policy.StatusAwaitingPrincipal, policy.InitialStatus("", ""))
}

func TestCanActOnBranch(t *testing.T) {
	assert.NoError(t, policy.CanActOnBranch(policy.RoleKepalaSekolah, "Cabang A", "cabang a"))
	assert.Error(t, policy.CanActOnBranch(policy.RoleKepalaSekolah, "Cabang B", "Cabang A"))
	assert.Error(t, policy.CanActOnBranch(policy.RoleKepalaSekolah, "", "Cabang A"))
	assert.NoError(t, policy.CanActOnBranch(policy.RoleDirektur, "", "Cabang A"))
}

func TestParseRole(t *testing.T) {
	r, err := policy.ParseRole(" kepala sekolah ")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleKepalaSekolah, r)

	_, err = policy.ParseRole("Bendahara")
	assert.ErrorIs(t, err, policy.ErrUnknownRole)
}

func TestBranchScope(t *testing.T) {
	got, err := policy.BranchScope(policy.RoleGuru, " Cabang A ", "Cabang B")
	require.NoError(t, err)
	assert.Equal(t, "Cabang A", got)

	_, err = policy.BranchScope(policy.RoleKepalaSekolah, "", "")
	assert.True(t, policy.IsDenial(err))

	got, err = policy.BranchScope(policy.RoleYayasan, "", " Cabang B ")
	require.NoError(t, err)
	assert.Equal(t, "Cabang B", got)

	got, err = policy.BranchScope(policy.RoleDirektur, "", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
