package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Transition is an action that moves a submission along the approval chain.
type Transition string

const (
	TransitionApprove Transition = "approve"
	TransitionReject  Transition = "reject"
)

var (
	// ErrInvalidTransition is returned when the current status has no such
	// transition at all, regardless of who asks.
	ErrInvalidTransition = errors.New("transition not available in the current status")
	// ErrNotApproved guards realization reporting.
	ErrNotApproved = errors.New("realization can only be reported for an approved submission")
)

// Denial is returned when the actor's role is not allowed to perform an
// action in the current status. Required lists the roles that would be.
type Denial struct {
	Action   string
	Status   Status
	Role     Role
	Required []Role
	Reason   string
}

func (d *Denial) Error() string {
	return d.Reason
}

// IsDenial reports whether err carries a *Denial.
func IsDenial(err error) bool {
	var d *Denial
	return errors.As(err, &d)
}

type step struct {
	actor Role
	next  Status
}

// transitions is the whole approval chain. A status missing from the map is
// terminal.
var transitions = map[Status]map[Transition]step{
	StatusAwaitingPrincipal: {
		TransitionApprove: {actor: RoleKepalaSekolah, next: StatusAwaitingDirector},
		TransitionReject:  {actor: RoleKepalaSekolah, next: StatusRejected},
	},
	StatusAwaitingDirector: {
		TransitionApprove: {actor: RoleDirektur, next: StatusApproved},
		TransitionReject:  {actor: RoleDirektur, next: StatusRejected},
	},
}

var editors = map[Status][]Role{
	StatusAwaitingPrincipal: StaffRoles,
	StatusAwaitingDirector:  {RoleKepalaSekolah, RoleDirektur},
	StatusApproved:          {RoleDirektur},
}

var deleters = map[Status][]Role{
	StatusAwaitingPrincipal: StaffRoles,
	StatusAwaitingDirector:  {RoleKepalaSekolah, RoleDirektur},
	StatusApproved:          {RoleDirektur},
	StatusRejected:          {RoleKepalaSekolah, RoleDirektur},
}

// CanTransition decides whether role may apply t to a submission in
// current, returning the resulting status.
func CanTransition(current Status, role Role, t Transition) (Status, error) {
	rules, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("%w: submission is %s", ErrInvalidTransition, current)
	}
	s, ok := rules[t]
	if !ok {
		return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t, current)
	}
	if role != s.actor {
		return current, &Denial{
			Action:   string(t),
			Status:   current,
			Role:     role,
			Required: []Role{s.actor},
			Reason:   fmt.Sprintf("only the %s may %s this stage", s.actor.Title(), t),
		}
	}
	return s.next, nil
}

// RequiredApprover returns the role that acts on the current stage, if any.
func RequiredApprover(current Status) (Role, bool) {
	s, ok := transitions[current][TransitionApprove]
	return s.actor, ok
}

func CanEdit(current Status, role Role) error {
	allowed := editors[current]
	if len(allowed) == 0 {
		return &Denial{
			Action: "edit",
			Status: current,
			Role:   role,
			Reason: fmt.Sprintf("a submission with status %q can no longer be edited", current),
		}
	}
	return check("edit", current, role, allowed)
}

func CanDelete(current Status, role Role) error {
	return check("delete", current, role, deleters[current])
}

func CanSubmit(role Role) error {
	if !role.IsStaff() {
		return &Denial{
			Action:   "submit",
			Role:     role,
			Required: StaffRoles,
			Reason:   fmt.Sprintf("role %s may not create budget submissions", role),
		}
	}
	return nil
}

func CanReportRealization(current Status, role Role) error {
	if !role.IsStaff() {
		return &Denial{
			Action:   "report realization",
			Status:   current,
			Role:     role,
			Required: StaffRoles,
			Reason:   fmt.Sprintf("role %s may not report realizations", role),
		}
	}
	if current != StatusApproved {
		return fmt.Errorf("%w (current status: %s)", ErrNotApproved, current)
	}
	return nil
}

func CanManageLedger(role Role) error {
	if !role.IsFinance() {
		return &Denial{
			Action:   "manage ledger",
			Role:     role,
			Required: FinanceRoles,
			Reason:   "only " + joinTitles(FinanceRoles) + " may manage cash-flow entries",
		}
	}
	return nil
}

// CanActOnBranch restricts branch-scoped roles to records of their own
// branch. Other roles act across all branches.
func CanActOnBranch(role Role, actorBranch, recordBranch string) error {
	if !role.IsBranchScoped() {
		return nil
	}
	if actorBranch != "" && strings.EqualFold(strings.TrimSpace(actorBranch), strings.TrimSpace(recordBranch)) {
		return nil
	}
	return &Denial{
		Role:   role,
		Reason: fmt.Sprintf("%s of branch %q may not act on records of branch %q", role.Title(), actorBranch, recordBranch),
	}
}

// BranchScope returns the branch a read is restricted to. Branch-scoped
// roles always get their own branch and are denied when they have none;
// other roles get the requested branch, where empty means all branches.
func BranchScope(role Role, actorBranch, requested string) (string, error) {
	if !role.IsBranchScoped() {
		return strings.TrimSpace(requested), nil
	}
	own := strings.TrimSpace(actorBranch)
	if own == "" {
		return "", &Denial{
			Role:   role,
			Reason: fmt.Sprintf("%s has no branch assigned", role.Title()),
		}
	}
	return own, nil
}

func check(action string, current Status, role Role, allowed []Role) error {
	if role.in(allowed) {
		return nil
	}
	return &Denial{
		Action:   action,
		Status:   current,
		Role:     role,
		Required: allowed,
		Reason:   fmt.Sprintf("only %s may %s a submission with status %q", joinTitles(allowed), action, current),
	}
}

func joinTitles(roles []Role) string {
	titles := make([]string, 0, len(roles))
	for _, r := range roles {
		titles = append(titles, r.Title())
	}
	switch len(titles) {
	case 0:
		return "nobody"
	case 1:
		return "the " + titles[0]
	default:
		return strings.Join(titles[:len(titles)-1], ", ") + " or " + titles[len(titles)-1]
	}
}
