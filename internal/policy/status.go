package policy

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a budget submission (pengajuan).
type Status string

const (
	StatusAwaitingPrincipal Status = "Menunggu KS"
	StatusAwaitingDirector  Status = "Menunggu Direktur"
	StatusApproved          Status = "Disetujui"
	StatusRejected          Status = "Ditolak"
)

var AllStatuses = []Status{
	StatusAwaitingPrincipal,
	StatusAwaitingDirector,
	StatusApproved,
	StatusRejected,
}

func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) String() string {
	return string(s)
}

// InitialStatus returns the status a new submission starts in. Submissions
// from the head office skip the principal stage.
func InitialStatus(branch, headOffice string) Status {
	if headOffice != "" && strings.EqualFold(strings.TrimSpace(branch), strings.TrimSpace(headOffice)) {
		return StatusAwaitingDirector
	}
	return StatusAwaitingPrincipal
}
