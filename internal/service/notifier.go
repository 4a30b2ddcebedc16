package service

// Event kinds published after a committed mutation.
const (
	EventSubmissionChanged = "pengajuan.changed"
	EventSubmissionDeleted = "pengajuan.deleted"
	EventLedgerChanged     = "arus_kas.changed"
	EventLedgerDeleted     = "arus_kas.deleted"
	EventStaffChanged      = "staff.changed"
)

// Notifier fans change events out to connected dashboards.
type Notifier interface {
	Publish(kind, id string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
