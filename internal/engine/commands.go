package engine

import "time"

// CommandKind names a side effect the caller must apply after a cycle.
type CommandKind string

const (
	CommandPersistDrawRecord    CommandKind = "PERSIST_DRAW_RECORD"
	CommandUpdateWinnerCooldown CommandKind = "UPDATE_WINNER_COOLDOWN"
	CommandNotifyWinner         CommandKind = "NOTIFY_WINNER"
	CommandNotifyAdmins         CommandKind = "NOTIFY_ADMINS"
)

// Command is a side-effect request emitted by RunCycle. The engine never executes them.
type Command interface {
	Kind() CommandKind
}

// PersistDrawRecord asks the caller to store the draw record.
type PersistDrawRecord struct {
	Record DrawRecord
}

// UpdateWinnerCooldown asks the caller to stamp a winner's last win time.
type UpdateWinnerCooldown struct {
	SubscriberID string
	WonAt        time.Time
}

// NotifyWinner asks the caller to tell a winner what they won.
type NotifyWinner struct {
	CycleID      string
	SubscriberID string
	Contact      string
	Amount       Money
}

// NotifyAdmins asks the caller to alert administrators of a failed cycle.
type NotifyAdmins struct {
	CycleID string
	Reason  string
}

func (PersistDrawRecord) Kind() CommandKind    { return CommandPersistDrawRecord }
func (UpdateWinnerCooldown) Kind() CommandKind { return CommandUpdateWinnerCooldown }
func (NotifyWinner) Kind() CommandKind         { return CommandNotifyWinner }
func (NotifyAdmins) Kind() CommandKind         { return CommandNotifyAdmins }
