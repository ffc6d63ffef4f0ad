package models

// CommandStatus is the lifecycle state of a queued GPRS command.
type CommandStatus string

const (
	// CommandPending means the command has not been offered to the device yet.
	CommandPending CommandStatus = "pending"
	// CommandSent means the command was written to an open session and the
	// gateway is waiting for the device response.
	CommandSent CommandStatus = "sent"
	// CommandCompleted means the device confirmed the command.
	CommandCompleted CommandStatus = "completed"
	// CommandFailed means the device rejected the command, answered
	// malformed, or never answered.
	CommandFailed CommandStatus = "failed"
)

// IsValid checks if the status is a valid CommandStatus.
func (s CommandStatus) IsValid() bool {
	switch s {
	case CommandPending, CommandSent, CommandCompleted, CommandFailed:
		return true
	}
	return false
}

// Command is one queued GPRS command. Commands are delivered in FIFO order
// the next time the device connects.
type Command struct {
	ID        uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	IMEI      string        `gorm:"index;not null;size:17" json:"imei"`
	Command   string        `gorm:"not null" json:"command"`
	Status    CommandStatus `gorm:"not null;default:pending;size:16" json:"status"`
	CreatedAt string        `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName returns the table name for Command.
func (Command) TableName() string {
	return "command_queue"
}
