package events

import "time"

type Type string

const (
	TypeLog           Type = "log"
	TypeProgress      Type = "progress"
	TypeBatchStart    Type = "batch_start"
	TypeBatchProgress Type = "batch_progress"
	TypeBatchComplete Type = "batch_complete"
)

// Event is the wire message relayed between participants: automation steps,
// batch runs and any connected observer all share this shape.
type Event struct {
	Type    Type      `json:"type"`
	Message string    `json:"message,omitempty"`
	Date    time.Time `json:"date"`

	// Target names the portal or capability the message concerns.
	Target string `json:"target,omitempty"`

	// Batch counters, set on batch_progress and batch_complete.
	Processed int `json:"processed,omitempty"`
	Total     int `json:"total,omitempty"`

	Data map[string]interface{} `json:"data,omitempty"`
}

func NewLog(target, message string) Event {
	return Event{Type: TypeLog, Target: target, Message: message, Date: time.Now()}
}

func NewProgress(target, message string) Event {
	return Event{Type: TypeProgress, Target: target, Message: message, Date: time.Now()}
}
