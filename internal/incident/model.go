package incident

import "time"

// Status tracks where an incident is in its lifecycle.
type Status string

const (
	// StatusNew means reported, not yet picked up
	StatusNew Status = "new"

	// StatusInProgress means currently being worked
	StatusInProgress Status = "in_progress"

	// StatusClosed means resolved
	StatusClosed Status = "closed"
)

// Valid reports whether s is one of the accepted status values.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Incident is a tracked issue record. ID and CreatedAt are assigned by the
// store at creation and never change afterwards.
type Incident struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}
