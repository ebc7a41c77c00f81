package workflow

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a status-bearing relationship. Pending is
// the only initial state; every other state is absorbing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusAccepted Status = "accepted"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.TrimSpace(strings.ToLower(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusAccepted:
		return StatusAccepted, nil
	default:
		return "", ErrInvalidInput
	}
}

// Terminal reports whether no further transition may leave the state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusAccepted
}

// MeetingRequest is a patient's ask to consult a health expert. ExpertUserID
// is the platform account authorized to respond on the expert's behalf; it is
// resolved at creation time and may be empty for experts without an account.
type MeetingRequest struct {
	ID           string    `json:"id"`
	RequesterID  string    `json:"requester_id"`
	ExpertID     string    `json:"expert_id"`
	ExpertUserID string    `json:"expert_user_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	ContactName  string    `json:"contact_name"`
	ContactInfo  string    `json:"contact_info"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Connection is a directed researcher-to-researcher relationship request.
// At most one record may exist per ordered (requester, receiver) pair,
// whatever its state; direction records who initiated.
type Connection struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	ReceiverID  string    `json:"receiver_id"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrNotFound              = errors.New("workflow: not found")
	ErrInvalidInput          = errors.New("workflow: invalid input")
	ErrInvalidTransition     = errors.New("workflow: invalid transition")
	ErrNotPermitted          = errors.New("workflow: actor not permitted")
	ErrDuplicateRelationship = errors.New("workflow: relationship already exists")
)

var (
	meetingTransitions = map[Status][]Status{
		StatusPending: {StatusApproved, StatusRejected},
	}
	connectionTransitions = map[Status][]Status{
		StatusPending: {StatusAccepted, StatusRejected},
	}
)

func allowed(table map[Status][]Status, from, to Status) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanRespondToMeeting checks the transition of a meeting request without
// touching storage. Actor violations and state violations fail differently so
// callers can surface forbidden versus conflict.
func CanRespondToMeeting(req MeetingRequest, actorID string, target Status) error {
	if actorID == "" || req.ExpertUserID == "" || actorID != req.ExpertUserID {
		return ErrNotPermitted
	}
	if !allowed(meetingTransitions, req.Status, target) {
		return ErrInvalidTransition
	}
	return nil
}

// CanRespondToConnection checks the transition of a connection request
// without touching storage. Only the receiver may resolve it.
func CanRespondToConnection(conn Connection, actorID string, target Status) error {
	if actorID == "" || actorID != conn.ReceiverID {
		return ErrNotPermitted
	}
	if !allowed(connectionTransitions, conn.Status, target) {
		return ErrInvalidTransition
	}
	return nil
}
