package workflow

import "context"

// Store describes persistence for the two workflows. InsertConnection must
// fail with ErrDuplicateRelationship when the ordered (requester, receiver)
// pair already exists in any state; the database mirrors this with a unique
// constraint.
type Store interface {
	InsertMeeting(ctx context.Context, req *MeetingRequest) error
	FindMeeting(ctx context.Context, id string) (*MeetingRequest, error)
	UpdateMeetingStatus(ctx context.Context, id string, status Status) error
	ListMeetingsByUser(ctx context.Context, userID string) ([]MeetingRequest, error)

	InsertConnection(ctx context.Context, conn *Connection) error
	FindConnection(ctx context.Context, id string) (*Connection, error)
	FindConnectionPair(ctx context.Context, requesterID, receiverID string) (*Connection, error)
	UpdateConnectionStatus(ctx context.Context, id string, status Status) error
	ListConnectionsByUser(ctx context.Context, userID string) ([]Connection, error)
}
