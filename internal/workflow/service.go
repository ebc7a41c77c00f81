package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"curalink.org/internal/ids"
)

// ExpertResolver maps a health expert identifier to the platform user account
// authorized to act on the expert's behalf. Returns an empty user id for
// experts without an account.
type ExpertResolver func(ctx context.Context, expertID string) (string, error)

// Service runs the meeting-request and connection state machines on top of a
// Store. All transition checks happen before any write; a rejected attempt
// never mutates stored state.
type Service struct {
	store         Store
	resolveExpert ExpertResolver
	now           func() time.Time
}

// NewService constructs a Service. The resolver may be nil, in which case no
// meeting request can ever be responded to (no authorized representative).
func NewService(store Store, resolver ExpertResolver) *Service {
	return &Service{store: store, resolveExpert: resolver, now: time.Now}
}

// CreateMeetingRequest opens a meeting request in the pending state.
func (s *Service) CreateMeetingRequest(ctx context.Context, requesterID, expertID, message, contactName, contactInfo string) (MeetingRequest, error) {
	if strings.TrimSpace(requesterID) == "" || strings.TrimSpace(expertID) == "" {
		return MeetingRequest{}, ErrInvalidInput
	}
	if strings.TrimSpace(contactName) == "" || strings.TrimSpace(contactInfo) == "" {
		return MeetingRequest{}, ErrInvalidInput
	}

	var expertUserID string
	if s.resolveExpert != nil {
		id, err := s.resolveExpert(ctx, expertID)
		if err != nil {
			return MeetingRequest{}, err
		}
		expertUserID = id
	}

	now := s.now().UTC()
	req := MeetingRequest{
		ID:           ids.New(),
		RequesterID:  requesterID,
		ExpertID:     expertID,
		ExpertUserID: expertUserID,
		Message:      message,
		ContactName:  contactName,
		ContactInfo:  contactInfo,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertMeeting(ctx, &req); err != nil {
		return MeetingRequest{}, err
	}
	return req, nil
}

// RespondToMeeting moves a pending meeting request to approved or rejected.
func (s *Service) RespondToMeeting(ctx context.Context, id, actorID string, target Status) (MeetingRequest, error) {
	req, err := s.store.FindMeeting(ctx, id)
	if err != nil {
		return MeetingRequest{}, err
	}
	if err := CanRespondToMeeting(*req, actorID, target); err != nil {
		return MeetingRequest{}, err
	}
	if err := s.store.UpdateMeetingStatus(ctx, id, target); err != nil {
		return MeetingRequest{}, err
	}
	req.Status = target
	req.UpdatedAt = s.now().UTC()
	return *req, nil
}

// ListMeetings returns meeting requests the user participates in, either as
// requester or as the expert's representative.
func (s *Service) ListMeetings(ctx context.Context, userID string) ([]MeetingRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.ListMeetingsByUser(ctx, userID)
}

// CreateConnection opens a directed connection request in the pending state.
// A second request for the same ordered pair fails whatever the first one's
// state; the relationship history stays auditable rather than resettable.
func (s *Service) CreateConnection(ctx context.Context, requesterID, receiverID string) (Connection, error) {
	requesterID = strings.TrimSpace(requesterID)
	receiverID = strings.TrimSpace(receiverID)
	if requesterID == "" || receiverID == "" || requesterID == receiverID {
		return Connection{}, ErrInvalidInput
	}
	if _, err := s.store.FindConnectionPair(ctx, requesterID, receiverID); err == nil {
		return Connection{}, ErrDuplicateRelationship
	} else if !errors.Is(err, ErrNotFound) {
		return Connection{}, err
	}

	now := s.now().UTC()
	conn := Connection{
		ID:          ids.New(),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertConnection(ctx, &conn); err != nil {
		return Connection{}, err
	}
	return conn, nil
}

// RespondToConnection moves a pending connection to accepted or rejected.
func (s *Service) RespondToConnection(ctx context.Context, id, actorID string, target Status) (Connection, error) {
	conn, err := s.store.FindConnection(ctx, id)
	if err != nil {
		return Connection{}, err
	}
	if err := CanRespondToConnection(*conn, actorID, target); err != nil {
		return Connection{}, err
	}
	if err := s.store.UpdateConnectionStatus(ctx, id, target); err != nil {
		return Connection{}, err
	}
	conn.Status = target
	conn.UpdatedAt = s.now().UTC()
	return *conn, nil
}

// ListConnections returns connections the user participates in, in either
// direction.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.ListConnectionsByUser(ctx, userID)
}
