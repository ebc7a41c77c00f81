package workflow

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service {
	resolver := func(ctx context.Context, expertID string) (string, error) {
		if expertID == "exp-registered" {
			return "user-expert", nil
		}
		return "", nil
	}
	return NewService(NewInMemoryStore(), resolver)
}

// brokenPairStore fails the pair lookup the way a dropped connection would.
type brokenPairStore struct {
	*InMemoryStore
	findErr error
}

func (s *brokenPairStore) FindConnectionPair(ctx context.Context, requesterID, receiverID string) (*Connection, error) {
	return nil, s.findErr
}

func TestCreateConnectionPropagatesLookupFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	svc := NewService(&brokenPairStore{InMemoryStore: NewInMemoryStore(), findErr: storeErr}, nil)

	if _, err := svc.CreateConnection(context.Background(), "u1", "u2"); !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error to propagate, got %v", err)
	}

	conns, err := svc.ListConnections(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(conns) != 0 {
		t.Fatalf("failed pre-check must not insert, got %d records", len(conns))
	}
}

func TestMeetingRequestLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMeetingRequest(ctx, "user-patient", "exp-registered", "about trial NCT001", "Jane Doe", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateMeetingRequest: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("new request should be pending, got %s", req.Status)
	}
	if req.ExpertUserID != "user-expert" {
		t.Fatalf("expert account not resolved: %q", req.ExpertUserID)
	}

	approved, err := svc.RespondToMeeting(ctx, req.ID, "user-expert", StatusApproved)
	if err != nil {
		t.Fatalf("RespondToMeeting: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMeetingRequest(ctx, "user-patient", "exp-registered", "", "Jane", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateMeetingRequest: %v", err)
	}
	if _, err := svc.RespondToMeeting(ctx, req.ID, "user-expert", StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	for _, target := range []Status{StatusApproved, StatusRejected, StatusPending} {
		if _, err := svc.RespondToMeeting(ctx, req.ID, "user-expert", target); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("transition out of rejected to %s: expected ErrInvalidTransition, got %v", target, err)
		}
	}

	// The failed attempts must not have moved the record.
	stored, err := svc.store.FindMeeting(ctx, req.ID)
	if err != nil {
		t.Fatalf("FindMeeting: %v", err)
	}
	if stored.Status != StatusRejected {
		t.Fatalf("stored status changed after rejected transitions: %s", stored.Status)
	}
}

func TestOnlyRepresentativeMayRespond(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMeetingRequest(ctx, "user-patient", "exp-registered", "", "Jane", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateMeetingRequest: %v", err)
	}
	if _, err := svc.RespondToMeeting(ctx, req.ID, "user-patient", StatusApproved); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("requester responding: expected ErrNotPermitted, got %v", err)
	}
	if _, err := svc.RespondToMeeting(ctx, req.ID, "user-stranger", StatusApproved); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("stranger responding: expected ErrNotPermitted, got %v", err)
	}
}

func TestUnresolvedExpertCannotBeResponded(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMeetingRequest(ctx, "user-patient", "exp-offline", "", "Jane", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateMeetingRequest: %v", err)
	}
	if req.ExpertUserID != "" {
		t.Fatalf("expected no resolved account, got %q", req.ExpertUserID)
	}
	if _, err := svc.RespondToMeeting(ctx, req.ID, "user-expert", StatusApproved); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestConnectionDuplicatePairRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	conn, err := svc.CreateConnection(ctx, "res-a", "res-b")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := svc.RespondToConnection(ctx, conn.ID, "res-b", StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Rejection does not free the ordered pair for a retry.
	if _, err := svc.CreateConnection(ctx, "res-a", "res-b"); !errors.Is(err, ErrDuplicateRelationship) {
		t.Fatalf("expected ErrDuplicateRelationship, got %v", err)
	}

	// The reverse direction is a distinct pair.
	if _, err := svc.CreateConnection(ctx, "res-b", "res-a"); err != nil {
		t.Fatalf("reverse direction should be allowed: %v", err)
	}
}

func TestConnectionSelfRequestRejected(t *testing.T) {
	svc := newTestService()
	if _, err := svc.CreateConnection(context.Background(), "res-a", "res-a"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConnectionOnlyReceiverResponds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	conn, err := svc.CreateConnection(ctx, "res-a", "res-b")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := svc.RespondToConnection(ctx, conn.ID, "res-a", StatusAccepted); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("requester accepting own request: expected ErrNotPermitted, got %v", err)
	}
	if _, err := svc.RespondToConnection(ctx, conn.ID, "res-b", StatusApproved); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approved is not a connection state: expected ErrInvalidTransition, got %v", err)
	}
	got, err := svc.RespondToConnection(ctx, conn.ID, "res-b", StatusAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
}

func TestListScopesToParticipants(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateConnection(ctx, "res-a", "res-b"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := svc.CreateConnection(ctx, "res-c", "res-d"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	mine, err := svc.ListConnections(ctx, "res-b")
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(mine) != 1 || mine[0].RequesterID != "res-a" {
		t.Fatalf("unexpected listing for res-b: %+v", mine)
	}
	none, err := svc.ListConnections(ctx, "res-x")
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty listing, got %d", len(none))
	}
}
