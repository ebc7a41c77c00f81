package workflow

import (
	"context"
	"sync"
)

// InMemoryStore implements Store with in-process concurrency safety.
type InMemoryStore struct {
	mu          sync.RWMutex
	meetings    map[string]*MeetingRequest
	meetingSeq  []string
	connections map[string]*Connection
	connSeq     []string
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		meetings:    make(map[string]*MeetingRequest),
		connections: make(map[string]*Connection),
	}
}

func (s *InMemoryStore) InsertMeeting(ctx context.Context, req *MeetingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *req
	s.meetings[req.ID] = &stored
	s.meetingSeq = append(s.meetingSeq, req.ID)
	return nil
}

func (s *InMemoryStore) FindMeeting(ctx context.Context, id string) (*MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.meetings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *InMemoryStore) UpdateMeetingStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.meetings[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	return nil
}

func (s *InMemoryStore) ListMeetingsByUser(ctx context.Context, userID string) ([]MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MeetingRequest
	for _, id := range s.meetingSeq {
		req := s.meetings[id]
		if req.RequesterID == userID || req.ExpertUserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *InMemoryStore) InsertConnection(ctx context.Context, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.connections {
		if existing.RequesterID == conn.RequesterID && existing.ReceiverID == conn.ReceiverID {
			return ErrDuplicateRelationship
		}
	}
	stored := *conn
	s.connections[conn.ID] = &stored
	s.connSeq = append(s.connSeq, conn.ID)
	return nil
}

func (s *InMemoryStore) FindConnection(ctx context.Context, id string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.connections[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *conn
	return &out, nil
}

func (s *InMemoryStore) FindConnectionPair(ctx context.Context, requesterID, receiverID string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conn := range s.connections {
		if conn.RequesterID == requesterID && conn.ReceiverID == receiverID {
			out := *conn
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) UpdateConnectionStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[id]
	if !ok {
		return ErrNotFound
	}
	conn.Status = status
	return nil
}

func (s *InMemoryStore) ListConnectionsByUser(ctx context.Context, userID string) ([]Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Connection
	for _, id := range s.connSeq {
		conn := s.connections[id]
		if conn.RequesterID == userID || conn.ReceiverID == userID {
			out = append(out, *conn)
		}
	}
	return out, nil
}
