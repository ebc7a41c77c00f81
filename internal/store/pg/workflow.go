package pg

import (
	"context"
	"database/sql"
	"errors"

	"curalink.org/internal/workflow"
)

// Workflows exposes the meeting_requests and connections tables as a
// workflow.Store. The unique(requester_id, receiver_id) constraint enforces
// the one-record-per-ordered-pair rule whatever the row's status.
type Workflows struct {
	store *Store
}

var _ workflow.Store = (*Workflows)(nil)

func (s *Store) Workflows() *Workflows { return &Workflows{store: s} }

func (w *Workflows) InsertMeeting(ctx context.Context, req *workflow.MeetingRequest) error {
	_, err := w.store.db.ExecContext(ctx, `
		insert into meeting_requests(id, requester_id, expert_id, expert_user_id, message, contact_name, contact_info, status, created_at, updated_at)
		values ($1,$2,$3,nullif($4,''),$5,$6,$7,$8,$9,$10)
	`, req.ID, req.RequesterID, req.ExpertID, req.ExpertUserID, req.Message,
		req.ContactName, req.ContactInfo, string(req.Status), req.CreatedAt, req.UpdatedAt)
	return err
}

func (w *Workflows) FindMeeting(ctx context.Context, id string) (*workflow.MeetingRequest, error) {
	row := w.store.db.QueryRowContext(ctx, `
		select id, requester_id, expert_id, coalesce(expert_user_id,''), message, contact_name, contact_info, status, created_at, updated_at
		from meeting_requests where id=$1
	`, id)
	return scanMeeting(row.Scan)
}

func (w *Workflows) UpdateMeetingStatus(ctx context.Context, id string, status workflow.Status) error {
	res, err := w.store.db.ExecContext(ctx, `
		update meeting_requests set status=$2, updated_at=now() where id=$1
	`, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (w *Workflows) ListMeetingsByUser(ctx context.Context, userID string) ([]workflow.MeetingRequest, error) {
	rows, err := w.store.db.QueryContext(ctx, `
		select id, requester_id, expert_id, coalesce(expert_user_id,''), message, contact_name, contact_info, status, created_at, updated_at
		from meeting_requests
		where requester_id=$1 or expert_user_id=$1
		order by created_at asc, id asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workflow.MeetingRequest
	for rows.Next() {
		req, err := scanMeeting(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (w *Workflows) InsertConnection(ctx context.Context, conn *workflow.Connection) error {
	_, err := w.store.db.ExecContext(ctx, `
		insert into connections(id, requester_id, receiver_id, status, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6)
	`, conn.ID, conn.RequesterID, conn.ReceiverID, string(conn.Status), conn.CreatedAt, conn.UpdatedAt)
	if isUniqueViolation(err) {
		return workflow.ErrDuplicateRelationship
	}
	return err
}

func (w *Workflows) FindConnection(ctx context.Context, id string) (*workflow.Connection, error) {
	row := w.store.db.QueryRowContext(ctx, `
		select id, requester_id, receiver_id, status, created_at, updated_at
		from connections where id=$1
	`, id)
	return scanConnection(row.Scan)
}

func (w *Workflows) FindConnectionPair(ctx context.Context, requesterID, receiverID string) (*workflow.Connection, error) {
	row := w.store.db.QueryRowContext(ctx, `
		select id, requester_id, receiver_id, status, created_at, updated_at
		from connections where requester_id=$1 and receiver_id=$2
	`, requesterID, receiverID)
	return scanConnection(row.Scan)
}

func (w *Workflows) UpdateConnectionStatus(ctx context.Context, id string, status workflow.Status) error {
	res, err := w.store.db.ExecContext(ctx, `
		update connections set status=$2, updated_at=now() where id=$1
	`, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (w *Workflows) ListConnectionsByUser(ctx context.Context, userID string) ([]workflow.Connection, error) {
	rows, err := w.store.db.QueryContext(ctx, `
		select id, requester_id, receiver_id, status, created_at, updated_at
		from connections
		where requester_id=$1 or receiver_id=$1
		order by created_at asc, id asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workflow.Connection
	for rows.Next() {
		conn, err := scanConnection(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *conn)
	}
	return out, rows.Err()
}

func scanMeeting(scan func(...any) error) (*workflow.MeetingRequest, error) {
	var req workflow.MeetingRequest
	var status string
	err := scan(&req.ID, &req.RequesterID, &req.ExpertID, &req.ExpertUserID, &req.Message,
		&req.ContactName, &req.ContactInfo, &status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Status = workflow.Status(status)
	return &req, nil
}

func scanConnection(scan func(...any) error) (*workflow.Connection, error) {
	var conn workflow.Connection
	var status string
	err := scan(&conn.ID, &conn.RequesterID, &conn.ReceiverID, &status, &conn.CreatedAt, &conn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	conn.Status = workflow.Status(status)
	return &conn, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return workflow.ErrNotFound
	}
	return nil
}
