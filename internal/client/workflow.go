package client

import (
	"context"
	"net/http"
	"net/url"

	"curalink.org/internal/ids"
	"curalink.org/internal/workflow"
)

// RequestMeeting asks a health expert for a consultation.
func (c *Client) RequestMeeting(ctx context.Context, expertID, message, contactName, contactInfo string) (workflow.MeetingRequest, error) {
	if expertID == "" {
		return workflow.MeetingRequest{}, opErr("request meeting", ErrValidation, "expert id is required")
	}
	if contactName == "" || contactInfo == "" {
		return workflow.MeetingRequest{}, opErr("request meeting", ErrValidation, "contact name and info are required")
	}
	var out workflow.MeetingRequest
	err := c.call(ctx, "request meeting", http.MethodPost, "/api/meeting-requests", nil, map[string]string{
		"expert_id":    expertID,
		"message":      message,
		"contact_name": contactName,
		"contact_info": contactInfo,
	}, &out)
	if err != nil {
		return workflow.MeetingRequest{}, err
	}
	return out, nil
}

// ListMeetings returns meeting requests the caller participates in.
func (c *Client) ListMeetings(ctx context.Context) ([]workflow.MeetingRequest, error) {
	var out []workflow.MeetingRequest
	if err := c.call(ctx, "list meetings", http.MethodGet, "/api/meeting-requests", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RespondToMeeting approves or rejects a pending meeting request. The target
// state is checked against the state machine locally before any network call.
func (c *Client) RespondToMeeting(ctx context.Context, id string, target workflow.Status) (workflow.MeetingRequest, error) {
	if !ids.Valid(id) {
		return workflow.MeetingRequest{}, opErr("respond to meeting", ErrValidation, "malformed meeting request id")
	}
	if target != workflow.StatusApproved && target != workflow.StatusRejected {
		return workflow.MeetingRequest{}, opErr("respond to meeting", ErrValidation, "target must be approved or rejected")
	}
	var out workflow.MeetingRequest
	path := "/api/meeting-requests/" + url.PathEscape(id) + "/respond"
	err := c.call(ctx, "respond to meeting", http.MethodPost, path, nil, map[string]string{
		"status": string(target),
	}, &out)
	if err != nil {
		return workflow.MeetingRequest{}, err
	}
	return out, nil
}

// Connect opens a connection request toward another researcher. Requesting a
// connection to oneself fails locally when the identity is known.
func (c *Client) Connect(ctx context.Context, receiverID string) (workflow.Connection, error) {
	if receiverID == "" {
		return workflow.Connection{}, opErr("connect", ErrValidation, "receiver id is required")
	}
	if me := c.identitySnapshot(); me != nil && me.ID == receiverID {
		return workflow.Connection{}, opErr("connect", ErrValidation, "cannot connect to yourself")
	}
	var out workflow.Connection
	err := c.call(ctx, "connect", http.MethodPost, "/api/connections", nil, map[string]string{
		"receiver_id": receiverID,
	}, &out)
	if err != nil {
		return workflow.Connection{}, err
	}
	return out, nil
}

// ListConnections returns connections the caller participates in.
func (c *Client) ListConnections(ctx context.Context) ([]workflow.Connection, error) {
	var out []workflow.Connection
	if err := c.call(ctx, "list connections", http.MethodGet, "/api/connections", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RespondToConnection accepts or rejects a pending connection request.
func (c *Client) RespondToConnection(ctx context.Context, id string, target workflow.Status) (workflow.Connection, error) {
	if !ids.Valid(id) {
		return workflow.Connection{}, opErr("respond to connection", ErrValidation, "malformed connection id")
	}
	if target != workflow.StatusAccepted && target != workflow.StatusRejected {
		return workflow.Connection{}, opErr("respond to connection", ErrValidation, "target must be accepted or rejected")
	}
	var out workflow.Connection
	path := "/api/connections/" + url.PathEscape(id) + "/respond"
	err := c.call(ctx, "respond to connection", http.MethodPost, path, nil, map[string]string{
		"status": string(target),
	}, &out)
	if err != nil {
		return workflow.Connection{}, err
	}
	return out, nil
}
