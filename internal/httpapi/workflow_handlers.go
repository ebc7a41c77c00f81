package httpapi

import (
	"net/http"
	"strings"

	"curalink.org/internal/audit"
	"curalink.org/internal/stream"
	"curalink.org/internal/workflow"
)

type createMeetingRequest struct {
	ExpertID    string `json:"expert_id"`
	Message     string `json:"message"`
	ContactName string `json:"contact_name"`
	ContactInfo string `json:"contact_info"`
}

type createConnectionRequest struct {
	ReceiverID string `json:"receiver_id"`
}

type respondRequest struct {
	Status string `json:"status"`
}

func (a *API) handleMeetingsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.workflows.ListMeetings(r.Context(), user.ID)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		if list == nil {
			list = []workflow.MeetingRequest{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createMeetingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		created, err := a.workflows.CreateMeetingRequest(r.Context(), user.ID,
			req.ExpertID, req.Message, req.ContactName, req.ContactInfo)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventMeetingRequested, map[string]any{
			"meeting_id": created.ID, "expert_id": created.ExpertID,
		})
		a.publish(stream.Event{Type: stream.TypeMeetingRequested, ActorID: user.ID, ItemID: created.ID})
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleMeetingResource serves POST /api/meeting-requests/{id}/respond.
func (a *API) handleMeetingResource(w http.ResponseWriter, r *http.Request) {
	id, ok := respondID(w, r, "/api/meeting-requests/")
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	target, ok := a.decodeRespondStatus(w, r)
	if !ok {
		return
	}
	updated, err := a.workflows.RespondToMeeting(r.Context(), id, user.ID, target)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventMeetingResolved, map[string]any{
		"meeting_id": updated.ID, "status": string(updated.Status),
	})
	a.publish(stream.Event{
		Type: stream.TypeMeetingResolved, ActorID: user.ID,
		ItemID: updated.ID, Status: string(updated.Status),
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleConnectionsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.workflows.ListConnections(r.Context(), user.ID)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		if list == nil {
			list = []workflow.Connection{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createConnectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		created, err := a.workflows.CreateConnection(r.Context(), user.ID, req.ReceiverID)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventConnectionOpened, map[string]any{
			"connection_id": created.ID, "receiver_id": created.ReceiverID,
		})
		a.publish(stream.Event{Type: stream.TypeConnectionOpened, ActorID: user.ID, ItemID: created.ID})
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleConnectionResource serves POST /api/connections/{id}/respond.
func (a *API) handleConnectionResource(w http.ResponseWriter, r *http.Request) {
	id, ok := respondID(w, r, "/api/connections/")
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	target, ok := a.decodeRespondStatus(w, r)
	if !ok {
		return
	}
	updated, err := a.workflows.RespondToConnection(r.Context(), id, user.ID, target)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventConnectionResolved, map[string]any{
		"connection_id": updated.ID, "status": string(updated.Status),
	})
	a.publish(stream.Event{
		Type: stream.TypeConnectionResolved, ActorID: user.ID,
		ItemID: updated.ID, Status: string(updated.Status),
	})
	writeJSON(w, http.StatusOK, updated)
}

func respondID(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return "", false
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, found := strings.CutSuffix(rest, "/respond")
	if !found || id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return "", false
	}
	return id, true
}

func (a *API) decodeRespondStatus(w http.ResponseWriter, r *http.Request) (workflow.Status, bool) {
	var req respondRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
		return "", false
	}
	status, err := workflow.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, reasonValidation, "unknown status")
		return "", false
	}
	return status, true
}
