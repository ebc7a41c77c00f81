package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"curalink.org/internal/auth"
	"curalink.org/internal/directory"
	"curalink.org/internal/favorites"
	"curalink.org/internal/forum"
	"curalink.org/internal/stream"
	"curalink.org/internal/workflow"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) (*apiClient, *directory.InMemory) {
	t.Helper()

	t.Setenv("CURALINK_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	dir := directory.NewInMemory()
	users := auth.NewService(auth.NewInMemoryUsers())
	flows := workflow.NewService(workflow.NewInMemoryStore(), func(ctx context.Context, expertID string) (string, error) {
		uid, err := dir.ExpertUserID(ctx, expertID)
		if err != nil {
			return "", workflow.ErrInvalidInput
		}
		return uid, nil
	})

	api := New(ReadyProbe{}, "test", users, dir,
		favorites.NewService(favorites.NewInMemoryStore()), flows,
		forum.NewService(forum.NewInMemoryStore()), stream.New())
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, client: srv.Client(), t: t}, dir
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u := c.baseURL + path
	if params != nil {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) register(email, role string) tokenResponse {
	c.t.Helper()
	resp := c.post("/api/auth/register", map[string]any{
		"email":    email,
		"password": "long-enough-secret",
		"role":     role,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register %s: unexpected status %d", email, resp.StatusCode)
	}
	payload := decode[tokenResponse](c.t, resp)
	if payload.AccessToken == "" {
		c.t.Fatalf("register %s: empty token", email)
	}
	return payload
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestRegisterLoginMeFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	reg := api.register("jane@example.com", "patient")

	// Login is form-encoded per the OAuth2 password flow.
	form := url.Values{"username": {"jane@example.com"}, "password": {"long-enough-secret"}}
	req, err := http.NewRequest(http.MethodPost, api.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	login := decode[tokenResponse](t, resp)
	if login.User.ID != reg.User.ID {
		t.Fatalf("login returned different user: %s vs %s", login.User.ID, reg.User.ID)
	}

	resp = api.get("/api/auth/me", nil, bearerHeader(login.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status: %d", resp.StatusCode)
	}
	me := decode[auth.User](t, resp)
	if me.Email != "jane@example.com" || me.Role != auth.RolePatient {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api, _ := newTestAPI(t)
	api.register("jane@example.com", "patient")

	form := url.Values{"username": {"jane@example.com"}, "password": {"wrong-password"}}
	req, _ := http.NewRequest(http.MethodPost, api.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["reason"] != reasonUnauthenticated {
		t.Fatalf("expected unauthenticated reason, got %v", body["reason"])
	}
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.get("/api/favorites", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Catalog reads stay public.
	resp2 := api.get("/api/trials", nil, nil)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected public trials search, got %d", resp2.StatusCode)
	}
}

func TestFavoritesAddIsIdempotentOverHTTP(t *testing.T) {
	api, _ := newTestAPI(t)
	reg := api.register("jane@example.com", "patient")
	hdr := bearerHeader(reg.AccessToken)

	body := map[string]any{"item_type": "trial", "item_id": "NCT001"}
	resp := api.post("/api/favorites", body, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first add status: %d", resp.StatusCode)
	}
	first := decode[favorites.Favorite](t, resp)

	resp = api.post("/api/favorites", body, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second add status: %d", resp.StatusCode)
	}
	second := decode[favorites.Favorite](t, resp)
	if first.ID != second.ID {
		t.Fatalf("re-add returned different record: %s vs %s", first.ID, second.ID)
	}

	resp = api.get("/api/favorites", nil, hdr)
	list := decode[[]favorites.Favorite](t, resp)
	if len(list) != 1 {
		t.Fatalf("expected one favorite, got %d", len(list))
	}

	resp = api.do(http.MethodDelete, "/api/favorites/"+first.ID, nil, hdr)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	resp = api.do(http.MethodDelete, "/api/favorites/"+first.ID, nil, hdr)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status: %d", resp.StatusCode)
	}
}

func TestFavoritesRejectUnknownItemType(t *testing.T) {
	api, _ := newTestAPI(t)
	reg := api.register("jane@example.com", "patient")

	resp := api.post("/api/favorites", map[string]any{"item_type": "forum", "item_id": "x"}, bearerHeader(reg.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["reason"] != reasonValidation {
		t.Fatalf("expected validation_failed reason, got %v", body["reason"])
	}
}

func TestForumReplyRequiresResearcher(t *testing.T) {
	api, _ := newTestAPI(t)
	patient := api.register("pat@example.com", "patient")
	researcher := api.register("res@example.com", "researcher")

	// Patients may not open forums.
	resp := api.post("/api/forums", map[string]any{"title": "Diabetes"}, bearerHeader(patient.AccessToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient forum create: expected 403, got %d", resp.StatusCode)
	}

	resp = api.post("/api/forums", map[string]any{"title": "Diabetes"}, bearerHeader(researcher.AccessToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("forum create status: %d", resp.StatusCode)
	}
	f := decode[forum.Forum](t, resp)

	resp = api.post("/api/forums/posts", map[string]any{
		"forum_id": f.ID, "title": "Question", "content": "Eligibility?",
	}, bearerHeader(patient.AccessToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("patient post status: %d", resp.StatusCode)
	}
	p := decode[forum.Post](t, resp)

	resp = api.post("/api/forums/replies", map[string]any{
		"post_id": p.ID, "content": "I think so",
	}, bearerHeader(patient.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient reply: expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["reason"] != reasonForbidden {
		t.Fatalf("expected forbidden reason, got %v", body["reason"])
	}

	resp = api.post("/api/forums/replies", map[string]any{
		"post_id": p.ID, "content": "Yes, through December.",
	}, bearerHeader(researcher.AccessToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("researcher reply status: %d", resp.StatusCode)
	}
}

func TestConnectionDuplicatePairConflicts(t *testing.T) {
	api, _ := newTestAPI(t)
	alice := api.register("alice@example.com", "researcher")
	bob := api.register("bob@example.com", "researcher")

	resp := api.post("/api/connections", map[string]any{"receiver_id": bob.User.ID}, bearerHeader(alice.AccessToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create connection status: %d", resp.StatusCode)
	}
	conn := decode[workflow.Connection](t, resp)

	// Receiver rejects.
	resp = api.post("/api/connections/"+conn.ID+"/respond", map[string]any{"status": "rejected"}, bearerHeader(bob.AccessToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("respond status: %d", resp.StatusCode)
	}

	// Rejection does not allow a retry of the same pair.
	resp = api.post("/api/connections", map[string]any{"receiver_id": bob.User.ID}, bearerHeader(alice.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate pair: expected 409, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["reason"] != reasonDuplicate {
		t.Fatalf("expected duplicate_relationship reason, got %v", body["reason"])
	}
}

func TestMeetingRespondAuthorization(t *testing.T) {
	api, dir := newTestAPI(t)
	patient := api.register("pat@example.com", "patient")
	expertAccount := api.register("doc@example.com", "researcher")

	expert, err := dir.AddExpert(context.Background(), directory.HealthExpert{
		FullName: "Dr. Example", UserID: expertAccount.User.ID,
	})
	if err != nil {
		t.Fatalf("AddExpert: %v", err)
	}

	resp := api.post("/api/meeting-requests", map[string]any{
		"expert_id": expert.ID, "contact_name": "Jane", "contact_info": "jane@example.com",
	}, bearerHeader(patient.AccessToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create meeting status: %d", resp.StatusCode)
	}
	req := decode[workflow.MeetingRequest](t, resp)

	// The requester cannot approve their own request.
	resp = api.post("/api/meeting-requests/"+req.ID+"/respond", map[string]any{"status": "approved"}, bearerHeader(patient.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("requester respond: expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["reason"] != reasonForbidden {
		t.Fatalf("expected forbidden reason, got %v", body["reason"])
	}

	resp = api.post("/api/meeting-requests/"+req.ID+"/respond", map[string]any{"status": "approved"}, bearerHeader(expertAccount.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expert respond status: %d", resp.StatusCode)
	}
	updated := decode[workflow.MeetingRequest](t, resp)
	if updated.Status != workflow.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	// Terminal state stays put.
	resp = api.post("/api/meeting-requests/"+req.ID+"/respond", map[string]any{"status": "rejected"}, bearerHeader(expertAccount.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("terminal transition: expected 409, got %d", resp.StatusCode)
	}
	conflict := decode[map[string]any](t, resp)
	if conflict["reason"] != reasonInvalidTransition {
		t.Fatalf("expected invalid_transition reason, got %v", conflict["reason"])
	}
}

func TestTrialCreateRequiresResearcher(t *testing.T) {
	api, _ := newTestAPI(t)
	patient := api.register("pat@example.com", "patient")

	resp := api.post("/api/trials", map[string]any{
		"id": "NCT100", "title": "Trial", "status": "recruiting",
	}, bearerHeader(patient.AccessToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
