package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"curalink.org/internal/auth"
	"curalink.org/internal/favorites"
	"curalink.org/internal/workflow"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *MemStore) {
	t.Helper()
	store := NewMemStore()
	c, err := New(baseURL, WithCredentialStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, store
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func TestSearchSupersedesPrevious(t *testing.T) {
	firstStarted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keywords") == "cancer" {
			close(firstStarted)
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"NCT001","title":"Metformin in early diabetes","status":"recruiting"}]`)
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.SearchTrials(context.Background(), TrialFilter{Keywords: "cancer"})
		firstErr <- err
	}()
	<-firstStarted

	results, err := c.SearchTrials(context.Background(), TrialFilter{Keywords: "diabetes"})
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "NCT001" {
		t.Fatalf("unexpected second result: %+v", results)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("superseded search: expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search never returned")
	}
	if c.registry.Len() != 0 {
		t.Fatalf("registry not empty: %d entries", c.registry.Len())
	}
}

func TestUnauthenticatedResponseClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusUnauthorized,
		`{"error":"invalid token","reason":"unauthenticated"}`))
	defer srv.Close()

	c, store := newTestClient(t, srv.URL)
	if err := store.Save(Credentials{Token: "stale-token", IssuedAt: time.Now()}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.Token != "" {
		t.Fatalf("credentials not cleared after 401: %q", creds.Token)
	}
}

func TestLoginValidationStaysLocal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	if _, err := c.Login(context.Background(), "not-an-email", "secret"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := c.Login(context.Background(), "jane@example.com", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := c.Register(context.Background(), "jane@example.com", "short", auth.RolePatient); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("local validation reached the network %d times", n)
	}
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusInternalServerError,
		`{"error":"boom","reason":"internal_error"}`))
	defer srv.Close()

	c, store := newTestClient(t, srv.URL)
	_ = store.Save(Credentials{Token: "tok", IssuedAt: time.Now()})

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	creds, _ := store.Load()
	if creds.Token != "" {
		t.Fatalf("credentials survived logout: %q", creds.Token)
	}
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"validation", 400, `{"error":"bad","reason":"validation_failed"}`, ErrValidation},
		{"forbidden", 403, `{"error":"no","reason":"forbidden"}`, ErrForbidden},
		{"not found", 404, `{"error":"missing","reason":"not_found"}`, ErrNotFound},
		{"duplicate", 409, `{"error":"exists","reason":"duplicate_relationship"}`, ErrDuplicate},
		{"transition", 409, `{"error":"locked","reason":"invalid_transition"}`, ErrInvalidTransition},
		{"server error", 500, `{"error":"boom","reason":"internal_error"}`, ErrUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(tc.status, tc.body))
			defer srv.Close()
			c, _ := newTestClient(t, srv.URL)

			_, err := c.ListConnections(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
			var detail *Error
			if !errors.As(err, &detail) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if detail.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, detail.Status)
			}
		})
	}
}

func TestNetworkFailureIsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens any more

	c, _ := newTestClient(t, srv.URL)
	_, err := c.ListForums(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestIsFavoritedFailsSoft(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusInternalServerError,
		`{"error":"boom","reason":"internal_error"}`))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	if c.IsFavorited(context.Background(), favorites.ItemTrial, "NCT001") {
		t.Fatal("expected false when the lookup fails")
	}
}

func TestReplyPreCheckBlocksPatients(t *testing.T) {
	var replyHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","user":{"id":"u1","email":"pat@example.com","role":"patient"}}`)
			return
		}
		replyHits.Add(1)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	if _, err := c.Login(context.Background(), "pat@example.com", "long-enough"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.CreateReply(context.Background(), "post-1", "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if n := replyHits.Load(); n != 0 {
		t.Fatalf("pre-check should not reach the server, got %d hits", n)
	}
}

func TestRespondValidatesTargetLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	if _, err := c.RespondToMeeting(context.Background(), "m1", workflow.StatusAccepted); !errors.Is(err, ErrValidation) {
		t.Fatalf("accepted is not a meeting state: expected ErrValidation, got %v", err)
	}
	if _, err := c.RespondToConnection(context.Background(), "c1", workflow.StatusApproved); !errors.Is(err, ErrValidation) {
		t.Fatalf("approved is not a connection state: expected ErrValidation, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("local validation reached the network %d times", n)
	}
}

func TestConcurrentIdentityUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/me":
			fmt.Fprint(w, `{"id":"u1","email":"res@example.com","role":"researcher"}`)
		case "/api/auth/login":
			fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","user":{"id":"u1","email":"res@example.com","role":"researcher"}}`)
		default:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)
		}
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Me(context.Background()); err != nil {
				t.Errorf("Me: %v", err)
			}
			if _, err := c.Login(context.Background(), "res@example.com", "long-enough"); err != nil {
				t.Errorf("Login: %v", err)
			}
			// Readers of the cached identity race the writers above.
			if _, err := c.CreateReply(context.Background(), "post-1", "hello"); err != nil {
				t.Errorf("CreateReply: %v", err)
			}
			if _, err := c.Connect(context.Background(), "u2"); err != nil {
				t.Errorf("Connect: %v", err)
			}
		}()
	}
	wg.Wait()

	me := c.identitySnapshot()
	if me == nil || me.ID != "u1" {
		t.Fatalf("unexpected identity after concurrent calls: %+v", me)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c, store := newTestClient(t, srv.URL)
	_ = store.Save(Credentials{Token: "session-token", IssuedAt: time.Now()})

	if _, err := c.ListFavorites(context.Background(), ""); err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if gotAuth != "Bearer session-token" {
		t.Fatalf("unexpected Authorization header: %q", gotAuth)
	}
}
