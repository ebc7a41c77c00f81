package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"curalink.org/internal/auth"
	"curalink.org/internal/directory"
	"curalink.org/internal/favorites"
	"curalink.org/internal/forum"
	"curalink.org/internal/obs"
	"curalink.org/internal/stream"
	"curalink.org/internal/workflow"
)

// Machine-readable reason codes attached to every error body. Remote clients
// dispatch on these rather than on the human message.
const (
	reasonValidation        = "validation_failed"
	reasonUnauthenticated   = "unauthenticated"
	reasonForbidden         = "forbidden"
	reasonNotFound          = "not_found"
	reasonDuplicate         = "duplicate_relationship"
	reasonInvalidTransition = "invalid_transition"
	reasonMethodNotAllowed  = "method_not_allowed"
	reasonRateLimited       = "rate_limited"
	reasonInternal          = "internal_error"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the platform services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	users     *auth.Service
	directory directory.Service
	favorites *favorites.Service
	workflows *workflow.Service
	forums    *forum.Service
	stream    *stream.Stream

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, users *auth.Service, dir directory.Service,
	favs *favorites.Service, flows *workflow.Service, forums *forum.Service, st *stream.Stream) *API {

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		users:      users,
		directory:  dir,
		favorites:  favs,
		workflows:  flows,
		forums:     forums,
		stream:     st,
		rateBurst:  40,
		ratePerSec: 20,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	a.mux.HandleFunc("/api/patients/profile", a.handlePatientProfile)
	a.mux.HandleFunc("/api/researchers/profile", a.handleResearcherProfile)
	a.mux.HandleFunc("/api/researchers", a.handleResearcherSearch)

	a.mux.HandleFunc("/api/trials", a.handleTrialsCollection)
	a.mux.HandleFunc("/api/trials/", a.handleTrialResource)
	a.mux.HandleFunc("/api/publications", a.handlePublicationsCollection)
	a.mux.HandleFunc("/api/publications/", a.handlePublicationResource)
	a.mux.HandleFunc("/api/experts", a.handleExpertsCollection)
	a.mux.HandleFunc("/api/experts/", a.handleExpertResource)

	a.mux.HandleFunc("/api/favorites", a.handleFavoritesCollection)
	a.mux.HandleFunc("/api/favorites/", a.handleFavoriteResource)

	a.mux.HandleFunc("/api/forums", a.handleForumsCollection)
	a.mux.HandleFunc("/api/forums/posts", a.handlePostCreate)
	a.mux.HandleFunc("/api/forums/posts/", a.handlePostResource)
	a.mux.HandleFunc("/api/forums/replies", a.handleReplyCreate)
	a.mux.HandleFunc("/api/forums/", a.handleForumResource)

	a.mux.HandleFunc("/api/meeting-requests", a.handleMeetingsCollection)
	a.mux.HandleFunc("/api/meeting-requests/", a.handleMeetingResource)
	a.mux.HandleFunc("/api/connections", a.handleConnectionsCollection)
	a.mux.HandleFunc("/api/connections/", a.handleConnectionResource)

	a.mux.HandleFunc("/api/events", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "curalink-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, reason, msg string) {
	payload := map[string]any{
		"error":  msg,
		"reason": reason,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, reasonMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// currentUser returns the authenticated user or writes 401.
func currentUser(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonUnauthenticated, "authentication required")
	}
	return user, ok
}

// requireRole returns false and writes 403 when the user's role differs.
func requireRole(w http.ResponseWriter, r *http.Request, user auth.User, role auth.Role) bool {
	if user.Role != role {
		writeError(w, r, http.StatusForbidden, reasonForbidden, "requires "+string(role)+" role")
		return false
	}
	return true
}

func pageFromQuery(r *http.Request) directory.Page {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return directory.Page{Skip: skip, Limit: limit}
}

// --- error mapping per service ---

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, reasonUnauthenticated, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, reasonUnauthenticated, "invalid token")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "not found")
	case errors.Is(err, directory.ErrDuplicate):
		writeError(w, r, http.StatusConflict, reasonValidation, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}

func handleFavoritesError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, favorites.ErrInvalidItemType), errors.Is(err, favorites.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
	case errors.Is(err, favorites.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "favorite not found")
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}

func handleWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
	case errors.Is(err, workflow.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "not found")
	case errors.Is(err, workflow.ErrNotPermitted):
		writeError(w, r, http.StatusForbidden, reasonForbidden, "not permitted to respond")
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, reasonInvalidTransition, "transition not allowed from current state")
	case errors.Is(err, workflow.ErrDuplicateRelationship):
		writeError(w, r, http.StatusConflict, reasonDuplicate, "relationship already exists")
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}

func handleForumError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, forum.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
	case errors.Is(err, forum.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "not found")
	case errors.Is(err, forum.ErrNotPermitted):
		writeError(w, r, http.StatusForbidden, reasonForbidden, "only researchers may do this")
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}
