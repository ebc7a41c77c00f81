package httpapi

import (
	"net/http"
	"strings"

	"curalink.org/internal/auth"
	"curalink.org/internal/directory"
)

func (a *API) handleTrialsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := directory.TrialQuery{
			Keywords: r.URL.Query().Get("keywords"),
			Location: r.URL.Query().Get("location"),
			Page:     pageFromQuery(r),
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := directory.ParseTrialStatus(raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, reasonValidation, "unknown trial status")
				return
			}
			q.Status = status
		}
		results, err := a.directory.SearchTrials(r.Context(), q)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodPost:
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		if !requireRole(w, r, user, auth.RoleResearcher) {
			return
		}
		var t directory.ClinicalTrial
		if err := decodeJSON(w, r, &t); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		t.CreatedBy = user.ID
		created, err := a.directory.CreateTrial(r.Context(), t)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/trials/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTrialResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := resourceID(r.URL.Path, "/api/trials/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "trial not found")
		return
	}
	t, err := a.directory.Trial(r.Context(), id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handlePublicationsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	results, err := a.directory.SearchPublications(r.Context(), directory.PublicationQuery{
		Keywords: r.URL.Query().Get("keywords"),
		Page:     pageFromQuery(r),
	})
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) handlePublicationResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := resourceID(r.URL.Path, "/api/publications/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "publication not found")
		return
	}
	p, err := a.directory.Publication(r.Context(), id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleExpertsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	results, err := a.directory.SearchExperts(r.Context(), directory.ExpertQuery{
		Specialty: r.URL.Query().Get("specialty"),
		Location:  r.URL.Query().Get("location"),
		Page:      pageFromQuery(r),
	})
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) handleExpertResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := resourceID(r.URL.Path, "/api/experts/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "expert not found")
		return
	}
	e, err := a.directory.Expert(r.Context(), id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// resourceID extracts the trailing identifier from a resource path. Returns
// empty on nested paths.
func resourceID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
