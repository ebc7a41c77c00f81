package httpapi

import (
	"net/http"

	"curalink.org/internal/auth"
	"curalink.org/internal/directory"
)

func (a *API) handlePatientProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := a.directory.PatientProfile(r.Context(), user.ID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPost:
		if !requireRole(w, r, user, auth.RolePatient) {
			return
		}
		var p directory.PatientProfile
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		p.UserID = user.ID
		saved, err := a.directory.UpsertPatientProfile(r.Context(), p)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleResearcherProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := a.directory.ResearcherProfile(r.Context(), user.ID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPost:
		if !requireRole(w, r, user, auth.RoleResearcher) {
			return
		}
		var p directory.ResearcherProfile
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		p.UserID = user.ID
		saved, err := a.directory.UpsertResearcherProfile(r.Context(), p)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleResearcherSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := currentUser(w, r); !ok {
		return
	}
	results, err := a.directory.SearchResearchers(r.Context(), directory.ResearcherQuery{
		Specialty: r.URL.Query().Get("specialty"),
		Page:      pageFromQuery(r),
	})
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
