package client

import (
	"context"
	"net/http"

	"curalink.org/internal/directory"
)

// SavePatientProfile upserts the caller's patient profile.
func (c *Client) SavePatientProfile(ctx context.Context, p directory.PatientProfile) (directory.PatientProfile, error) {
	var out directory.PatientProfile
	if err := c.call(ctx, "save patient profile", http.MethodPost, "/api/patients/profile", nil, p, &out); err != nil {
		return directory.PatientProfile{}, err
	}
	return out, nil
}

// PatientProfile fetches the caller's patient profile.
func (c *Client) PatientProfile(ctx context.Context) (directory.PatientProfile, error) {
	var out directory.PatientProfile
	if err := c.call(ctx, "get patient profile", http.MethodGet, "/api/patients/profile", nil, nil, &out); err != nil {
		return directory.PatientProfile{}, err
	}
	return out, nil
}

// SaveResearcherProfile upserts the caller's researcher profile.
func (c *Client) SaveResearcherProfile(ctx context.Context, p directory.ResearcherProfile) (directory.ResearcherProfile, error) {
	var out directory.ResearcherProfile
	if err := c.call(ctx, "save researcher profile", http.MethodPost, "/api/researchers/profile", nil, p, &out); err != nil {
		return directory.ResearcherProfile{}, err
	}
	return out, nil
}

// ResearcherProfile fetches the caller's researcher profile.
func (c *Client) ResearcherProfile(ctx context.Context) (directory.ResearcherProfile, error) {
	var out directory.ResearcherProfile
	if err := c.call(ctx, "get researcher profile", http.MethodGet, "/api/researchers/profile", nil, nil, &out); err != nil {
		return directory.ResearcherProfile{}, err
	}
	return out, nil
}
