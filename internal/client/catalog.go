package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"curalink.org/internal/directory"
)

// Registry keys: one logical slot per search surface, so a newer search
// always supersedes the previous one of the same kind.
const (
	keySearchTrials       = "search.trials"
	keySearchPublications = "search.publications"
	keySearchExperts      = "search.experts"
	keySearchResearchers  = "search.researchers"
)

// TrialFilter narrows a trial search. Zero fields are not sent.
type TrialFilter struct {
	Keywords string
	Status   directory.TrialStatus
	Location string
	Skip     int
	Limit    int
}

// SearchTrials runs a cancellable trial search. Starting a new trial search
// aborts any previous one still in flight.
func (c *Client) SearchTrials(ctx context.Context, f TrialFilter) ([]directory.ClinicalTrial, error) {
	ctx, release := c.registry.Begin(ctx, keySearchTrials)
	defer release()

	q := url.Values{}
	setIfPresent(q, "keywords", f.Keywords)
	setIfPresent(q, "status", string(f.Status))
	setIfPresent(q, "location", f.Location)
	setPage(q, f.Skip, f.Limit)

	var out []directory.ClinicalTrial
	if err := c.call(ctx, "search trials", http.MethodGet, "/api/trials", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrial fetches one trial by registry identifier.
func (c *Client) GetTrial(ctx context.Context, id string) (directory.ClinicalTrial, error) {
	var out directory.ClinicalTrial
	if err := c.call(ctx, "get trial", http.MethodGet, "/api/trials/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return directory.ClinicalTrial{}, err
	}
	return out, nil
}

// CreateTrial registers a trial. Server-side this is researcher-only.
func (c *Client) CreateTrial(ctx context.Context, t directory.ClinicalTrial) (directory.ClinicalTrial, error) {
	var out directory.ClinicalTrial
	if err := c.call(ctx, "create trial", http.MethodPost, "/api/trials", nil, t, &out); err != nil {
		return directory.ClinicalTrial{}, err
	}
	return out, nil
}

// SearchPublications runs a cancellable publication search.
func (c *Client) SearchPublications(ctx context.Context, keywords string, skip, limit int) ([]directory.Publication, error) {
	ctx, release := c.registry.Begin(ctx, keySearchPublications)
	defer release()

	q := url.Values{}
	setIfPresent(q, "keywords", keywords)
	setPage(q, skip, limit)

	var out []directory.Publication
	if err := c.call(ctx, "search publications", http.MethodGet, "/api/publications", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPublication fetches one publication.
func (c *Client) GetPublication(ctx context.Context, id string) (directory.Publication, error) {
	var out directory.Publication
	if err := c.call(ctx, "get publication", http.MethodGet, "/api/publications/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return directory.Publication{}, err
	}
	return out, nil
}

// SearchExperts runs a cancellable expert search.
func (c *Client) SearchExperts(ctx context.Context, specialty, location string, skip, limit int) ([]directory.HealthExpert, error) {
	ctx, release := c.registry.Begin(ctx, keySearchExperts)
	defer release()

	q := url.Values{}
	setIfPresent(q, "specialty", specialty)
	setIfPresent(q, "location", location)
	setPage(q, skip, limit)

	var out []directory.HealthExpert
	if err := c.call(ctx, "search experts", http.MethodGet, "/api/experts", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchResearchers runs a cancellable researcher search.
func (c *Client) SearchResearchers(ctx context.Context, specialty string, skip, limit int) ([]directory.ResearcherProfile, error) {
	ctx, release := c.registry.Begin(ctx, keySearchResearchers)
	defer release()

	q := url.Values{}
	setIfPresent(q, "specialty", specialty)
	setPage(q, skip, limit)

	var out []directory.ResearcherProfile
	if err := c.call(ctx, "search researchers", http.MethodGet, "/api/researchers", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func setIfPresent(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}

func setPage(q url.Values, skip, limit int) {
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
