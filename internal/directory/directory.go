package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TrialStatus is the recruitment state of a clinical trial.
type TrialStatus string

const (
	TrialRecruiting TrialStatus = "recruiting"
	TrialActive     TrialStatus = "active"
	TrialCompleted  TrialStatus = "completed"
	TrialSuspended  TrialStatus = "suspended"
)

// ParseTrialStatus validates a raw trial status value.
func ParseTrialStatus(raw string) (TrialStatus, error) {
	switch TrialStatus(strings.TrimSpace(strings.ToLower(raw))) {
	case TrialRecruiting:
		return TrialRecruiting, nil
	case TrialActive:
		return TrialActive, nil
	case TrialCompleted:
		return TrialCompleted, nil
	case TrialSuspended:
		return TrialSuspended, nil
	default:
		return "", ErrInvalidInput
	}
}

// PatientProfile extends a patient account with searchable health context.
type PatientProfile struct {
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	Conditions []string  `json:"conditions,omitempty"`
	Location   string    `json:"location,omitempty"`
	Age        int       `json:"age,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ResearcherProfile extends a researcher account with professional context.
type ResearcherProfile struct {
	UserID               string    `json:"user_id"`
	FullName             string    `json:"full_name"`
	Institution          string    `json:"institution,omitempty"`
	Specialties          []string  `json:"specialties,omitempty"`
	ResearchInterests    []string  `json:"research_interests,omitempty"`
	ORCID                string    `json:"orcid,omitempty"`
	Bio                  string    `json:"bio,omitempty"`
	Location             string    `json:"location,omitempty"`
	AvailableForMeetings bool      `json:"available_for_meetings"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ClinicalTrial is a registered study. ID is the registry identifier
// (NCT number) rather than a generated one.
type ClinicalTrial struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Status       TrialStatus `json:"status"`
	Phase        string      `json:"phase,omitempty"`
	Conditions   []string    `json:"conditions,omitempty"`
	Eligibility  string      `json:"eligibility,omitempty"`
	Locations    []string    `json:"locations,omitempty"`
	ContactEmail string      `json:"contact_email,omitempty"`
	StartDate    string      `json:"start_date,omitempty"`
	EndDate      string      `json:"end_date,omitempty"`
	CreatedBy    string      `json:"created_by,omitempty"`
}

// Publication is a scientific article.
type Publication struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Abstract      string   `json:"abstract,omitempty"`
	Journal       string   `json:"journal,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	URL           string   `json:"url,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// HealthExpert is a clinician or specialist listed in the directory. UserID
// is set when the expert also holds a platform account and can therefore
// answer meeting requests.
type HealthExpert struct {
	ID                string   `json:"id"`
	FullName          string   `json:"full_name"`
	Specialties       []string `json:"specialties,omitempty"`
	Institution       string   `json:"institution,omitempty"`
	Location          string   `json:"location,omitempty"`
	Email             string   `json:"email,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	ResearchInterests []string `json:"research_interests,omitempty"`
	UserID            string   `json:"user_id,omitempty"`
}

var (
	ErrNotFound     = errors.New("directory: not found")
	ErrInvalidInput = errors.New("directory: invalid input")
	ErrDuplicate    = errors.New("directory: already exists")
)

// Page bounds a search result window.
type Page struct {
	Skip  int
	Limit int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// TrialQuery filters a trial search. Zero-value fields are not applied;
// populated fields must all match.
type TrialQuery struct {
	Keywords string
	Status   TrialStatus
	Location string
	Page     Page
}

// PublicationQuery filters a publication search.
type PublicationQuery struct {
	Keywords string
	Page     Page
}

// ExpertQuery filters an expert search.
type ExpertQuery struct {
	Specialty string
	Location  string
	Page      Page
}

// ResearcherQuery filters a researcher profile search.
type ResearcherQuery struct {
	Specialty string
	Page      Page
}

// Service is the read/write surface of the catalog and profile directory.
type Service interface {
	UpsertPatientProfile(ctx context.Context, p PatientProfile) (PatientProfile, error)
	PatientProfile(ctx context.Context, userID string) (PatientProfile, error)
	UpsertResearcherProfile(ctx context.Context, p ResearcherProfile) (ResearcherProfile, error)
	ResearcherProfile(ctx context.Context, userID string) (ResearcherProfile, error)
	SearchResearchers(ctx context.Context, q ResearcherQuery) ([]ResearcherProfile, error)

	CreateTrial(ctx context.Context, t ClinicalTrial) (ClinicalTrial, error)
	Trial(ctx context.Context, id string) (ClinicalTrial, error)
	SearchTrials(ctx context.Context, q TrialQuery) ([]ClinicalTrial, error)

	AddPublication(ctx context.Context, p Publication) (Publication, error)
	Publication(ctx context.Context, id string) (Publication, error)
	SearchPublications(ctx context.Context, q PublicationQuery) ([]Publication, error)

	AddExpert(ctx context.Context, e HealthExpert) (HealthExpert, error)
	Expert(ctx context.Context, id string) (HealthExpert, error)
	SearchExperts(ctx context.Context, q ExpertQuery) ([]HealthExpert, error)
	ExpertUserID(ctx context.Context, expertID string) (string, error)
}
