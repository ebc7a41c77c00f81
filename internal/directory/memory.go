package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"curalink.org/internal/ids"
)

// InMemory implements Service with process-local state. It is the default
// backing for the API server and the fixture source for tests.
type InMemory struct {
	mu          sync.RWMutex
	patients    map[string]PatientProfile
	researchers map[string]ResearcherProfile
	resSeq      []string
	trials      map[string]ClinicalTrial
	trialSeq    []string
	pubs        map[string]Publication
	pubSeq      []string
	experts     map[string]HealthExpert
	expertSeq   []string
	now         func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{
		patients:    make(map[string]PatientProfile),
		researchers: make(map[string]ResearcherProfile),
		trials:      make(map[string]ClinicalTrial),
		pubs:        make(map[string]Publication),
		experts:     make(map[string]HealthExpert),
		now:         time.Now,
	}
}

func (m *InMemory) UpsertPatientProfile(ctx context.Context, p PatientProfile) (PatientProfile, error) {
	if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.FullName) == "" {
		return PatientProfile{}, ErrInvalidInput
	}
	p.UpdatedAt = m.now().UTC()
	m.mu.Lock()
	m.patients[p.UserID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *InMemory) PatientProfile(ctx context.Context, userID string) (PatientProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[userID]
	if !ok {
		return PatientProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *InMemory) UpsertResearcherProfile(ctx context.Context, p ResearcherProfile) (ResearcherProfile, error) {
	if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.FullName) == "" {
		return ResearcherProfile{}, ErrInvalidInput
	}
	p.UpdatedAt = m.now().UTC()
	m.mu.Lock()
	if _, seen := m.researchers[p.UserID]; !seen {
		m.resSeq = append(m.resSeq, p.UserID)
	}
	m.researchers[p.UserID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *InMemory) ResearcherProfile(ctx context.Context, userID string) (ResearcherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.researchers[userID]
	if !ok {
		return ResearcherProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *InMemory) SearchResearchers(ctx context.Context, q ResearcherQuery) ([]ResearcherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []ResearcherProfile
	for _, id := range m.resSeq {
		p := m.researchers[id]
		if q.Specialty != "" && !anyContains(p.Specialties, q.Specialty) {
			continue
		}
		matched = append(matched, p)
	}
	return window(matched, q.Page), nil
}

func (m *InMemory) CreateTrial(ctx context.Context, t ClinicalTrial) (ClinicalTrial, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" || strings.TrimSpace(t.Title) == "" {
		return ClinicalTrial{}, ErrInvalidInput
	}
	if _, err := ParseTrialStatus(string(t.Status)); err != nil {
		return ClinicalTrial{}, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trials[t.ID]; exists {
		return ClinicalTrial{}, ErrDuplicate
	}
	m.trials[t.ID] = t
	m.trialSeq = append(m.trialSeq, t.ID)
	return t, nil
}

func (m *InMemory) Trial(ctx context.Context, id string) (ClinicalTrial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trials[id]
	if !ok {
		return ClinicalTrial{}, ErrNotFound
	}
	return t, nil
}

func (m *InMemory) SearchTrials(ctx context.Context, q TrialQuery) ([]ClinicalTrial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []ClinicalTrial
	for _, id := range m.trialSeq {
		t := m.trials[id]
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Location != "" && !anyContains(t.Locations, q.Location) {
			continue
		}
		if q.Keywords != "" && !containsFold(t.Title, q.Keywords) &&
			!containsFold(t.Description, q.Keywords) && !anyContains(t.Conditions, q.Keywords) {
			continue
		}
		matched = append(matched, t)
	}
	return window(matched, q.Page), nil
}

func (m *InMemory) AddPublication(ctx context.Context, p Publication) (Publication, error) {
	if strings.TrimSpace(p.Title) == "" {
		return Publication{}, ErrInvalidInput
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = ids.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pubs[p.ID]; exists {
		return Publication{}, ErrDuplicate
	}
	m.pubs[p.ID] = p
	m.pubSeq = append(m.pubSeq, p.ID)
	return p, nil
}

func (m *InMemory) Publication(ctx context.Context, id string) (Publication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pubs[id]
	if !ok {
		return Publication{}, ErrNotFound
	}
	return p, nil
}

func (m *InMemory) SearchPublications(ctx context.Context, q PublicationQuery) ([]Publication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []Publication
	for _, id := range m.pubSeq {
		p := m.pubs[id]
		if q.Keywords != "" && !containsFold(p.Title, q.Keywords) &&
			!containsFold(p.Abstract, q.Keywords) && !anyContains(p.Keywords, q.Keywords) {
			continue
		}
		matched = append(matched, p)
	}
	return window(matched, q.Page), nil
}

func (m *InMemory) AddExpert(ctx context.Context, e HealthExpert) (HealthExpert, error) {
	if strings.TrimSpace(e.FullName) == "" {
		return HealthExpert{}, ErrInvalidInput
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = ids.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.experts[e.ID]; exists {
		return HealthExpert{}, ErrDuplicate
	}
	m.experts[e.ID] = e
	m.expertSeq = append(m.expertSeq, e.ID)
	return e, nil
}

func (m *InMemory) Expert(ctx context.Context, id string) (HealthExpert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.experts[id]
	if !ok {
		return HealthExpert{}, ErrNotFound
	}
	return e, nil
}

func (m *InMemory) SearchExperts(ctx context.Context, q ExpertQuery) ([]HealthExpert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []HealthExpert
	for _, id := range m.expertSeq {
		e := m.experts[id]
		if q.Specialty != "" && !anyContains(e.Specialties, q.Specialty) {
			continue
		}
		if q.Location != "" && !containsFold(e.Location, q.Location) {
			continue
		}
		matched = append(matched, e)
	}
	return window(matched, q.Page), nil
}

// ExpertUserID resolves the platform account behind an expert listing. An
// expert without an account yields an empty id, not an error.
func (m *InMemory) ExpertUserID(ctx context.Context, expertID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.experts[expertID]
	if !ok {
		return "", ErrNotFound
	}
	return e.UserID, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}

func window[T any](items []T, p Page) []T {
	p = p.Normalize()
	if p.Skip >= len(items) {
		return []T{}
	}
	items = items[p.Skip:]
	if len(items) > p.Limit {
		items = items[:p.Limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
