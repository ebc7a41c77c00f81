package directory

import (
	"context"
	"errors"
	"testing"
)

func seedTrials(t *testing.T, dir *InMemory) {
	t.Helper()
	ctx := context.Background()
	trials := []ClinicalTrial{
		{ID: "NCT001", Title: "Metformin in early diabetes", Status: TrialRecruiting, Conditions: []string{"Type 2 Diabetes"}, Locations: []string{"Boston, MA"}},
		{ID: "NCT002", Title: "Insulin pump outcomes", Status: TrialActive, Conditions: []string{"Type 1 Diabetes"}, Locations: []string{"Seattle, WA"}},
		{ID: "NCT003", Title: "Statin adherence study", Status: TrialRecruiting, Conditions: []string{"Hypercholesterolemia"}, Locations: []string{"Boston, MA"}},
	}
	for _, trial := range trials {
		if _, err := dir.CreateTrial(ctx, trial); err != nil {
			t.Fatalf("CreateTrial %s: %v", trial.ID, err)
		}
	}
}

func TestSearchTrialsFiltersAreConjunctive(t *testing.T) {
	dir := NewInMemory()
	seedTrials(t, dir)
	ctx := context.Background()

	got, err := dir.SearchTrials(ctx, TrialQuery{Keywords: "diabetes", Status: TrialRecruiting, Location: "boston"})
	if err != nil {
		t.Fatalf("SearchTrials: %v", err)
	}
	if len(got) != 1 || got[0].ID != "NCT001" {
		t.Fatalf("expected only NCT001, got %+v", got)
	}

	// Dropping a filter widens the result.
	got, err = dir.SearchTrials(ctx, TrialQuery{Status: TrialRecruiting})
	if err != nil {
		t.Fatalf("SearchTrials: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recruiting trials, got %d", len(got))
	}
}

func TestSearchTrialsPaging(t *testing.T) {
	dir := NewInMemory()
	seedTrials(t, dir)
	ctx := context.Background()

	page, err := dir.SearchTrials(ctx, TrialQuery{Page: Page{Skip: 1, Limit: 1}})
	if err != nil {
		t.Fatalf("SearchTrials: %v", err)
	}
	if len(page) != 1 || page[0].ID != "NCT002" {
		t.Fatalf("expected NCT002, got %+v", page)
	}

	empty, err := dir.SearchTrials(ctx, TrialQuery{Page: Page{Skip: 10}})
	if err != nil {
		t.Fatalf("SearchTrials: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty window, got %d", len(empty))
	}
}

func TestCreateTrialValidation(t *testing.T) {
	dir := NewInMemory()
	ctx := context.Background()

	if _, err := dir.CreateTrial(ctx, ClinicalTrial{ID: "NCT010", Title: "x", Status: TrialStatus("paused")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: expected ErrInvalidInput, got %v", err)
	}
	if _, err := dir.CreateTrial(ctx, ClinicalTrial{ID: "NCT010", Title: "x", Status: TrialRecruiting}); err != nil {
		t.Fatalf("CreateTrial: %v", err)
	}
	if _, err := dir.CreateTrial(ctx, ClinicalTrial{ID: "NCT010", Title: "again", Status: TrialActive}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestProfileUpsertAndFetch(t *testing.T) {
	dir := NewInMemory()
	ctx := context.Background()

	if _, err := dir.PatientProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := dir.UpsertPatientProfile(ctx, PatientProfile{UserID: "u1", FullName: "Jane Doe", Conditions: []string{"asthma"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	updated, err := dir.UpsertPatientProfile(ctx, PatientProfile{UserID: "u1", FullName: "Jane Q. Doe"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	fetched, err := dir.PatientProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.FullName != updated.FullName {
		t.Fatalf("upsert did not replace: %q", fetched.FullName)
	}
}

func TestSearchResearchersBySpecialty(t *testing.T) {
	dir := NewInMemory()
	ctx := context.Background()

	profiles := []ResearcherProfile{
		{UserID: "r1", FullName: "Dr. A", Specialties: []string{"Oncology"}},
		{UserID: "r2", FullName: "Dr. B", Specialties: []string{"Cardiology", "Oncology"}},
		{UserID: "r3", FullName: "Dr. C", Specialties: []string{"Neurology"}},
	}
	for _, p := range profiles {
		if _, err := dir.UpsertResearcherProfile(ctx, p); err != nil {
			t.Fatalf("upsert %s: %v", p.UserID, err)
		}
	}

	got, err := dir.SearchResearchers(ctx, ResearcherQuery{Specialty: "oncology"})
	if err != nil {
		t.Fatalf("SearchResearchers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 oncologists, got %d", len(got))
	}
}

func TestExpertResolution(t *testing.T) {
	dir := NewInMemory()
	ctx := context.Background()

	member, err := dir.AddExpert(ctx, HealthExpert{FullName: "Dr. Member", Specialties: []string{"Endocrinology"}, UserID: "u-member"})
	if err != nil {
		t.Fatalf("AddExpert: %v", err)
	}
	outside, err := dir.AddExpert(ctx, HealthExpert{FullName: "Dr. Outside", Specialties: []string{"Endocrinology"}})
	if err != nil {
		t.Fatalf("AddExpert: %v", err)
	}

	uid, err := dir.ExpertUserID(ctx, member.ID)
	if err != nil || uid != "u-member" {
		t.Fatalf("resolution of member: %q, %v", uid, err)
	}
	uid, err = dir.ExpertUserID(ctx, outside.ID)
	if err != nil || uid != "" {
		t.Fatalf("resolution of outsider should be empty without error: %q, %v", uid, err)
	}
	if _, err := dir.ExpertUserID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchPublicationsByKeyword(t *testing.T) {
	dir := NewInMemory()
	ctx := context.Background()

	pubs := []Publication{
		{Title: "CRISPR screens in beta cells", Keywords: []string{"diabetes", "genomics"}},
		{Title: "Cardiac stem cell review", Abstract: "Regeneration after infarction."},
	}
	for _, p := range pubs {
		if _, err := dir.AddPublication(ctx, p); err != nil {
			t.Fatalf("AddPublication: %v", err)
		}
	}

	got, err := dir.SearchPublications(ctx, PublicationQuery{Keywords: "diabetes"})
	if err != nil {
		t.Fatalf("SearchPublications: %v", err)
	}
	if len(got) != 1 || got[0].Title != "CRISPR screens in beta cells" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
