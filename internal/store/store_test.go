package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/freese/jobradar/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeListing(overrides func(*model.Listing)) *model.Listing {
	l := &model.Listing{
		ExternalID:      "DE-1234-5678",
		Title:           "Data Engineer",
		Employer:        "Acme GmbH",
		Location:        "Köln",
		StartDate:       "2026-03-01",
		PublishedAt:     "2026-02-01",
		RawText:         "Stellentext",
		ChangeToken:     "2026-02-01T12:00:00",
		NormalizedTitle: "Data Engineer",
		Remote:          "hybrid",
		ContractType:    "permanent",
		Seniority:       "mid",
		TechStack:       `["Python","SQL"]`,
		Summary:         "Interesting role.",
		FitScore:        4,
		LLMOutput:       `{"fit_score": 4}`,
		Source:          model.SourceArbeitsagentur,
		SearchProfile:   "test_koeln",
		Status:          model.StatusActive,
		FetchedAt:       time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	if overrides != nil {
		overrides(l)
	}
	return l
}

func mustInsert(t *testing.T, s *Store, l *model.Listing) {
	t.Helper()
	if err := s.Insert(l); err != nil {
		t.Fatalf("Insert(%s): %v", l.ExternalID, err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	mustInsert(t, s1, makeListing(nil))
	s1.Close()

	// Reopening re-runs the migration list against an up-to-date schema.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("DE-1234-5678")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Title != "Data Engineer" {
		t.Errorf("Title = %q after reopen", got.Title)
	}
}

func TestExists(t *testing.T) {
	s := testStore(t)

	ok, err := s.Exists("UNKNOWN")
	if err != nil || ok {
		t.Errorf("Exists(unknown) = %v, %v; want false, nil", ok, err)
	}

	mustInsert(t, s, makeListing(nil))
	ok, err = s.Exists("DE-1234-5678")
	if err != nil || !ok {
		t.Errorf("Exists(stored) = %v, %v; want true, nil", ok, err)
	}
}

func TestChangeToken(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(nil))

	token, status, ok, err := s.ChangeToken("DE-1234-5678")
	if err != nil {
		t.Fatalf("ChangeToken: %v", err)
	}
	if !ok || token != "2026-02-01T12:00:00" {
		t.Errorf("ChangeToken = %q, %v; want stored token, true", token, ok)
	}
	if status != model.StatusActive {
		t.Errorf("status = %q, want active", status)
	}

	if _, err := s.MarkPresumablyFilled("test_koeln", map[string]struct{}{"OTHER": {}}); err != nil {
		t.Fatalf("MarkPresumablyFilled: %v", err)
	}
	_, status, _, err = s.ChangeToken("DE-1234-5678")
	if err != nil {
		t.Fatalf("ChangeToken after sweep: %v", err)
	}
	if status != model.StatusPresumablyFilled {
		t.Errorf("status after sweep = %q, want presumably_filled", status)
	}

	_, _, ok, err = s.ChangeToken("UNKNOWN")
	if err != nil {
		t.Fatalf("ChangeToken(unknown): %v", err)
	}
	if ok {
		t.Error("ChangeToken(unknown) reported existing")
	}
}

func TestInsertRoundTrip(t *testing.T) {
	s := testStore(t)
	want := makeListing(nil)
	mustInsert(t, s, want)

	got, err := s.Get(want.ExternalID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if *got != *want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestInsertConflict(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(nil))

	err := s.Insert(makeListing(nil))
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("second insert error = %v, want ErrConflict", err)
	}
}

func TestUpdate(t *testing.T) {
	s := testStore(t)
	l := makeListing(func(l *model.Listing) {
		l.Seniority = "junior"
		l.FitScore = 2
	})
	mustInsert(t, s, l)

	l.Seniority = "senior"
	l.FitScore = 5
	l.ChangeToken = "2026-02-15T08:30:00"
	if err := s.Update(l); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(l.ExternalID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Seniority != "senior" || got.FitScore != 5 || got.ChangeToken != "2026-02-15T08:30:00" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateMissingListing(t *testing.T) {
	s := testStore(t)
	err := s.Update(makeListing(nil))
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Update(absent) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateReactivatesFilledListing(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(nil))

	n, err := s.MarkPresumablyFilled("test_koeln", map[string]struct{}{"OTHER": {}})
	if err != nil || n != 1 {
		t.Fatalf("MarkPresumablyFilled = %d, %v; want 1, nil", n, err)
	}

	if err := s.Update(makeListing(nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get("DE-1234-5678")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusActive {
		t.Errorf("status after re-sighting = %q, want active", got.Status)
	}
	if got.StatusChanged != nil {
		t.Errorf("status_changed_at should be cleared on reactivation, got %v", got.StatusChanged)
	}
}

func TestUpdateApplication(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(nil))

	status := "sent"
	if err := s.UpdateApplication("DE-1234-5678", ApplicationPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}

	got, err := s.Get("DE-1234-5678")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ApplicationStatus != "sent" {
		t.Errorf("ApplicationStatus = %q, want sent", got.ApplicationStatus)
	}
	if got.Draft != "" || got.DraftSources != "" {
		t.Errorf("unsupplied fields were written: draft=%q sources=%q", got.Draft, got.DraftSources)
	}

	// Empty patch is a no-op, not an error.
	if err := s.UpdateApplication("DE-1234-5678", ApplicationPatch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}

	err = s.UpdateApplication("UNKNOWN", ApplicationPatch{Status: &status})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("patch on absent id = %v, want ErrNotFound", err)
	}
}

func TestMarkPresumablyFilled(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "A" }))
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "B" }))
	mustInsert(t, s, makeListing(func(l *model.Listing) {
		l.ExternalID = "C"
		l.SearchProfile = "other_profile"
	}))

	n, err := s.MarkPresumablyFilled("test_koeln", map[string]struct{}{"A": {}})
	if err != nil {
		t.Fatalf("MarkPresumablyFilled: %v", err)
	}
	if n != 1 {
		t.Errorf("transitioned %d listings, want 1", n)
	}

	for id, want := range map[string]model.Status{
		"A": model.StatusActive,
		"B": model.StatusPresumablyFilled,
		"C": model.StatusActive, // other profile, untouched
	} {
		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if got.Status != want {
			t.Errorf("%s status = %q, want %q", id, got.Status, want)
		}
		if id == "B" && got.StatusChanged == nil {
			t.Error("B missing status_changed_at stamp")
		}
	}
}

func TestMarkPresumablyFilledLargeSweep(t *testing.T) {
	s := testStore(t)

	n := sweepChunk + 20
	for i := 0; i < n; i++ {
		mustInsert(t, s, makeListing(func(l *model.Listing) {
			l.ExternalID = fmt.Sprintf("ID-%04d", i)
		}))
	}

	seen := map[string]struct{}{"ID-0000": {}, "ID-0001": {}}
	got, err := s.MarkPresumablyFilled("test_koeln", seen)
	if err != nil {
		t.Fatalf("MarkPresumablyFilled: %v", err)
	}
	if got != n-2 {
		t.Errorf("transitioned %d listings, want %d", got, n-2)
	}

	active, err := s.ActiveIDs("test_koeln")
	if err != nil {
		t.Fatalf("ActiveIDs: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("%d listings still active, want the 2 seen ones", len(active))
	}
}

func TestMarkPresumablyFilledEmptySeenIsNoop(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(nil))

	n, err := s.MarkPresumablyFilled("test_koeln", nil)
	if err != nil {
		t.Fatalf("MarkPresumablyFilled: %v", err)
	}
	if n != 0 {
		t.Errorf("empty seen transitioned %d listings, want 0", n)
	}

	got, err := s.Get("DE-1234-5678")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusActive {
		t.Errorf("status = %q after empty-seen sweep, want active", got.Status)
	}
}

func TestActiveIDs(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "A" }))
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "B" }))

	if _, err := s.MarkPresumablyFilled("test_koeln", map[string]struct{}{"A": {}}); err != nil {
		t.Fatalf("MarkPresumablyFilled: %v", err)
	}

	ids, err := s.ActiveIDs("test_koeln")
	if err != nil {
		t.Fatalf("ActiveIDs: %v", err)
	}
	if _, ok := ids["A"]; !ok || len(ids) != 1 {
		t.Errorf("ActiveIDs = %v, want just A", ids)
	}
}

func TestListOrdersByFitScore(t *testing.T) {
	s := testStore(t)
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "low"; l.FitScore = 2 }))
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "unscored"; l.FitScore = 0 }))
	mustInsert(t, s, makeListing(func(l *model.Listing) { l.ExternalID = "high"; l.FitScore = 5 }))

	listings, err := s.List(ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3", len(listings))
	}
	order := []string{listings[0].ExternalID, listings[1].ExternalID, listings[2].ExternalID}
	want := []string{"high", "low", "unscored"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)

	id, err := s.StartRun("all", "test_koeln")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	running, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if running.Status != model.RunRunning || running.FinishedAt != nil {
		t.Errorf("fresh run = %+v, want running and unfinished", running)
	}

	counts := model.RunCounts{Fetched: 10, New: 3, Updated: 2, Skipped: 4, Failed: 1}
	if err := s.FinishRun(id, counts, model.RunSuccess, ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != model.RunSuccess || got.Counts != counts || got.FinishedAt == nil {
		t.Errorf("finished run = %+v", got)
	}

	// Exactly one finish per start.
	err = s.FinishRun(id, counts, model.RunError, "late")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second finish = %v, want ErrNotFound", err)
	}
	got, _ = s.GetRun(id)
	if got.Status != model.RunSuccess {
		t.Errorf("terminal status was revised to %q", got.Status)
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.StartRun("all", "test_koeln"); err != nil {
			t.Fatalf("StartRun: %v", err)
		}
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Errorf("runs not newest first: %d before %d", runs[0].ID, runs[1].ID)
	}
}
