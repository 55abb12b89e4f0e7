package store

import (
	"testing"
	"time"
)

func testPaper(id, title string, fetched time.Time) Paper {
	return Paper{
		ID:          id,
		SourceID:    "2508." + id,
		Title:       title,
		Abstract:    "abstract for " + id,
		Authors:     []string{"A. Author", "B. Author"},
		Categories:  []string{"cs.LG"},
		PublishedAt: fetched.Add(-24 * time.Hour),
		FetchedAt:   fetched,
	}
}

func TestOpen(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	// Verify tables exist by querying them
	for _, table := range []string{"papers", "records"} {
		var name string
		err = st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("%s table not created: %v", table, err)
		}
	}
}

func TestPutPapersUpsert(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	now := time.Now()
	stored, err := st.PutPapers([]Paper{
		testPaper("p1", "First", now),
		testPaper("p2", "Second", now),
	})
	if err != nil {
		t.Fatalf("PutPapers failed: %v", err)
	}
	if stored != 2 {
		t.Errorf("expected 2 stored, got %d", stored)
	}

	// Same id again with a new title: last write wins, no duplicate row.
	if _, err := st.PutPapers([]Paper{testPaper("p1", "First Revised", now.Add(time.Minute))}); err != nil {
		t.Fatalf("PutPapers(update) failed: %v", err)
	}

	n, err := st.CountPapers()
	if err != nil {
		t.Fatalf("CountPapers failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 papers after upsert, got %d", n)
	}

	p, found, err := st.GetPaper("p1")
	if err != nil || !found {
		t.Fatalf("GetPaper(p1) = found=%v err=%v", found, err)
	}
	if p.Title != "First Revised" {
		t.Errorf("expected updated title, got %q", p.Title)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "A. Author" {
		t.Errorf("authors did not round-trip: %v", p.Authors)
	}
}

func TestPutPapersKeepsCachedBlobs(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	now := time.Now()
	withBlob := testPaper("p1", "First", now)
	withBlob.Insights = `{"summary":"cached"}`
	if _, err := st.PutPapers([]Paper{withBlob}); err != nil {
		t.Fatalf("PutPapers failed: %v", err)
	}

	// A plain feed row for the same id carries no blobs; the cached one
	// must survive.
	if _, err := st.PutPapers([]Paper{testPaper("p1", "First", now.Add(time.Hour))}); err != nil {
		t.Fatalf("PutPapers(plain) failed: %v", err)
	}

	p, _, err := st.GetPaper("p1")
	if err != nil {
		t.Fatalf("GetPaper failed: %v", err)
	}
	if p.Insights != `{"summary":"cached"}` {
		t.Errorf("cached insights clobbered, got %q", p.Insights)
	}

	// A non-empty incoming blob replaces the cached one.
	withBlob.Insights = `{"summary":"fresh"}`
	if _, err := st.PutPapers([]Paper{withBlob}); err != nil {
		t.Fatalf("PutPapers(fresh blob) failed: %v", err)
	}
	p, _, _ = st.GetPaper("p1")
	if p.Insights != `{"summary":"fresh"}` {
		t.Errorf("expected fresh insights, got %q", p.Insights)
	}
}

func TestGetPaperMissing(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	_, found, err := st.GetPaper("nope")
	if err != nil {
		t.Fatalf("GetPaper failed: %v", err)
	}
	if found {
		t.Error("expected found=false for unknown id")
	}
}

func TestGetPapersMultiGet(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	now := time.Now()
	_, err = st.PutPapers([]Paper{
		testPaper("p1", "First", now),
		testPaper("p2", "Second", now),
		testPaper("p3", "Third", now),
	})
	if err != nil {
		t.Fatalf("PutPapers failed: %v", err)
	}

	papers, err := st.GetPapers([]string{"p1", "p3", "missing"})
	if err != nil {
		t.Fatalf("GetPapers failed: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}
	got := map[string]bool{}
	for _, p := range papers {
		got[p.ID] = true
	}
	if !got["p1"] || !got["p3"] {
		t.Errorf("unexpected ids in result: %v", got)
	}

	// Empty input short-circuits.
	papers, err = st.GetPapers(nil)
	if err != nil || papers != nil {
		t.Errorf("GetPapers(nil) = %v, %v; want nil, nil", papers, err)
	}
}

func TestPrunePapers(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	now := time.Now()
	_, err = st.PutPapers([]Paper{
		testPaper("old", "Old", now.Add(-72*time.Hour)),
		testPaper("new", "New", now),
	})
	if err != nil {
		t.Fatalf("PutPapers failed: %v", err)
	}

	pruned, err := st.PrunePapers(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PrunePapers failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned, got %d", pruned)
	}

	_, found, _ := st.GetPaper("old")
	if found {
		t.Error("old paper should have been pruned")
	}
	_, found, _ = st.GetPaper("new")
	if !found {
		t.Error("new paper should have survived the prune")
	}
}

func TestPreferencesFirstRun(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	p, err := st.GetPreferences()
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	if !p.AutoPlay {
		t.Error("expected AutoPlay default true")
	}
	if p.PlaybackRate != 1.0 {
		t.Errorf("expected PlaybackRate 1.0, got %v", p.PlaybackRate)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	p := DefaultPreferences()
	p.AutoPlay = false
	p.LastSource = "confX"
	p.SchemaVersion = 0 // PutPreferences stamps the current version
	if err := st.PutPreferences(p); err != nil {
		t.Fatalf("PutPreferences failed: %v", err)
	}

	got, err := st.GetPreferences()
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	if got.AutoPlay {
		t.Error("expected AutoPlay false after round trip")
	}
	if got.LastSource != "confX" {
		t.Errorf("expected LastSource confX, got %q", got.LastSource)
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", CurrentSchemaVersion, got.SchemaVersion)
	}
}

func TestPreferencesTolerantDecode(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	// A v1 record knows nothing about autoPlay or playbackRate; those fields
	// must come back as defaults while the present ones decode.
	_, err = st.db.Exec(
		"INSERT INTO records (kind, payload, updated_at) VALUES (?, ?, ?)",
		recordPreferences, `{"schemaVersion":1,"lastSource":"arxiv"}`, time.Now(),
	)
	if err != nil {
		t.Fatalf("seed record failed: %v", err)
	}

	p, err := st.GetPreferences()
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	if p.LastSource != "arxiv" {
		t.Errorf("expected LastSource arxiv, got %q", p.LastSource)
	}
	if !p.AutoPlay || p.PlaybackRate != 1.0 {
		t.Errorf("missing fields should keep defaults, got autoPlay=%v rate=%v", p.AutoPlay, p.PlaybackRate)
	}
}

func TestPreferencesCorruptPayload(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	_, err = st.db.Exec(
		"INSERT INTO records (kind, payload, updated_at) VALUES (?, ?, ?)",
		recordPreferences, `{not json`, time.Now(),
	)
	if err != nil {
		t.Fatalf("seed record failed: %v", err)
	}

	p, err := st.GetPreferences()
	if err != nil {
		t.Fatalf("corrupt payload must not fail reads: %v", err)
	}
	if !p.AutoPlay || p.PlaybackRate != 1.0 {
		t.Error("corrupt payload should fall back to defaults")
	}
}

func TestInteractionsFirstRun(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	rec, err := st.GetInteractions()
	if err != nil {
		t.Fatalf("GetInteractions failed: %v", err)
	}
	if len(rec.Liked) != 0 || len(rec.Bookmarked) != 0 || len(rec.NotInterested) != 0 {
		t.Errorf("expected empty sets on first run, got %+v", rec)
	}
}

func TestInteractionsRoundTrip(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	rec := InteractionRecord{
		Liked:         []string{"p1", "p2"},
		Bookmarked:    []string{"p2"},
		NotInterested: []string{"p9"},
		Counts:        map[string]int{"likes": 40},
	}
	if err := st.PutInteractions(rec); err != nil {
		t.Fatalf("PutInteractions failed: %v", err)
	}

	got, err := st.GetInteractions()
	if err != nil {
		t.Fatalf("GetInteractions failed: %v", err)
	}
	if len(got.Liked) != 2 || got.Liked[0] != "p1" {
		t.Errorf("liked did not round-trip: %v", got.Liked)
	}
	if len(got.Bookmarked) != 1 || got.Bookmarked[0] != "p2" {
		t.Errorf("bookmarked did not round-trip: %v", got.Bookmarked)
	}
	if len(got.NotInterested) != 1 || got.NotInterested[0] != "p9" {
		t.Errorf("notInterested did not round-trip: %v", got.NotInterested)
	}
	if got.Counts["likes"] != 40 {
		t.Errorf("counts did not round-trip: %v", got.Counts)
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected stamped schema version, got %d", got.SchemaVersion)
	}
}
