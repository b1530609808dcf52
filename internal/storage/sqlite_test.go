package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/codewithboateng/dockscout/internal/ir"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func sampleRun(id string) ir.Run {
	return ir.Run{
		ID:             id,
		StartedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Source:         "samples",
		IRVersion:      ir.Version,
		CatalogVersion: "2024.2",
		Verdicts: []ir.CandidateVerdict{
			{
				Repo:  "acme/web",
				Score: 95,
				Tier:  ir.TierRecommended,
				Flags: []ir.Flag{{Severity: ir.SeverityGreen, Message: "installs dependencies (npm ci)"}},
			},
			{
				Repo:       "acme/legacy",
				Score:      15,
				Tier:       ir.TierSkipLowScore,
				Actionable: false,
			},
			{
				Repo:      "acme/api",
				Score:     70,
				Tier:      ir.TierStretch,
				EdgeCases: []ir.EdgeCase{{ID: "healthcheck", Description: "x", FixHint: "y"}},
			},
		},
	}
}

func TestSaveLoadRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	run := sampleRun("run-1")
	if err := db.SaveRun(&run); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.LoadRun("run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != run.ID || got.CatalogVersion != run.CatalogVersion {
		t.Fatalf("loaded run = %+v", got)
	}
	if len(got.Verdicts) != 3 {
		t.Fatalf("verdicts = %d, want 3", len(got.Verdicts))
	}
	if got.Verdicts[2].EdgeCases[0].ID != "healthcheck" {
		t.Fatalf("edge cases not preserved: %+v", got.Verdicts[2])
	}
}

func TestSaveRun_UpsertRewritesVerdicts(t *testing.T) {
	db := openTestDB(t)
	run := sampleRun("run-1")
	if err := db.SaveRun(&run); err != nil {
		t.Fatalf("save: %v", err)
	}
	run.Verdicts = run.Verdicts[:1]
	if err := db.SaveRun(&run); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	vs, err := db.ListVerdicts("run-1", "")
	if err != nil {
		t.Fatalf("list verdicts: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("verdict rows = %d, want 1 after rewrite", len(vs))
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"run-1", "run-2"} {
		run := sampleRun(id)
		if err := db.SaveRun(&run); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	rows, err := db.ListRuns(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Verdicts != 3 {
			t.Fatalf("run %s verdict count = %d, want 3", r.ID, r.Verdicts)
		}
	}
}

func TestListVerdicts_BucketFilter(t *testing.T) {
	db := openTestDB(t)
	run := sampleRun("run-1")
	if err := db.SaveRun(&run); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := db.ListVerdicts("run-1", "recommended")
	if err != nil {
		t.Fatalf("list recommended: %v", err)
	}
	if len(rec) != 1 || rec[0].Repo != "acme/web" {
		t.Fatalf("recommended = %+v", rec)
	}

	// "skip" matches every skip:* reason.
	skips, err := db.ListVerdicts("run-1", "skip")
	if err != nil {
		t.Fatalf("list skip: %v", err)
	}
	if len(skips) != 1 || skips[0].Tier != ir.TierSkipLowScore {
		t.Fatalf("skip bucket = %+v", skips)
	}
}

func TestLoadLatestRun(t *testing.T) {
	db := openTestDB(t)
	r1 := sampleRun("run-1")
	r1.StartedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r2 := sampleRun("run-2")
	r2.StartedAt = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for _, r := range []*ir.Run{&r1, &r2} {
		if err := db.SaveRun(r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	got, err := db.LoadLatestRun()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "run-2" {
		t.Fatalf("latest = %s, want run-2", got.ID)
	}
}

func TestUsersAndSessions(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateUser("ops", "hash123", "admin")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, hash, err := db.GetUserByUsername("ops")
	if err != nil || hash != "hash123" || user.Role != "admin" {
		t.Fatalf("get user = (%+v, %q, %v)", user, hash, err)
	}

	if err := db.CreateSession(id, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := db.GetSession("tok")
	if err != nil || got.Username != "ops" {
		t.Fatalf("get session = (%+v, %v)", got, err)
	}

	if err := db.CreateSession(id, "stale", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("create stale session: %v", err)
	}
	if _, err := db.GetSession("stale"); err == nil {
		t.Fatalf("expired session must not resolve")
	}

	if err := db.DeleteSession("tok"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := db.GetSession("tok"); err == nil {
		t.Fatalf("deleted session must not resolve")
	}
}

func TestSuppressionLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateSuppression("healthcheck", "acme/api", "probe mapping tracked elsewhere", "ops", time.Time{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	active, err := db.ListSuppressions(true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].EdgeID != "healthcheck" || active[0].Repo != "acme/api" {
		t.Fatalf("active = %+v", active)
	}

	if err := db.RevokeSuppression(id); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	active, err = db.ListSuppressions(true)
	if err != nil {
		t.Fatalf("list after revoke: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active after revoke = %+v", active)
	}
	all, err := db.ListSuppressions(false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].RevokedAt == nil {
		t.Fatalf("all = %+v", all)
	}

	if err := db.RevokeSuppression(id); err == nil {
		t.Fatalf("revoking an already-revoked suppression must error")
	}
	if err := db.RevokeSuppression(id + 999); err == nil {
		t.Fatalf("revoking an unknown suppression id must error")
	}
}

func TestSuppression_ExpiryFiltersActive(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.CreateSuppression("healthcheck", "", "short-lived", "ops", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}
	active, err := db.ListSuppressions(true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expired suppression still active: %+v", active)
	}
}
