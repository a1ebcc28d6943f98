package evalset

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
)

func tempRunDB(t *testing.T) *RunDB {
	t.Helper()
	db, err := OpenRunDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenRunDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunDBRecord(t *testing.T) {
	ctx := context.Background()
	db := tempRunDB(t)

	cases, _ := Parse(strings.NewReader(sample))
	report, err := Run(ctx, testNormalizer(t), cases, DefaultClass)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	started := time.Unix(1_700_000_000, 0)
	id, err := db.Record(ctx, "en", "sample.tsv", started, 1500*time.Millisecond, report)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("id = %q, want a UUID", id)
	}

	runs, err := db.Runs(ctx, "en", 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	r := runs[0]
	if r.ID != id || r.Total != 5 || r.Correct != 3 || r.Duration != 1500*time.Millisecond || !r.StartedAt.Equal(started) {
		t.Errorf("run = %+v", r)
	}
	if r.Accuracy() != 0.6 {
		t.Errorf("accuracy = %v", r.Accuracy())
	}

	failures, err := db.Failures(ctx, id)
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(failures) != 2 || failures[0].Line != 5 || failures[0].Status != cardinal.Match || failures[1].Status != cardinal.NoMatch {
		t.Errorf("failures = %+v", failures)
	}
}

func TestRunDBRunsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	db := tempRunDB(t)
	empty := &Report{Classes: map[string]ClassStats{}}

	base := time.Unix(1_700_000_000, 0)
	db.Record(ctx, "en", "a.tsv", base, 0, empty)
	db.Record(ctx, "hi", "b.tsv", base.Add(time.Hour), 0, empty)
	last, _ := db.Record(ctx, "en", "c.tsv", base.Add(2*time.Hour), 0, empty)

	runs, _ := db.Runs(ctx, "en", 10)
	if len(runs) != 2 || runs[0].ID != last {
		t.Errorf("en runs = %+v", runs)
	}
	all, _ := db.Runs(ctx, "", 10)
	if len(all) != 3 {
		t.Errorf("all runs = %d, want 3", len(all))
	}
	one, _ := db.Runs(ctx, "", 1)
	if len(one) != 1 || one[0].Input != "c.tsv" {
		t.Errorf("limited runs = %+v", one)
	}
}
