package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

func TestLoadConfigDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), logger)
	if cfg.Addr != ":8420" || cfg.LexiconsDir != "lexicons" || cfg.CacheSize != registry.DefaultCacheSize {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.DefaultFillPenalty != cardinal.DefaultFillPenalty {
		t.Errorf("penalty = %v", cfg.DefaultFillPenalty)
	}
	if cfg.sourcesDB() != filepath.Join("lexicons", "sources.db") || cfg.runsDB() != filepath.Join("lexicons", "runs.db") {
		t.Errorf("db paths = %s %s", cfg.sourcesDB(), cfg.runsDB())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(`addr: ":9000"
lexicons_dir: /srv/lexicons
cache_size: 0
default_fill_penalty: 0.25
runs_db: /var/lib/runs.db
check_interval: 6h
`), 0o644)

	cfg := loadConfig(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if cfg.Addr != ":9000" || cfg.CacheSize != 0 || cfg.DefaultFillPenalty != 0.25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CheckInterval != 6*time.Hour {
		t.Errorf("check_interval = %v", cfg.CheckInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset key lost its default: %q", cfg.LogLevel)
	}
	if cfg.runsDB() != "/var/lib/runs.db" || cfg.sourcesDB() != filepath.Join("/srv/lexicons", "sources.db") {
		t.Errorf("db paths = %s %s", cfg.sourcesDB(), cfg.runsDB())
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		res  *cardinal.Result
		want string
	}{
		{&cardinal.Result{Status: cardinal.Match, Value: &cardinal.NormalizedResult{Digits: "42"}}, `cardinal { integer: "42" }`},
		{&cardinal.Result{Status: cardinal.Ambiguous, Candidates: []string{`integer: "1"`, `integer: "2"`}}, `ambiguous: integer: "1" | integer: "2"`},
		{&cardinal.Result{Status: cardinal.NoMatch, Unknown: "banana"}, `no match (unknown word "banana")`},
		{&cardinal.Result{Status: cardinal.NoMatch}, "no match"},
	}
	for _, tt := range tests {
		if got := describe(tt.res); got != tt.want {
			t.Errorf("describe = %q, want %q", got, tt.want)
		}
	}
}
