package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

const (
	bundleManifest = "lang: en\nname: english\nversion: \"2\"\n" +
		"multipliers:\n  hundred: [hundred]\n  thousand: [thousand]\nconjunctions: [and]\n"
	bundleDigits = "zero\t0\none\t1\ntwo\t2\nthree\t3\nfour\t4\nfive\t5\nsix\t6\nseven\t7\neight\t8\nnine\t9\n"
	bundleTens   = "ten\t10\ntwenty\t20\n"
)

// serveZip serves a ZIP bundle built from files.
func serveZip(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, path, files)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImport(t *testing.T) {
	srv := serveZip(t, map[string]string{
		"english/manifest.yaml": bundleManifest,
		"english/digit.tsv":     bundleDigits,
		"english/tens.tsv":      bundleTens,
	})
	out := t.TempDir()
	// A stale copy is replaced.
	os.MkdirAll(filepath.Join(out, "en"), 0o755)
	os.WriteFile(filepath.Join(out, "en", "stale.tsv"), []byte("x"), 0o644)

	src := Source{Lang: "en", SourceURL: srv.URL + "/en.zip", License: "Apache-2.0"}
	dir, err := Import(context.Background(), src, out, Options{Snapshot: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if dir != filepath.Join(out, "en") {
		t.Errorf("dir = %q", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.tsv")); err == nil {
		t.Error("stale file survived")
	}
	if _, err := os.Stat(filepath.Join(dir, lexicon.SnapshotFile)); err != nil {
		t.Errorf("snapshot missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "_download-en")); err == nil {
		t.Error("download dir not cleaned up")
	}

	lex, m, err := lexicon.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if m.Source != src.SourceURL || m.License != "Apache-2.0" {
		t.Errorf("manifest provenance = %q %q", m.Source, m.License)
	}
	if !lex.HasTier(lexicon.Thousand) || !lex.Contains("twenty") {
		t.Error("imported lexicon incomplete")
	}
}

func TestImportRejectsBadBundles(t *testing.T) {
	tests := []struct {
		name  string
		lang  string
		files map[string]string
		want  string
	}{
		{"no manifest", "en", map[string]string{"digit.tsv": bundleDigits}, "manifest"},
		{"wrong language", "hi", map[string]string{
			"manifest.yaml": bundleManifest, "digit.tsv": bundleDigits, "tens.tsv": bundleTens,
		}, "source is \"hi\""},
		{"invalid table", "en", map[string]string{
			"manifest.yaml": bundleManifest, "digit.tsv": "one\t1\n", "tens.tsv": bundleTens,
		}, "validate bundle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveZip(t, tt.files)
			out := t.TempDir()
			_, err := Import(context.Background(), Source{Lang: tt.lang, SourceURL: srv.URL}, out, Options{Logger: quietLogger()})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
			if _, err := os.Stat(filepath.Join(out, strings.ToLower(tt.lang))); err == nil {
				t.Error("rejected bundle was installed")
			}
		})
	}
}
