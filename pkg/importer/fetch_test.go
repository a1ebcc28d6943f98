package importer

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func init() {
	retryBackoff = time.Millisecond
}

// flakyServer fails the first failures requests with status, then
// serves body. It counts every request.
func flakyServer(t *testing.T, failures int32, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= failures {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchBundle(t *testing.T) {
	tests := []struct {
		name     string
		failures int32
		status   int
		wantErr  bool
		wantHits int32
	}{
		{"first try", 0, 0, false, 1},
		{"recovers from 5xx", 2, http.StatusBadGateway, false, 3},
		{"5xx every time", 5, http.StatusInternalServerError, true, 3},
		{"4xx is not retried", 5, http.StatusNotFound, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := flakyServer(t, tt.failures, tt.status, "PK")
			dest := filepath.Join(t.TempDir(), "bundle.zip")
			err := fetchBundle(context.Background(), srv.URL, dest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("requests = %d, want %d", got, tt.wantHits)
			}
			if !tt.wantErr {
				data, _ := os.ReadFile(dest)
				if string(data) != "PK" {
					t.Errorf("content = %q", data)
				}
			}
		})
	}
}

func TestFetchBundleCancelled(t *testing.T) {
	srv, _ := flakyServer(t, 5, http.StatusServiceUnavailable, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fetchBundle(ctx, srv.URL, filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("fetch with a cancelled context succeeded")
	}
}

// writeZip builds a ZIP archive at path from name/content pairs.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		w.Write([]byte(files[name]))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()
}

func TestExtractBundle(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bundle.zip")
	writeZip(t, src, map[string]string{
		"en/manifest.yaml":         "lang: en\n",
		"en/data/digit.tsv":        "one\t1\n",
		"en/README.md":             "notes",
		"__MACOSX/en/._digit.tsv":  "junk",
		"en/.hidden.tsv":           "junk",
		"en/snapshots/lexicon.gob": "gob",
	})

	out := filepath.Join(dir, "out")
	os.MkdirAll(out, 0o755)
	names, err := extractBundle(src, out)
	if err != nil {
		t.Fatalf("extractBundle: %v", err)
	}
	if got := strings.Join(names, ","); got != "digit.tsv,lexicon.gob,manifest.yaml" {
		t.Errorf("names = %s", got)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 3 {
		t.Errorf("extracted %d files, want 3", len(entries))
	}
}

func TestExtractBundleErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"no manifest", map[string]string{"digit.tsv": "one\t1\n"}, "no manifest.yaml"},
		{"duplicate table", map[string]string{
			"manifest.yaml": "lang: en\n", "a/digit.tsv": "", "b/digit.tsv": "",
		}, "twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "bundle.zip")
			writeZip(t, src, tt.files)
			_, err := extractBundle(src, dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
	if _, err := extractBundle(filepath.Join(t.TempDir(), "missing.zip"), t.TempDir()); err == nil {
		t.Error("extract of a missing archive succeeded")
	}
}
