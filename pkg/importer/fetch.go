package importer

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

const (
	fetchAttempts = 3
	// maxBundleSize caps both the archive and each extracted table.
	maxBundleSize = 32 << 20
)

// retryBackoff is the base delay between fetch attempts.
var retryBackoff = time.Second

var bundleClient = &http.Client{Timeout: 5 * time.Minute}

// errPermanent marks a fetch failure that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// fetchBundle downloads url into dest. Network errors and 5xx responses
// are retried with exponential backoff; any other non-200 status fails at
// once.
func fetchBundle(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := range fetchAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff << attempt):
			}
		}
		lastErr = fetchOnce(ctx, url, dest)
		if lastErr == nil || errors.Is(lastErr, errPermanent) || ctx.Err() != nil {
			return lastErr
		}
	}
	return fmt.Errorf("fetch %s: %d attempts: %w", url, fetchAttempts, lastErr)
}

func fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	resp, err := bundleClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d for %s", errPermanent, resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxBundleSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > maxBundleSize {
		return fmt.Errorf("%w: bundle larger than %d bytes", errPermanent, maxBundleSize)
	}
	return nil
}

// extractBundle copies the lexicon files of a ZIP archive flat into
// destDir: manifest.yaml, the snapshot and every .tsv table, wherever
// they sit in the archive. Other entries are skipped. It returns the
// extracted file names, sorted.
func extractBundle(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	seen := make(map[string]string)
	for _, f := range r.File {
		name := path.Base(f.Name)
		if f.FileInfo().IsDir() || !isBundleFile(name) || strings.Contains(f.Name, "__MACOSX/") {
			continue
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("zip holds %s twice: %s and %s", name, prev, f.Name)
		}
		seen[name] = f.Name
		if err := extractEntry(f, filepath.Join(destDir, name)); err != nil {
			return nil, err
		}
	}
	if _, ok := seen["manifest.yaml"]; !ok {
		return nil, errors.New("bundle has no manifest.yaml")
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func isBundleFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return name == "manifest.yaml" || name == lexicon.SnapshotFile || strings.HasSuffix(name, ".tsv")
}

func extractEntry(f *zip.File, dest string) error {
	if f.UncompressedSize64 > maxBundleSize {
		return fmt.Errorf("zip entry %s: %d bytes exceeds limit", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	_, err = io.Copy(out, io.LimitReader(rc, maxBundleSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}
