package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

// Options tunes Import.
type Options struct {
	// Snapshot writes lexicon.gob next to the tables so the registry
	// skips TSV parsing on load.
	Snapshot bool
	Logger   *slog.Logger
}

// Import downloads the lexicon bundle of src (a ZIP archive holding
// manifest.yaml and its tables), validates it and installs it as
// outputDir/<lang>. The previous copy is replaced only once the new one
// has been validated. It returns the installed directory.
func Import(ctx context.Context, src Source, outputDir string, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dirName := strings.ToLower(src.Lang)
	dlDir := filepath.Join(outputDir, "_download-"+dirName)
	stage := filepath.Join(dlDir, "bundle")
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", err
	}
	defer os.RemoveAll(dlDir)

	zipPath := filepath.Join(dlDir, "bundle.zip")
	logger.Info("downloading lexicon bundle", "lang", src.Lang, "url", src.SourceURL)
	if err := fetchBundle(ctx, src.SourceURL, zipPath); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	files, err := extractBundle(zipPath, stage)
	if err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}

	lex, manifest, err := lexicon.LoadDir(stage)
	if err != nil {
		return "", fmt.Errorf("validate bundle: %w", err)
	}
	if manifest.Lang != src.Lang {
		return "", fmt.Errorf("bundle is for language %q, source is %q", manifest.Lang, src.Lang)
	}

	if manifest.Source == "" || manifest.License == "" {
		if manifest.Source == "" {
			manifest.Source = src.SourceURL
		}
		if manifest.License == "" {
			manifest.License = src.License
		}
		if err := lexicon.WriteManifest(filepath.Join(stage, "manifest.yaml"), manifest); err != nil {
			return "", err
		}
	}
	if opts.Snapshot {
		if err := lexicon.SaveGob(lex, filepath.Join(stage, lexicon.SnapshotFile)); err != nil {
			return "", err
		}
	}

	target := filepath.Join(outputDir, dirName)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("remove previous %s: %w", target, err)
	}
	if err := os.Rename(stage, target); err != nil {
		return "", fmt.Errorf("install %s: %w", target, err)
	}
	logger.Info("lexicon imported", "lang", src.Lang, "dir", target, "files", len(files), "forms", lex.Size())
	return target, nil
}
