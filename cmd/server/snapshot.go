package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

// cmdSnapshot rebuilds lexicon.gob from the TSV tables of each lexicon.
func cmdSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	lang := fs.String("lang", "", "only snapshot this language")
	remove := fs.Bool("remove", false, "delete snapshots instead of writing them")
	fs.Parse(args)

	cfg, _, closer := setup(*cfgPath)
	defer closer.Close()

	entries, err := os.ReadDir(cfg.LexiconsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", cfg.LexiconsDir, err)
		os.Exit(1)
	}

	done := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.LexiconsDir, entry.Name())
		m, err := lexicon.LoadManifest(filepath.Join(dir, "manifest.yaml"))
		if err != nil || (*lang != "" && m.Lang != *lang) {
			continue
		}
		path := filepath.Join(dir, lexicon.SnapshotFile)

		if *remove {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", m.Lang, err)
				os.Exit(1)
			}
			done++
			continue
		}

		lex, _, err := lexicon.LoadTables(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", m.Lang, err)
			os.Exit(1)
		}
		if err := lexicon.SaveGob(lex, path); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", m.Lang, err)
			os.Exit(1)
		}
		size := int64(0)
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
		fmt.Printf("[%s] %d forms -> %s (%s)\n", m.Lang, lex.Size(), path, humanize.Bytes(uint64(size)))
		done++
	}
	if done == 0 && *lang != "" {
		fmt.Fprintf(os.Stderr, "no lexicon for language %q in %s\n", *lang, cfg.LexiconsDir)
		os.Exit(1)
	}
}
