package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/cardinal-itn/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	lang := fs.String("lang", "", "language to import (e.g. en)")
	all := fs.Bool("all", false, "import every registered source")
	add := fs.String("add", "", "register a source as lang=url")
	desc := fs.String("desc", "", "description for -add")
	license := fs.String("license", "", "license for -add")
	setURL := fs.String("set-url", "", "change the url of -lang")
	check := fs.Bool("check", false, "check that every source is reachable")
	snapshot := fs.Bool("snapshot", true, "write a gob snapshot next to the imported tables")
	fs.Parse(args)

	cfg, logger, closer := setup(*cfgPath)
	defer closer.Close()

	if err := os.MkdirAll(cfg.LexiconsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", cfg.LexiconsDir, err)
		os.Exit(1)
	}
	sdb, err := importer.OpenSourceDB(cfg.sourcesDB())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open sources db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	switch {
	case *add != "":
		l, url, ok := strings.Cut(*add, "=")
		if !ok || l == "" || url == "" {
			fmt.Fprintln(os.Stderr, "-add wants lang=url")
			os.Exit(1)
		}
		if err := sdb.Seed([]importer.Source{{Lang: l, SourceURL: url, Description: *desc, License: *license}}); err != nil {
			fmt.Fprintf(os.Stderr, "add source: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[%s] source registered\n", l)
		return

	case *setURL != "":
		if err := sdb.SetURL(*lang, *setURL); err != nil {
			fmt.Fprintf(os.Stderr, "set url: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[%s] url updated\n", *lang)
		return

	case *check:
		report := importer.NewChecker(sdb, logger, time.Hour).CheckAll(ctx)
		fmt.Printf("%d/%d sources reachable\n", report.OK, report.Total)
		if len(report.Failed) > 0 {
			fmt.Printf("unreachable: %s\n", strings.Join(report.Failed, ", "))
			os.Exit(1)
		}
		return
	}

	sources, err := sdb.ListSources()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list sources: %v\n", err)
		os.Exit(1)
	}

	if !*all && *lang == "" {
		fmt.Println("Registered sources:")
		fmt.Println()
		for _, src := range sources {
			status := ""
			if src.LastStatus != nil {
				status = fmt.Sprintf("  [%d]", *src.LastStatus)
			}
			imported := "never imported"
			if src.LastImport != nil {
				imported = "imported " + humanize.Time(time.Unix(*src.LastImport, 0))
			}
			fmt.Printf("  %-8s  %s  (%s)%s\n", src.Lang, src.SourceURL, imported, status)
		}
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  cardinal-itn import -add <lang>=<url> [-desc ...] [-license ...]")
		fmt.Println("  cardinal-itn import -lang <lang> | -all")
		fmt.Println("  cardinal-itn import -check")
		return
	}

	opts := importer.Options{Snapshot: *snapshot, Logger: logger}
	if !*all {
		src, err := sdb.Get(*lang)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", *lang, err)
			os.Exit(1)
		}
		sources = []importer.Source{src}
	}

	failed := 0
	for _, src := range sources {
		fmt.Printf("[%s] importing...\n", src.Lang)
		dir, err := importer.Import(ctx, src, cfg.LexiconsDir, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", src.Lang, err)
			failed++
			continue
		}
		if err := sdb.MarkImported(src.Lang); err != nil {
			logger.Warn("mark imported", "lang", src.Lang, "error", err)
		}
		fmt.Printf("[%s] OK -> %s\n", src.Lang, dir)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
