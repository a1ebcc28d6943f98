package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/cardinal-itn/pkg/evalset"
)

func cmdEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	lang := fs.String("lang", "en", "language code")
	input := fs.String("input", "", "labelled TSV file (class, written, spoken)")
	class := fs.String("class", evalset.DefaultClass, `class to score, or "all"`)
	showFailures := fs.Int("failures", 10, "number of failures to print")
	history := fs.Bool("history", false, "list recorded runs instead of evaluating")
	record := fs.Bool("record", true, "store the run in the runs database")
	fs.Parse(args)

	cfg, logger, closer := setup(*cfgPath)
	defer closer.Close()
	ctx := context.Background()

	if *history {
		db, err := evalset.OpenRunDB(cfg.runsDB())
		if err != nil {
			fmt.Fprintf(os.Stderr, "open runs db: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		printHistory(ctx, db, *lang)
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: cardinal-itn eval -input <file.tsv> [-lang en] [-class CARDINAL|all]")
		os.Exit(1)
	}
	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	cases, err := evalset.Parse(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", *input, err)
		os.Exit(1)
	}

	cfg.CacheSize = 0
	reg := loadRegistry(ctx, cfg, logger, nil)
	n, ok := reg.Normalizer(*lang)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown language %q\n", *lang)
		os.Exit(1)
	}

	var classes []string
	if !strings.EqualFold(*class, "all") {
		classes = []string{*class}
	}
	started := time.Now()
	report, err := evalset.Run(ctx, n, cases, classes...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(started)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tCORRECT\tTOTAL\tACCURACY")
	for _, name := range report.ClassNames() {
		s := report.Classes[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\n", name, humanize.Comma(int64(s.Correct)), humanize.Comma(int64(s.Total)), 100*s.Accuracy())
	}
	o := report.Overall
	fmt.Fprintf(tw, "overall\t%s\t%s\t%.2f%%\n", humanize.Comma(int64(o.Correct)), humanize.Comma(int64(o.Total)), 100*o.Accuracy())
	tw.Flush()

	for i, fl := range report.Failures {
		if i == *showFailures {
			fmt.Printf("... and %d more failures\n", len(report.Failures)-i)
			break
		}
		fmt.Printf("line %d: %q -> %s %q, want %q\n", fl.Line, fl.Spoken, fl.Status, fl.Got, fl.Written)
	}

	if *record {
		db, err := evalset.OpenRunDB(cfg.runsDB())
		if err != nil {
			fmt.Fprintf(os.Stderr, "open runs db: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		id, err := db.Record(ctx, *lang, *input, started, elapsed, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "record run: %v\n", err)
			os.Exit(1)
		}
		logger.Info("evaluation recorded", "run", id, "lang", *lang, "cases", o.Total, "duration", elapsed)
	}
}

func printHistory(ctx context.Context, db *evalset.RunDB, lang string) {
	runs, err := db.Runs(ctx, lang, 20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLANG\tINPUT\tACCURACY\tCASES\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%s\t%s\n",
			r.ID[:8], r.Lang, r.Input, 100*r.Accuracy(), humanize.Comma(int64(r.Total)), humanize.Time(r.StartedAt))
	}
	tw.Flush()
}
