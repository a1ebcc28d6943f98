package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/mcpquic"
)

func cmdNormalize(args []string) {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	lang := fs.String("lang", "en", "language code")
	asJSON := fs.Bool("json", false, "print one JSON result per line")
	remote := fs.String("quic", "", "normalize on a remote server over MCP/QUIC (host:port)")
	fs.Parse(args)

	cfg, logger, closer := setup(*cfgPath)
	defer closer.Close()

	// Arguments form one phrase; without arguments each stdin line is one.
	phrases := []string{strings.Join(fs.Args(), " ")}
	if fs.NArg() == 0 {
		var err error
		if phrases, err = readLines(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
	}

	var normalize func(string) (*cardinal.Result, error)
	if *remote != "" {
		ctx := context.Background()
		c := mcpquic.NewClient(*remote, nil)
		if err := c.Connect(ctx, "cardinal-itn-cli"); err != nil {
			fmt.Fprintf(os.Stderr, "connect %s: %v\n", *remote, err)
			os.Exit(1)
		}
		defer c.Close()
		normalize = func(text string) (*cardinal.Result, error) {
			var res cardinal.Result
			err := c.Call(ctx, "normalize_cardinal", map[string]any{"lang": *lang, "text": text}, &res)
			return &res, err
		}
	} else {
		cfg.CacheSize = 0
		reg := loadRegistry(context.Background(), cfg, logger, nil)
		n, ok := reg.Normalizer(*lang)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown language %q\n", *lang)
			os.Exit(1)
		}
		normalize = func(text string) (*cardinal.Result, error) { return n.Normalize(text), nil }
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)
	failed := false
	for _, text := range phrases {
		res, err := normalize(text)
		if err != nil {
			out.Flush()
			fmt.Fprintf(os.Stderr, "%s: %v\n", text, err)
			os.Exit(1)
		}
		if res.Status != cardinal.Match {
			failed = true
		}
		if *asJSON {
			enc.Encode(res)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", text, describe(res))
	}
	if failed {
		out.Flush()
		os.Exit(2)
	}
}

// describe renders a result for terminal output.
func describe(res *cardinal.Result) string {
	switch res.Status {
	case cardinal.Match:
		return res.Value.Token()
	case cardinal.Ambiguous:
		return "ambiguous: " + strings.Join(res.Candidates, " | ")
	}
	if res.Unknown != "" {
		return fmt.Sprintf("no match (unknown word %q)", res.Unknown)
	}
	return "no match"
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
