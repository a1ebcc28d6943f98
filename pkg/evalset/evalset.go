// Package evalset scores a normalizer against labelled data in the text
// normalization corpus layout: class<TAB>written<TAB>spoken, where a
// spoken column of "<self>" means the token reads as written.
package evalset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
)

// DefaultClass is the only class a cardinal normalizer is expected to handle.
const DefaultClass = "CARDINAL"

const (
	selfMarker = "<self>"
	eosMarker  = "<eos>"
)

// Case is one labelled token.
type Case struct {
	Line    int
	Class   string
	Written string
	Spoken  string
}

// Parse reads cases from r. Blank lines, # comments and <eos> sentence
// markers are skipped.
func Parse(r io.Reader) ([]Case, error) {
	var cases []Case
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cols := strings.Split(text, "\t")
		if cols[0] == eosMarker {
			continue
		}
		if len(cols) != 3 {
			return nil, fmt.Errorf("line %d: want 3 tab-separated columns, got %d", line, len(cols))
		}
		c := Case{Line: line, Class: cols[0], Written: cols[1], Spoken: cols[2]}
		if c.Spoken == selfMarker {
			c.Spoken = c.Written
		}
		cases = append(cases, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", line+1, err)
	}
	return cases, nil
}

// ClassStats is the accuracy of one class.
type ClassStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Accuracy returns Correct/Total, or 0 for an empty class.
func (s ClassStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Failure is a case the normalizer got wrong.
type Failure struct {
	Case
	Status cardinal.Status
	Got    string
}

// Report is the outcome of Run.
type Report struct {
	Overall  ClassStats
	Classes  map[string]ClassStats
	Failures []Failure
}

// ClassNames returns the evaluated classes in order.
func (r *Report) ClassNames() []string {
	names := make([]string, 0, len(r.Classes))
	for name := range r.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run normalizes the spoken side of every case whose class is in classes
// (all classes when empty) and compares it with the written side.
func Run(ctx context.Context, n *cardinal.Normalizer, cases []Case, classes ...string) (*Report, error) {
	keep := make(map[string]bool, len(classes))
	for _, c := range classes {
		keep[strings.ToUpper(c)] = true
	}
	var selected []Case
	for _, c := range cases {
		if len(keep) == 0 || keep[strings.ToUpper(c.Class)] {
			selected = append(selected, c)
		}
	}

	results := make([]*cardinal.Result, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = n.Normalize(c.Spoken)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Classes: make(map[string]ClassStats)}
	for i, c := range selected {
		res := results[i]
		got := ""
		if res.Value != nil {
			got = res.Value.String()
		}
		ok := res.Status == cardinal.Match && got == canonical(c.Written)

		stats := report.Classes[c.Class]
		stats.Total++
		report.Overall.Total++
		if ok {
			stats.Correct++
			report.Overall.Correct++
		} else {
			report.Failures = append(report.Failures, Failure{Case: c, Status: res.Status, Got: got})
		}
		report.Classes[c.Class] = stats
	}
	return report, nil
}

// canonical strips digit grouping from a written number ("1,234" and
// "1 234" both become "1234").
func canonical(written string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, strings.TrimSpace(written))
}
