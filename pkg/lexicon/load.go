package lexicon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// SnapshotFile is the gob snapshot name inside a lexicon directory. When
// present it takes priority over the TSV tables.
const SnapshotFile = "lexicon.gob"

// LoadDir reads manifest.yaml from dir and assembles the Lexicon from
// the gob snapshot or, failing that, the TSV tables it names.
func LoadDir(dir string) (*Lexicon, *Manifest, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, nil, err
	}

	snap := filepath.Join(dir, SnapshotFile)
	if _, err := os.Stat(snap); err == nil {
		lex, err := LoadGob(snap)
		if err != nil {
			return nil, nil, fmt.Errorf("lexicon %s: %w", manifest.Lang, err)
		}
		return lex, manifest, nil
	}

	lex, err := loadTables(dir, manifest)
	if err != nil {
		return nil, nil, err
	}
	return lex, manifest, nil
}

// LoadTables is LoadDir without the snapshot: the Lexicon always comes
// from the TSV tables.
func LoadTables(dir string) (*Lexicon, *Manifest, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, nil, err
	}
	lex, err := loadTables(dir, manifest)
	if err != nil {
		return nil, nil, err
	}
	return lex, manifest, nil
}

func loadTables(dir string, m *Manifest) (*Lexicon, error) {
	spec, err := readSpec(dir, m)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", m.Lang, err)
	}
	return New(spec)
}

func readSpec(dir string, m *Manifest) (Spec, error) {
	s := Spec{
		Lang:         m.Lang,
		Multipliers:  make(map[Tier][]string),
		Conjunctions: m.Conjunctions,
		Minus:        m.Minus,
	}
	for name, forms := range m.Multipliers {
		t, _ := ParseTier(name)
		s.Multipliers[t] = append(s.Multipliers[t], forms...)
	}

	var err error
	if s.Digits, err = readEntries(dir, m.Files.Digit, m.Format, true); err != nil {
		return s, err
	}
	if s.Tens, err = readEntries(dir, m.Files.Tens, m.Format, true); err != nil {
		return s, err
	}
	if s.Standalone, err = readEntries(dir, m.Files.Multiples, m.Format, false); err != nil {
		return s, err
	}

	zeroFile := m.Files.Zero
	if zeroFile == "" {
		zeroFile = "zero.tsv"
	}
	zeros, err := readEntries(dir, zeroFile, m.Format, m.Files.Zero != "")
	if err != nil {
		return s, err
	}
	for _, z := range zeros {
		if z.Value != "0" {
			return s, fmt.Errorf("%s: form %q maps to %q, want 0", zeroFile, z.Form, z.Value)
		}
		s.Zero = append(s.Zero, z.Form)
	}

	if m.Files.Fused != "" {
		rows, err := readTable(filepath.Join(dir, m.Files.Fused), m.Format)
		if err != nil {
			return s, err
		}
		for _, row := range rows {
			if len(row) < 2 {
				return s, fmt.Errorf("%s: row %v: want form, prefix[, tier]", m.Files.Fused, row)
			}
			tier := Hundred
			if len(row) > 2 && row[2] != "" {
				if tier, err = ParseTier(row[2]); err != nil {
					return s, fmt.Errorf("%s: %w", m.Files.Fused, err)
				}
			}
			s.Fused = append(s.Fused, FusedEntry{Form: row[0], Prefix: row[1], Tier: tier})
		}
	}
	return s, nil
}

// readEntries reads a form/value table. A missing optional file yields
// no entries.
func readEntries(dir, name string, format FormatSpec, required bool) ([]Entry, error) {
	if name == "" {
		return nil, nil
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		return nil, nil
	}
	rows, err := readTable(path, format)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: row %v: want form and value", name, row)
		}
		entries = append(entries, Entry{Form: row[0], Value: row[len(row)-1]})
	}
	return entries, nil
}

// readTable reads every non-empty row of a delimited file, transcoding
// non-UTF-8 encodings declared in the manifest.
func readTable(path string, format FormatSpec) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if enc := format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	r.Comma = '\t'
	if delim := format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.Comment = '#'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	if format.HasHeader {
		if _, err := r.Read(); err != nil {
			return nil, fmt.Errorf("read header %s: %w", path, err)
		}
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %s: %w", path, err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
