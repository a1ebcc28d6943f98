// Package lexicon holds the per-language word tables a cardinal grammar
// is compiled from: digits, tens, zero, multiplier words per magnitude
// tier, fused multiplier words, standalone words, conjunctions and the
// minus word.
//
// A Lexicon is validated once by New and is immutable afterwards.
package lexicon

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Tier is a magnitude grouping word.
type Tier int

// Tiers in compilation order.
const (
	Hundred Tier = iota
	Thousand
	Lakh
	Crore
	Million
	Billion
)

var tierNames = [...]string{"hundred", "thousand", "lakh", "crore", "million", "billion"}

// exponents are the number of digits a tier's multiplier shifts its
// prefix by.
var exponents = [...]int{2, 3, 5, 7, 6, 9}

// Tiers returns every tier in compilation order.
func Tiers() []Tier {
	return []Tier{Hundred, Thousand, Lakh, Crore, Million, Billion}
}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Exponent returns the power of ten the tier's multiplier stands for.
func (t Tier) Exponent() int { return exponents[t] }

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t >= Hundred && t <= Billion }

// ParseTier maps a tier name ("hundred", "lakh", ...) to its Tier.
func ParseTier(s string) (Tier, error) {
	for i, n := range tierNames {
		if strings.EqualFold(s, n) {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// Entry maps a surface form to the digit string it denotes.
type Entry struct {
	Form  string
	Value string
}

// FusedEntry is one orthographic word meaning Prefix × Tier, e.g. a
// single token for "three hundred" has Prefix "3" and Tier Hundred.
type FusedEntry struct {
	Form   string
	Tier   Tier
	Prefix string
}

// Spec is the raw material for New. Forms may contain several
// space-separated words; each word becomes one grammar token.
type Spec struct {
	Lang         string
	Digits       []Entry
	Tens         []Entry
	Zero         []string
	Multipliers  map[Tier][]string
	Fused        []FusedEntry
	Standalone   []Entry
	Conjunctions []string
	Minus        []string
}

// Lexicon is a validated, immutable Spec.
type Lexicon struct {
	lang         string
	digits       []Entry
	tens         []Entry
	zero         []string
	multipliers  map[Tier][]string
	fused        []FusedEntry
	standalone   []Entry
	conjunctions []string
	minus        []string
	alphabet     map[string]struct{}
}

// New folds every form, validates the tables and returns the Lexicon.
// The returned error is a *ConfigError naming the offending table and
// form.
func New(s Spec) (*Lexicon, error) {
	if s.Lang == "" {
		return nil, &ConfigError{Table: "lang", Reason: "missing language code"}
	}
	v := &validator{lang: s.Lang, values: make(map[string]formInfo), tiers: make(map[string]Tier)}
	lex := &Lexicon{lang: s.Lang, multipliers: make(map[Tier][]string)}

	seen := make(map[string]bool)
	for _, e := range s.Digits {
		form, err := v.value("digit", e.Form, e.Value)
		if err != nil {
			return nil, err
		}
		if len(e.Value) != 1 || !isDigits(e.Value) {
			return nil, v.errorf("digit", e.Form, "value %q is not a single digit", e.Value)
		}
		seen[e.Value] = true
		lex.digits = appendEntry(lex.digits, Entry{form, e.Value})
	}
	for d := '0'; d <= '9'; d++ {
		if !seen[string(d)] {
			return nil, v.errorf("digit", "", "no form for digit %q", string(d))
		}
	}

	for _, e := range s.Tens {
		form, err := v.value("tens", e.Form, e.Value)
		if err != nil {
			return nil, err
		}
		if len(e.Value) != 2 || !isDigits(e.Value) || e.Value[0] == '0' {
			return nil, v.errorf("tens", e.Form, "value %q is not in 10..99", e.Value)
		}
		lex.tens = appendEntry(lex.tens, Entry{form, e.Value})
	}
	if len(lex.tens) == 0 {
		return nil, v.errorf("tens", "", "table is empty")
	}

	for _, z := range s.Zero {
		form, err := v.value("zero", z, "0")
		if err != nil {
			return nil, err
		}
		lex.zero = appendForm(lex.zero, form)
	}

	for _, t := range Tiers() {
		for _, raw := range s.Multipliers[t] {
			form, err := v.multiplier(t, raw)
			if err != nil {
				return nil, err
			}
			lex.multipliers[t] = appendForm(lex.multipliers[t], form)
		}
	}
	for t := range s.Multipliers {
		if !t.Valid() {
			return nil, v.errorf("multiplier", "", "unknown tier %d", int(t))
		}
	}

	for _, e := range s.Fused {
		if !e.Tier.Valid() {
			return nil, v.errorf("fused", e.Form, "unknown tier %d", int(e.Tier))
		}
		if !isDigits(e.Prefix) || e.Prefix == "" || e.Prefix[0] == '0' {
			return nil, v.errorf("fused", e.Form, "prefix %q is not a positive number", e.Prefix)
		}
		form, err := v.value("fused", e.Form, e.Prefix+strings.Repeat("0", e.Tier.Exponent()))
		if err != nil {
			return nil, err
		}
		lex.fused = append(lex.fused, FusedEntry{Form: form, Tier: e.Tier, Prefix: e.Prefix})
	}

	for _, e := range s.Standalone {
		if !isDigits(e.Value) || e.Value == "" || (len(e.Value) > 1 && e.Value[0] == '0') {
			return nil, v.errorf("standalone", e.Form, "value %q is not a number", e.Value)
		}
		form, err := v.value("standalone", e.Form, e.Value)
		if err != nil {
			return nil, err
		}
		lex.standalone = appendEntry(lex.standalone, Entry{form, e.Value})
	}

	for _, c := range s.Conjunctions {
		form, err := v.keyword("conjunction", c)
		if err != nil {
			return nil, err
		}
		lex.conjunctions = appendForm(lex.conjunctions, form)
	}
	for _, m := range s.Minus {
		form, err := v.keyword("minus", m)
		if err != nil {
			return nil, err
		}
		lex.minus = appendForm(lex.minus, form)
	}

	lex.alphabet = make(map[string]struct{})
	for form := range v.values {
		lex.addTokens(form)
	}
	for form := range v.tiers {
		lex.addTokens(form)
	}
	for _, f := range lex.conjunctions {
		lex.addTokens(f)
	}
	for _, f := range lex.minus {
		lex.addTokens(f)
	}

	if v.duplicates > 0 {
		slog.Warn("duplicate lexicon forms ignored", "lang", s.Lang, "duplicates", v.duplicates)
	}
	return lex, nil
}

func (l *Lexicon) addTokens(form string) {
	for _, tok := range strings.Fields(form) {
		l.alphabet[tok] = struct{}{}
	}
}

func appendEntry(list []Entry, e Entry) []Entry {
	if slices.Contains(list, e) {
		return list
	}
	return append(list, e)
}

func appendForm(list []string, f string) []string {
	if slices.Contains(list, f) {
		return list
	}
	return append(list, f)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Lang returns the language code.
func (l *Lexicon) Lang() string { return l.lang }

// Digits returns the digit table, values "0".."9".
func (l *Lexicon) Digits() []Entry { return slices.Clone(l.digits) }

// Tens returns the two-digit table (10..99).
func (l *Lexicon) Tens() []Entry { return slices.Clone(l.tens) }

// Zero returns the extra forms for "0" beyond the digit table.
func (l *Lexicon) Zero() []string { return slices.Clone(l.zero) }

// Multipliers returns the forms of tier t; nil when the tier is absent.
func (l *Lexicon) Multipliers(t Tier) []string { return slices.Clone(l.multipliers[t]) }

// Fused returns the fused multiplier words.
func (l *Lexicon) Fused() []FusedEntry { return slices.Clone(l.fused) }

// Standalone returns words that denote a value on their own.
func (l *Lexicon) Standalone() []Entry { return slices.Clone(l.standalone) }

// Conjunctions returns the optional linking words ("and").
func (l *Lexicon) Conjunctions() []string { return slices.Clone(l.conjunctions) }

// Minus returns the negative marker words.
func (l *Lexicon) Minus() []string { return slices.Clone(l.minus) }

// HasTier reports whether tier t has a multiplier word or a fused form.
func (l *Lexicon) HasTier(t Tier) bool {
	if len(l.multipliers[t]) > 0 {
		return true
	}
	for _, f := range l.fused {
		if f.Tier == t {
			return true
		}
	}
	return false
}

// Contains reports whether word is a token of any table.
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.alphabet[word]
	return ok
}

// Alphabet returns every token, sorted.
func (l *Lexicon) Alphabet() []string {
	return slices.Sorted(maps.Keys(l.alphabet))
}

// Size returns the number of value-bearing forms.
func (l *Lexicon) Size() int {
	n := len(l.digits) + len(l.tens) + len(l.zero) + len(l.fused) + len(l.standalone)
	for _, forms := range l.multipliers {
		n += len(forms)
	}
	return n
}

// Spec returns a copy of the tables in Spec form, for snapshots.
func (l *Lexicon) Spec() Spec {
	s := Spec{
		Lang:         l.lang,
		Digits:       l.Digits(),
		Tens:         l.Tens(),
		Zero:         l.Zero(),
		Multipliers:  make(map[Tier][]string, len(l.multipliers)),
		Fused:        l.Fused(),
		Standalone:   l.Standalone(),
		Conjunctions: l.Conjunctions(),
		Minus:        l.Minus(),
	}
	for t, forms := range l.multipliers {
		s.Multipliers[t] = slices.Clone(forms)
	}
	return s
}
