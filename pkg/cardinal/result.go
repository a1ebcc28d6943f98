package cardinal

import (
	"fmt"
	"strings"
)

// Tagged output pieces.
const (
	negativeTag = `negative: "-" `
	integerOpen = `integer: "`
	integerEnd  = `"`
)

// Status classifies an evaluation.
type Status int

const (
	// NoMatch: the phrase is outside the grammar or uses unknown words.
	NoMatch Status = iota
	// Match: exactly one cheapest reading.
	Match
	// Ambiguous: two or more cheapest readings disagree.
	Ambiguous
)

var statusNames = [...]string{"no_match", "match", "ambiguous"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText renders the status as its snake_case name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// NormalizedResult is one reading of a phrase.
type NormalizedResult struct {
	Digits   string  `json:"digits"`
	Negative bool    `json:"negative,omitempty"`
	Weight   float64 `json:"weight"`
}

// Tagged renders the token contract: `integer: "250"`, or
// `negative: "-" integer: "250"`.
func (r NormalizedResult) Tagged() string {
	var b strings.Builder
	if r.Negative {
		b.WriteString(negativeTag)
	}
	b.WriteString(integerOpen)
	b.WriteString(r.Digits)
	b.WriteString(integerEnd)
	return b.String()
}

// Token wraps Tagged in its class: `cardinal { integer: "250" }`.
func (r NormalizedResult) Token() string {
	return "cardinal { " + r.Tagged() + " }"
}

// String returns the signed digit string.
func (r NormalizedResult) String() string {
	if r.Negative {
		return "-" + r.Digits
	}
	return r.Digits
}

// parseTagged reads back a string produced by the normalizer's output
// tape. Anything else is a compiler bug.
func parseTagged(s string) NormalizedResult {
	var r NormalizedResult
	rest := s
	if strings.HasPrefix(rest, negativeTag) {
		r.Negative = true
		rest = rest[len(negativeTag):]
	}
	if !strings.HasPrefix(rest, integerOpen) || !strings.HasSuffix(rest, integerEnd) || len(rest) <= len(integerOpen)+len(integerEnd) {
		panic(fmt.Sprintf("cardinal: malformed tagged output %q", s))
	}
	r.Digits = rest[len(integerOpen) : len(rest)-len(integerEnd)]
	if !isDigits(r.Digits) {
		panic(fmt.Sprintf("cardinal: malformed tagged output %q", s))
	}
	return r
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Result is the outcome of evaluating one phrase. NoMatch and Ambiguous
// are ordinary outcomes, not errors.
type Result struct {
	Input  []string          `json:"input"`
	Status Status            `json:"status"`
	Value  *NormalizedResult `json:"value,omitempty"`
	// Candidates lists the tagged readings of an ambiguous phrase, sorted.
	Candidates []string `json:"candidates,omitempty"`
	// Unknown is the first input word found in no lexicon table.
	Unknown string `json:"unknown,omitempty"`
}
