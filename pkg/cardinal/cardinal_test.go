package cardinal

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

var smallWords = [...]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tiesWords = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

func englishSpec() lexicon.Spec {
	s := lexicon.Spec{
		Lang: "en",
		Multipliers: map[lexicon.Tier][]string{
			lexicon.Hundred:  {"hundred", "hundreds"},
			lexicon.Thousand: {"thousand", "thousands"},
			lexicon.Million:  {"million", "millions"},
			lexicon.Billion:  {"billion", "billions"},
		},
		Conjunctions: []string{"and"},
		Minus:        []string{"minus"},
	}
	for i := 0; i < 10; i++ {
		s.Digits = append(s.Digits, lexicon.Entry{Form: smallWords[i], Value: strconv.Itoa(i)})
	}
	for i := 10; i < 20; i++ {
		s.Tens = append(s.Tens, lexicon.Entry{Form: smallWords[i], Value: strconv.Itoa(i)})
	}
	for i := 2; i < 10; i++ {
		s.Tens = append(s.Tens, lexicon.Entry{Form: tiesWords[i], Value: strconv.Itoa(i * 10)})
	}
	return s
}

// english compiles once per test binary; the normalizer is read-only.
var english = sync.OnceValues(func() (*Normalizer, error) {
	lex, err := lexicon.New(englishSpec())
	if err != nil {
		return nil, err
	}
	return NewNormalizer(lex)
})

func mustEnglish(t *testing.T) *Normalizer {
	t.Helper()
	n, err := english()
	if err != nil {
		t.Fatalf("english normalizer: %v", err)
	}
	return n
}

func newNormalizer(t *testing.T, s lexicon.Spec, opts ...Option) *Normalizer {
	t.Helper()
	lex, err := lexicon.New(s)
	if err != nil {
		t.Fatalf("lexicon.New: %v", err)
	}
	n, err := NewNormalizer(lex, opts...)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

// say verbalizes n in English, short scale, without conjunctions.
func say(n int) string {
	if n == 0 {
		return "zero"
	}
	var parts []string
	for _, g := range []struct {
		v    int
		word string
	}{{1_000_000_000, "billion"}, {1_000_000, "million"}, {1_000, "thousand"}} {
		if n >= g.v {
			parts = append(parts, sayHundreds(n/g.v), g.word)
			n %= g.v
		}
	}
	if n > 0 {
		parts = append(parts, sayHundreds(n))
	}
	return strings.Join(parts, " ")
}

func sayHundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, smallWords[n/100], "hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		parts = append(parts, tiesWords[n/10])
		if n%10 > 0 {
			parts = append(parts, smallWords[n%10])
		}
	case n > 0:
		parts = append(parts, smallWords[n])
	}
	return strings.Join(parts, " ")
}

func wantDigits(t *testing.T, n *Normalizer, phrase, want string) *Result {
	t.Helper()
	r := n.Normalize(phrase)
	if r.Status != Match {
		t.Fatalf("Normalize(%q) status = %s (candidates %v), want match", phrase, r.Status, r.Candidates)
	}
	if got := r.Value.String(); got != want {
		t.Errorf("Normalize(%q) = %q, want %q", phrase, got, want)
	}
	return r
}

func TestEndToEnd(t *testing.T) {
	n := mustEnglish(t)
	tests := []struct {
		phrase string
		want   string
	}{
		{"twenty three", `integer: "23"`},
		{"minus twenty three", `negative: "-" integer: "23"`},
		{"one hundred", `integer: "100"`},
		{"two hundred and fifty", `integer: "250"`},
		{"one thousand two hundred", `integer: "1200"`},
		{"one thousand", `integer: "1000"`},
		{"zero", `integer: "0"`},
		{"minus zero", `negative: "-" integer: "0"`},
		{"seven", `integer: "7"`},
		{"fifteen", `integer: "15"`},
		{"hundred", `integer: "100"`},
		{"thousand", `integer: "1000"`},
		{"nineteen hundred", `integer: "1900"`},
		{"nineteen hundred and eighty four", `integer: "1984"`},
		{"one hundred and one", `integer: "101"`},
		{"one hundred ten", `integer: "110"`},
		{"two thousand and five", `integer: "2005"`},
		{"twenty one thousand", `integer: "21000"`},
		{"five hundred thousand", `integer: "500000"`},
		{"one million two hundred thousand five", `integer: "1200005"`},
		{"one billion five thousand", `integer: "1000005000"`},
		{"three hundreds", `integer: "300"`},
		{"Two Hundred And Fifty", `integer: "250"`},
		{"nine hundred ninety nine billion nine hundred ninety nine million nine hundred ninety nine thousand nine hundred ninety nine", `integer: "999999999999"`},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			r := n.Normalize(tt.phrase)
			if r.Status != Match {
				t.Fatalf("status = %s, candidates %v", r.Status, r.Candidates)
			}
			if got := r.Value.Tagged(); got != tt.want {
				t.Errorf("Tagged() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDigitRoundTrip(t *testing.T) {
	n := mustEnglish(t)
	lex := n.Lexicon()
	for _, e := range append(lex.Digits(), lex.Tens()...) {
		wantDigits(t, n, e.Form, e.Value)
	}
}

func TestCascadingCompleteness(t *testing.T) {
	n := mustEnglish(t)

	for a := 1; a <= 9; a++ {
		for b := 0; b <= 99; b++ {
			phrase := smallWords[a] + " hundred"
			if b > 0 {
				phrase += " " + sayHundreds(b)
			}
			wantDigits(t, n, phrase, strconv.Itoa(a*100+b))
		}
	}

	step := 1
	if testing.Short() {
		step = 37
	}
	for a := 1; a <= 99; a++ {
		for b := 0; b <= 999; b += step {
			phrase := sayHundreds(a) + " thousand"
			if b > 0 {
				phrase += " " + sayHundreds(b)
			}
			wantDigits(t, n, phrase, strconv.Itoa(a*1000+b))
		}
	}
}

func TestVerbalizedNumbers(t *testing.T) {
	n := mustEnglish(t)
	for _, v := range []int{
		0, 9, 10, 99, 100, 101, 999, 1000, 1001, 1010, 1100, 9999, 10000, 10001,
		99999, 100000, 100001, 123456, 999999, 1000000, 1000001, 1001000,
		12345678, 100000000, 987654321, 1000000000, 1000000001, 2000300040,
		123456789012,
	} {
		wantDigits(t, n, say(v), strconv.Itoa(v))
	}
}

func TestDefaultFillIdempotence(t *testing.T) {
	n := mustEnglish(t)
	pairs := [][2]string{
		{"one thousand", "one thousand zero"},
		{"five hundred", "five hundred zero"},
		{"two million", "two million zero"},
		{"three billion", "three billion and zero"},
		{"seven thousand three hundred", "seven thousand three hundred zero"},
	}
	for _, p := range pairs {
		short := n.Normalize(p[0])
		long := n.Normalize(p[1])
		if short.Status != Match || long.Status != Match {
			t.Fatalf("%q: %s, %q: %s", p[0], short.Status, p[1], long.Status)
		}
		if short.Value.Digits != long.Value.Digits {
			t.Errorf("%q = %s but %q = %s", p[0], short.Value.Digits, p[1], long.Value.Digits)
		}
	}
}

func TestDefaultFillWeight(t *testing.T) {
	n := mustEnglish(t)
	tests := []struct {
		phrase string
		weight float64
	}{
		{"twenty three", 0},
		{"two hundred and fifty", 0},
		{"one hundred", DefaultFillPenalty},
		{"one thousand", DefaultFillPenalty},
		{"one thousand two hundred", DefaultFillPenalty},
		{"one thousand zero", 0},
		{"two million three thousand", DefaultFillPenalty},
		{"two thousand million", 2 * DefaultFillPenalty},
	}
	for _, tt := range tests {
		r := n.Normalize(tt.phrase)
		if r.Status != Match {
			t.Fatalf("Normalize(%q) status = %s", tt.phrase, r.Status)
		}
		if diff := r.Value.Weight - tt.weight; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%q weight = %v, want %v", tt.phrase, r.Value.Weight, tt.weight)
		}
	}
}

func TestSignHandling(t *testing.T) {
	n := mustEnglish(t)
	for _, v := range []int{0, 7, 23, 100, 250, 1200, 1000000, 987654321} {
		phrase := say(v)
		pos := n.Normalize(phrase)
		neg := n.Normalize("minus " + phrase)
		if pos.Status != Match || neg.Status != Match {
			t.Fatalf("%q: %s, minus: %s", phrase, pos.Status, neg.Status)
		}
		if !neg.Value.Negative || pos.Value.Negative {
			t.Errorf("%q: negative flags %v/%v", phrase, pos.Value.Negative, neg.Value.Negative)
		}
		if neg.Value.String() != "-"+pos.Value.String() {
			t.Errorf("minus %q = %s, want -%s", phrase, neg.Value, pos.Value)
		}
	}
}

func TestRejection(t *testing.T) {
	n := mustEnglish(t)
	tests := []struct {
		phrase  string
		unknown string
	}{
		{"", ""},
		{"twenty banana", "banana"},
		{"Twenty Banana", "banana"},
		{"two  hundred", ""},
		{"three two", ""},
		{"hundred hundred", ""},
		{"and", ""},
		{"minus", ""},
		{"twenty and three", ""},
		{"one thousand and", ""},
		{"minus minus one", ""},
		{"one two hundred", ""},
		{"zero hundred", ""},
		{"one hundred minus", ""},
		{"one thousand thousand", ""},
	}
	for _, tt := range tests {
		r := n.Normalize(tt.phrase)
		if r.Status != NoMatch {
			t.Errorf("Normalize(%q) = %s %v, want no_match", tt.phrase, r.Status, r.Value)
			continue
		}
		if r.Value != nil || r.Candidates != nil {
			t.Errorf("Normalize(%q) carries a reading on no_match", tt.phrase)
		}
		if r.Unknown != tt.unknown {
			t.Errorf("Normalize(%q) unknown = %q, want %q", tt.phrase, r.Unknown, tt.unknown)
		}
	}
}

func TestEvaluateTokens(t *testing.T) {
	n := mustEnglish(t)
	r := n.Evaluate([]string{"Two", "hundred"})
	if r.Status != Match || r.Value.Digits != "200" {
		t.Fatalf("Evaluate = %s %v", r.Status, r.Value)
	}
	if r.Input[0] != "Two" {
		t.Errorf("Input = %v, want the words as given", r.Input)
	}
	if r := n.Evaluate(nil); r.Status != NoMatch {
		t.Errorf("Evaluate(nil) = %s", r.Status)
	}
}

func TestAccepts(t *testing.T) {
	n := mustEnglish(t)
	if !n.Accepts([]string{"two", "hundred", "and", "fifty"}) {
		t.Error("Accepts(two hundred and fifty) = false")
	}
	if !n.Accepts([]string{"minus", "one"}) {
		t.Error("Accepts(minus one) = false")
	}
	for _, words := range [][]string{nil, {"three", "two"}, {"banana"}} {
		if n.Accepts(words) {
			t.Errorf("Accepts(%v) = true", words)
		}
	}
}

func TestNoFalseAmbiguity(t *testing.T) {
	n := mustEnglish(t)
	for v := 0; v < 100_000; v += 97 {
		phrase := say(v)
		if r := n.Normalize(phrase); r.Status != Match {
			t.Errorf("Normalize(%q) = %s %v", phrase, r.Status, r.Candidates)
		}
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	n := mustEnglish(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for v := i; v < 2000; v += 8 {
				r := n.Normalize(say(v))
				if r.Status != Match || r.Value.Digits != strconv.Itoa(v) {
					t.Errorf("goroutine %d: %q = %s %v", i, say(v), r.Status, r.Value)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
