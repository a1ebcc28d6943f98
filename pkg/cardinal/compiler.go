// Package cardinal compiles a lexicon into the transducer that maps
// spoken cardinal phrases to digit strings, and evaluates phrases
// against it.
//
// Grammars are built once per lexicon and are immutable afterwards; a
// Normalizer may be shared by any number of goroutines.
package cardinal

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/hazyhaar/cardinal-itn/pkg/fst"
	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

// DefaultFillPenalty is the weight charged each time a tier's zeros are
// synthesized because the phrase ends right after the multiplier word.
// A spoken continuation never pays it.
const DefaultFillPenalty = 0.1

// Option configures Compile and NewNormalizer.
type Option func(*options)

type options struct {
	penalty float64
}

// WithDefaultFillPenalty overrides DefaultFillPenalty. Negative values
// are rejected by Compile.
func WithDefaultFillPenalty(w float64) Option {
	return func(o *options) { o.penalty = w }
}

func buildOptions(opts []Option) (options, error) {
	o := options{penalty: DefaultFillPenalty}
	for _, opt := range opts {
		opt(&o)
	}
	if o.penalty < 0 || math.IsNaN(o.penalty) || math.IsInf(o.penalty, 0) {
		return o, fmt.Errorf("cardinal: default fill penalty %v must be a finite non-negative weight", o.penalty)
	}
	return o, nil
}

// Grammar holds the compiled tier transducers of one lexicon.
type Grammar struct {
	lang    string
	penalty float64
	tiers   map[lexicon.Tier]*fst.FST
	widths  map[int]*fst.FST
	numeral *fst.FST
}

// Lang returns the language the grammar was compiled for.
func (g *Grammar) Lang() string { return g.lang }

// Penalty returns the default fill penalty the grammar was built with.
func (g *Grammar) Penalty() float64 { return g.penalty }

// Tier returns the grammar of every phrase headed by a multiplier of
// tier t, or nil when the lexicon lacks the tier.
func (g *Grammar) Tier(t lexicon.Tier) *fst.FST { return g.tiers[t] }

// Width returns the grammar of the phrases that produce exactly w
// digits and are usable as a zero-padded remainder, or nil.
func (g *Grammar) Width(w int) *fst.FST { return g.widths[w] }

// Numeral returns the union of every phrasing: zero, digits, tens,
// every tier and the standalone words.
func (g *Grammar) Numeral() *fst.FST { return g.numeral }

// compiler carries the phrase tables while tiers are added bottom-up.
type compiler struct {
	lex     *lexicon.Lexicon
	penalty float64
	// maxTail is the widest remainder any tier can take.
	maxTail int
	// byWidth[w] accepts the phrases built so far that produce exactly w
	// digits with a non-zero lead; only kept for w <= maxTail.
	byWidth map[int]*fst.FST
	// all accepts every phrase built so far, whatever its width.
	all *fst.FST
	// conj optionally consumes a conjunction word.
	conj *fst.FST
	// zeroWords consumes a word meaning "0" and emits nothing.
	zeroWords *fst.FST
}

// Compile builds the tier grammars of lex in the fixed chain order
// hundred, thousand, lakh, crore, million, billion. Absent tiers are
// skipped without breaking the chain.
func Compile(lex *lexicon.Lexicon, opts ...Option) (*Grammar, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		lex:     lex,
		penalty: o.penalty,
		byWidth: make(map[int]*fst.FST),
	}
	for _, t := range lexicon.Tiers() {
		if lex.HasTier(t) {
			c.maxTail = max(c.maxTail, t.Exponent())
		}
	}
	c.maxTail = max(c.maxTail, 2)

	var conj []*fst.FST
	for _, w := range lex.Conjunctions() {
		conj = append(conj, fst.Delete(fst.Words(w)...))
	}
	c.conj = fst.Optional(fst.Union(conj...))

	var zeroForms []*fst.FST
	for _, form := range c.zeroForms() {
		zeroForms = append(zeroForms, fst.Delete(fst.Words(form)...))
	}
	c.zeroWords = fst.Union(zeroForms...)

	c.seed()

	g := &Grammar{
		lang:    lex.Lang(),
		penalty: o.penalty,
		tiers:   make(map[lexicon.Tier]*fst.FST),
	}
	for _, t := range lexicon.Tiers() {
		if !lex.HasTier(t) {
			continue
		}
		g.tiers[t] = c.tier(t)
	}

	g.widths = make(map[int]*fst.FST, len(c.byWidth))
	for w, f := range c.byWidth {
		g.widths[w] = fst.Optimize(f)
	}
	g.numeral = fst.Optimize(fst.Union(c.zero(), c.all, c.standalone()))
	return g, nil
}

func (c *compiler) zeroForms() []string {
	var forms []string
	for _, d := range c.lex.Digits() {
		if d.Value == "0" {
			forms = append(forms, d.Form)
		}
	}
	for _, z := range c.lex.Zero() {
		if !slices.Contains(forms, z) {
			forms = append(forms, z)
		}
	}
	return forms
}

func zeros(n int) []string {
	return fst.Runes(strings.Repeat("0", n))
}

func rule(form, value string) *fst.FST {
	return fst.Cross(fst.Words(form), fst.Runes(value), 0)
}

// add records a phrase of width w.
func (c *compiler) add(w int, f *fst.FST) {
	if w <= c.maxTail {
		c.byWidth[w] = fst.Union(c.byWidth[w], f)
	}
}

// seed builds the phrases below the first tier: non-zero digits, the
// tens table and the compositional "ties digit" form (20..90 followed
// by a non-zero digit word).
func (c *compiler) seed() {
	var units, tens, ties []*fst.FST
	for _, d := range c.lex.Digits() {
		if d.Value != "0" {
			units = append(units, rule(d.Form, d.Value))
		}
	}
	for _, e := range c.lex.Tens() {
		tens = append(tens, rule(e.Form, e.Value))
		if e.Value[1] == '0' && e.Value[0] != '1' {
			ties = append(ties, rule(e.Form, e.Value[:1]))
		}
	}

	one := fst.Optimize(fst.Union(units...))
	two := fst.Optimize(fst.Union(
		fst.Union(tens...),
		fst.Concat(fst.Union(ties...), one),
	))
	c.add(1, one)
	c.add(2, two)
	c.all = fst.Union(one, two)
}

// tail is what may follow a tier's multiplier word: a spoken remainder
// of at most e digits padded to e, an explicit zero word, or the
// default fill.
func (c *compiler) tail(e int) *fst.FST {
	var spoken []*fst.FST
	for v := 1; v <= e; v++ {
		p := c.byWidth[v]
		if p.IsEmpty() {
			continue
		}
		spoken = append(spoken, fst.Concat(fst.Insert(zeros(e-v), 0), p))
	}
	explicit := fst.Concat(c.zeroWords, fst.Insert(zeros(e), 0))
	return fst.Optimize(fst.Union(
		fst.Concat(c.conj, fst.Union(fst.Union(spoken...), explicit)),
		fst.Insert(zeros(e), c.penalty),
	))
}

// tier compiles every phrase headed by a multiplier of t and folds it
// into the phrase tables for the tiers above.
func (c *compiler) tier(t lexicon.Tier) *fst.FST {
	e := t.Exponent()
	var mult, bare []*fst.FST
	for _, form := range c.lex.Multipliers(t) {
		mult = append(mult, fst.Delete(fst.Words(form)...))
		bare = append(bare, fst.Cross(fst.Words(form), []string{"1"}, 0))
	}
	del := fst.Union(mult...)
	bareForm := fst.Union(bare...)

	fused := make(map[int][]*fst.FST)
	var fusedAll []*fst.FST
	for _, f := range c.lex.Fused() {
		if f.Tier != t {
			continue
		}
		r := rule(f.Form, f.Prefix)
		fused[len(f.Prefix)] = append(fused[len(f.Prefix)], r)
		fusedAll = append(fusedAll, r)
	}

	tail := c.tail(e)

	// Width-exact copies first: they read the tables as they were
	// before this tier.
	widths := make(map[int]*fst.FST)
	for w := 1; w+e <= c.maxTail; w++ {
		var head []*fst.FST
		if p := c.byWidth[w]; !p.IsEmpty() && !del.IsEmpty() {
			head = append(head, fst.Concat(p, del))
		}
		if w == 1 {
			head = append(head, bareForm)
		}
		head = append(head, fused[w]...)
		if h := fst.Union(head...); !h.IsEmpty() {
			widths[w+e] = fst.Concat(h, tail)
		}
	}

	var prefixed *fst.FST
	if !del.IsEmpty() {
		prefixed = fst.Concat(c.all, del)
	}
	head := fst.Union(prefixed, bareForm, fst.Union(fusedAll...))
	g := fst.Optimize(fst.Concat(head, tail))

	for w, f := range widths {
		c.add(w, fst.Optimize(f))
	}
	c.all = fst.Union(c.all, g)
	return g
}

// zero accepts every word meaning "0" on its own.
func (c *compiler) zero() *fst.FST {
	var rules []*fst.FST
	for _, form := range c.zeroForms() {
		rules = append(rules, rule(form, "0"))
	}
	return fst.Union(rules...)
}

func (c *compiler) standalone() *fst.FST {
	var rules []*fst.FST
	for _, e := range c.lex.Standalone() {
		rules = append(rules, rule(e.Form, e.Value))
	}
	return fst.Union(rules...)
}
