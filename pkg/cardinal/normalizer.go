package cardinal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/cardinal-itn/pkg/fst"
	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

// Normalizer is the compiled cardinal tagger of one language. It is
// immutable and safe for concurrent use.
type Normalizer struct {
	lex     *lexicon.Lexicon
	grammar *Grammar
	final   *fst.FST
	input   *fst.FST
	elapsed time.Duration
}

// NewNormalizer compiles lex and wraps the numeral grammar in the output
// contract: an optional leading minus word becomes `negative: "-" `, the
// digits are emitted as `integer: "<digits>"`.
func NewNormalizer(lex *lexicon.Lexicon, opts ...Option) (*Normalizer, error) {
	start := time.Now()
	g, err := Compile(lex, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", lex.Lang(), err)
	}

	var minus []*fst.FST
	for _, m := range lex.Minus() {
		minus = append(minus, fst.Cross(fst.Words(m), fst.Runes(negativeTag), 0))
	}
	final := fst.Optimize(fst.Concat(
		fst.Optional(fst.Union(minus...)),
		fst.Insert(fst.Runes(integerOpen), 0),
		g.Numeral(),
		fst.Insert(fst.Runes(integerEnd), 0),
	))
	if final.IsEmpty() {
		return nil, fmt.Errorf("compile %s: grammar accepts nothing", lex.Lang())
	}

	n := &Normalizer{
		lex:     lex,
		grammar: g,
		final:   final,
		input:   fst.ProjectInput(final),
		elapsed: time.Since(start),
	}
	slog.Info("cardinal grammar compiled",
		"lang", lex.Lang(),
		"states", humanize.Comma(int64(final.NumStates())),
		"arcs", humanize.Comma(int64(final.NumArcs())),
		"duration", n.elapsed.Round(time.Millisecond))
	return n, nil
}

// Lang returns the language code.
func (n *Normalizer) Lang() string { return n.lex.Lang() }

// Lexicon returns the lexicon the normalizer was compiled from.
func (n *Normalizer) Lexicon() *lexicon.Lexicon { return n.lex }

// Grammar returns the tier grammars.
func (n *Normalizer) Grammar() *Grammar { return n.grammar }

// FST returns the final tagged transducer.
func (n *Normalizer) FST() *fst.FST { return n.final }

// CompileTime returns how long NewNormalizer took.
func (n *Normalizer) CompileTime() time.Duration { return n.elapsed }
