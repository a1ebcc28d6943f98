package cardinal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/cardinal-itn/pkg/fst"
	"github.com/hazyhaar/cardinal-itn/pkg/lexicon"
)

// candidateLimit caps how many tied readings are reported.
const candidateLimit = 8

// Evaluate runs one tokenized phrase through the normalizer. Words are
// case- and NFC-folded but never split or merged.
func (n *Normalizer) Evaluate(words []string) *Result {
	r := &Result{Input: words, Status: NoMatch}
	if len(words) == 0 {
		return r
	}

	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = lexicon.FoldToken(w)
		if !n.lex.Contains(folded[i]) {
			r.Unknown = w
			return r
		}
	}

	lattice := fst.Compose(fst.Literal(folded...), n.final)
	paths, err := fst.Best(lattice, candidateLimit)
	if errors.Is(err, fst.ErrNoPath) {
		return r
	}
	if err != nil {
		panic(fmt.Sprintf("cardinal: evaluating %q: %v", strings.Join(folded, " "), err))
	}

	if paths.Ambiguous() {
		r.Status = Ambiguous
		r.Candidates = paths.Outputs
		return r
	}
	v := parseTagged(paths.Outputs[0])
	v.Weight = paths.Weight
	r.Status = Match
	r.Value = &v
	return r
}

// Normalize tokenizes text on single spaces and evaluates it. Runs of
// spaces or other separators are not collapsed.
func (n *Normalizer) Normalize(text string) *Result {
	return n.Evaluate(lexicon.Tokens(text))
}

// Accepts reports whether the phrase belongs to the grammar's input
// language, whatever it maps to.
func (n *Normalizer) Accepts(words []string) bool {
	if len(words) == 0 {
		return false
	}
	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = lexicon.FoldToken(w)
	}
	return !fst.Compose(fst.Literal(folded...), n.input).IsEmpty()
}
