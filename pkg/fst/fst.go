// Package fst implements weighted finite-state transducers over token
// alphabets in the tropical semiring: weights add along a path and the
// cheapest accepting path wins.
//
// Labels are opaque strings. For numeral grammars an input label is one
// word and an output label is one digit (or one rune of a literal tag).
// Epsilon is the empty string.
//
// Every operation returns a new machine and never mutates its operands,
// so compiled machines can be shared read-only between goroutines.
package fst

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Epsilon is the empty label: the arc consumes or produces nothing.
const Epsilon = ""

// StateID identifies a state inside one machine.
type StateID int

// NoState is the start of the empty machine.
const NoState StateID = -1

// Arc is a transition carrying an input label, an output label and a
// non-negative weight.
type Arc struct {
	In     string
	Out    string
	Weight float64
	Next   StateID
}

type state struct {
	arcs        []Arc
	final       bool
	finalWeight float64
}

// FST is a weighted transducer with one start state and any number of
// final states.
type FST struct {
	states []state
	start  StateID
}

// Empty returns the machine that accepts nothing.
func Empty() *FST {
	return &FST{start: NoState}
}

func newFST() *FST {
	return &FST{start: NoState}
}

func (f *FST) addState() StateID {
	f.states = append(f.states, state{})
	return StateID(len(f.states) - 1)
}

func (f *FST) addArc(from StateID, a Arc) {
	mustWeight(a.Weight)
	f.states[from].arcs = append(f.states[from].arcs, a)
}

func (f *FST) setFinal(s StateID, w float64) {
	mustWeight(w)
	f.states[s].final = true
	f.states[s].finalWeight = w
}

// mustWeight enforces the non-negative weight invariant. Shortest-path
// search and epsilon removal both rely on it.
func mustWeight(w float64) {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		panic(fmt.Sprintf("fst: invalid weight %v", w))
	}
}

// appendMachine copies src's states into f and returns the offset of
// src's state 0 inside f.
func (f *FST) appendMachine(src *FST) StateID {
	off := StateID(len(f.states))
	for _, s := range src.states {
		ns := state{final: s.final, finalWeight: s.finalWeight}
		if len(s.arcs) > 0 {
			ns.arcs = make([]Arc, len(s.arcs))
			for i, a := range s.arcs {
				a.Next += off
				ns.arcs[i] = a
			}
		}
		f.states = append(f.states, ns)
	}
	return off
}

// Start returns the start state, or NoState for the empty machine.
func (f *FST) Start() StateID { return f.start }

// IsEmpty reports whether the machine has no start state. A nil machine
// is empty.
func (f *FST) IsEmpty() bool { return f == nil || f.start == NoState || len(f.states) == 0 }

// NumStates returns the number of states.
func (f *FST) NumStates() int { return len(f.states) }

// NumArcs returns the total number of arcs.
func (f *FST) NumArcs() int {
	n := 0
	for _, s := range f.states {
		n += len(s.arcs)
	}
	return n
}

// Arcs returns a copy of the arcs leaving s.
func (f *FST) Arcs(s StateID) []Arc {
	return append([]Arc(nil), f.states[s].arcs...)
}

// Final reports whether s is final and its final weight.
func (f *FST) Final(s StateID) (bool, float64) {
	st := f.states[s]
	return st.final, st.finalWeight
}

// InputSymbols returns the distinct non-epsilon input labels.
func (f *FST) InputSymbols() map[string]struct{} {
	syms := make(map[string]struct{})
	for _, s := range f.states {
		for _, a := range s.arcs {
			if a.In != Epsilon {
				syms[a.In] = struct{}{}
			}
		}
	}
	return syms
}

// String dumps the machine in AT&T text format.
func (f *FST) String() string {
	if f.IsEmpty() {
		return ""
	}
	var b strings.Builder
	label := func(l string) string {
		if l == Epsilon {
			return "<eps>"
		}
		return l
	}
	fmt.Fprintf(&b, "start %d\n", f.start)
	for i, s := range f.states {
		for _, a := range s.arcs {
			fmt.Fprintf(&b, "%d\t%d\t%s\t%s\t%g\n", i, a.Next, label(a.In), label(a.Out), a.Weight)
		}
		if s.final {
			fmt.Fprintf(&b, "%d\t%g\n", i, s.finalWeight)
		}
	}
	return b.String()
}

// Words splits s on whitespace into input tokens.
func Words(s string) []string {
	return strings.Fields(s)
}

// Runes splits s into one label per rune, for output tapes.
func Runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Literal accepts exactly the token sequence and copies it to the output.
// Literal() with no tokens accepts only the empty sequence.
func Literal(tokens ...string) *FST {
	return Cross(tokens, tokens, 0)
}

// Cross accepts the input sequence in and emits out. The weight is
// carried by the first arc (or the final weight when both are empty).
func Cross(in, out []string, w float64) *FST {
	f := newFST()
	f.start = f.addState()
	n := max(len(in), len(out))
	cur := f.start
	for i := 0; i < n; i++ {
		a := Arc{Next: f.addState()}
		if i < len(in) {
			a.In = in[i]
		}
		if i < len(out) {
			a.Out = out[i]
		}
		if i == 0 {
			a.Weight = w
		}
		f.addArc(cur, a)
		cur = a.Next
	}
	if n == 0 {
		f.setFinal(cur, w)
	} else {
		f.setFinal(cur, 0)
	}
	return f
}

// Delete accepts the token sequence and emits nothing.
func Delete(tokens ...string) *FST {
	return Cross(tokens, nil, 0)
}

// Insert consumes nothing and emits out.
func Insert(out []string, w float64) *FST {
	return Cross(nil, out, w)
}
