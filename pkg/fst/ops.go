package fst

import "fmt"

// Concat accepts the language of each operand in sequence. Any empty
// operand makes the whole concatenation empty.
func Concat(fsts ...*FST) *FST {
	if len(fsts) == 0 {
		return Literal()
	}
	for _, f := range fsts {
		if f.IsEmpty() {
			return Empty()
		}
	}

	out := newFST()
	off := out.appendMachine(fsts[0])
	out.start = fsts[0].start + off
	finals := finalStates(fsts[0], off)

	for _, next := range fsts[1:] {
		off := out.appendMachine(next)
		for _, s := range finals {
			st := &out.states[s]
			w := st.finalWeight
			st.final = false
			st.finalWeight = 0
			out.addArc(s, Arc{Weight: w, Next: next.start + off})
		}
		finals = finalStates(next, off)
	}
	return out
}

func finalStates(f *FST, off StateID) []StateID {
	var finals []StateID
	for i, s := range f.states {
		if s.final {
			finals = append(finals, StateID(i)+off)
		}
	}
	return finals
}

// Union accepts the language of any one operand. Empty operands are
// ignored.
func Union(fsts ...*FST) *FST {
	live := fsts[:0:0]
	for _, f := range fsts {
		if !f.IsEmpty() {
			live = append(live, f)
		}
	}
	switch len(live) {
	case 0:
		return Empty()
	case 1:
		return live[0]
	}

	out := newFST()
	out.start = out.addState()
	for _, f := range live {
		off := out.appendMachine(f)
		out.addArc(out.start, Arc{Next: f.start + off})
	}
	return out
}

// Closure repeats a between min and max times. A negative max means
// unbounded repetition.
func Closure(a *FST, min, max int) *FST {
	if min < 0 || (max >= 0 && max < min) {
		panic(fmt.Sprintf("fst: invalid closure bounds [%d, %d]", min, max))
	}
	if a.IsEmpty() {
		if min == 0 {
			return Literal()
		}
		return Empty()
	}

	parts := make([]*FST, 0, min+1)
	for i := 0; i < min; i++ {
		parts = append(parts, a)
	}
	switch {
	case max < 0:
		parts = append(parts, star(a))
	case max > min:
		parts = append(parts, upTo(a, max-min))
	}
	if len(parts) == 0 {
		return Literal()
	}
	return Concat(parts...)
}

// Optional accepts a or the empty sequence.
func Optional(a *FST) *FST {
	return Closure(a, 0, 1)
}

// upTo accepts between 0 and n repetitions of a, nested so that each
// further repetition is only reachable after the previous one.
func upTo(a *FST, n int) *FST {
	if n == 0 {
		return Literal()
	}
	return Union(Literal(), Concat(a, upTo(a, n-1)))
}

func star(a *FST) *FST {
	out := newFST()
	out.start = out.addState()
	out.setFinal(out.start, 0)
	off := out.appendMachine(a)
	out.addArc(out.start, Arc{Next: a.start + off})
	for _, s := range finalStates(a, off) {
		st := &out.states[s]
		w := st.finalWeight
		st.final = false
		st.finalWeight = 0
		out.addArc(s, Arc{Weight: w, Next: out.start})
	}
	return out
}

// ProjectInput returns the acceptor of a's input language: every arc
// outputs what it reads.
func ProjectInput(a *FST) *FST {
	out := newFST()
	if a.IsEmpty() {
		return out
	}
	out.appendMachine(a)
	out.start = a.start
	for i := range out.states {
		arcs := out.states[i].arcs
		for j := range arcs {
			arcs[j].Out = arcs[j].In
		}
	}
	return out
}
