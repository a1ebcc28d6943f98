package fst

// composeState is a pair of operand states plus the epsilon filter
// state. filter 0 allows both operands to move alone; filter 1 means b
// has moved alone and a may not move alone until the next match.
type composeState struct {
	a, b   StateID
	filter uint8
}

// Compose chains a's output tape into b's input tape. The result reads
// a's input and writes b's output; path weights add.
//
// Epsilon moves are sequenced (a's output epsilons before b's input
// epsilons) so each pair of operand paths yields exactly one result
// path. When the alphabets never meet the result is the empty machine.
func Compose(a, b *FST) *FST {
	out := newFST()
	if a.IsEmpty() || b.IsEmpty() {
		return out
	}

	byInput := make([]map[string][]Arc, len(b.states))
	arcsFor := func(s StateID, label string) []Arc {
		idx := byInput[s]
		if idx == nil {
			idx = make(map[string][]Arc)
			for _, arc := range b.states[s].arcs {
				idx[arc.In] = append(idx[arc.In], arc)
			}
			byInput[s] = idx
		}
		return idx[label]
	}

	ids := make(map[composeState]StateID)
	var queue []composeState
	lookup := func(cs composeState) StateID {
		if id, ok := ids[cs]; ok {
			return id
		}
		id := out.addState()
		ids[cs] = id
		queue = append(queue, cs)
		return id
	}

	out.start = lookup(composeState{a: a.start, b: b.start})
	for len(queue) > 0 {
		cs := queue[0]
		queue = queue[1:]
		src := ids[cs]

		sa, sb := a.states[cs.a], b.states[cs.b]
		if sa.final && sb.final {
			out.setFinal(src, sa.finalWeight+sb.finalWeight)
		}

		for _, ea := range sa.arcs {
			if ea.Out == Epsilon {
				if cs.filter == 0 {
					next := lookup(composeState{a: ea.Next, b: cs.b})
					out.addArc(src, Arc{In: ea.In, Weight: ea.Weight, Next: next})
				}
				continue
			}
			for _, eb := range arcsFor(cs.b, ea.Out) {
				next := lookup(composeState{a: ea.Next, b: eb.Next})
				out.addArc(src, Arc{In: ea.In, Out: eb.Out, Weight: ea.Weight + eb.Weight, Next: next})
			}
		}
		for _, eb := range arcsFor(cs.b, Epsilon) {
			next := lookup(composeState{a: cs.a, b: eb.Next, filter: 1})
			out.addArc(src, Arc{Out: eb.Out, Weight: eb.Weight, Next: next})
		}
	}
	return Connect(out)
}
