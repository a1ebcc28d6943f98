package fst

import (
	"errors"
	"math"
	"slices"
)

// Tolerance is the slack under which two path weights are considered
// equal.
const Tolerance = 1e-9

var (
	// ErrNoPath is returned when the machine accepts nothing.
	ErrNoPath = errors.New("fst: no accepting path")
	// ErrCyclic is returned when shortest-path search meets a cycle.
	ErrCyclic = errors.New("fst: machine is cyclic")
)

// Paths is the outcome of a shortest-path search: the minimal total
// weight and every distinct output string reaching it, sorted.
type Paths struct {
	Weight  float64
	Outputs []string
}

// Ambiguous reports whether two or more cheapest paths disagree on
// their output.
func (p Paths) Ambiguous() bool { return len(p.Outputs) > 1 }

// Best finds the cheapest accepting paths of an acyclic machine. At most
// limit distinct outputs are kept per state (limit < 2 is raised to 2 so
// ties are always detectable).
//
// Typical use composes a linear acceptor of the input with a grammar and
// reads the output tape of the result.
func Best(f *FST, limit int) (Paths, error) {
	if f.IsEmpty() {
		return Paths{}, ErrNoPath
	}
	limit = max(limit, 2)

	order, err := topoOrder(f)
	if err != nil {
		return Paths{}, err
	}

	n := len(f.states)
	dist := make([]float64, n)
	outs := make([][]string, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[f.start] = 0
	outs[f.start] = []string{""}

	bestW := math.Inf(1)
	var bestOuts []string
	for _, s := range order {
		d := dist[s]
		if math.IsInf(d, 1) {
			continue
		}
		st := f.states[s]
		if st.final {
			w := d + st.finalWeight
			switch {
			case w < bestW-Tolerance:
				bestW = w
				bestOuts = slices.Clone(outs[s])
			case w <= bestW+Tolerance:
				bestOuts = mergeOutputs(bestOuts, outs[s], limit)
			}
		}
		for _, a := range st.arcs {
			nd := d + a.Weight
			ext := extend(outs[s], a.Out)
			switch {
			case nd < dist[a.Next]-Tolerance:
				dist[a.Next] = nd
				outs[a.Next] = ext
			case nd <= dist[a.Next]+Tolerance:
				outs[a.Next] = mergeOutputs(outs[a.Next], ext, limit)
			}
		}
		outs[s] = nil
	}

	if math.IsInf(bestW, 1) {
		return Paths{}, ErrNoPath
	}
	slices.Sort(bestOuts)
	return Paths{Weight: bestW, Outputs: bestOuts}, nil
}

func extend(prefixes []string, label string) []string {
	if label == Epsilon {
		return prefixes
	}
	ext := make([]string, len(prefixes))
	for i, p := range prefixes {
		ext[i] = p + label
	}
	return ext
}

func mergeOutputs(dst, src []string, limit int) []string {
	dst = slices.Clone(dst)
	for _, s := range src {
		if len(dst) >= limit {
			break
		}
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

// topoOrder returns the states in topological order (Kahn), or
// ErrCyclic.
func topoOrder(f *FST) ([]StateID, error) {
	n := len(f.states)
	indeg := make([]int, n)
	for _, s := range f.states {
		for _, a := range s.arcs {
			indeg[a.Next]++
		}
	}
	queue := make([]StateID, 0, n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, StateID(i))
		}
	}
	order := make([]StateID, 0, n)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		order = append(order, s)
		for _, a := range f.states[s].arcs {
			indeg[a.Next]--
			if indeg[a.Next] == 0 {
				queue = append(queue, a.Next)
			}
		}
	}
	if len(order) != n {
		return nil, ErrCyclic
	}
	return order, nil
}
