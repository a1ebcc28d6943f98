package fst

import (
	"container/heap"
	"math"
	"sort"
)

// Connect removes states that are not on some path from the start state
// to a final state, renumbering the survivors.
func Connect(f *FST) *FST {
	if f.IsEmpty() {
		return Empty()
	}

	n := len(f.states)
	access := make([]bool, n)
	stack := []StateID{f.start}
	access[f.start] = true
	reverse := make([][]StateID, n)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.states[s].arcs {
			reverse[a.Next] = append(reverse[a.Next], s)
			if !access[a.Next] {
				access[a.Next] = true
				stack = append(stack, a.Next)
			}
		}
	}

	coaccess := make([]bool, n)
	for i, s := range f.states {
		if s.final && access[i] {
			coaccess[i] = true
			stack = append(stack, StateID(i))
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range reverse[s] {
			if !coaccess[p] {
				coaccess[p] = true
				stack = append(stack, p)
			}
		}
	}
	if !coaccess[f.start] {
		return Empty()
	}

	remap := make([]StateID, n)
	out := newFST()
	for i := range f.states {
		if access[i] && coaccess[i] {
			remap[i] = out.addState()
		} else {
			remap[i] = NoState
		}
	}
	for i, s := range f.states {
		id := remap[i]
		if id == NoState {
			continue
		}
		if s.final {
			out.setFinal(id, s.finalWeight)
		}
		for _, a := range s.arcs {
			if remap[a.Next] == NoState {
				continue
			}
			a.Next = remap[a.Next]
			out.states[id].arcs = append(out.states[id].arcs, a)
		}
	}
	out.start = remap[f.start]
	return out
}

// Optimize removes epsilon:epsilon arcs, merges parallel arcs that only
// differ by weight (keeping the cheapest) and trims the result. The
// mapping from each input to its cheapest outputs is unchanged.
func Optimize(f *FST) *FST {
	if f.IsEmpty() {
		return Empty()
	}

	out := newFST()
	for range f.states {
		out.addState()
	}
	out.start = f.start

	for i := range f.states {
		q := StateID(i)
		dist := epsClosure(f, q)

		finalW := math.Inf(1)
		type key struct {
			in, out string
			next    StateID
		}
		best := make(map[key]float64)
		var order []key
		for p, d := range dist {
			sp := f.states[p]
			if sp.final && d+sp.finalWeight < finalW {
				finalW = d + sp.finalWeight
			}
			for _, a := range sp.arcs {
				if a.In == Epsilon && a.Out == Epsilon {
					continue
				}
				k := key{a.In, a.Out, a.Next}
				w := d + a.Weight
				if old, ok := best[k]; !ok {
					best[k] = w
					order = append(order, k)
				} else if w < old {
					best[k] = w
				}
			}
		}
		// Map iteration above is unordered; sort for a stable layout.
		sort.Slice(order, func(x, y int) bool {
			if order[x].next != order[y].next {
				return order[x].next < order[y].next
			}
			if order[x].in != order[y].in {
				return order[x].in < order[y].in
			}
			return order[x].out < order[y].out
		})
		for _, k := range order {
			out.addArc(q, Arc{In: k.in, Out: k.out, Weight: best[k], Next: k.next})
		}
		if !math.IsInf(finalW, 1) {
			out.setFinal(q, finalW)
		}
	}
	return Connect(out)
}

// epsClosure returns the cheapest distance from q to every state
// reachable through epsilon:epsilon arcs only, q included at 0.
func epsClosure(f *FST, q StateID) map[StateID]float64 {
	dist := map[StateID]float64{q: 0}
	h := &distHeap{{q, 0}}
	done := make(map[StateID]bool)
	for h.Len() > 0 {
		it := heap.Pop(h).(distItem)
		if done[it.s] {
			continue
		}
		done[it.s] = true
		for _, a := range f.states[it.s].arcs {
			if a.In != Epsilon || a.Out != Epsilon {
				continue
			}
			nd := it.d + a.Weight
			if old, ok := dist[a.Next]; !ok || nd < old {
				dist[a.Next] = nd
				heap.Push(h, distItem{a.Next, nd})
			}
		}
	}
	return dist
}

type distItem struct {
	s StateID
	d float64
}

type distHeap []distItem

func (h distHeap) Len() int           { return len(h) }
func (h distHeap) Less(i, j int) bool { return h[i].d < h[j].d }
func (h distHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)        { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}
