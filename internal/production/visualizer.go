package production

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/comalice/tickfsm"
)

// Edge is an observed transition with the number of times it fired.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count uint64 `json:"count"`
}

// Graph is the JSON form of what a Visualizer has observed.
type Graph struct {
	Machine string   `json:"machine"`
	Current string   `json:"current"`
	States  []string `json:"states"`
	Edges   []Edge   `json:"edges"`
}

type edgeKey struct{ from, to string }

// Visualizer records the transitions a machine actually takes and renders
// them as a Graphviz graph. Transition conditions are opaque functions, so
// the graph only contains edges that have fired. It is safe to export from
// another goroutine while the machine runs.
type Visualizer[K tickfsm.StateKey] struct {
	machine string

	mu      sync.Mutex
	current string
	states  map[string]struct{}
	edges   map[edgeKey]uint64
}

// NewVisualizer creates a Visualizer. initial seeds the graph with the
// machine's initial state.
func NewVisualizer[K tickfsm.StateKey](machine string, initial K) *Visualizer[K] {
	v := &Visualizer[K]{
		machine: machine,
		current: initial.String(),
		states:  make(map[string]struct{}),
		edges:   make(map[edgeKey]uint64),
	}
	v.states[v.current] = struct{}{}
	return v
}

func (v *Visualizer[K]) OnTick(current K, _ tickfsm.Timestamp, _ time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setCurrent(current.String())
}

func (v *Visualizer[K]) OnTransition(t tickfsm.Transition[K]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	from, to := t.From.String(), t.To.String()
	v.states[from] = struct{}{}
	v.edges[edgeKey{from, to}]++
	v.setCurrent(to)
}

func (v *Visualizer[K]) OnReset(_, initial K, _ tickfsm.Timestamp) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setCurrent(initial.String())
}

func (v *Visualizer[K]) setCurrent(s string) {
	v.current = s
	v.states[s] = struct{}{}
}

// Snapshot returns the observed graph with states and edges sorted.
func (v *Visualizer[K]) Snapshot() Graph {
	v.mu.Lock()
	defer v.mu.Unlock()

	g := Graph{
		Machine: v.machine,
		Current: v.current,
		States:  make([]string, 0, len(v.states)),
		Edges:   make([]Edge, 0, len(v.edges)),
	}
	for s := range v.states {
		g.States = append(g.States, s)
	}
	sort.Strings(g.States)
	for k, n := range v.edges {
		g.Edges = append(g.Edges, Edge{From: k.from, To: k.to, Count: n})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g
}

// ExportDOT generates Graphviz DOT source for the observed graph. The
// current state is highlighted and edges are labelled with their count.
func (v *Visualizer[K]) ExportDOT() string {
	g := v.Snapshot()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", g.Machine)
	buf.WriteString("  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")

	for _, s := range g.States {
		style := ""
		if s == g.Current {
			style = ` style="rounded,filled" fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", s, s, style)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", e.From, e.To, e.Count)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the observed graph.
func (v *Visualizer[K]) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(v.Snapshot(), "", "  ")
}
