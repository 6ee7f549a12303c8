package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console prints tick and state events as an indented trace.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	graph   *domain.Graph
	profile termenv.Profile
}

// NewConsole creates a console tracer for g, which may be set later. Colours are used only when w
// is a terminal.
func NewConsole(w io.Writer, g *domain.Graph) *Console {
	return &Console{w: w, graph: g, profile: profileFor(w)}
}

func profileFor(w io.Writer) termenv.Profile {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return termenv.ColorProfile()
	}
	return termenv.Ascii
}

// SetGraph sets the graph used to label nodes.
func (c *Console) SetGraph(g *domain.Graph) {
	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
}

// Trace implements ports.Tracer.
func (c *Console) Trace(e domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case domain.EventNextTick:
		fmt.Fprintln(c.w, c.profile.String(fmt.Sprintf("── tick %d", e.Tick)).Faint())
	case domain.EventNewState:
		label := e.NodeID.String()
		if c.graph != nil {
			if n, ok := c.graph.Nodes[e.NodeID]; ok {
				label = n.Label()
			}
		}
		indent := strings.Repeat("  ", max(e.Depth-1, 0))
		status := c.profile.String(e.State.String()).Foreground(c.profile.Color(color(e.State.Status)))
		fmt.Fprintf(c.w, "%s%s %s\n", indent, label, status)
	}
}

func color(s domain.Status) string {
	switch s {
	case domain.StatusSuccess:
		return "#22c55e"
	case domain.StatusFailure:
		return "#ef4444"
	case domain.StatusRunning:
		return "#eab308"
	}
	return "#9ca3af"
}

var _ ports.Tracer = (*Console)(nil)
