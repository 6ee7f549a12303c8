package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"gopkg.in/yaml.v3"
)

// Output formats of the build command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Build compiles the project and writes the graph in format.
func Build(opts Options, format string, out, logOut io.Writer) error {
	s, err := NewSetup(opts, logOut)
	if err != nil {
		return err
	}
	defer s.Close()

	switch format {
	case FormatJSON, "":
		return writeJSON(out, s.Engine.Graph())
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(s.Engine.Graph()); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

// Graph compiles the project and writes it as a Mermaid flowchart.
func Graph(opts Options, out, logOut io.Writer) error {
	s, err := NewSetup(opts, logOut)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = io.WriteString(out, graph.GenerateMermaid(s.Engine.Graph(), nil))
	return err
}

// Validate compiles the project and checks that every action it calls has
// an implementation the CLI can run.
func Validate(opts Options, out, logOut io.Writer) error {
	s, err := NewSetup(opts, logOut)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Engine.Validate(); err != nil {
		return err
	}
	g := s.Engine.Graph()
	printSystemMessage(out, "Graph is valid: %d nodes, %d actions.", len(g.Nodes), len(g.ActionNames()))
	return nil
}
