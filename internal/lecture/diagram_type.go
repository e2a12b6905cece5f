package lecture

import (
	"strings"
	"unicode"
)

// DiagramType names the kind of diagram a DIAGRAM or MIXED slide shows.
type DiagramType string

const (
	DiagramNetwork  DiagramType = "network"
	DiagramClass    DiagramType = "class"
	DiagramFlow     DiagramType = "flow"
	DiagramDatabase DiagramType = "database"
	DiagramGeneric  DiagramType = "generic"
)

// Checked in order; the first kind with a matching word wins.
var diagramKeywords = []struct {
	kind  DiagramType
	words []string
}{
	{DiagramNetwork, []string{"network", "topology", "router", "subnet"}},
	{DiagramClass, []string{"class", "object", "inheritance", "interface"}},
	{DiagramFlow, []string{"flow", "process", "workflow", "flowchart"}},
	{DiagramDatabase, []string{"database", "entity", "relation", "schema"}},
}

// ClassifyDiagram labels a diagram from the words on the slide. Words match
// case-insensitively, including a trailing plural "s".
func ClassifyDiagram(text string) DiagramType {
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
		words[strings.TrimSuffix(w, "s")] = struct{}{}
	}
	for _, entry := range diagramKeywords {
		for _, keyword := range entry.words {
			if _, ok := words[keyword]; ok {
				return entry.kind
			}
		}
	}
	return DiagramGeneric
}
