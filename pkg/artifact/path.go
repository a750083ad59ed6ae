package artifact

import (
	"strings"

	"github.com/repotools/artlist/pkg/maven"
)

// RelType is the kind of relationship between two coordinates in a
// dependency graph.
type RelType string

// Relationship types reported by the dependency-graph service. RelUnknown
// marks synthesized placeholder edges for coordinates the service reports as
// reachable without an explicit path.
const (
	RelParent     RelType = "PARENT"
	RelDependency RelType = "DEPENDENCY"
	RelBOM        RelType = "BOM"
	RelPlugin     RelType = "PLUGIN"
	RelPluginDep  RelType = "PLUGIN_DEP"
	RelUnknown    RelType = ""
)

// Relationship is one typed edge between two coordinates. Extra carries the
// dependency scope (plus an "optional" marker) for DEPENDENCY edges and the
// plugin coordinate for PLUGIN_DEP edges. Inherited and Mixin mark edges
// coming from parent POM inheritance or BOM mixins; a path containing one is
// indirect provenance.
type Relationship struct {
	Declaring *maven.Coordinate
	Target    *maven.Coordinate
	Type      RelType
	Extra     string
	Inherited bool
	Mixin     bool
}

// Path is an ordered sequence of relationship edges from a root artifact to
// a resolved artifact.
type Path []Relationship

// Direct reports whether the path contains only directly declared edges.
// Inherited and BOM-mixin edges make the whole path indirect.
func (p Path) Direct() bool {
	for _, rel := range p {
		if rel.Inherited || rel.Mixin {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, rel := range p {
		if i > 0 {
			b.WriteString(" -> ")
		}
		if rel.Declaring != nil {
			b.WriteString(rel.Declaring.GAV())
		} else {
			b.WriteString("?")
		}
		if rel.Type != RelUnknown {
			b.WriteString(" (")
			b.WriteString(string(rel.Type))
			if rel.Extra != "" {
				b.WriteString(" ")
				b.WriteString(rel.Extra)
			}
			b.WriteString(")")
		}
	}
	if last := p[len(p)-1]; last.Target != nil {
		b.WriteString(" -> ")
		b.WriteString(last.Target.GAV())
	}
	return b.String()
}

// UnknownPath builds the placeholder 2-edge path used when the graph service
// reports a coordinate as reachable from root but returns no explicit path.
func UnknownPath(root, target maven.Coordinate) Path {
	return Path{
		{Declaring: &root},
		{Target: &target},
	}
}
