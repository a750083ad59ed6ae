// Package artifact holds the artifact metadata model of the list builder:
// artifact types with their classifiers, location specs with provenance
// paths, and the priority-keyed artifact set the filter pipeline operates on.
package artifact

import (
	"sort"
	"strings"

	"github.com/repotools/artlist/pkg/errors"
)

// auxiliaryExtClassifiers lists extension:classifier combinations that never
// count as a main deliverable: documentation, sources, test archives and
// packaging around the actual artifact. A bare "pom:" is auxiliary only when
// another main type exists, which TypesFor handles separately.
var auxiliaryExtClassifiers = map[string]bool{
	"pom:":                   true,
	"jar:javadoc":            true,
	"jar:sources":            true,
	"jar:tests":              true,
	"jar:test-sources":       true,
	"tar.gz:project-sources": true,
	"xml:site":               true,
	"zip:patches":            true,
	"zip:scm-sources":        true,
}

// Type is one artifact extension of a coordinate with the classifiers found
// for it. Main marks the extension as a primary deliverable.
type Type struct {
	Extension   string
	Main        bool
	Classifiers map[string]bool
}

// NewType creates a Type with the given classifiers.
func NewType(extension string, main bool, classifiers ...string) *Type {
	t := &Type{Extension: extension, Main: main, Classifiers: make(map[string]bool, len(classifiers))}
	for _, c := range classifiers {
		t.Classifiers[c] = true
	}
	return t
}

func (t *Type) String() string {
	names := make([]string, 0, len(t.Classifiers))
	for c := range t.Classifiers {
		names = append(names, c)
	}
	sort.Strings(names)
	main := ""
	if t.Main {
		main = " (main)"
	}
	return t.Extension + main + ": [" + strings.Join(names, " ") + "]"
}

// Spec describes where one version of one artifact lives and what files it
// consists of: the repository URL, the artifact types keyed by extension,
// and the provenance paths justifying why the artifact is in the set.
type Spec struct {
	RepoURL string
	Types   map[string]*Type
	Paths   []Path

	// SnapshotSuffix is the resolved timestamp/build-number suffix observed
	// in the artifact's filenames when it differs from the nominal snapshot
	// version. Used to build real download filenames.
	SnapshotSuffix string
}

// NewSpec creates a Spec from a ready extension-keyed type mapping.
func NewSpec(repoURL string, types map[string]*Type) *Spec {
	if types == nil {
		types = make(map[string]*Type)
	}
	return &Spec{RepoURL: repoURL, Types: types}
}

// NewSpecFromList creates a Spec from a list of types, keying them by
// extension.
func NewSpecFromList(repoURL string, types []*Type) *Spec {
	m := make(map[string]*Type, len(types))
	for _, t := range types {
		m[t.Extension] = t
	}
	return &Spec{RepoURL: repoURL, Types: m}
}

// Merge folds other into s. The repository URLs must be equal (or other's
// empty) and the extension sets disjoint; any conflict is a hard error
// because two sources disagreeing on the same coordinate must never be
// resolved silently. Provenance paths are concatenated.
func (s *Spec) Merge(other *Spec) error {
	if other.RepoURL != "" && s.RepoURL != other.RepoURL {
		return errors.New(errors.ErrCodeMergeConflict,
			"cannot merge artifact specs with different repository URLs (%s != %s)", s.RepoURL, other.RepoURL)
	}
	for ext := range other.Types {
		if _, ok := s.Types[ext]; ok {
			return errors.New(errors.ErrCodeMergeConflict,
				"cannot merge artifact specs with overlapping types (%s vs %s)",
				strings.Join(s.extensions(), ","), strings.Join(other.extensions(), ","))
		}
	}
	for ext, t := range other.Types {
		s.Types[ext] = t
	}
	s.Paths = append(s.Paths, other.Paths...)
	if s.SnapshotSuffix == "" {
		s.SnapshotSuffix = other.SnapshotSuffix
	}
	return nil
}

// AddPath appends a provenance path from a root artifact to this artifact.
func (s *Spec) AddPath(p Path) {
	s.Paths = append(s.Paths, p)
}

// ContainsMain reports whether any artifact type is a main deliverable.
// The filter pipeline drops every spec for which this is false.
func (s *Spec) ContainsMain() bool {
	for _, t := range s.Types {
		if t.Main {
			return true
		}
	}
	return false
}

func (s *Spec) extensions() []string {
	exts := make([]string, 0, len(s.Types))
	for ext := range s.Types {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (s *Spec) String() string {
	return s.RepoURL + " " + strings.Join(s.extensions(), ",")
}
