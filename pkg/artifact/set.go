package artifact

import (
	"sort"

	"github.com/repotools/artlist/pkg/maven"
)

// Set is the aggregated artifact list:
//
//	"groupId:artifactId" -> source priority -> version -> *Spec
//
// Priorities are the 1-based declaration order of the artifact sources. The
// structure is built once per run by the list builder, mutated in place by
// the filter pipeline, and handed off to consumers afterwards. Branches that
// become empty are pruned eagerly so no empty maps persist.
type Set map[string]map[int]map[string]*Spec

// Add places a spec for the coordinate under the given priority, merging
// with an existing spec for the same version if present.
func (s Set) Add(coord maven.Coordinate, priority int, spec *Spec) error {
	ga := coord.GA()
	byPriority, ok := s[ga]
	if !ok {
		byPriority = make(map[int]map[string]*Spec)
		s[ga] = byPriority
	}
	byVersion, ok := byPriority[priority]
	if !ok {
		byVersion = make(map[string]*Spec)
		byPriority[priority] = byVersion
	}
	if existing, ok := byVersion[coord.Version]; ok {
		return existing.Merge(spec)
	}
	byVersion[coord.Version] = spec
	return nil
}

// Priorities returns the priorities present for a group:artifact in
// ascending order.
func (s Set) Priorities(ga string) []int {
	priorities := make([]int, 0, len(s[ga]))
	for p := range s[ga] {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)
	return priorities
}

// GAs returns all group:artifact keys in lexical order.
func (s Set) GAs() []string {
	gas := make([]string, 0, len(s))
	for ga := range s {
		gas = append(gas, ga)
	}
	sort.Strings(gas)
	return gas
}

// Versions returns the versions of a group:artifact at a priority in lexical
// order.
func (s Set) Versions(ga string, priority int) []string {
	versions := make([]string, 0, len(s[ga][priority]))
	for v := range s[ga][priority] {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// DeleteVersion removes one version entry and prunes the priority and
// group:artifact branches if they become empty.
func (s Set) DeleteVersion(ga string, priority int, version string) {
	delete(s[ga][priority], version)
	s.PruneBranch(ga, priority)
}

// PruneBranch drops the priority bucket when it has no versions left and the
// group:artifact entry when it has no priorities left.
func (s Set) PruneBranch(ga string, priority int) {
	if len(s[ga][priority]) == 0 {
		delete(s[ga], priority)
	}
	if len(s[ga]) == 0 {
		delete(s, ga)
	}
}

// Size returns the number of version entries across the whole set.
func (s Set) Size() int {
	n := 0
	for _, byPriority := range s {
		for _, byVersion := range byPriority {
			n += len(byVersion)
		}
	}
	return n
}
