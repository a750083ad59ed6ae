// Package sources implements the artifact source collectors: tag-based
// build-system queries, recursive dependency listing, dependency-graph
// resolution and raw repository scans. Every collector produces a partial
// artifact map which the aggregator merges under the source's priority.
package sources

import (
	"context"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/maven"
)

// Result is a collector's partial output: one ArtifactSpec per coordinate,
// keyed by the group/artifact/version reduction so the same coordinate
// discovered with different types collapses into one entry.
type Result map[maven.Coordinate]*artifact.Spec

// Collector reads artifacts from one declared source.
type Collector interface {
	// Type returns the source type, one of the config.SourceType constants.
	// The aggregator sizes worker pools per type.
	Type() string

	// Collect produces the source's artifact map. It returns an error only
	// for unrecoverable failures; per-item problems are logged and skipped.
	Collect(ctx context.Context) (Result, error)
}

// AddArtifact determines the artifact types for the resolved classifiers and
// records them in result, merging with an existing spec for the same
// coordinate. A merge conflict is a hard error.
func AddArtifact(result Result, groupID, artifactID, version string, classifiers maven.Classifiers, suffix, repoURL string) error {
	types := artifact.TypesFor(classifiers)
	spec := artifact.NewSpecFromList(repoURL, types)
	spec.SnapshotSuffix = suffix

	key := maven.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version}
	if existing, ok := result[key]; ok {
		return existing.Merge(spec)
	}
	result[key] = spec
	return nil
}

// Admission decides which discovered classifiers a collector keeps. The
// classifier-less main file is always admitted; named classifiers only when
// requested by add-classifiers (or everything in all-classifiers mode), or
// when an explicit per-coordinate filter asks for them.
type Admission struct {
	all   bool
	extra map[string]map[string]bool
}

// NewAdmission builds the admission policy from the run configuration.
func NewAdmission(cfg *config.Config) *Admission {
	a := &Admission{all: cfg.IsAllClassifiers(), extra: make(map[string]map[string]bool)}
	if !a.all {
		for _, ec := range cfg.ExtraClassifiers() {
			set, ok := a.extra[ec.Type]
			if !ok {
				set = make(map[string]bool)
				a.extra[ec.Type] = set
			}
			set[ec.Classifier] = true
		}
	}
	return a
}

// Contains reports whether the extension/classifier pair is admitted by the
// policy itself, ignoring per-coordinate filters.
func (a *Admission) Contains(ext, classifier string) bool {
	return a.all || a.extra[ext][classifier]
}

// Filter returns the admitted subset of found. filter optionally admits
// additional extension/classifier pairs requested for this specific
// coordinate (from an included-GATCV list).
func (a *Admission) Filter(found maven.Classifiers, filter map[string]map[string]bool) maven.Classifiers {
	if a.all {
		return found
	}
	admitted := make(maven.Classifiers, len(found))
	for ext, set := range found {
		for classifier := range set {
			if classifier == "" || a.extra[ext][classifier] || filter[ext][classifier] {
				admitted.Add(ext, classifier)
			}
		}
	}
	return admitted
}

// FilterExcludedGAVs removes excluded coordinates from a partial result.
// GAV-shaped patterns drop whole version entries; GATCV-shaped patterns drop
// individual classifiers, cascading up to the type and then the whole entry
// once no main type remains.
func FilterExcludedGAVs(result Result, excludedGAVs []string) error {
	if len(excludedGAVs) == 0 {
		return nil
	}
	patterns, err := CompilePatterns(excludedGAVs)
	if err != nil {
		return err
	}
	gavPatterns, gatcvPatterns := splitGAVPatterns(patterns)

	for coord, spec := range result {
		if MatchAny(gavPatterns, coord.GAV()) {
			delete(result, coord)
			continue
		}
		for ext, t := range spec.Types {
			for classifier := range t.Classifiers {
				if MatchAny(gatcvPatterns, gatcvString(coord, ext, classifier)) {
					delete(t.Classifiers, classifier)
				}
			}
			if len(t.Classifiers) == 0 {
				delete(spec.Types, ext)
			}
		}
		if !spec.ContainsMain() {
			delete(result, coord)
		}
	}
	return nil
}

// filterByGAVPatterns keeps only coordinates whose GAV matches one of the
// inclusion patterns. An empty pattern list keeps everything.
func filterByGAVPatterns(result Result, gavPatterns []string) (Result, error) {
	if len(gavPatterns) == 0 {
		return result, nil
	}
	patterns, err := CompilePatterns(gavPatterns)
	if err != nil {
		return nil, err
	}
	included := make(Result)
	for coord, spec := range result {
		if MatchAny(patterns, coord.GAV()) {
			included[coord] = spec
		}
	}
	return included, nil
}

// filterByGATCVs keeps only types/classifiers explicitly named in the
// included-GATCV list (exact strings, not patterns), re-deciding which types
// are main: a named type/classifier is main, a pom is main only when it is
// the only type or named itself, and unnamed classifiers survive only via
// the admission policy, as non-main. Entries with no main type left are
// dropped.
func filterByGATCVs(result Result, gatcvs []string, adm *Admission) Result {
	requested := make(map[string]bool, len(gatcvs))
	for _, gatcv := range gatcvs {
		requested[gatcv] = true
	}

	included := make(Result)
	for coord, spec := range result {
		types := make(map[string]*artifact.Type, len(spec.Types))
		containsMain := false
		for ext, t := range spec.Types {
			if ext == "pom" {
				main := len(spec.Types) == 1 || requested[gatcvString(coord, ext, "")]
				containsMain = containsMain || main
				types[ext] = artifact.NewType(ext, main, "")
				continue
			}
			main := false
			classifiers := []string{}
			for classifier := range t.Classifiers {
				if requested[gatcvString(coord, ext, classifier)] {
					classifiers = append(classifiers, classifier)
					main = true
				} else if adm.Contains(ext, classifier) {
					classifiers = append(classifiers, classifier)
				}
			}
			if len(classifiers) == 0 {
				continue
			}
			containsMain = containsMain || main
			types[ext] = artifact.NewType(ext, main, classifiers...)
		}
		if containsMain {
			kept := artifact.NewSpec(spec.RepoURL, types)
			kept.SnapshotSuffix = spec.SnapshotSuffix
			kept.Paths = spec.Paths
			included[coord] = kept
		}
	}
	return included
}

// gatcvString renders group:artifact:type[:classifier]:version.
func gatcvString(coord maven.Coordinate, ext, classifier string) string {
	if classifier != "" {
		return coord.GA() + ":" + ext + ":" + classifier + ":" + coord.Version
	}
	return coord.GA() + ":" + ext + ":" + coord.Version
}
