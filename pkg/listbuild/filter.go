package listbuild

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/maven"
	"github.com/repotools/artlist/pkg/sources"
)

// RepoProbe checks whether a coordinate's POM exists in a repository. The
// excluded-repository filter probes with it concurrently.
type RepoProbe func(ctx context.Context, repoURL string, coord maven.Coordinate) (bool, error)

// Filter applies the post-aggregation filter pipeline to an artifact set, in
// a fixed stage order: excluded GAVs, excluded types, duplicates, single
// version, excluded repositories. Every stage leaves no empty branch behind.
type Filter struct {
	cfg     config.FilterConfig
	probe   RepoProbe
	threads int
	logger  *log.Logger
}

// NewFilter creates a filter over the given settings. threads bounds the
// excluded-repository probe pool.
func NewFilter(cfg config.FilterConfig, threads int, probe RepoProbe, logger *log.Logger) *Filter {
	return &Filter{cfg: cfg, probe: probe, threads: threads, logger: logger}
}

// Apply runs the pipeline, mutating the set in place.
func (f *Filter) Apply(ctx context.Context, set artifact.Set) error {
	if len(f.cfg.ExcludedGAVs) > 0 {
		if err := f.filterExcludedGAVs(set); err != nil {
			return err
		}
	}
	if len(f.cfg.ExcludedTypes) > 0 {
		if err := f.filterExcludedTypes(set); err != nil {
			return err
		}
	}
	f.filterDuplicates(set)
	if f.cfg.SingleVersion {
		if err := f.filterMultipleVersions(set); err != nil {
			return err
		}
	}
	if len(f.cfg.ExcludedRepositories) > 0 {
		if err := f.filterExcludedRepositories(ctx, set); err != nil {
			return err
		}
	}
	return nil
}

// filterExcludedGAVs drops excluded coordinates. GAV-shaped patterns remove
// whole version entries, GATCV-shaped patterns remove single classifiers and
// cascade upwards when nothing main remains.
func (f *Filter) filterExcludedGAVs(set artifact.Set) error {
	f.logger.Debug("filtering artifacts with excluded GAVs")
	patterns, err := sources.CompilePatterns(f.cfg.ExcludedGAVs)
	if err != nil {
		return err
	}
	var gavPatterns, gatcvPatterns []*regexp.Regexp
	for _, re := range patterns {
		if strings.Count(re.String(), ":") > 2 {
			gatcvPatterns = append(gatcvPatterns, re)
		} else {
			gavPatterns = append(gavPatterns, re)
		}
	}

	for _, ga := range set.GAs() {
		for _, priority := range set.Priorities(ga) {
			for _, version := range set.Versions(ga, priority) {
				gav := ga + ":" + version
				if sources.MatchAny(gavPatterns, gav) {
					f.logger.Debug("dropping excluded GAV", "gav", gav, "priority", priority)
					set.DeleteVersion(ga, priority, version)
					continue
				}
				spec := set[ga][priority][version]
				for ext, t := range spec.Types {
					for classifier := range t.Classifiers {
						if sources.MatchAny(gatcvPatterns, gatcv(ga, ext, classifier, version)) {
							f.logger.Debug("dropping excluded GATCV",
								"gatcv", gatcv(ga, ext, classifier, version), "priority", priority)
							delete(t.Classifiers, classifier)
						}
					}
					if len(t.Classifiers) == 0 {
						delete(spec.Types, ext)
					}
				}
				if !spec.ContainsMain() {
					f.logger.Debug("dropping GAV with no main artifact left",
						"gav", gav, "priority", priority)
					set.DeleteVersion(ga, priority, version)
				}
			}
		}
	}
	return nil
}

// filterExcludedTypes drops classifiers of explicitly excluded extensions
// unless their GATCV matches the whitelist, cascading like the excluded-GAV
// stage.
func (f *Filter) filterExcludedTypes(set artifact.Set) error {
	f.logger.Debug("filtering artifacts with excluded types")
	whitelist, err := sources.CompilePatterns(f.cfg.GATCVWhitelist)
	if err != nil {
		return err
	}
	excluded := make(map[string]bool, len(f.cfg.ExcludedTypes))
	for _, t := range f.cfg.ExcludedTypes {
		excluded[t] = true
	}

	for _, ga := range set.GAs() {
		for _, priority := range set.Priorities(ga) {
			for _, version := range set.Versions(ga, priority) {
				spec := set[ga][priority][version]
				for ext, t := range spec.Types {
					if !excluded[ext] {
						continue
					}
					for classifier := range t.Classifiers {
						if sources.MatchAny(whitelist, gatcv(ga, ext, classifier, version)) {
							f.logger.Debug("keeping whitelisted GATCV",
								"gatcv", gatcv(ga, ext, classifier, version))
							continue
						}
						f.logger.Debug("dropping classifier of excluded type",
							"classifier", classifier, "type", ext, "ga", ga, "version", version)
						delete(t.Classifiers, classifier)
					}
					if len(t.Classifiers) == 0 {
						delete(spec.Types, ext)
					}
				}
				if len(spec.Types) == 0 || !spec.ContainsMain() {
					f.logger.Debug("dropping GAV with no main artifact left",
						"ga", ga, "version", version, "priority", priority)
					set.DeleteVersion(ga, priority, version)
				}
			}
		}
	}
	return nil
}

// filterDuplicates removes versions that are present at a lower-numbered
// priority, transferring their provenance paths into the surviving entry.
func (f *Filter) filterDuplicates(set artifact.Set) {
	f.logger.Debug("filtering duplicate artifacts")
	for _, ga := range set.GAs() {
		priorities := set.Priorities(ga)
		for i, priority := range priorities {
			for _, version := range set.Versions(ga, priority) {
				keeper, ok := set[ga][priority][version]
				if !ok {
					continue
				}
				for _, higher := range priorities[i+1:] {
					dup, ok := set[ga][higher][version]
					if !ok {
						continue
					}
					f.logger.Debug("dropping duplicate GAV",
						"ga", ga, "version", version, "priority", higher, "kept", priority)
					if len(dup.Paths) > 0 {
						keeper.Paths = append(keeper.Paths, dup.Paths...)
					}
					set.DeleteVersion(ga, higher, version)
				}
			}
		}
	}
}

// filterMultipleVersions keeps only the lowest priority bucket per
// group:artifact and, within it, only the highest version per the version
// ordering. Group:artifacts matching the multi-version exemptions keep
// everything.
func (f *Filter) filterMultipleVersions(set artifact.Set) error {
	f.logger.Debug("filtering multi-version artifacts down to a single version")
	exempt, err := sources.CompilePatterns(f.cfg.MultiVersionGAs)
	if err != nil {
		return err
	}

	for _, ga := range set.GAs() {
		if sources.MatchAny(exempt, ga) {
			continue
		}
		priorities := set.Priorities(ga)
		lowest := priorities[0]

		versions := set.Versions(ga, lowest)
		maven.SortVersionsDescending(versions)
		for _, version := range versions[1:] {
			f.logger.Debug("dropping GAV because only a single version is allowed",
				"ga", ga, "version", version, "priority", lowest)
			delete(set[ga][lowest], version)
		}
		for _, priority := range priorities[1:] {
			f.logger.Debug("dropping priority bucket of single-version GA",
				"ga", ga, "priority", priority)
			delete(set[ga], priority)
		}
		set.PruneBranch(ga, lowest)
	}
	return nil
}

// filterExcludedRepositories drops every coordinate whose POM exists in any
// of the excluded repositories. Probes run concurrently in a bounded pool.
func (f *Filter) filterExcludedRepositories(ctx context.Context, set artifact.Set) error {
	f.logger.Debug("filtering artifacts contained in excluded repositories")

	type hit struct {
		ga       string
		priority int
		version  string
	}
	var hits []hit
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.threads)
	for _, ga := range set.GAs() {
		for _, priority := range set.Priorities(ga) {
			for _, version := range set.Versions(ga, priority) {
				ga, priority, version := ga, priority, version
				coord, err := maven.ParseGAV(ga + ":" + version)
				if err != nil {
					return err
				}
				g.Go(func() error {
					for _, repoURL := range f.cfg.ExcludedRepositories {
						found, err := f.probe(ctx, repoURL, coord)
						if err != nil {
							return err
						}
						if found {
							mu.Lock()
							hits = append(hits, hit{ga, priority, version})
							mu.Unlock()
							return nil
						}
					}
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, h := range hits {
		f.logger.Debug("dropping GAV found in an excluded repository",
			"ga", h.ga, "version", h.version, "priority", h.priority)
		set.DeleteVersion(h.ga, h.priority, h.version)
	}
	return nil
}

func gatcv(ga, ext, classifier, version string) string {
	if classifier != "" {
		return ga + ":" + ext + ":" + classifier + ":" + version
	}
	return ga + ":" + ext + ":" + version
}
