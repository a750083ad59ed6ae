package sources

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/depgraph"
	"github.com/repotools/artlist/pkg/maven"
)

// DependencyGraphCollector resolves the transitive closure of the top-level
// coordinates through the dependency-graph service. In analyze mode it also
// fetches the relationship paths justifying each artifact's membership and
// attaches them as provenance.
type DependencyGraphCollector struct {
	src    *config.Source
	cfg    *config.Config
	client *depgraph.Client
	coords *maven.Cache
	logger *log.Logger
}

// NewDependencyGraphCollector creates a collector for one dependency-graph
// source.
func NewDependencyGraphCollector(src *config.Source, cfg *config.Config, client *depgraph.Client, coords *maven.Cache, logger *log.Logger) *DependencyGraphCollector {
	return &DependencyGraphCollector{src: src, cfg: cfg, client: client, coords: coords, logger: logger}
}

func (d *DependencyGraphCollector) Type() string { return config.SourceTypeDependencyGraph }

// Collect resolves the url map for the source's roots and, in analyze mode,
// the paths from the roots to every discovered coordinate. The url map and
// paths queries share one workspace; a workspace created here is deleted
// before returning unless the configuration pinned one for later analysis.
func (d *DependencyGraphCollector) Collect(ctx context.Context) (Result, error) {
	d.logger.Info("building artifact list from dependency graph",
		"source-key", d.src.SourceKey, "roots", len(d.src.TopLevelGAVs))

	extras := make([]depgraph.ExtraClassifier, 0)
	for _, ec := range d.cfg.ExtraClassifiers() {
		extras = append(extras, depgraph.ExtraClassifier{Type: ec.Type, Classifier: ec.Classifier})
	}
	query := depgraph.Query{
		SourceKey:         d.src.SourceKey,
		Roots:             d.src.TopLevelGAVs,
		Extras:            extras,
		ExcludedSources:   d.src.ExcludedSources,
		ExcludedSubgraphs: d.src.ExcludedSubgraphs,
		Preset:            d.src.Preset,
		Mutator:           d.src.Mutator,
		PatcherIDs:        d.src.PatcherIDs,
		InjectedBOMs:      d.src.InjectedBOMs,
		Resolve:           true,
	}

	wsid := d.src.WorkspaceID
	if d.src.Analyze && wsid == "" {
		// Both queries must see the same resolved graph.
		wsid = d.client.CreateWorkspace(ctx)
		defer func() {
			if err := d.client.DeleteWorkspace(ctx, wsid); err != nil {
				d.logger.Warn("workspace deletion failed", "error", err)
			}
		}()
	}

	urlmap, err := d.client.URLMap(ctx, wsid, query)
	if err != nil {
		return nil, err
	}

	result := make(Result)
	for gav, project := range urlmap {
		coord, err := d.coords.Parse(gav)
		if err != nil {
			return nil, err
		}
		found, suffix := maven.ResolveClassifiers(coord.ArtifactID, coord.Version, project.Files)
		if err := AddArtifact(result, coord.GroupID, coord.ArtifactID, coord.Version,
			found, suffix, project.RepoURL); err != nil {
			return nil, err
		}
	}

	if d.src.Analyze {
		if err := d.attachPaths(ctx, wsid, query, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// attachPaths fetches the paths from the roots to every discovered GA and
// attaches the direct ones as provenance. Coordinates reachable without any
// explicit path get a placeholder 2-edge path from every root.
func (d *DependencyGraphCollector) attachPaths(ctx context.Context, wsid string, query depgraph.Query, result Result) error {
	gaSet := make(map[string]bool)
	for coord := range result {
		gaSet[coord.GA()] = true
	}
	gas := make([]string, 0, len(gaSet))
	for ga := range gaSet {
		gas = append(gas, ga)
	}
	sort.Strings(gas)

	query.Targets = gas
	query.Resolve = false
	pathMap, err := d.client.Paths(ctx, wsid, query)
	if err != nil {
		return err
	}

	// Path keys sometimes carry type/classifier segments; reduce them to
	// GAV before matching against the url map coordinates.
	byGAV := make(map[string][][]depgraph.Edge, len(pathMap))
	for key, paths := range pathMap {
		byGAV[normalizeGAVKey(key)] = append(byGAV[normalizeGAVKey(key)], paths...)
	}

	roots := make(map[string]bool, len(query.Roots))
	for _, root := range query.Roots {
		roots[root] = true
	}

	for coord, spec := range result {
		for _, edges := range byGAV[coord.GAV()] {
			path, direct, err := d.buildPath(edges)
			if err != nil {
				return err
			}
			if direct {
				spec.AddPath(path)
			}
		}
		if len(spec.Paths) == 0 && !roots[coord.GAV()] {
			for _, root := range query.Roots {
				if root == coord.GAV() {
					continue
				}
				rootCoord, err := d.coords.Parse(root)
				if err != nil {
					return err
				}
				spec.AddPath(artifact.UnknownPath(rootCoord, coord))
			}
		}
	}
	return nil
}

// buildPath converts service edges into a relationship path. Inherited
// edges and BOM mixins mark the whole path as indirect, in which case it is
// discarded by the caller.
func (d *DependencyGraphCollector) buildPath(edges []depgraph.Edge) (artifact.Path, bool, error) {
	path := make(artifact.Path, 0, len(edges))
	for _, edge := range edges {
		if edge.Inherited {
			return nil, false, nil
		}
		relType := artifact.RelType(edge.RelType())
		if relType == artifact.RelBOM && edge.Mixin {
			return nil, false, nil
		}

		declaring, err := d.coords.Parse(edge.Declaring)
		if err != nil {
			return nil, false, err
		}
		target, err := d.coords.Parse(normalizeGATVC(edge.Target))
		if err != nil {
			return nil, false, err
		}

		rel := artifact.Relationship{
			Declaring: &declaring,
			Target:    &target,
			Type:      relType,
		}
		switch relType {
		case artifact.RelDependency:
			rel.Extra = edge.Scope
			if edge.Optional {
				rel.Extra += " optional"
			}
		case artifact.RelPluginDep:
			rel.Extra = edge.Plugin
		}
		path = append(path, rel)
	}
	return path, true, nil
}

// normalizeGAVKey reduces a coordinate key with type/classifier segments to
// group:artifact:version.
func normalizeGAVKey(key string) string {
	if strings.Count(key, ":") <= 2 {
		return key
	}
	parts := strings.Split(key, ":")
	return strings.Join([]string{parts[0], parts[1], parts[len(parts)-1]}, ":")
}

// normalizeGATVC reorders group:artifact:type:version:classifier coordinates
// (the order the graph service emits) into the canonical GATCV order.
func normalizeGATVC(gatvc string) string {
	parts := strings.Split(gatvc, ":")
	if len(parts) != 5 {
		return gatvc
	}
	parts[3], parts[4] = parts[4], parts[3]
	return strings.Join(parts, ":")
}
