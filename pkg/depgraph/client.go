// Package depgraph is a client for the dependency-graph service REST API.
//
// The service resolves transitive dependency graphs server-side. Two queries
// matter here: the url map (which files exist for every project in the
// closure of a set of roots, and in which repository) and paths (the
// relationship chains justifying why a target is part of the graph).
// Both are cached on disk because responses are large and stable for a
// given query.
package depgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/httputil"
)

const apiPath = "api/"

// Project is one entry of a url map response: the files that exist for a
// coordinate and the repository they live in.
type Project struct {
	Files   []string `json:"files"`
	RepoURL string   `json:"repoUrl"`
}

// Edge is one relationship in a dependency path. Older service versions name
// the relationship field "rel", newer ones "type"; RelType merges the two.
type Edge struct {
	Rel       string `json:"rel"`
	Type      string `json:"type"`
	Declaring string `json:"declaring"`
	Target    string `json:"target"`
	Scope     string `json:"scope"`
	Plugin    string `json:"plugin"`
	Optional  bool   `json:"optional"`
	Inherited bool   `json:"inherited"`
	Mixin     bool   `json:"mixin"`
}

// RelType returns the relationship type regardless of which field the
// service used.
func (e Edge) RelType() string {
	if e.Rel != "" {
		return e.Rel
	}
	return e.Type
}

// ExtraClassifier requests an additional type/classifier pair in the url
// map beyond the main artifacts. A "*"/"*" pair requests everything.
type ExtraClassifier struct {
	Type       string `json:"type"`
	Classifier string `json:"classifier"`
}

// Query carries the parameters shared by url map and paths requests. The
// same field set also forms the cache fingerprint.
type Query struct {
	SourceKey         string
	Roots             []string
	Targets           []string
	Extras            []ExtraClassifier
	ExcludedSources   []string
	ExcludedSubgraphs []string
	Preset            string
	Mutator           string
	PatcherIDs        []string
	InjectedBOMs      []string
	Resolve           bool
}

type graphSpec struct {
	Roots   []string `json:"roots"`
	Preset  string   `json:"preset"`
	Mutator string   `json:"mutator,omitempty"`
}

type graphComposition struct {
	Graphs []graphSpec `json:"graphs"`
}

type graphRequest struct {
	WorkspaceID       string            `json:"workspaceId"`
	Source            string            `json:"source"`
	ExcludedSources   []string          `json:"excludedSources,omitempty"`
	ExcludedSubgraphs []string          `json:"excludedSubgraphs,omitempty"`
	Resolve           bool              `json:"resolve"`
	GraphComposition  graphComposition  `json:"graphComposition"`
	Targets           []string          `json:"targets,omitempty"`
	PatcherIDs        []string          `json:"patcherIds,omitempty"`
	InjectedBOMs      []string          `json:"injectedBOMs,omitempty"`
	Extras            []ExtraClassifier `json:"extras,omitempty"`
}

func (q Query) requestBody(wsid string, withTargets bool) ([]byte, error) {
	req := graphRequest{
		WorkspaceID:       wsid,
		Source:            q.SourceKey,
		ExcludedSources:   q.ExcludedSources,
		ExcludedSubgraphs: q.ExcludedSubgraphs,
		Resolve:           q.Resolve,
		GraphComposition: graphComposition{
			Graphs: []graphSpec{{Roots: q.Roots, Preset: q.Preset, Mutator: q.Mutator}},
		},
		PatcherIDs:   q.PatcherIDs,
		InjectedBOMs: q.InjectedBOMs,
	}
	if withTargets {
		req.Targets = q.Targets
	} else {
		req.Extras = q.Extras
	}
	return json.Marshal(req)
}

// Client talks to one dependency-graph service instance.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *DiskCache
	logger  *log.Logger
}

// NewClient creates a client for the service at baseURL. A nil cache
// disables disk caching, a nil httpClient falls back to the default client.
func NewClient(baseURL string, httpClient *http.Client, cache *DiskCache, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{baseURL: baseURL, client: httpClient, cache: cache, logger: logger}
}

// CreateWorkspace asks the service for a new workspace. If the endpoint is
// unavailable it falls back to a locally generated temporary id, which the
// service materializes implicitly on first use.
func (c *Client) CreateWorkspace(ctx context.Context) string {
	resp, err := httputil.Do(ctx, c.client, http.MethodPost, c.baseURL+apiPath+"depgraph/ws/new",
		nil, nil, nil)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			var ws struct {
				ID string `json:"id"`
			}
			if decErr := json.NewDecoder(resp.Body).Decode(&ws); decErr == nil && ws.ID != "" {
				c.logger.Debug("created workspace", "wsid", ws.ID)
				return ws.ID
			}
		}
	}
	wsid := "temp-" + uuid.NewString()
	c.logger.Warn("workspace creation failed, using implicit temporary workspace", "wsid", wsid)
	return wsid
}

// DeleteWorkspace removes a workspace. Any 2xx status counts as success.
func (c *Client) DeleteWorkspace(ctx context.Context, wsid string) error {
	url := fmt.Sprintf("%s%sdepgraph/ws/%s", c.baseURL, apiPath, wsid)
	c.logger.Info("deleting workspace", "wsid", wsid)
	resp, err := httputil.Do(ctx, c.client, http.MethodDelete, url, nil, nil, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "deleting workspace "+wsid)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New(errors.ErrCodeNetwork,
			fmt.Sprintf("deleting workspace %s: status %d", wsid, resp.StatusCode))
	}
	return nil
}

// URLMap resolves the graph for the query's roots and returns every project
// in the closure with its files and repository URL. An empty wsid uses a
// temporary workspace deleted before returning. A non-200 response degrades
// to an empty result; only transport failures are returned as errors.
func (c *Client) URLMap(ctx context.Context, wsid string, q Query) (map[string]Project, error) {
	if c.cache != nil {
		if data, ok, err := c.cache.GetURLMap(q); err != nil {
			return nil, err
		} else if ok {
			c.logger.Info("using cached url map", "roots", strings.Join(q.Roots, "-"))
			return parseProjects(data)
		}
	}

	if wsid == "" {
		wsid = c.CreateWorkspace(ctx)
		defer func() {
			if err := c.DeleteWorkspace(ctx, wsid); err != nil {
				c.logger.Warn("workspace deletion failed", "error", err)
			}
		}()
	}

	body, err := q.requestBody(wsid, false)
	if err != nil {
		return nil, err
	}
	data, status, err := c.post(ctx, "depgraph/repo/urlmap", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Warn("url map request failed, treating as empty result",
			"status", status, "body", truncate(data))
		return map[string]Project{}, nil
	}

	projects, err := parseProjects(data)
	if err != nil {
		return nil, err
	}
	if len(projects) > 0 && c.cache != nil {
		if err := c.cache.StoreURLMap(q, data); err != nil {
			c.logger.Warn("storing url map cache failed", "error", err)
		}
	}
	return projects, nil
}

// Paths returns the relationship paths from the query's roots to its
// targets, keyed by target coordinate. It falls back to the legacy graph
// endpoint when the primary one returns 404. Error semantics match URLMap.
func (c *Client) Paths(ctx context.Context, wsid string, q Query) (map[string][][]Edge, error) {
	if c.cache != nil {
		if data, ok, err := c.cache.GetPaths(q); err != nil {
			return nil, err
		} else if ok {
			c.logger.Info("using cached paths",
				"roots", strings.Join(q.Roots, "-"), "targets", strings.Join(q.Targets, "-"))
			return parsePaths(data)
		}
	}

	if wsid == "" {
		wsid = c.CreateWorkspace(ctx)
		defer func() {
			if err := c.DeleteWorkspace(ctx, wsid); err != nil {
				c.logger.Warn("workspace deletion failed", "error", err)
			}
		}()
	}

	body, err := q.requestBody(wsid, true)
	if err != nil {
		return nil, err
	}
	data, status, err := c.post(ctx, "depgraph/repo/paths", body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		data, status, err = c.post(ctx, "depgraph/graph/paths", body)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		c.logger.Warn("paths request failed, treating as empty result",
			"status", status, "body", truncate(data))
		return map[string][][]Edge{}, nil
	}

	minimized, err := MinimizePaths(data)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.StorePaths(q, minimized); err != nil {
			c.logger.Warn("storing paths cache failed", "error", err)
		}
	}
	return parsePaths(minimized)
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, int, error) {
	url := c.baseURL + apiPath + endpoint
	c.logger.Debug("posting graph request", "url", url)

	var data []byte
	var status int
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp, err := httputil.Do(ctx, c.client, http.MethodPost, url, nil, body,
			map[string]string{"Content-Type": "application/json"})
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		status = resp.StatusCode
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeNetwork, err, "posting to "+url)
	}
	return data, status, nil
}

func parseProjects(data []byte) (map[string]Project, error) {
	var wrapped struct {
		Projects map[string]Project `json:"projects"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Projects != nil {
		return wrapped.Projects, nil
	}
	projects := map[string]Project{}
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "parsing url map response")
	}
	return projects, nil
}

// parsePaths tolerates the shape variants the service emits: the per-target
// value may be a list of paths or {"paths": [...]}, and each path may be a
// list of edges or {"pathParts": [...]}.
func parsePaths(data []byte) (map[string][][]Edge, error) {
	var wrapped struct {
		Projects map[string]json.RawMessage `json:"projects"`
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Projects != nil {
		raw = wrapped.Projects
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "parsing paths response")
	}

	result := make(map[string][][]Edge, len(raw))
	for target, value := range raw {
		var pathList []json.RawMessage
		if err := json.Unmarshal(value, &pathList); err != nil {
			var wrappedPaths struct {
				Paths []json.RawMessage `json:"paths"`
			}
			if err := json.Unmarshal(value, &wrappedPaths); err != nil {
				return nil, errors.Wrap(errors.ErrCodeNetwork, err,
					"parsing paths for target "+target)
			}
			pathList = wrappedPaths.Paths
		}

		paths := make([][]Edge, 0, len(pathList))
		for _, rawPath := range pathList {
			var edges []Edge
			if err := json.Unmarshal(rawPath, &edges); err != nil {
				var wrappedPath struct {
					PathParts []Edge `json:"pathParts"`
				}
				if err := json.Unmarshal(rawPath, &wrappedPath); err != nil {
					return nil, errors.Wrap(errors.ErrCodeNetwork, err,
						"parsing path for target "+target)
				}
				edges = wrappedPath.PathParts
			}
			paths = append(paths, edges)
		}
		result[target] = paths
	}
	return result, nil
}

func truncate(data []byte) string {
	const max = 512
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
