package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/cache"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/httputil"
	"github.com/repotools/artlist/pkg/maven"
)

// tagArchive is one archive record returned by the build-tracking service
// for the latest Maven builds under a tag.
type tagArchive struct {
	GroupID      string `json:"group_id"`
	ArtifactID   string `json:"artifact_id"`
	Version      string `json:"version"`
	BuildName    string `json:"build_name"`
	BuildVersion string `json:"build_version"`
	BuildRelease string `json:"build_release"`
	Filename     string `json:"filename"`
}

// Tag responses change only when builds are tagged, so a short cache TTL is
// safe and saves the expensive latest-archives query on repeated runs.
const tagCacheTTL = time.Hour

// TagCollector lists the latest Maven archives tagged in a build-tracking
// service. Archives are grouped per build before classifier resolution
// because each build has its own download directory.
type TagCollector struct {
	src    *config.Source
	adm    *Admission
	client *http.Client
	cache  cache.Cache
	logger *log.Logger
}

// NewTagCollector creates a collector for one tag source.
func NewTagCollector(src *config.Source, adm *Admission, client *http.Client, c cache.Cache, logger *log.Logger) *TagCollector {
	if client == nil {
		client = http.DefaultClient
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &TagCollector{src: src, adm: adm, client: client, cache: c, logger: logger}
}

func (t *TagCollector) Type() string { return config.SourceTypeTag }

// Collect queries the latest tagged archives, groups them per build and
// resolves their classifiers.
func (t *TagCollector) Collect(ctx context.Context) (Result, error) {
	t.logger.Info("building artifact list from tag", "tag", t.src.TagName)

	archives, err := t.latestArchives(ctx)
	if err != nil {
		return nil, err
	}

	type buildKey struct {
		groupID    string
		artifactID string
		version    string
		gavURL     string
	}
	downloadRoot := slashAtTheEnd(t.src.DownloadRootURL)
	filenames := make(map[buildKey][]string)
	for _, a := range archives {
		gavURL := fmt.Sprintf("%s%s/%s/%s/maven/", downloadRoot, a.BuildName, a.BuildVersion, a.BuildRelease)
		key := buildKey{a.GroupID, a.ArtifactID, a.Version, gavURL}
		filenames[key] = append(filenames[key], a.Filename)
	}

	result := make(Result)
	for key, files := range filenames {
		found, suffix := maven.ResolveClassifiers(key.artifactID, key.version, files)
		admitted := t.adm.Filter(found, nil)
		if len(admitted) == 0 {
			continue
		}
		if err := AddArtifact(result, key.groupID, key.artifactID, key.version, admitted, suffix, key.gavURL); err != nil {
			return nil, err
		}
	}

	if len(t.src.IncludedGAVPatterns) > 0 {
		t.logger.Debug("filtering tag artifacts by GAV patterns", "tag", t.src.TagName)
	}
	return filterByGAVPatterns(result, t.src.IncludedGAVPatterns)
}

// latestArchives fetches the latest Maven archives of the tag, going through
// the response cache.
func (t *TagCollector) latestArchives(ctx context.Context) ([]tagArchive, error) {
	cacheKey := "tag:" + t.src.BuildServiceURL + ":" + t.src.TagName
	if data, ok, err := t.cache.Get(ctx, cacheKey); err != nil {
		t.logger.Warn("tag cache lookup failed", "error", err)
	} else if ok {
		var archives []tagArchive
		if err := json.Unmarshal(data, &archives); err == nil {
			t.logger.Debug("using cached tag archives", "tag", t.src.TagName)
			return archives, nil
		}
	}

	url := fmt.Sprintf("%sapi/tags/%s/maven/latest", slashAtTheEnd(t.src.BuildServiceURL), t.src.TagName)
	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp, err := httputil.Do(ctx, t.client, http.MethodGet, url, nil, nil, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("listing tag %s: status %d", t.src.TagName, resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err,
			fmt.Sprintf("listing latest archives of tag %s", t.src.TagName))
	}

	var archives []tagArchive
	if err := json.Unmarshal(data, &archives); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err,
			fmt.Sprintf("parsing archive list of tag %s", t.src.TagName))
	}
	if err := t.cache.Set(ctx, cacheKey, data, tagCacheTTL); err != nil {
		t.logger.Warn("tag cache store failed", "error", err)
	}
	return archives, nil
}

func slashAtTheEnd(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}
