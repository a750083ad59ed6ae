package sources

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/httputil"
	"github.com/repotools/artlist/pkg/maven"
)

// settingsTemplate is the minimal settings file handed to the dependency
// lister. The mirror redirects every repository lookup to the currently
// probed source repository.
const settingsTemplate = `<settings>
  <localRepository>${temp}/.m2/repository</localRepository>
  <mirrors>
    <mirror>
      <id>artlist-override</id>
      <mirrorOf>*</mirrorOf>
      <url>${url}</url>
    </mirror>
  </mirrors>
</settings>`

var (
	depListComment = regexp.MustCompile(`#.*$`)
	// groupId:artifactId:[type:][classifier:]version[:scope]
	depListGAV = regexp.MustCompile(`(([\w\-.]+:){2,3}([\w\-.]+:)?([\d][\w\-.]*))(:[\w]*\S)?`)
)

// ParseDepList extracts GAV strings from dependency-lister output. Comments
// and lines without a coordinate are ignored.
func ParseDepList(lines []string) []string {
	var gavs []string
	for _, line := range lines {
		line = strings.TrimSpace(depListComment.ReplaceAllString(line, ""))
		if m := depListGAV.FindStringSubmatch(line); m != nil {
			gavs = append(gavs, m[1])
		}
	}
	return gavs
}

// DependencyListCollector resolves the dependencies of a set of top-level
// coordinates by running an external dependency lister against each POM,
// optionally recursing into the discovered coordinates until a fixed point.
type DependencyListCollector struct {
	src     *config.Source
	adm     *Admission
	coords  *maven.Cache
	client  *http.Client
	logger  *log.Logger
	threads int

	// mvn is the dependency-lister binary, replaceable in tests.
	mvn string
}

// NewDependencyListCollector creates a collector for one dependency-list
// source. threads bounds the concurrent repository probes.
func NewDependencyListCollector(src *config.Source, adm *Admission, coords *maven.Cache, client *http.Client, threads int, logger *log.Logger) *DependencyListCollector {
	if client == nil {
		client = http.DefaultClient
	}
	return &DependencyListCollector{
		src:     src,
		adm:     adm,
		coords:  coords,
		client:  client,
		logger:  logger,
		threads: threads,
		mvn:     "mvn",
	}
}

func (d *DependencyListCollector) Type() string { return config.SourceTypeDependencyList }

// Collect resolves the top-level coordinates and their dependencies to a
// fixed point. A coordinate whose POM cannot be fetched or whose lister run
// fails is logged and skipped; the run continues.
func (d *DependencyListCollector) Collect(ctx context.Context) (Result, error) {
	d.logger.Info("building artifact list from dependency list",
		"top-level", len(d.src.TopLevelGAVs))

	workDir, err := os.MkdirTemp("", "artlist-deplist-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err, "creating work directory")
	}
	defer os.RemoveAll(workDir)

	result := make(Result)
	working := make(map[string]bool, len(d.src.TopLevelGAVs))
	checked := make(map[string]bool)
	for _, gav := range ParseDepList(d.src.TopLevelGAVs) {
		working[gav] = true
	}

	for len(working) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var gav string
		for gav = range working {
			break
		}
		delete(working, gav)
		checked[gav] = true

		d.logger.Debug("resolving dependencies", "gav", gav)
		gavList, err := d.listDependencies(ctx, workDir, gav)
		if err != nil {
			return nil, err
		}
		if gavList == nil {
			continue
		}

		newArtifacts, err := d.locateArtifacts(ctx, gavList)
		if err != nil {
			return nil, err
		}

		if d.src.Recursive {
			for coord := range newArtifacts {
				ngav := coord.GAV()
				if !checked[ngav] {
					working[ngav] = true
				}
			}
		}

		if d.src.AllClassifiers {
			newArtifacts, err = d.listAllClassifiers(ctx, newArtifacts)
			if err != nil {
				return nil, err
			}
		}

		for coord, spec := range newArtifacts {
			key := coord.Key()
			if existing, ok := result[key]; ok {
				if existing.RepoURL == spec.RepoURL {
					continue
				}
			}
			result[key] = spec
		}
	}
	return result, nil
}

// listDependencies fetches the coordinate's POM, runs the dependency lister
// against it and returns the parsed GAV list. A nil list with nil error
// means the coordinate was skipped.
func (d *DependencyListCollector) listDependencies(ctx context.Context, workDir, gav string) ([]string, error) {
	coord, err := d.coords.Parse(gav)
	if err != nil {
		return nil, err
	}

	pomFile := filepath.Join(workDir, "poms", coord.PomFilename())
	repoURL, fetched := d.fetchPom(ctx, coord, pomFile)
	if !fetched {
		d.logger.Warn("failed to retrieve pom file", "gav", gav)
		return nil, nil
	}

	settingsFile := filepath.Join(workDir, "settings.xml")
	settings := strings.NewReplacer("${url}", repoURL, "${temp}", workDir).Replace(settingsTemplate)
	if err := os.WriteFile(settingsFile, []byte(settings), 0644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err, "writing settings file")
	}

	outFile := filepath.Join(workDir, "deps-output", gav+".out")
	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err, "creating output directory")
	}

	args := []string{"dependency:list", "-N",
		"-DoutputFile=" + outFile,
		"-f", pomFile,
		"-s", settingsFile}
	if d.src.IncludeScope != "" {
		args = append(args, "-DincludeScope="+d.src.IncludeScope)
	}
	d.logger.Debug("running dependency lister", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, d.mvn, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("dependency lister failed, skipping artifact",
			"gav", gav, "error", err, "output", string(out))
		return nil, nil
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err,
			fmt.Sprintf("reading dependency list of %s", gav))
	}
	return ParseDepList(strings.Split(string(data), "\n")), nil
}

// fetchPom downloads the coordinate's POM from the first repository that has
// it and returns that repository's URL.
func (d *DependencyListCollector) fetchPom(ctx context.Context, coord maven.Coordinate, dest string) (string, bool) {
	for _, repoURL := range d.src.RepoURLs {
		pomURL := slashAtTheEnd(repoURL) + coord.PomPath()
		resp, err := httputil.Do(ctx, d.client, http.MethodGet, pomURL, nil, nil, nil)
		if err != nil {
			d.logger.Debug("pom fetch failed", "url", pomURL, "error", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			resp.Body.Close()
			return "", false
		}
		data, err := readAllAndClose(resp)
		if err != nil {
			d.logger.Debug("pom read failed", "url", pomURL, "error", err)
			continue
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return "", false
		}
		return repoURL, true
	}
	return "", false
}

// locateArtifacts finds each GAV in one of the source repositories,
// probing concurrently. Coordinates found in no repository are logged and
// skipped.
func (d *DependencyListCollector) locateArtifacts(ctx context.Context, gavs []string) (map[maven.Coordinate]*artifact.Spec, error) {
	located := make(map[maven.Coordinate]*artifact.Spec)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threads)
	for _, gav := range gavs {
		gav := gav
		g.Go(func() error {
			coord, err := d.coords.Parse(gav)
			if err != nil {
				return err
			}
			for _, repoURL := range d.src.RepoURLs {
				exists, err := PomExists(ctx, d.client, repoURL, coord)
				if err != nil {
					return err
				}
				if exists {
					ext := coord.Type
					if ext == "" {
						ext = "jar"
					}
					mu.Lock()
					located[coord] = artifact.NewSpecFromList(repoURL,
						[]*artifact.Type{artifact.NewType(ext, true, "")})
					mu.Unlock()
					return nil
				}
			}
			d.logger.Warn("artifact not found in any repository", "gav", gav)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return located, nil
}

// listAllClassifiers replaces each located artifact with the full
// type/classifier set found by listing its version directory remotely.
func (d *DependencyListCollector) listAllClassifiers(ctx context.Context, located map[maven.Coordinate]*artifact.Spec) (map[maven.Coordinate]*artifact.Spec, error) {
	resulting := make(map[maven.Coordinate]*artifact.Spec)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threads)
	for coord, spec := range located {
		coord, spec := coord, spec
		g.Go(func() error {
			dirURL := slashAtTheEnd(spec.RepoURL) + coord.DirPath()
			out, err := lftpFind(ctx, d.client, dirURL)
			if err != nil {
				if d.src.SkipMissing {
					d.logger.Warn("error while listing files, skipping",
						"url", dirURL, "error", err)
					return nil
				}
				return err
			}

			var files []string
			for _, line := range strings.Split(out, "\n") {
				if line != "./" && line != "" {
					files = append(files, strings.TrimPrefix(line, "./"))
				}
			}

			found, suffix := maven.ResolveClassifiers(coord.ArtifactID, coord.Version, files)
			mainExt := coord.Type
			if mainExt == "" {
				mainExt = "jar"
			}
			if _, ok := found[mainExt]; !ok {
				if len(files) > 0 {
					d.logger.Warn("main artifact missing in file listing",
						"type", mainExt, "url", dirURL, "files", strings.Join(files, ", "))
				} else {
					d.logger.Warn("empty file listing, skipping", "url", dirURL)
				}
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			return AddArtifact(resulting, coord.GroupID, coord.ArtifactID, coord.Version,
				found, suffix, spec.RepoURL)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resulting, nil
}
