package sources

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/maven"
)

// Repository bookkeeping files that never describe an artifact.
var ignoredRepositoryFiles = map[string]bool{
	"maven-metadata.xml":      true,
	"maven-metadata.xml.md5":  true,
	"maven-metadata.xml.sha1": true,
}

var (
	// ./groupPath/artifactId/version/filename
	remoteGAVFile = regexp.MustCompile(`^\./(.+)/([^/]+)/([^/]+)/([^/]+\.[^/.]+)$`)
	// groupPath/artifactId/version
	localGAVDir = regexp.MustCompile(`^(.+)/([^/]+)/([^/]+)/?$`)

	// groupId:artifactId: followed by optional type/classifier and a version
	gatcvToGAV = regexp.MustCompile(`((?:[\w\-.]+:){2})(?:[\w\-.]+:){0,2}([\d][\w\-.]+)` +
		`(?::(?:compile|provided|runtime|test|system|import))?`)
	gatcvFull = regexp.MustCompile(`([\w\-.]+):([\w\-.]+):([\w\-.]+):([\w\-.]+):([\d][\w\-.]+)` +
		`(?::(?:compile|provided|runtime|test|system|import))?`)

	regexPatternSpec  = regexp.MustCompile(`^r/.*/$`)
	regexPatternStart = regexp.MustCompile(`^((?:[a-zA-Z0-9-]+|\\\.|:)+)`)
)

// RepositoryCollector scans Maven repositories directly: local directory
// trees are walked, remote ones are listed with an external listing tool.
// When several repository URLs are declared, later URLs take precedence for
// overlapping coordinates.
type RepositoryCollector struct {
	src    *config.Source
	adm    *Admission
	client *http.Client
	logger *log.Logger

	// lftp is the remote listing binary, replaceable in tests.
	lftp string
}

// NewRepositoryCollector creates a collector for one repository source.
func NewRepositoryCollector(src *config.Source, adm *Admission, client *http.Client, logger *log.Logger) *RepositoryCollector {
	if client == nil {
		client = http.DefaultClient
	}
	return &RepositoryCollector{src: src, adm: adm, client: client, logger: logger, lftp: "lftp"}
}

func (r *RepositoryCollector) Type() string { return config.SourceTypeRepository }

// Collect scans the configured repositories, restricted to the directory
// prefixes derived from the inclusion patterns so unrelated subtrees are
// never listed.
func (r *RepositoryCollector) Collect(ctx context.Context) (Result, error) {
	r.logger.Info("building artifact list from repository",
		"urls", strings.Join(r.src.RepoURLs, ", "))

	var prefixes []string
	var classFilter map[maven.Coordinate]map[string]map[string]bool
	if len(r.src.IncludedGATCVs) > 0 {
		prefixes = derivePrefixes(gavsFromGATCVs(r.src.IncludedGATCVs))
		classFilter = classifiersFilterFromGATCVs(r.src.IncludedGATCVs)
	} else {
		prefixes = derivePrefixes(r.src.IncludedGAVPatterns)
	}

	result := make(Result)
	for i := len(r.src.RepoURLs) - 1; i >= 0; i-- {
		repoURL := slashAtTheEnd(r.src.RepoURLs[i])
		var part Result
		var err error
		switch {
		case strings.HasPrefix(repoURL, "file://"):
			part, err = r.listLocal(ctx, strings.TrimPrefix(repoURL, "file://"), prefixes, classFilter)
		case !strings.Contains(repoURL, "://"):
			part, err = r.listLocal(ctx, repoURL, prefixes, classFilter)
		case strings.HasPrefix(repoURL, "http://") || strings.HasPrefix(repoURL, "https://"):
			part, err = r.listRemote(ctx, repoURL, prefixes, classFilter)
		default:
			err = errors.New(errors.ErrCodeInvalidInput, "invalid repository protocol: %s", repoURL)
		}
		if err != nil {
			return nil, err
		}
		for coord, spec := range part {
			if _, ok := result[coord]; !ok {
				result[coord] = spec
			}
		}
	}

	if len(r.src.IncludedGATCVs) > 0 {
		result = filterByGATCVs(result, r.src.IncludedGATCVs, r.adm)
	} else {
		var err error
		result, err = filterByGAVPatterns(result, r.src.IncludedGAVPatterns)
		if err != nil {
			return nil, err
		}
	}
	r.logger.Debug("repository scan finished", "artifacts", len(result))
	return result, nil
}

// listLocal walks a local repository tree, accumulating the files of each
// version directory before resolving their classifiers.
func (r *RepositoryCollector) listLocal(ctx context.Context, root string, prefixes []string, classFilter map[maven.Coordinate]map[string]map[string]bool) (Result, error) {
	type gavKey struct {
		groupID    string
		artifactID string
		version    string
	}
	files := make(map[gavKey][]string)

	for _, prefix := range prefixes {
		start := filepath.Join(root, filepath.FromSlash(prefix))
		r.logger.Debug("listing local repository", "path", root, "prefix", prefix)

		err := filepath.WalkDir(start, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == start {
					return filepath.SkipAll
				}
				return err
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, filepath.Dir(path))
			if err != nil {
				return err
			}
			m := localGAVDir.FindStringSubmatch(filepath.ToSlash(rel))
			if m == nil {
				return nil
			}
			filename := d.Name()
			if ignoredRepositoryFiles[filename] {
				return nil
			}

			key := gavKey{strings.ReplaceAll(m[1], "/", "."), m[2], m[3]}
			files[key] = append(files[key], filename)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result := make(Result)
	for key, filenames := range files {
		found, suffix := maven.ResolveClassifiers(key.artifactID, key.version, filenames)
		coordFilter := classFilter[maven.Coordinate{GroupID: key.groupID, ArtifactID: key.artifactID, Version: key.version}]
		admitted := r.adm.Filter(found, coordFilter)
		if len(admitted) == 0 {
			continue
		}
		if err := AddArtifact(result, key.groupID, key.artifactID, key.version,
			admitted, suffix, "file://"+root); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// listRemote lists a remote repository subtree with the external listing
// tool and resolves every artifact file it reports.
func (r *RepositoryCollector) listRemote(ctx context.Context, repoURL string, prefixes []string, classFilter map[maven.Coordinate]map[string]map[string]bool) (Result, error) {
	type gavKey struct {
		groupID    string
		artifactID string
		version    string
	}
	found := make(map[gavKey]maven.Classifiers)
	suffixes := make(map[gavKey]string)

	for _, prefix := range prefixes {
		r.logger.Debug("listing remote repository", "url", repoURL, "prefix", prefix)
		out, err := lftpFindCmd(ctx, r.lftp, r.client, repoURL+prefix)
		if err != nil {
			if prefix == "" {
				return nil, err
			}
			r.logger.Warn("remote listing failed for prefix, skipping", "prefix", prefix, "error", err)
			continue
		}

		for _, line := range strings.Split(out, "\n") {
			if line == "" {
				continue
			}
			line = "./" + prefix + strings.TrimPrefix(line, "./")
			m := remoteGAVFile.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			groupID := strings.ReplaceAll(m[1], "/", ".")
			artifactID, version, filename := m[2], m[3], m[4]
			if ignoredRepositoryFiles[filename] {
				continue
			}

			resolved, suffix := maven.ResolveClassifiers(artifactID, version, []string{filename})
			key := gavKey{groupID, artifactID, version}
			coordFilter := classFilter[maven.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version}]
			admitted := r.adm.Filter(resolved, coordFilter)

			set, ok := found[key]
			if !ok {
				set = make(maven.Classifiers)
				found[key] = set
			}
			for ext, classifiers := range admitted {
				for classifier := range classifiers {
					set.Add(ext, classifier)
				}
			}
			if suffix != "" && suffix > suffixes[key] {
				suffixes[key] = suffix
			}
		}
	}

	result := make(Result)
	for key, classifiers := range found {
		if err := AddArtifact(result, key.groupID, key.artifactID, key.version,
			classifiers, suffixes[key], repoURL); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// lftpFind lists a remote directory tree, returning newline separated
// relative paths prefixed with "./".
func lftpFind(ctx context.Context, client *http.Client, url string) (string, error) {
	return lftpFindCmd(ctx, "lftp", client, url)
}

func lftpFindCmd(ctx context.Context, lftp string, client *http.Client, url string) (string, error) {
	if !urlExists(ctx, client, url) {
		return "", errors.New(errors.ErrCodeNotFound, "cannot list URL %s: the URL does not exist", url)
	}
	script := fmt.Sprintf("set ssl:verify-certificate no ; open %s && find .", url)
	cmd := exec.CommandContext(ctx, lftp, "-c", script)
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeToolFailed, err,
			fmt.Sprintf("remote listing of %s", url))
	}
	return string(out), nil
}

// gavsFromGATCVs reduces full GATCV strings to group:artifact:version for
// prefix derivation.
func gavsFromGATCVs(gatcvs []string) []string {
	var gavs []string
	for _, gatcv := range gatcvs {
		if m := gatcvToGAV.FindStringSubmatch(gatcv); m != nil {
			gavs = append(gavs, m[1]+m[2])
		}
	}
	return gavs
}

// classifiersFilterFromGATCVs extracts the explicitly requested
// extension/classifier pairs per coordinate from five-part GATCV strings.
func classifiersFilterFromGATCVs(gatcvs []string) map[maven.Coordinate]map[string]map[string]bool {
	filter := make(map[maven.Coordinate]map[string]map[string]bool)
	for _, gatcv := range gatcvs {
		m := gatcvFull.FindStringSubmatch(gatcv)
		if m == nil {
			continue
		}
		coord := maven.Coordinate{GroupID: m[1], ArtifactID: m[2], Version: m[5]}
		ext, classifier := m[3], m[4]
		byExt, ok := filter[coord]
		if !ok {
			byExt = make(map[string]map[string]bool)
			filter[coord] = byExt
		}
		set, ok := byExt[ext]
		if !ok {
			set = make(map[string]bool)
			byExt[ext] = set
		}
		set[classifier] = true
	}
	return filter
}

// derivePrefixes converts inclusion patterns into the shortest set of
// non-overlapping directory prefixes that covers every pattern, so a scan
// can skip unrelated subtrees. Patterns that cannot contribute a readable
// prefix force a full scan (single empty prefix).
func derivePrefixes(gavPatterns []string) []string {
	if len(gavPatterns) == 0 {
		return []string{""}
	}

	candidates := make(map[string]bool)
	for _, pattern := range gavPatterns {
		if regexPatternSpec.MatchString(pattern) {
			// Convert the readable head of a regex pattern
			// (e.g. "r/org\.jboss:core-.*:.*/") into a glob.
			m := regexPatternStart.FindStringSubmatch(pattern[2 : len(pattern)-1])
			if m == nil {
				return []string{""}
			}
			pattern = strings.ReplaceAll(m[1], `\`, "") + "*"
		}
		parts := strings.Split(pattern, ":")
		px := strings.ReplaceAll(parts[0], ".", "/") + "/"
		if len(parts) >= 2 {
			px += parts[1] + "/"
		}
		if len(parts) >= 3 {
			px += parts[2] + "/"
		}
		if pos := strings.Index(px, "*"); pos != -1 {
			px = px[:pos]
		}
		idx := strings.LastIndex(px, "/")
		if idx <= 0 {
			// no slash before the first star
			return []string{""}
		}
		candidates[px[:idx]+"/"] = true
	}

	sorted := make([]string, 0, len(candidates))
	for c := range candidates {
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })

	var prefixes []string
	for _, candidate := range sorted {
		covered := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(candidate, prefix) {
				covered = true
				break
			}
		}
		if !covered {
			prefixes = append(prefixes, candidate)
		}
	}
	return prefixes
}
