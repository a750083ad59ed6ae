package maven

import (
	"regexp"
	"strings"
)

const snapshotSuffix = "-SNAPSHOT"

// Classifiers maps an artifact extension to the set of classifiers observed
// for it. The empty string marks the classifier-less main file.
type Classifiers map[string]map[string]bool

// Add records a classifier for an extension.
func (c Classifiers) Add(ext, classifier string) {
	set, ok := c[ext]
	if !ok {
		set = make(map[string]bool)
		c[ext] = set
	}
	set[classifier] = true
}

// ResolveClassifiers derives the extension/classifier map from a flat list of
// filenames that all belong to one coordinate directory. Checksum and
// signature files (.md5/.sha1/.sha256/.asc) are discarded, multi-dot archive
// extensions such as tar.gz are recognized as a whole, and files matching
// neither pattern are ignored.
//
// The second return value is the latest observed snapshot suffix: for
// snapshot versions deployed with a timestamp/build number, filenames carry
// e.g. "1.0-20130301.120012-2" instead of "1.0-SNAPSHOT", and the suffix is
// needed to build real download filenames later. It is empty when every
// filename used the nominal version.
//
// The result depends only on the set of filenames, never on their order.
func ResolveClassifiers(artifactID, version string, filenames []string) (Classifiers, string) {
	av := artifactVersionPattern(artifactID, version)
	checksumRE := regexp.MustCompile("^" + av + `.+\.(?:md5|sha1|sha256|asc)$`)
	// artifactId-version[-classifier].extension, with a special case for
	// multi-dot archive extensions (tar.gz, tar.bz2, ...).
	archiveRE := regexp.MustCompile("^" + av + `(?:-(.+))?\.(tar\.[^.]+)$`)
	plainRE := regexp.MustCompile("^" + av + `(?:-(.+))?\.([^.]+)$`)

	suffix := ""
	classifiers := make(Classifiers)
	for _, filename := range filenames {
		if checksumRE.MatchString(filename) {
			continue
		}

		m := archiveRE.FindStringSubmatch(filename)
		if m == nil {
			m = plainRE.FindStringSubmatch(filename)
		}
		if m == nil {
			continue
		}
		realVersion, classifier, ext := m[1], m[2], m[3]

		classifiers.Add(ext, classifier)

		// For snapshots the captured version is just the suffix part:
		// either the literal "SNAPSHOT" or the timestamp/build number of a
		// deployed file. Only the latter differs from the nominal version.
		if realVersion != version && realVersion != "SNAPSHOT" && realVersion > suffix {
			suffix = realVersion
		}
	}
	return classifiers, suffix
}

// artifactVersionPattern builds the "artifactId-(version)" part of the
// filename regexes. For snapshot versions the pattern also accepts the
// timestamp/build-number substitution used by deployed snapshot files.
func artifactVersionPattern(artifactID, version string) string {
	var versionPattern string
	if strings.HasSuffix(version, snapshotSuffix) {
		versionPattern = strings.ReplaceAll(regexp.QuoteMeta(version), "SNAPSHOT", `(SNAPSHOT|\d+\.\d+-\d+)`)
	} else {
		versionPattern = "(" + regexp.QuoteMeta(version) + ")"
	}
	return regexp.QuoteMeta(artifactID) + "-" + versionPattern
}
