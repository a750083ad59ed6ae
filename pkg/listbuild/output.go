package listbuild

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/repotools/artlist/pkg/artifact"
)

// DefaultLineFormat renders one line per artifact file: its repository URL
// and its fully qualified coordinate, tab separated.
const DefaultLineFormat = "{url}\t{gatcv}"

// Render flattens the filtered artifact set into output lines, one per
// type/classifier combination, in deterministic order. Available format
// variables: {gatcv}, {groupId}, {artifactId}, {version}, {type},
// {classifier}, {priority}, {url}.
func Render(set artifact.Set, format string) []string {
	if format == "" {
		format = DefaultLineFormat
	}

	var lines []string
	for _, ga := range set.GAs() {
		groupID, artifactID, _ := strings.Cut(ga, ":")
		for _, priority := range set.Priorities(ga) {
			for _, version := range set.Versions(ga, priority) {
				spec := set[ga][priority][version]
				for _, ext := range sortedKeys(spec.Types) {
					for _, classifier := range sortedClassifiers(spec.Types[ext]) {
						line := strings.NewReplacer(
							"{gatcv}", gatcv(ga, ext, classifier, version),
							"{groupId}", groupID,
							"{artifactId}", artifactID,
							"{version}", version,
							"{type}", ext,
							"{classifier}", classifier,
							"{priority}", strconv.Itoa(priority),
							"{url}", spec.RepoURL,
						).Replace(format)
						lines = append(lines, line)
					}
				}
			}
		}
	}
	return lines
}

// WriteList renders the set and writes one line per artifact to w.
func WriteList(w io.Writer, set artifact.Set, format string) error {
	bw := bufio.NewWriter(w)
	for _, line := range Render(set, format) {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sortedKeys(types map[string]*artifact.Type) []string {
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedClassifiers(t *artifact.Type) []string {
	classifiers := make([]string, 0, len(t.Classifiers))
	for c := range t.Classifiers {
		classifiers = append(classifiers, c)
	}
	sort.Strings(classifiers)
	return classifiers
}
