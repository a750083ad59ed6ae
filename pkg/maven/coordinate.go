// Package maven provides the Maven coordinate model used throughout artlist:
// parsing of GAV/GATCV strings, canonical string forms, repository path
// derivation, filename classification and version ordering.
package maven

import (
	"strings"

	"github.com/repotools/artlist/pkg/errors"
)

// scopes that may appear as a trailing segment of a coordinate string and are
// stripped during parsing.
var scopes = map[string]bool{
	"compile":  true,
	"test":     true,
	"provided": true,
	"runtime":  true,
	"system":   true,
	"import":   true,
}

// Coordinate identifies a Maven artifact. Type and Classifier are optional.
// SnapshotSuffix holds the timestamp/build-number suffix observed in real
// filenames of a snapshot version (e.g. "20130301.120012-2") and is used
// instead of the literal "SNAPSHOT" when deriving download filenames.
//
// A Coordinate is a value; once constructed it is never mutated.
type Coordinate struct {
	GroupID        string
	ArtifactID     string
	Type           string
	Classifier     string
	Version        string
	SnapshotSuffix string
}

// ParseGAV parses a colon separated coordinate of the form
// groupId:artifactId:[type:][classifier:]version[:scope].
func ParseGAV(gav string) (Coordinate, error) {
	parts := strings.Split(gav, ":")
	if len(parts) < 3 || len(parts) > 6 {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate, "invalid GAV string: %q", gav)
	}

	effective := len(parts)
	if scopes[parts[len(parts)-1]] {
		effective--
	}

	c := Coordinate{GroupID: parts[0], ArtifactID: parts[1]}
	switch effective {
	case 3:
		c.Version = parts[2]
	case 4:
		c.Type = parts[2]
		c.Version = parts[3]
	case 5:
		c.Type = parts[2]
		c.Classifier = parts[3]
		c.Version = parts[4]
	default:
		return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate, "invalid GAV string: %q", gav)
	}
	return c, nil
}

// GA returns "groupId:artifactId".
func (c Coordinate) GA() string {
	return c.GroupID + ":" + c.ArtifactID
}

// GAV returns "groupId:artifactId:version".
func (c Coordinate) GAV() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// GATCV returns the fully qualified coordinate string, omitting the type and
// classifier segments when they are empty.
func (c Coordinate) GATCV() string {
	var b strings.Builder
	b.WriteString(c.GroupID)
	b.WriteByte(':')
	b.WriteString(c.ArtifactID)
	if c.Type != "" {
		b.WriteByte(':')
		b.WriteString(c.Type)
	}
	if c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	b.WriteByte(':')
	b.WriteString(c.Version)
	return b.String()
}

func (c Coordinate) String() string { return c.GATCV() }

// Key returns the coordinate reduced to its group, artifact and version.
// Collectors key their partial results by it so that the same coordinate
// discovered with different types collapses into one ArtifactSpec.
func (c Coordinate) Key() Coordinate {
	return Coordinate{
		GroupID:        c.GroupID,
		ArtifactID:     c.ArtifactID,
		Version:        c.Version,
		SnapshotSuffix: "",
	}
}

// WithSnapshotSuffix returns a copy of c with the given snapshot suffix.
func (c Coordinate) WithSnapshotSuffix(suffix string) Coordinate {
	c.SnapshotSuffix = suffix
	return c
}

// ArtifactDirPath returns the relative repository path of the artifact
// directory (groupId as slashes + artifactId).
func (c Coordinate) ArtifactDirPath() string {
	return strings.ReplaceAll(c.GroupID, ".", "/") + "/" + c.ArtifactID + "/"
}

// DirPath returns the relative repository path of the version directory.
func (c Coordinate) DirPath() string {
	return c.ArtifactDirPath() + c.Version + "/"
}

// BaseFilename returns the filename stem (no classifier, no extension).
// For snapshots with a known suffix the literal "-SNAPSHOT" is replaced by
// the suffix so that the name matches the actually deployed files.
func (c Coordinate) BaseFilename() string {
	if c.SnapshotSuffix != "" {
		return c.ArtifactID + "-" + strings.ReplaceAll(c.Version, "SNAPSHOT", c.SnapshotSuffix)
	}
	return c.ArtifactID + "-" + c.Version
}

// ArtifactFilename returns the filename of the artifact file for the
// coordinate's type and classifier.
func (c Coordinate) ArtifactFilename() string {
	if c.Classifier != "" {
		return c.BaseFilename() + "-" + c.Classifier + "." + c.Type
	}
	return c.BaseFilename() + "." + c.Type
}

// PomFilename returns the filename of the coordinate's POM.
func (c Coordinate) PomFilename() string {
	return c.BaseFilename() + ".pom"
}

// PomPath returns the relative repository path of the coordinate's POM.
func (c Coordinate) PomPath() string {
	return c.DirPath() + c.PomFilename()
}

// IsSnapshot reports whether the version is a snapshot version.
func (c Coordinate) IsSnapshot() bool {
	return strings.HasSuffix(c.Version, snapshotSuffix)
}

// Compare orders coordinates by (groupId, artifactId, version) first and by
// the full GATCV string second.
func Compare(a, b Coordinate) int {
	if r := strings.Compare(a.GAV(), b.GAV()); r != 0 {
		return r
	}
	return strings.Compare(a.GATCV(), b.GATCV())
}
