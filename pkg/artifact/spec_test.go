package artifact

import (
	"testing"

	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/maven"
)

func TestSpecMerge(t *testing.T) {
	s := NewSpecFromList("https://repo.example/", []*Type{NewType("jar", true, "", "sources")})
	other := NewSpecFromList("https://repo.example/", []*Type{NewType("pom", false, "")})
	other.AddPath(UnknownPath(
		maven.Coordinate{GroupID: "g", ArtifactID: "root", Version: "1"},
		maven.Coordinate{GroupID: "g", ArtifactID: "a", Version: "1"},
	))
	other.SnapshotSuffix = "20130301.120012-2"

	if err := s.Merge(other); err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	if len(s.Types) != 2 {
		t.Errorf("types after merge: %v", s.Types)
	}
	if len(s.Paths) != 1 {
		t.Errorf("paths after merge: %d", len(s.Paths))
	}
	if s.SnapshotSuffix != "20130301.120012-2" {
		t.Errorf("snapshot suffix not carried: %q", s.SnapshotSuffix)
	}
}

func TestSpecMergeConflicts(t *testing.T) {
	s := NewSpecFromList("https://repo.example/", []*Type{NewType("jar", true, "")})

	// Different repository URL.
	err := s.Merge(NewSpecFromList("https://other.example/", []*Type{NewType("pom", false, "")}))
	if !errors.Is(err, errors.ErrCodeMergeConflict) {
		t.Errorf("URL conflict error: %v", err)
	}

	// Overlapping extension.
	err = s.Merge(NewSpecFromList("https://repo.example/", []*Type{NewType("jar", true, "tests")}))
	if !errors.Is(err, errors.ErrCodeMergeConflict) {
		t.Errorf("type conflict error: %v", err)
	}

	// An empty URL on the other side is compatible.
	if err := s.Merge(NewSpecFromList("", []*Type{NewType("pom", false, "")})); err != nil {
		t.Errorf("empty URL should merge: %v", err)
	}
}

func TestContainsMain(t *testing.T) {
	s := NewSpecFromList("", []*Type{NewType("pom", false, ""), NewType("jar", false, "sources")})
	if s.ContainsMain() {
		t.Error("no main type expected")
	}
	s.Types["war"] = NewType("war", true, "")
	if !s.ContainsMain() {
		t.Error("main type expected")
	}
}

func TestTypesFor(t *testing.T) {
	tests := []struct {
		name        string
		classifiers maven.Classifiers
		wantMain    map[string]bool
	}{
		{
			name:        "pom only",
			classifiers: maven.Classifiers{"pom": {"": true}},
			wantMain:    map[string]bool{"pom": true},
		},
		{
			name: "pom with auxiliary jars only",
			classifiers: maven.Classifiers{
				"pom": {"": true},
				"jar": {"sources": true, "javadoc": true},
			},
			wantMain: map[string]bool{"pom": true, "jar": false},
		},
		{
			name: "war is the main deliverable",
			classifiers: maven.Classifiers{
				"pom": {"": true},
				"jar": {"sources": true},
				"war": {"": true},
			},
			wantMain: map[string]bool{"pom": false, "jar": false, "war": true},
		},
		{
			name: "jar and war both main",
			classifiers: maven.Classifiers{
				"pom": {"": true},
				"jar": {"": true},
				"war": {"": true},
			},
			wantMain: map[string]bool{"pom": false, "jar": true, "war": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(map[string]bool)
			for _, typ := range TypesFor(tt.classifiers) {
				got[typ.Extension] = typ.Main
			}
			if len(got) != len(tt.wantMain) {
				t.Fatalf("types = %v, want %v", got, tt.wantMain)
			}
			for ext, main := range tt.wantMain {
				if got[ext] != main {
					t.Errorf("%s main = %v, want %v", ext, got[ext], main)
				}
			}
		})
	}
}

func TestPathDirect(t *testing.T) {
	direct := Path{{Type: RelDependency}, {Type: RelDependency}}
	if !direct.Direct() {
		t.Error("path without inherited edges should be direct")
	}
	inherited := Path{{Type: RelDependency}, {Type: RelDependency, Inherited: true}}
	if inherited.Direct() {
		t.Error("inherited edge should make the path indirect")
	}
	mixin := Path{{Type: RelBOM, Mixin: true}}
	if mixin.Direct() {
		t.Error("mixin edge should make the path indirect")
	}
}
