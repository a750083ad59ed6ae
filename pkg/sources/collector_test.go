package sources

import (
	"testing"

	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/maven"
)

func testAdmission(t *testing.T, addClassifiers ...string) *Admission {
	t.Helper()
	return NewAdmission(&config.Config{AddClassifiers: addClassifiers})
}

func TestAdmissionFilter(t *testing.T) {
	found := maven.Classifiers{
		"jar":    {"": true, "sources": true, "javadoc": true},
		"pom":    {"": true},
		"tar.gz": {"project-sources": true},
	}

	// Main files always pass, named classifiers only when requested.
	adm := testAdmission(t, "jar:sources")
	admitted := adm.Filter(found, nil)
	if !admitted["jar"][""] || !admitted["jar"]["sources"] || !admitted["pom"][""] {
		t.Errorf("admitted = %v", admitted)
	}
	if admitted["jar"]["javadoc"] || len(admitted["tar.gz"]) != 0 {
		t.Errorf("unrequested classifiers admitted: %v", admitted)
	}

	// A per-coordinate filter admits additional pairs.
	perCoord := map[string]map[string]bool{"jar": {"javadoc": true}}
	admitted = adm.Filter(found, perCoord)
	if !admitted["jar"]["javadoc"] {
		t.Errorf("per-coordinate filter ignored: %v", admitted)
	}

	// All-classifiers mode admits everything.
	all := testAdmission(t, config.AllClassifiersValue)
	admitted = all.Filter(found, nil)
	if !admitted["jar"]["javadoc"] || !admitted["tar.gz"]["project-sources"] {
		t.Errorf("all-classifiers admitted = %v", admitted)
	}
}

func TestAddArtifact(t *testing.T) {
	result := make(Result)

	classifiers := maven.Classifiers{"jar": {"": true}, "pom": {"": true}}
	if err := AddArtifact(result, "g", "a", "1.0", classifiers, "", "https://repo.example/"); err != nil {
		t.Fatalf("AddArtifact error: %v", err)
	}

	key := maven.Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0"}
	spec := result[key]
	if spec == nil {
		t.Fatal("spec missing")
	}
	if !spec.Types["jar"].Main || spec.Types["pom"].Main {
		t.Errorf("main flags: jar=%v pom=%v", spec.Types["jar"].Main, spec.Types["pom"].Main)
	}

	// A second discovery of the same coordinate merges disjoint types.
	if err := AddArtifact(result, "g", "a", "1.0", maven.Classifiers{"war": {"": true}}, "", "https://repo.example/"); err != nil {
		t.Fatalf("merging AddArtifact error: %v", err)
	}
	if len(result[key].Types) != 3 {
		t.Errorf("types after merge: %v", result[key].Types)
	}

	// Overlapping types conflict.
	if err := AddArtifact(result, "g", "a", "1.0", maven.Classifiers{"jar": {"tests": true}}, "", "https://repo.example/"); err == nil {
		t.Error("overlapping AddArtifact should fail")
	}
}

func TestFilterExcludedGAVs(t *testing.T) {
	result := make(Result)
	_ = AddArtifact(result, "g", "a", "1.0", maven.Classifiers{"jar": {"": true, "sources": true}}, "", "u")
	_ = AddArtifact(result, "g", "b", "1.0", maven.Classifiers{"jar": {"": true}}, "", "u")
	_ = AddArtifact(result, "g", "c", "1.0", maven.Classifiers{"jar": {"": true}}, "", "u")

	err := FilterExcludedGAVs(result, []string{
		"g:b:*",                // whole GAV
		"g:a:jar:sources:1.0",  // one classifier
		"g:c:jar:1.0",          // main classifier, cascades to the whole entry
	})
	if err != nil {
		t.Fatalf("FilterExcludedGAVs error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("result = %v", result)
	}
	spec := result[maven.Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0"}]
	if spec == nil || spec.Types["jar"].Classifiers["sources"] {
		t.Errorf("sources classifier should be gone: %v", spec)
	}
}

func TestFilterByGATCVs(t *testing.T) {
	result := make(Result)
	_ = AddArtifact(result, "g", "a", "1.0",
		maven.Classifiers{"jar": {"": true, "sources": true, "javadoc": true}, "pom": {"": true}}, "", "u")
	_ = AddArtifact(result, "g", "b", "1.0", maven.Classifiers{"jar": {"": true}, "pom": {"": true}}, "", "u")
	_ = AddArtifact(result, "g", "c", "1.0", maven.Classifiers{"pom": {"": true}}, "", "u")

	adm := testAdmission(t, "jar:sources")
	included := filterByGATCVs(result, []string{"g:a:jar:1.0", "g:c:pom:1.0"}, adm)

	// g:a keeps the requested jar (main) and the admitted sources classifier.
	a := included[maven.Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0"}]
	if a == nil {
		t.Fatal("g:a should be included")
	}
	if !a.Types["jar"].Main || !a.Types["jar"].Classifiers[""] || !a.Types["jar"].Classifiers["sources"] {
		t.Errorf("g:a jar = %v", a.Types["jar"])
	}
	if a.Types["jar"].Classifiers["javadoc"] {
		t.Error("javadoc is neither requested nor admitted")
	}
	if a.Types["pom"].Main {
		t.Error("pom of g:a must not be main")
	}

	// g:b has nothing requested and is dropped.
	if _, ok := included[maven.Coordinate{GroupID: "g", ArtifactID: "b", Version: "1.0"}]; ok {
		t.Error("g:b should be dropped")
	}

	// g:c's pom is explicitly requested and therefore main.
	c := included[maven.Coordinate{GroupID: "g", ArtifactID: "c", Version: "1.0"}]
	if c == nil || !c.Types["pom"].Main {
		t.Errorf("g:c = %v", c)
	}
}
