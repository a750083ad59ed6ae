package maven

import (
	"reflect"
	"testing"
)

func TestResolveClassifiers(t *testing.T) {
	filenames := []string{
		"lib-1.0.pom",
		"lib-1.0.pom.md5",
		"lib-1.0.pom.sha1",
		"lib-1.0.jar",
		"lib-1.0.jar.asc",
		"lib-1.0-sources.jar",
		"lib-1.0-javadoc.jar",
		"lib-1.0-project-sources.tar.gz",
		"maven-metadata.xml",
		"unrelated-2.0.jar",
	}

	classifiers, suffix := ResolveClassifiers("lib", "1.0", filenames)
	if suffix != "" {
		t.Errorf("unexpected snapshot suffix: %q", suffix)
	}

	want := Classifiers{
		"pom":    {"": true},
		"jar":    {"": true, "sources": true, "javadoc": true},
		"tar.gz": {"project-sources": true},
	}
	if !reflect.DeepEqual(classifiers, want) {
		t.Errorf("classifiers = %v, want %v", classifiers, want)
	}
}

func TestResolveClassifiersOrderIndependent(t *testing.T) {
	a := []string{"lib-1.0.jar", "lib-1.0-sources.jar", "lib-1.0.pom"}
	b := []string{"lib-1.0.pom", "lib-1.0.jar", "lib-1.0-sources.jar"}

	ca, _ := ResolveClassifiers("lib", "1.0", a)
	cb, _ := ResolveClassifiers("lib", "1.0", b)
	if !reflect.DeepEqual(ca, cb) {
		t.Errorf("result depends on filename order: %v vs %v", ca, cb)
	}
}

func TestResolveClassifiersSnapshot(t *testing.T) {
	filenames := []string{
		"lib-1.0-SNAPSHOT.pom",
		"lib-1.0-20130301.120012-1.jar",
		"lib-1.0-20130301.120012-2.jar",
		"lib-1.0-20130301.120012-2-sources.jar",
	}

	classifiers, suffix := ResolveClassifiers("lib", "1.0-SNAPSHOT", filenames)
	if suffix != "20130301.120012-2" {
		t.Errorf("suffix = %q, want the latest build number", suffix)
	}
	if !classifiers["jar"][""] || !classifiers["jar"]["sources"] || !classifiers["pom"][""] {
		t.Errorf("classifiers = %v", classifiers)
	}
}

func TestResolveClassifiersDottedArtifactID(t *testing.T) {
	// Regex metacharacters in the artifact id must be treated literally.
	classifiers, _ := ResolveClassifiers("lib.core", "1.0", []string{"lib.core-1.0.jar", "libXcore-1.0.jar"})
	if len(classifiers) != 1 || !classifiers["jar"][""] {
		t.Errorf("classifiers = %v", classifiers)
	}
}
