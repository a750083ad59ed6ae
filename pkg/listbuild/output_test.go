package listbuild

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/repotools/artlist/pkg/artifact"
)

func TestRender(t *testing.T) {
	set := make(artifact.Set)
	addEntry(t, set, "g:b:1.0")
	addEntry(t, set, "g:a:1.0",
		artifact.NewType("jar", true, "", "sources"),
		artifact.NewType("pom", false, ""))

	got := Render(set, "")
	want := []string{
		"https://repo.example/\tg:a:jar:1.0",
		"https://repo.example/\tg:a:jar:sources:1.0",
		"https://repo.example/\tg:a:pom:1.0",
		"https://repo.example/\tg:b:jar:1.0",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Render = %v, want %v", got, want)
	}
}

func TestRenderCustomFormat(t *testing.T) {
	set := make(artifact.Set)
	addEntry(t, set, "g:a:1.0")

	got := Render(set, "{groupId}/{artifactId}/{version} {type} p{priority}")
	if len(got) != 1 || got[0] != "g/a/1.0 jar p1" {
		t.Errorf("Render = %v", got)
	}
}

func TestWriteList(t *testing.T) {
	set := make(artifact.Set)
	addEntry(t, set, "g:a:1.0")

	var buf bytes.Buffer
	if err := WriteList(&buf, set, DefaultLineFormat); err != nil {
		t.Fatalf("WriteList error: %v", err)
	}
	if buf.String() != "https://repo.example/\tg:a:jar:1.0\n" {
		t.Errorf("output = %q", buf.String())
	}
}
