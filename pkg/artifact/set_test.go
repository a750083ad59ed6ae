package artifact

import (
	"reflect"
	"testing"

	"github.com/repotools/artlist/pkg/maven"
)

func coord(ga, version string) maven.Coordinate {
	c, _ := maven.ParseGAV(ga + ":" + version)
	return c
}

func TestSetAdd(t *testing.T) {
	s := make(Set)

	if err := s.Add(coord("g:a", "1.0"), 1, NewSpecFromList("u", []*Type{NewType("jar", true, "")})); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := s.Add(coord("g:a", "2.0"), 2, NewSpecFromList("u", []*Type{NewType("jar", true, "")})); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	// Same version at the same priority merges.
	if err := s.Add(coord("g:a", "1.0"), 1, NewSpecFromList("u", []*Type{NewType("pom", false, "")})); err != nil {
		t.Fatalf("merge Add error: %v", err)
	}
	if len(s["g:a"][1]["1.0"].Types) != 2 {
		t.Errorf("merged types: %v", s["g:a"][1]["1.0"].Types)
	}

	// A conflicting merge surfaces the error.
	if err := s.Add(coord("g:a", "1.0"), 1, NewSpecFromList("u", []*Type{NewType("jar", true, "")})); err == nil {
		t.Error("conflicting Add should fail")
	}

	if got := s.Priorities("g:a"); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Priorities: %v", got)
	}
	if got := s.Size(); got != 2 {
		t.Errorf("Size: %d", got)
	}
}

func TestSetDeleteVersionPrunes(t *testing.T) {
	s := make(Set)
	_ = s.Add(coord("g:a", "1.0"), 1, NewSpecFromList("u", nil))
	_ = s.Add(coord("g:b", "1.0"), 1, NewSpecFromList("u", nil))

	s.DeleteVersion("g:a", 1, "1.0")
	if _, ok := s["g:a"]; ok {
		t.Error("empty branch should be pruned")
	}
	if got := s.GAs(); !reflect.DeepEqual(got, []string{"g:b"}) {
		t.Errorf("GAs: %v", got)
	}
}
