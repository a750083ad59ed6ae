package listbuild

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/maven"
	"github.com/repotools/artlist/pkg/sources"
)

// fakeCollector returns a fixed result or error.
type fakeCollector struct {
	typ    string
	result sources.Result
	err    error
}

func (f *fakeCollector) Type() string { return f.typ }

func (f *fakeCollector) Collect(ctx context.Context) (sources.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func fakeResult(t *testing.T, gavs ...string) sources.Result {
	t.Helper()
	result := make(sources.Result)
	for _, gav := range gavs {
		coord, err := maven.ParseGAV(gav)
		if err != nil {
			t.Fatal(err)
		}
		if err := sources.AddArtifact(result, coord.GroupID, coord.ArtifactID, coord.Version,
			maven.Classifiers{"jar": {"": true}}, "", "https://repo.example/"); err != nil {
			t.Fatal(err)
		}
	}
	return result
}

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestBuild(t *testing.T) {
	srcs := []Source{
		{Collector: &fakeCollector{typ: config.SourceTypeTag, result: fakeResult(t, "g:a:1.0", "g:b:1.0")}},
		{Collector: &fakeCollector{typ: config.SourceTypeRepository, result: fakeResult(t, "g:a:2.0")}},
	}

	set, err := NewBuilder(srcs, testLogger()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if set.Size() != 3 {
		t.Errorf("Size = %d", set.Size())
	}
	if set["g:a"][1]["1.0"] == nil || set["g:a"][2]["2.0"] == nil || set["g:b"][1]["1.0"] == nil {
		t.Errorf("set = %v", set)
	}
}

func TestBuildAppliesSourceExclusions(t *testing.T) {
	srcs := []Source{
		{
			Collector:    &fakeCollector{typ: config.SourceTypeTag, result: fakeResult(t, "g:a:1.0", "g:b:1.0")},
			ExcludedGAVs: []string{"g:b:*"},
		},
	}

	set, err := NewBuilder(srcs, testLogger()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if set.Size() != 1 || set["g:b"] != nil {
		t.Errorf("set = %v", set)
	}
}

func TestBuildFailure(t *testing.T) {
	srcs := []Source{
		{Collector: &fakeCollector{typ: config.SourceTypeTag, result: fakeResult(t, "g:a:1.0")}},
		{Collector: &fakeCollector{typ: config.SourceTypeRepository,
			err: errors.New(errors.ErrCodeSourceFailed, "listing failed")}},
	}

	_, err := NewBuilder(srcs, testLogger()).Build(context.Background())
	if !errors.Is(err, errors.ErrCodeSourceFailed) {
		t.Errorf("error = %v, want source-failed", err)
	}
}

func TestBuildEmptySourceStillCounts(t *testing.T) {
	srcs := []Source{
		{Collector: &fakeCollector{typ: config.SourceTypeTag, result: make(sources.Result)}},
	}
	set, err := NewBuilder(srcs, testLogger()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if set.Size() != 0 {
		t.Errorf("Size = %d", set.Size())
	}
}
