package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/repotools/artlist/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
output = "artifacts.txt"
add-classifiers = ["jar:sources", "tar.gz:project-sources"]

[cache]
dir = "/tmp/artlist-cache"

[[source]]
type = "tag"
build-service-url = "https://builds.example/"
download-root-url = "https://downloads.example/"
tag-name = "release-1.0"
excluded-gavs = ["org.example:internal:*"]

[[source]]
type = "dependency-graph"
graph-service-url = "https://graph.example/"
source-key = "group:public"
top-level-gavs = ["org.example:app:1.0"]

[filter]
single-version = true
excluded-types = ["zip"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Output != "artifacts.txt" {
		t.Errorf("Output: %s", cfg.Output)
	}
	if cfg.Threads != DefaultThreads {
		t.Errorf("Threads default: %d", cfg.Threads)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("Sources: %d", len(cfg.Sources))
	}
	if cfg.Sources[0].ExcludedGAVs[0] != "org.example:internal:*" {
		t.Errorf("ExcludedGAVs: %v", cfg.Sources[0].ExcludedGAVs)
	}
	if cfg.Sources[1].Preset != "sob-build" {
		t.Errorf("Preset default: %s", cfg.Sources[1].Preset)
	}
	if !cfg.Filter.SingleVersion {
		t.Error("Filter.SingleVersion should be set")
	}
}

func TestLoadThreadsClamped(t *testing.T) {
	path := writeConfig(t, `
threads = 100

[[source]]
type = "repository"
repo-urls = ["https://repo.example/"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Threads != MaxThreads {
		t.Errorf("Threads: %d, want clamped to %d", cfg.Threads, MaxThreads)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no sources", `output = "x"`},
		{"unknown source type", `
[[source]]
type = "bogus"
`},
		{"tag source missing fields", `
[[source]]
type = "tag"
tag-name = "release-1.0"
`},
		{"dependency-list without top-level gavs", `
[[source]]
type = "dependency-list"
repo-urls = ["https://repo.example/"]
`},
		{"malformed add-classifiers", `
add-classifiers = ["sources"]

[[source]]
type = "repository"
repo-urls = ["https://repo.example/"]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error = %v, want invalid-config", err)
			}
		})
	}
}

func TestExtraClassifiers(t *testing.T) {
	cfg := &Config{AddClassifiers: []string{"jar:sources", "tar.gz:project-sources"}}

	extras := cfg.ExtraClassifiers()
	if len(extras) != 2 || extras[0] != (ExtClassifier{Type: "jar", Classifier: "sources"}) {
		t.Errorf("extras: %v", extras)
	}
	if !cfg.ContainsAddClassifier("jar", "sources") {
		t.Error("jar:sources should be admitted")
	}
	if cfg.ContainsAddClassifier("jar", "javadoc") {
		t.Error("jar:javadoc should not be admitted")
	}

	all := &Config{AddClassifiers: []string{AllClassifiersValue}}
	if got := all.ExtraClassifiers(); len(got) != 1 || got[0].Type != "*" || got[0].Classifier != "*" {
		t.Errorf("wildcard extras: %v", got)
	}
	if !all.ContainsAddClassifier("anything", "at-all") {
		t.Error("all-classifiers should admit everything")
	}
}
