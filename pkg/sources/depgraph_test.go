package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/depgraph"
	"github.com/repotools/artlist/pkg/maven"
)

func TestDependencyGraphCollector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/depgraph/repo/urlmap":
			w.Write([]byte(`{
				"org.example:app:1.0":{"files":["app-1.0.pom","app-1.0.jar"],"repoUrl":"https://repo.example/"},
				"org.example:lib:1.0":{"files":["lib-1.0.pom","lib-1.0.jar","lib-1.0-sources.jar"],"repoUrl":"https://repo.example/"}
			}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := &config.Source{
		Type:            config.SourceTypeDependencyGraph,
		GraphServiceURL: srv.URL,
		SourceKey:       "group:public",
		TopLevelGAVs:    []string{"org.example:app:1.0"},
		Preset:          "sob-build",
		WorkspaceID:     "ws-1",
	}
	cfg := &config.Config{AddClassifiers: []string{"jar:sources"}, Sources: []*config.Source{src}}
	client := depgraph.NewClient(srv.URL, srv.Client(), nil, log.New(io.Discard))
	c := NewDependencyGraphCollector(src, cfg, client, maven.NewCache(0), log.New(io.Discard))

	result, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("result = %v", result)
	}

	lib := result[maven.Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0"}]
	if lib == nil || !lib.Types["jar"].Main || !lib.Types["jar"].Classifiers["sources"] {
		t.Errorf("lib = %v", lib)
	}
}

func TestDependencyGraphCollectorAnalyze(t *testing.T) {
	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/depgraph/ws/new":
			w.Write([]byte(`{"id":"ws-test"}`))
		case r.URL.Path == "/api/depgraph/ws/ws-test" && r.Method == http.MethodDelete:
			deleted = true
		case r.URL.Path == "/api/depgraph/repo/urlmap":
			w.Write([]byte(`{
				"org.example:app:1.0":{"files":["app-1.0.pom"],"repoUrl":"https://repo.example/"},
				"org.example:lib:1.0":{"files":["lib-1.0.jar"],"repoUrl":"https://repo.example/"},
				"org.example:stray:1.0":{"files":["stray-1.0.jar"],"repoUrl":"https://repo.example/"}
			}`))
		case r.URL.Path == "/api/depgraph/repo/paths":
			w.Write([]byte(`{
				"org.example:lib:1.0":[
					[{"rel":"DEPENDENCY","declaring":"org.example:app:1.0","target":"org.example:lib:jar:1.0","scope":"compile"}],
					[{"rel":"DEPENDENCY","declaring":"org.example:app:1.0","target":"org.example:lib:jar:1.0","scope":"compile","inherited":true}]
				]
			}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := &config.Source{
		Type:            config.SourceTypeDependencyGraph,
		GraphServiceURL: srv.URL,
		SourceKey:       "group:public",
		TopLevelGAVs:    []string{"org.example:app:1.0"},
		Preset:          "sob-build",
		Analyze:         true,
	}
	cfg := &config.Config{Sources: []*config.Source{src}}
	client := depgraph.NewClient(srv.URL, srv.Client(), nil, log.New(io.Discard))
	c := NewDependencyGraphCollector(src, cfg, client, maven.NewCache(0), log.New(io.Discard))

	result, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if !deleted {
		t.Error("the temporary workspace should be deleted")
	}

	// The direct path is attached, the inherited one discarded.
	lib := result[maven.Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0"}]
	if lib == nil || len(lib.Paths) != 1 {
		t.Fatalf("lib paths = %v", lib)
	}
	if !lib.Paths[0].Direct() || lib.Paths[0][0].Extra != "compile" {
		t.Errorf("lib path = %v", lib.Paths[0])
	}

	// A coordinate without any reported path gets a placeholder from the root.
	stray := result[maven.Coordinate{GroupID: "org.example", ArtifactID: "stray", Version: "1.0"}]
	if stray == nil || len(stray.Paths) != 1 || len(stray.Paths[0]) != 2 {
		t.Errorf("stray paths = %v", stray)
	}

	// The root itself carries no provenance.
	app := result[maven.Coordinate{GroupID: "org.example", ArtifactID: "app", Version: "1.0"}]
	if app == nil || len(app.Paths) != 0 {
		t.Errorf("app paths = %v", app)
	}
}

func TestNormalizeGAVKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"g:a:1.0", "g:a:1.0"},
		{"g:a:jar:1.0", "g:a:1.0"},
		{"g:a:jar:tests:1.0", "g:a:1.0"},
	}
	for _, tt := range tests {
		if got := normalizeGAVKey(tt.in); got != tt.want {
			t.Errorf("normalizeGAVKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeGATVC(t *testing.T) {
	if got := normalizeGATVC("g:a:jar:1.0:tests"); got != "g:a:jar:tests:1.0" {
		t.Errorf("normalizeGATVC = %q", got)
	}
	if got := normalizeGATVC("g:a:jar:1.0"); got != "g:a:jar:1.0" {
		t.Errorf("four-part coordinates pass through: %q", got)
	}
}
