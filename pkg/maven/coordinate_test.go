package maven

import "testing"

func TestParseGAV(t *testing.T) {
	tests := []struct {
		name string
		gav  string
		want Coordinate
	}{
		{
			name: "gav",
			gav:  "org.example:lib:1.0",
			want: Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0"},
		},
		{
			name: "gatv",
			gav:  "org.example:lib:jar:1.0",
			want: Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Version: "1.0"},
		},
		{
			name: "gatcv",
			gav:  "org.example:lib:jar:tests:1.0",
			want: Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Classifier: "tests", Version: "1.0"},
		},
		{
			name: "gatv with scope",
			gav:  "org.example:lib:jar:1.0:compile",
			want: Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Version: "1.0"},
		},
		{
			name: "gatcv with scope",
			gav:  "org.example:lib:jar:tests:1.0:test",
			want: Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Classifier: "tests", Version: "1.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGAV(tt.gav)
			if err != nil {
				t.Fatalf("ParseGAV(%q) error: %v", tt.gav, err)
			}
			if got != tt.want {
				t.Errorf("ParseGAV(%q) = %+v, want %+v", tt.gav, got, tt.want)
			}
		})
	}
}

func TestParseGAVInvalid(t *testing.T) {
	for _, gav := range []string{"", "org.example", "org.example:lib", "a:b:c:d:e:f:g"} {
		if _, err := ParseGAV(gav); err == nil {
			t.Errorf("ParseGAV(%q) should fail", gav)
		}
	}
}

func TestCoordinateStrings(t *testing.T) {
	c := Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Classifier: "tests", Version: "1.0"}

	if got := c.GA(); got != "org.example:lib" {
		t.Errorf("GA: %s", got)
	}
	if got := c.GAV(); got != "org.example:lib:1.0" {
		t.Errorf("GAV: %s", got)
	}
	if got := c.GATCV(); got != "org.example:lib:jar:tests:1.0" {
		t.Errorf("GATCV: %s", got)
	}

	// Empty type and classifier segments are omitted.
	bare := Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0"}
	if got := bare.GATCV(); got != "org.example:lib:1.0" {
		t.Errorf("bare GATCV: %s", got)
	}
}

func TestCoordinatePaths(t *testing.T) {
	c := Coordinate{GroupID: "org.example", ArtifactID: "lib", Type: "jar", Version: "1.0"}

	if got := c.DirPath(); got != "org/example/lib/1.0/" {
		t.Errorf("DirPath: %s", got)
	}
	if got := c.PomPath(); got != "org/example/lib/1.0/lib-1.0.pom" {
		t.Errorf("PomPath: %s", got)
	}
	if got := c.ArtifactFilename(); got != "lib-1.0.jar" {
		t.Errorf("ArtifactFilename: %s", got)
	}

	c.Classifier = "sources"
	if got := c.ArtifactFilename(); got != "lib-1.0-sources.jar" {
		t.Errorf("classified ArtifactFilename: %s", got)
	}
}

func TestCoordinateSnapshotFilenames(t *testing.T) {
	c := Coordinate{
		GroupID:        "org.example",
		ArtifactID:     "lib",
		Type:           "jar",
		Version:        "1.0-SNAPSHOT",
		SnapshotSuffix: "20130301.120012-2",
	}

	if !c.IsSnapshot() {
		t.Error("IsSnapshot should be true")
	}
	if got := c.ArtifactFilename(); got != "lib-1.0-20130301.120012-2.jar" {
		t.Errorf("snapshot ArtifactFilename: %s", got)
	}
	if got := c.PomFilename(); got != "lib-1.0-20130301.120012-2.pom" {
		t.Errorf("snapshot PomFilename: %s", got)
	}

	// Without a resolved suffix the nominal version is used.
	c.SnapshotSuffix = ""
	if got := c.ArtifactFilename(); got != "lib-1.0-SNAPSHOT.jar" {
		t.Errorf("nominal snapshot ArtifactFilename: %s", got)
	}
}

func TestCoordinateKey(t *testing.T) {
	c := Coordinate{
		GroupID:        "org.example",
		ArtifactID:     "lib",
		Type:           "jar",
		Classifier:     "tests",
		Version:        "1.0-SNAPSHOT",
		SnapshotSuffix: "20130301.120012-2",
	}
	want := Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0-SNAPSHOT"}
	if got := c.Key(); got != want {
		t.Errorf("Key: %+v", got)
	}
}
