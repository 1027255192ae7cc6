package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/slidedoc"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := "extractor:\n  provider: ollama\n  model: llava\n  base_url: http://localhost:11434\nrestorer:\n  backend: none\n"
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReturnsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts options
		want string
	}{
		{"missing config", options{configPath: filepath.Join(dir, "none.yml")}, "failed to load config"},
		{"missing page", options{configPath: writeConfig(t), pagePaths: filepath.Join(dir, "none.png")}, "failed to read input"},
		{"no pages", options{configPath: writeConfig(t), pagePaths: " , "}, "failed to start session"},
	}

	for _, tt := range tests {
		tt.opts.envPath = filepath.Join(dir, "none.env")
		tt.opts.outDir = dir
		tt.opts.artifacts = []slidedoc.Artifact{slidedoc.TextLayer}
		err := run(logrus.New(), tt.opts)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.want)
		}
	}
}

func TestParseArtifacts(t *testing.T) {
	got, err := parseArtifacts("text, final,")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []slidedoc.Artifact{slidedoc.TextLayer, slidedoc.Final}) {
		t.Errorf("artifacts = %v", got)
	}
	if _, err := parseArtifacts(" , "); err == nil {
		t.Error("empty list accepted")
	}
	if _, err := parseArtifacts("text,poster"); err == nil {
		t.Error("unknown artifact accepted")
	}
}
