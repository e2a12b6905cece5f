package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	kbPath     string
}

func setupCLITestEnv(t *testing.T, cacheEnabled bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("LECTERN_KNOWLEDGE_BASE", "")
	t.Setenv("LECTERN_LOG_LEVEL", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		kbPath:     filepath.Join(base, "data", "knowledge.db"),
	}
	contents := fmt.Sprintf(`[paths]
cache_dir = %q
log_dir = %q
knowledge_base = %q

[cache]
enabled = %t

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "cache"), filepath.Join(base, "logs"), env.kbPath, cacheEnabled)
	testsupport.WriteFile(t, env.configPath, []byte(contents))
	return env
}

// writeLectureManifest writes a two-slide lecture with PNG frames and returns
// the manifest path.
func writeLectureManifest(t *testing.T, dir, videoID string) string {
	t.Helper()

	testsupport.WritePNG(t, filepath.Join(dir, videoID, "text.png"),
		testsupport.SlideImage(320, 180, testsupport.TextLines(4)...))
	testsupport.WritePNG(t, filepath.Join(dir, videoID, "diagram.png"),
		testsupport.SlideImage(320, 180, image.Rect(30, 40, 120, 140), image.Rect(200, 40, 290, 140)))

	manifest := fmt.Sprintf(`video_id: %s
title: Optimisation basics
frames:
  - {timestamp: 0, image: %[1]s/text.png, text: Gradient descent updates the weights, confidence: 0.9}
  - {timestamp: 2, image: %[1]s/text.png, text: Gradient descent updates the weights, confidence: 0.9}
  - {timestamp: 40, image: %[1]s/diagram.png, text: "", confidence: 0}
transcript:
  - {start: 1, end: 3, text: we start with gradient descent}
  - {start: 41, end: 44, text: this diagram shows the neural network}
chapters:
  - {name: Foundations, start: 0, end: 90}
`, videoID)
	path := filepath.Join(dir, videoID+".yaml")
	testsupport.WriteFile(t, path, []byte(manifest))
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
