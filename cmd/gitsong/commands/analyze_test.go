package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitsong/internal/config"
	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
	"github.com/Sumatoshi-tech/gitsong/pkg/engine"
	"github.com/Sumatoshi-tech/gitsong/pkg/session"
)

// buildTestSession assembles a two-commit session with Go and Python stats.
func buildTestSession(t *testing.T) *session.AnalysisSession {
	t.Helper()

	meta := counter.Meta{Tool: counter.ToolScc, ToolVersion: "3.3.0"}

	first := session.NewCommitRecord("aaa111", time.Now().Add(-time.Hour), "initial", map[string]counter.LanguageStats{
		"Go": {Files: 2, Code: 100, Bytes: 2048},
	}, meta)
	second := session.NewCommitRecord("bbb222", time.Now(), "add scripts", map[string]counter.LanguageStats{
		"Go":     {Files: 3, Code: 160, Bytes: 3072},
		"Python": {Files: 1, Code: 40, Bytes: 512},
	}, meta)

	return session.Build(
		[]session.CommitRecord{first, second},
		"/tmp/repo", counter.ToolScc, time.Now().UTC(),
	)
}

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{
			Branch:         config.DefaultBranch,
			CounterTool:    config.DefaultCounterTool,
			Output:         "data.json",
			CounterTimeout: config.DefaultCounterTimeout,
		},
	}
}

func TestRenderSummary_Table(t *testing.T) {
	color.NoColor = true

	doc := buildTestSession(t)
	result := &engine.Result{Session: doc, NewCommits: 2}

	var out bytes.Buffer

	ac := &AnalyzeCommand{format: FormatTable}
	require.NoError(t, ac.renderSummary(&out, "/tmp/repo", testConfig(), result, 1500*time.Millisecond))

	rendered := out.String()
	assert.Contains(t, rendered, "2 commits (2 new), 2 languages")
	assert.Contains(t, rendered, "Go")
	assert.Contains(t, rendered, "Python")
	assert.Contains(t, rendered, "80.0%")
	assert.Contains(t, rendered, "session written to data.json")
}

func TestRenderSummary_JSON(t *testing.T) {
	t.Parallel()

	doc := buildTestSession(t)
	result := &engine.Result{Session: doc, NewCommits: 1}

	var out bytes.Buffer

	ac := &AnalyzeCommand{format: FormatJSON}
	require.NoError(t, ac.renderSummary(&out, "/tmp/repo", testConfig(), result, time.Second))

	var summary runSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))

	assert.Equal(t, 2, summary.Commits)
	assert.Equal(t, 1, summary.NewCommits)
	assert.Equal(t, []string{"Go", "Python"}, summary.Languages)
	assert.Equal(t, 200, summary.TotalLines)
	assert.Equal(t, int64(3584), summary.TotalBytes)
}

func TestRenderSummary_YAML(t *testing.T) {
	t.Parallel()

	doc := buildTestSession(t)
	result := &engine.Result{Session: doc}

	var out bytes.Buffer

	ac := &AnalyzeCommand{format: FormatYAML}
	require.NoError(t, ac.renderSummary(&out, "/tmp/repo", testConfig(), result, time.Second))

	assert.Contains(t, out.String(), "commits: 2")
	assert.Contains(t, out.String(), "counterTool: scc")
}

func TestRenderSummary_UnknownFormat(t *testing.T) {
	t.Parallel()

	doc := buildTestSession(t)
	result := &engine.Result{Session: doc}

	ac := &AnalyzeCommand{format: "xml"}
	err := ac.renderSummary(&bytes.Buffer{}, ".", testConfig(), result, time.Second)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRenderSummary_EmptySession(t *testing.T) {
	color.NoColor = true

	doc := session.Build(nil, ".", counter.ToolScc, time.Now())
	result := &engine.Result{Session: doc}

	var out bytes.Buffer

	ac := &AnalyzeCommand{format: FormatTable}
	require.NoError(t, ac.renderSummary(&out, ".", testConfig(), result, time.Second))
	assert.Contains(t, out.String(), "no commits analyzed")
}

func TestAnalyzeCommand_FlagRegistration(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCommand()

	for _, name := range []string{"config", "branch", "tool", "output", "format", "silent", "no-color"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestAnalyzeCommand_InvalidToolOverride(t *testing.T) {
	t.Parallel()

	ac := &AnalyzeCommand{tool: "wc"}

	_, err := ac.loadConfig()
	require.ErrorIs(t, err, config.ErrInvalidCounterTool)
}

// TestAnalyzeCommand_EndToEnd drives the full command against a scripted
// repository. The counter tool is typically absent in CI, which exercises the
// absorbed-failure path: commits are recorded with empty language stats.
func TestAnalyzeCommand_EndToEnd(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	repoDir := t.TempDir()
	mustGit(t, repoDir, "init", "--quiet", "-b", "main")
	mustGit(t, repoDir, "config", "user.email", "test@example.com")
	mustGit(t, repoDir, "config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "main.go"), []byte("package main\n"), 0o600))
	mustGit(t, repoDir, "add", ".")
	mustGit(t, repoDir, "commit", "--quiet", "-m", "initial")

	output := filepath.Join(t.TempDir(), "data.json")

	var stdout, stderr bytes.Buffer

	cmd := NewAnalyzeCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{repoDir, "--output", output, "--format", "json", "--silent"})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.NoError(t, session.ValidateDocument(data))

	var summary runSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 1, summary.Commits)
	assert.Equal(t, output, summary.Output)
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}
