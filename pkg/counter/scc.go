package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// sccEntry is one element of scc's JSON array output.
type sccEntry struct {
	Name       string `json:"Name"`
	Count      int    `json:"Count"`
	Blank      int    `json:"Blank"`
	Comment    int    `json:"Comment"`
	Code       int    `json:"Code"`
	Complexity int    `json:"Complexity"`
	Bytes      int64  `json:"Bytes"`
	Lines      int    `json:"Lines"`
}

// sccBackend runs scc, the fast counter. Its output is a JSON array of
// per-language objects with complexity, byte and raw-line counts on top of
// the blank/comment/code/file counts cloc reports.
type sccBackend struct {
	versionOnce sync.Once
	version     string
}

// Name implements Backend.
func (b *sccBackend) Name() string { return ToolScc }

// Count implements Backend by invoking `scc --format json`.
func (b *sccBackend) Count(ctx context.Context, dir string) (map[string]LanguageStats, Meta, error) {
	meta := Meta{Tool: ToolScc, ToolVersion: b.toolVersion(ctx)}

	cmd := exec.CommandContext(ctx, ToolScc,
		"--format", "json",
		"--exclude-dir", strings.Join(excludedDirs, ","),
		dir,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, meta, fmt.Errorf("run scc: %w", err)
	}

	stats, err := parseSccOutput(out)
	if err != nil {
		return nil, meta, err
	}

	return stats, meta, nil
}

// parseSccOutput normalizes scc's JSON array into LanguageStats records.
func parseSccOutput(out []byte) (map[string]LanguageStats, error) {
	var entries []sccEntry

	err := json.Unmarshal(out, &entries)
	if err != nil {
		return nil, fmt.Errorf("parse scc output: %w", err)
	}

	stats := make(map[string]LanguageStats, len(entries))

	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}

		stats[entry.Name] = LanguageStats{
			Files:      entry.Count,
			Blank:      entry.Blank,
			Comment:    entry.Comment,
			Code:       entry.Code,
			Complexity: entry.Complexity,
			Bytes:      entry.Bytes,
			Lines:      entry.Lines,
		}
	}

	return stats, nil
}

// toolVersion probes `scc --version` once per backend instance.
// scc does not report its version in counting output.
func (b *sccBackend) toolVersion(ctx context.Context) string {
	b.versionOnce.Do(func() {
		out, err := exec.CommandContext(ctx, ToolScc, "--version").Output()
		if err != nil {
			return
		}

		fields := strings.Fields(strings.TrimSpace(string(out)))
		if len(fields) > 0 {
			b.version = fields[len(fields)-1]
		}
	})

	return b.version
}
